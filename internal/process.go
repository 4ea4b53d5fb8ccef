package internal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// LookPathFunc resolves tool names on PATH. Swappable in tests.
var LookPathFunc = exec.LookPath

// ExecuteCommand runs an external tool in the foreground: it inherits the
// terminal and blocks until completion. Long-lived children with captured
// output go through the liveness prober instead.
func ExecuteCommand(ctx context.Context, commandName string, args []string, workDir string) error {
	if commandName == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if err := validateCommand(commandName); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	cmd := exec.CommandContext(ctx, commandName, args...)
	if workDir != "" {
		cmd.Dir = ExpandUserPath(workDir)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command '%s %s' execution failed: %w", commandName, strings.Join(args, " "), err)
	}
	return nil
}

// validateCommand rejects command names that could smuggle shell syntax.
func validateCommand(cmd string) error {
	if filepath.IsAbs(cmd) {
		info, err := os.Stat(cmd)
		if err != nil {
			return fmt.Errorf("command not found: %s", cmd)
		}
		if info.IsDir() {
			return fmt.Errorf("command path is a directory: %s", cmd)
		}
		if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
			return fmt.Errorf("file is not executable: %s", cmd)
		}
		return nil
	}
	dangerousChars := []string{";", "&", "|", "`", "$", "(", ")", "{", "}", "<", ">", "\n", "\r"}
	for _, char := range dangerousChars {
		if strings.Contains(cmd, char) {
			return fmt.Errorf("command contains dangerous character: %s", char)
		}
	}
	if strings.Contains(cmd, "..") {
		return fmt.Errorf("command contains path traversal sequence")
	}
	return nil
}

// IsProcessRunning checks if a process with the given PID is currently running.
func IsProcessRunning(pid int) bool {
	if pid == 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil { // Can happen on Windows; os.FindProcess never fails on POSIX.
		return false
	}

	if runtime.GOOS == "windows" {
		// FindProcess always succeeds on Windows and signal 0 doesn't work;
		// tasklist is the reliable check.
		cmd := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH", "/FO", "CSV")
		output, err := cmd.Output()
		if err != nil {
			return false
		}
		for _, line := range strings.Split(string(output), "\n") {
			fields := strings.Split(strings.TrimSpace(line), ",")
			if len(fields) >= 2 && strings.Trim(fields[1], "\"") == strconv.Itoa(pid) {
				return true
			}
		}
		return false
	}

	// Signal 0 checks existence and ownership without touching the process.
	return process.Signal(syscall.Signal(0)) == nil
}

// ReadPID reads the process ID from pidFile.
func ReadPID(pidFile string) (int, error) {
	data, err := os.ReadFile(ExpandUserPath(pidFile))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file %s: %w", pidFile, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID value: %d", pid)
	}
	return pid, nil
}

// WritePID writes pid to pidFile.
func WritePID(pid int, pidFile string) error {
	return os.WriteFile(ExpandUserPath(pidFile), []byte(strconv.Itoa(pid)), 0o644)
}

// CleanupPIDFile removes pidFile, tolerating its absence.
func CleanupPIDFile(pidFile string) {
	if err := os.Remove(ExpandUserPath(pidFile)); err != nil && !os.IsNotExist(err) {
		Log.Warn().Err(err).Str("file", pidFile).Msg("failed to remove PID file")
	}
}
