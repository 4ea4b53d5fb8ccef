package internal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Check is a single diagnostic result.
type Check struct {
	Name        string
	Status      string // "pass", "warn", "fail"
	Message     string
	Suggestions []string
}

// RunChecks inspects the current install state without mutating anything.
// It answers "what would a reconcile run have to do" rather than doing it.
func RunChecks(paths *Paths) []Check {
	var checks []Check

	if !paths.IsConfigured {
		return append(checks, Check{
			Name:    "Configuration",
			Status:  "fail",
			Message: "no ComfyUI path configured",
			Suggestions: []string{
				"Run 'comfy-bootstrap install' to set one up",
				fmt.Sprintf("Or set %s in %s", ComfyUIPathKey, paths.EnvFile),
			},
		})
	}

	comfyDir := ExpandUserPath(paths.ComfyUIDir)
	if _, err := os.Stat(comfyDir); os.IsNotExist(err) {
		checks = append(checks, Check{
			Name:        "Install directory",
			Status:      "fail",
			Message:     fmt.Sprintf("%s does not exist", comfyDir),
			Suggestions: []string{"Run 'comfy-bootstrap install'"},
		})
		return checks
	}
	checks = append(checks, Check{Name: "Install directory", Status: "pass", Message: comfyDir})

	if _, err := os.Stat(filepath.Join(comfyDir, MainPyFile)); os.IsNotExist(err) {
		checks = append(checks, Check{
			Name:        "Entry script",
			Status:      "fail",
			Message:     "main.py not found; clone looks incomplete",
			Suggestions: []string{"Re-run 'comfy-bootstrap install' to converge the clone"},
		})
	} else {
		checks = append(checks, Check{Name: "Entry script", Status: "pass", Message: "main.py present"})
	}

	if env, err := FindVenv(comfyDir); err != nil {
		checks = append(checks, Check{
			Name:        "Virtual environment",
			Status:      "fail",
			Message:     "no usable interpreter in venv or .venv",
			Suggestions: []string{"Re-run 'comfy-bootstrap install' (repair mode rebuilds the venv)"},
		})
	} else {
		checks = append(checks, Check{Name: "Virtual environment", Status: "pass", Message: env.Python})
	}

	checks = append(checks, checkPlugins(comfyDir)...)
	checks = append(checks, checkPidFile(filepath.Join(paths.LogsDir, ComfyUIPidFile)))
	checks = append(checks, checkChildLog(filepath.Join(paths.LogsDir, ChildStderrFile)))
	return checks
}

// checkPidFile spots a probe that died without reclaiming its child, or a
// stale record left by a crash.
func checkPidFile(pidFile string) Check {
	pid, err := ReadPID(pidFile)
	if err != nil {
		return Check{Name: "Probe child", Status: "pass", Message: "no recorded child process"}
	}
	if IsProcessRunning(pid) {
		return Check{
			Name:        "Probe child",
			Status:      "warn",
			Message:     fmt.Sprintf("process %d from a previous probe is still running", pid),
			Suggestions: []string{fmt.Sprintf("Kill it manually, then remove %s", pidFile)},
		}
	}
	CleanupPIDFile(pidFile)
	return Check{Name: "Probe child", Status: "pass", Message: "stale pid record cleaned up"}
}

func checkPlugins(comfyDir string) []Check {
	pluginsRoot := filepath.Join(comfyDir, CustomNodesDir)
	entries, err := os.ReadDir(pluginsRoot)
	if err != nil {
		return []Check{{Name: "Plugins", Status: "warn", Message: "custom_nodes directory not readable"}}
	}

	count := 0
	var broken []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == VenvDir || entry.Name() == DotVenvDir {
			continue
		}
		count++
		if _, err := os.Stat(filepath.Join(pluginsRoot, entry.Name(), "__init__.py")); os.IsNotExist(err) {
			broken = append(broken, entry.Name())
		}
	}

	if len(broken) > 0 {
		return []Check{{
			Name:        "Plugins",
			Status:      "warn",
			Message:     fmt.Sprintf("%d of %d plugins missing __init__.py", len(broken), count),
			Suggestions: []string{"Review: " + strings.Join(broken, ", ")},
		}}
	}
	return []Check{{Name: "Plugins", Status: "pass", Message: fmt.Sprintf("%d plugins look intact", count)}}
}

var errLineRe = regexp.MustCompile(`(?i)error|exception|traceback|modulenotfounderror`)

// checkChildLog scans the captured stderr from the last liveness probe.
func checkChildLog(path string) Check {
	f, err := os.Open(path)
	if err != nil {
		return Check{Name: "Last probe output", Status: "pass", Message: "no capture from a previous probe"}
	}
	defer f.Close()

	errCount := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if errLineRe.MatchString(scanner.Text()) {
			errCount++
		}
	}
	if errCount > 0 {
		return Check{
			Name:        "Last probe output",
			Status:      "warn",
			Message:     fmt.Sprintf("%d error lines in captured stderr", errCount),
			Suggestions: []string{"Inspect " + path},
		}
	}
	return Check{Name: "Last probe output", Status: "pass", Message: "no errors in captured stderr"}
}

// PrintChecks renders the diagnostic results.
func PrintChecks(checks []Check) {
	fmt.Println(TitleStyle.Render("Install Status"))
	for _, check := range checks {
		var line string
		switch check.Status {
		case "pass":
			line = SuccessStyle.Render("✓ " + check.Name)
		case "warn":
			line = WarningStyle.Render("⚠ " + check.Name)
		default:
			line = ErrorStyle.Render("✗ " + check.Name)
		}
		fmt.Printf("  %s: %s\n", line, check.Message)
		if check.Status != "pass" {
			for _, s := range check.Suggestions {
				fmt.Printf("      %s\n", InfoStyle.Render(s))
			}
		}
	}
}
