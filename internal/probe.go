package internal

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
)

// Tools describes the external collaborators a run verified before starting.
type Tools struct {
	GitPath    string
	PythonPath string
	PythonVer  string // "major.minor" actually reported by the interpreter
}

var pythonVersionRe = regexp.MustCompile(`Python (\d+\.\d+)`)

// PythonExecutables returns the interpreter names to probe, most specific first.
func PythonExecutables() []string {
	if runtime.GOOS == "windows" {
		return []string{"python.exe", "python3.exe"}
	}
	return []string{Python3Command, PythonCommand}
}

// CheckTools verifies the version-control client and an interpreter of the
// required major.minor version. In unattended mode a missing tool is fatal:
// the environment is assumed pre-provisioned by the caller. In interactive
// mode a missing or mismatched interpreter triggers one best-effort install
// through the platform package manager before the re-probe.
func CheckTools(ctx context.Context, mode Mode, wantPython string) (*Tools, error) {
	gitPath, err := exec.LookPath(GitCommand)
	if err != nil {
		return nil, WrapKind(ErrPrerequisiteMissing, err, "git is not installed or not found in PATH")
	}

	tools := &Tools{GitPath: gitPath}
	path, seen := findPython(ctx, wantPython)
	if path != "" {
		tools.PythonPath, tools.PythonVer = path, wantPython
		return tools, nil
	}

	// A wrong-version interpreter counts as absent: accepting it would
	// trade a clear failure now for a broken package resolve later.
	missing := fmt.Sprintf("python %s not found", wantPython)
	if seen != "" {
		missing = fmt.Sprintf("python %s required but only %s found", wantPython, seen)
	}

	if mode == Unattended {
		return nil, WrapKind(ErrPrerequisiteMissing, nil,
			missing+" and unattended runs never install tools")
	}

	// One acquisition attempt, then a single re-probe.
	if err := acquirePython(ctx, wantPython); err != nil {
		Log.Warn().Err(err).Msg("automatic python acquisition failed")
	}
	path, seen = findPython(ctx, wantPython)
	if path == "" {
		if seen != "" {
			return nil, WrapKind(ErrPrerequisiteMissing, nil,
				fmt.Sprintf("python %s still not found after install attempt (nearest is %s)", wantPython, seen))
		}
		return nil, WrapKind(ErrPrerequisiteMissing, nil,
			fmt.Sprintf("python %s still not found after install attempt", wantPython))
	}
	tools.PythonPath, tools.PythonVer = path, wantPython
	return tools, nil
}

// findPython probes the usual interpreter names for one reporting the wanted
// major.minor version. An empty path means no interpreter matched; seen then
// carries the version of whatever python did answer, for the error message.
func findPython(ctx context.Context, want string) (path, seen string) {
	for _, name := range PythonExecutables() {
		p, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		out, err := exec.CommandContext(ctx, p, "--version").CombinedOutput()
		if err != nil {
			continue
		}
		m := pythonVersionRe.FindStringSubmatch(string(out))
		if m == nil {
			continue
		}
		if m[1] == want {
			return p, m[1]
		}
		if seen == "" {
			seen = m[1]
		}
	}
	return "", seen
}

// acquirePython shells out to the platform package manager. Only Windows has
// a dependable one (winget); elsewhere the user is told what to install.
func acquirePython(ctx context.Context, version string) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("no package manager integration for %s; install python %s manually", runtime.GOOS, version)
	}
	wingetPath, err := exec.LookPath(WingetCommand)
	if err != nil {
		return fmt.Errorf("winget not available: %w", err)
	}
	pkg := "Python.Python." + version
	Log.Info().Str("package", pkg).Msg("installing python via winget")
	err = ExecuteCommand(ctx, wingetPath, []string{"install", "--exact", "--id", pkg, "--silent", "--accept-package-agreements", "--accept-source-agreements"}, "")
	return err
}
