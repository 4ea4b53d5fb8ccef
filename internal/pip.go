package internal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PackageDirective is a declarative install request applied to an isolated
// environment. Re-applying one is a correctness no-op (pip resolves to the
// already-installed state) but not a performance no-op.
type PackageDirective struct {
	Name string   // human-readable label for logs and errors
	Args []string // arguments after "pip install"
}

// CoreDirectives returns the ordered base package set for a ComfyUI install.
// The installer self-upgrade always comes first, and the torch directive pins
// the accelerated index: this must be preserved exactly, not left to default
// resolution.
func CoreDirectives(requirementsPath string) []PackageDirective {
	directives := []PackageDirective{
		{Name: "pip self-upgrade", Args: []string{"-U", "pip"}},
		{Name: "torch (accelerated)", Args: []string{"torch", "torchvision", "torchaudio", "--index-url", TorchIndexURL}},
	}
	if requirementsPath != "" {
		directives = append(directives, PackageDirective{
			Name: "core requirements",
			Args: []string{"-r", requirementsPath},
		})
	}
	return directives
}

// RequirementsDirective builds the cascade directive for a plugin's declared
// dependencies file.
func RequirementsDirective(label, reqFile string) PackageDirective {
	return PackageDirective{Name: label + " requirements", Args: []string{"-r", reqFile}}
}

// WheelDirective installs a single prebuilt wheel file.
func WheelDirective(wheelPath string) PackageDirective {
	return PackageDirective{Name: "prebuilt wheel", Args: []string{wheelPath}}
}

// ApplyDirectives runs each directive sequentially against env. A failure
// aborts the remaining sequence: partial-success continuation would leave the
// environment in a state the next run cannot distinguish from complete.
func ApplyDirectives(ctx context.Context, env *EnvHandle, directives []PackageDirective) error {
	log := WithStep("packages")
	for _, d := range directives {
		log.Info().Str("directive", d.Name).Msg("applying")
		if err := pipInstall(ctx, env, d.Args); err != nil {
			return WrapKind(ErrInstallFailure, err, fmt.Sprintf("applying %s", d.Name))
		}
	}
	return nil
}

// pipInstall prefers uv's pip frontend and falls back to the venv's own pip,
// running either inside the venv context.
func pipInstall(ctx context.Context, env *EnvHandle, args []string) error {
	if uvExec := findUV(env); uvExec != "" {
		if err := runInVenv(ctx, env, uvExec, append([]string{"pip", "install"}, args...)); err == nil {
			return nil
		} else {
			Log.Warn().Err(err).Msg("uv pip install failed, falling back to pip")
		}
	}
	return runInVenv(ctx, env, env.Python, append([]string{"-m", "pip", "install"}, args...))
}

// findUV locates uv inside the venv first, then on PATH.
func findUV(env *EnvHandle) string {
	candidate := filepath.Join(env.BinDir, UVCommand)
	if stat, err := os.Stat(candidate); err == nil && !stat.IsDir() {
		return candidate
	}
	if uvPath, err := LookPathFunc(UVCommand); err == nil {
		return uvPath
	}
	return ""
}

func runInVenv(ctx context.Context, env *EnvHandle, commandName string, args []string) error {
	cmd := exec.CommandContext(ctx, commandName, args...)
	cmd.Dir = filepath.Dir(env.Root)
	cmd.Env = env.Environ()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("'%s %s': %w", commandName, strings.Join(args, " "), err)
	}
	return nil
}
