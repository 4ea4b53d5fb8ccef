package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnvHandle points at the isolated package environment inside an install
// directory. It is a handle, not a guarantee of integrity: a venv left behind
// by an interrupted run is reused as-is and repaired (mostly) by the
// idempotent package re-install.
type EnvHandle struct {
	Root   string // venv directory
	BinDir string // bin (POSIX) or Scripts (Windows)
	Python string // interpreter inside the venv
}

// Environ returns the process environment a package-manager invocation needs
// to operate inside this venv.
func (e *EnvHandle) Environ() []string {
	return append(os.Environ(),
		"VIRTUAL_ENV="+e.Root,
		"PATH="+e.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"),
	)
}

func venvHandle(venvPath string) *EnvHandle {
	h := &EnvHandle{Root: venvPath}
	if runtime.GOOS == "windows" {
		h.BinDir = filepath.Join(venvPath, "Scripts")
		h.Python = filepath.Join(h.BinDir, "python.exe")
	} else {
		h.BinDir = filepath.Join(venvPath, "bin")
		h.Python = filepath.Join(h.BinDir, "python")
	}
	return h
}

// FindVenv returns a handle to an existing venv or .venv under comfyDir, or
// an error if neither holds an interpreter.
func FindVenv(comfyDir string) (*EnvHandle, error) {
	comfyDir = ExpandUserPath(comfyDir)
	for _, venv := range []string{VenvDir, DotVenvDir} {
		h := venvHandle(filepath.Join(comfyDir, venv))
		if stat, err := os.Stat(h.Python); err == nil && !stat.IsDir() {
			return h, nil
		}
	}
	return nil, fmt.Errorf("python executable not found in venv or .venv under %s", comfyDir)
}

// EnsureVenv converges the isolated environment: reuse an existing venv
// untouched, otherwise create one. Creation prefers uv and falls back to the
// interpreter's own venv module.
func EnsureVenv(ctx context.Context, tools *Tools, comfyDir, pythonVersion string) (*EnvHandle, error) {
	comfyDir = ExpandUserPath(comfyDir)
	log := WithStep("venv")
	if h, err := FindVenv(comfyDir); err == nil {
		log.Info().Str("venv", h.Root).Msg("reusing existing environment")
		return h, nil
	}

	venvPath := filepath.Join(comfyDir, VenvDir)

	created := false
	if uvPath, err := LookPathFunc(UVCommand); err == nil {
		log.Info().Str("venv", venvPath).Msg("creating environment with uv")
		args := []string{"venv", "--relocatable", "--python", pythonVersion, venvPath}
		if err := ExecuteCommand(ctx, uvPath, args, comfyDir); err != nil {
			log.Warn().Err(err).Msg("'uv venv' failed, falling back to python -m venv")
		} else {
			created = true
		}
	}
	if !created {
		log.Info().Str("venv", venvPath).Msg("creating environment with python -m venv")
		if err := ExecuteCommand(ctx, tools.PythonPath, []string{"-m", "venv", venvPath}, comfyDir); err != nil {
			return nil, WrapKind(ErrInstallFailure, err, "creating virtual environment")
		}
	}

	h := venvHandle(venvPath)
	if _, err := os.Stat(h.Python); os.IsNotExist(err) {
		return nil, WrapKind(ErrInstallFailure, nil,
			fmt.Sprintf("venv created but no interpreter at %s", h.Python))
	}
	return h, nil
}
