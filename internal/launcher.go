package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// WriteLaunchers regenerates the small helper scripts that start or update
// the installation without this tool. They are overwritten on every run so
// they always reflect the current venv and port.
func WriteLaunchers(env *EnvHandle, comfyDir string, port int) error {
	comfyDir = ExpandUserPath(comfyDir)
	mainPy := filepath.Join(comfyDir, MainPyFile)

	var runName, updateName, runBody, updateBody string
	if runtime.GOOS == "windows" {
		runName, updateName = "run_comfyui.bat", "update_comfyui.bat"
		runBody = fmt.Sprintf("@echo off\r\n\"%s\" \"%s\" --listen --port %d\r\n", env.Python, mainPy, port)
		updateBody = fmt.Sprintf("@echo off\r\ncd /d \"%s\"\r\ngit pull --ff-only\r\n\"%s\" -m pip install -r requirements.txt\r\n", comfyDir, env.Python)
	} else {
		runName, updateName = "run_comfyui.sh", "update_comfyui.sh"
		runBody = fmt.Sprintf("#!/bin/sh\nexec %s %s --listen --port %d\n", shellQuote(env.Python), shellQuote(mainPy), port)
		updateBody = fmt.Sprintf("#!/bin/sh\ncd %s || exit 1\ngit pull --ff-only\n%s -m pip install -r requirements.txt\n", shellQuote(comfyDir), shellQuote(env.Python))
	}

	for name, body := range map[string]string{runName: runBody, updateName: updateBody} {
		if err := os.WriteFile(filepath.Join(comfyDir, name), []byte(body), 0o755); err != nil {
			return fmt.Errorf("writing launcher %s: %w", name, err)
		}
	}
	log := WithStep("launchers")
	log.Info().Str("dir", comfyDir).Msg("launcher scripts regenerated")
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
