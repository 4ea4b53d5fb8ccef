package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLaunchers(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("asserts POSIX script contents")
	}
	comfyDir := t.TempDir()
	env := fakeVenv(t, comfyDir, VenvDir)

	require.NoError(t, WriteLaunchers(env, comfyDir, 8288))

	run, err := os.ReadFile(filepath.Join(comfyDir, "run_comfyui.sh"))
	require.NoError(t, err)
	assert.Contains(t, string(run), env.Python)
	assert.Contains(t, string(run), MainPyFile)
	assert.Contains(t, string(run), "--port "+strconv.Itoa(8288))

	update, err := os.ReadFile(filepath.Join(comfyDir, "update_comfyui.sh"))
	require.NoError(t, err)
	assert.Contains(t, string(update), "git pull --ff-only")

	for _, name := range []string{"run_comfyui.sh", "update_comfyui.sh"} {
		info, err := os.Stat(filepath.Join(comfyDir, name))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode().Perm()&0o111, "%s must be executable", name)
	}
}

func TestWriteLaunchersOverwritesStale(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("asserts POSIX script contents")
	}
	comfyDir := t.TempDir()
	env := fakeVenv(t, comfyDir, VenvDir)
	runScript := filepath.Join(comfyDir, "run_comfyui.sh")
	require.NoError(t, os.WriteFile(runScript, []byte("#!/bin/sh\n# stale port 9999\n"), 0o755))

	require.NoError(t, WriteLaunchers(env, comfyDir, DefaultPort))

	data, err := os.ReadFile(runScript)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "9999", "launchers are regenerated every run")
}
