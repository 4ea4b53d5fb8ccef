package internal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeVenv(t *testing.T, comfyDir, venvName string) *EnvHandle {
	t.Helper()
	binDir, python := "bin", "python"
	if runtime.GOOS == "windows" {
		binDir, python = "Scripts", "python.exe"
	}
	require.NoError(t, os.MkdirAll(filepath.Join(comfyDir, venvName, binDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(comfyDir, venvName, binDir, python), []byte("#!/bin/sh\n"), 0o755))
	return venvHandle(filepath.Join(comfyDir, venvName))
}

func TestFindVenvPrefersVenvOverDotVenv(t *testing.T) {
	comfyDir := t.TempDir()
	fakeVenv(t, comfyDir, DotVenvDir)
	want := fakeVenv(t, comfyDir, VenvDir)

	got, err := FindVenv(comfyDir)
	require.NoError(t, err)
	assert.Equal(t, want.Root, got.Root)
}

func TestFindVenvFallsBackToDotVenv(t *testing.T) {
	comfyDir := t.TempDir()
	want := fakeVenv(t, comfyDir, DotVenvDir)

	got, err := FindVenv(comfyDir)
	require.NoError(t, err)
	assert.Equal(t, want.Root, got.Root)
	assert.Equal(t, want.Python, got.Python)
}

func TestEnsureVenvReusesExisting(t *testing.T) {
	comfyDir := t.TempDir()
	existing := fakeVenv(t, comfyDir, VenvDir)

	// With a usable venv present, no external tool runs: the handle comes
	// back as-is even with tools that could never create one.
	got, err := EnsureVenv(context.Background(), &Tools{PythonPath: "/nonexistent/python"}, comfyDir, DefaultPythonVersion)
	require.NoError(t, err)
	assert.Equal(t, existing.Root, got.Root)
	assert.Equal(t, existing.Python, got.Python)
}

func TestFindVenvMissing(t *testing.T) {
	_, err := FindVenv(t.TempDir())
	assert.Error(t, err)
}

func TestEnvHandleEnviron(t *testing.T) {
	h := venvHandle(filepath.Join(t.TempDir(), VenvDir))
	environ := h.Environ()

	var virtualEnv, pathVar string
	for _, kv := range environ {
		if strings.HasPrefix(kv, "VIRTUAL_ENV=") {
			virtualEnv = strings.TrimPrefix(kv, "VIRTUAL_ENV=")
		}
		if strings.HasPrefix(kv, "PATH=") {
			pathVar = strings.TrimPrefix(kv, "PATH=")
		}
	}
	assert.Equal(t, h.Root, virtualEnv)
	assert.True(t, strings.HasPrefix(pathVar, h.BinDir), "venv bin dir must shadow the system PATH")
}
