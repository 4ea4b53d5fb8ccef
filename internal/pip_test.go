package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreDirectivesOrderAndPinnedIndex(t *testing.T) {
	directives := CoreDirectives("/opt/comfy/requirements.txt")
	require.Len(t, directives, 3)

	assert.Equal(t, []string{"-U", "pip"}, directives[0].Args, "installer self-upgrade comes first")

	torch := directives[1]
	assert.Equal(t, []string{"torch", "torchvision", "torchaudio", "--index-url", TorchIndexURL}, torch.Args)
	assert.Contains(t, torch.Args, "https://download.pytorch.org/whl/cu121", "accelerated index must be pinned exactly")

	assert.Equal(t, []string{"-r", "/opt/comfy/requirements.txt"}, directives[2].Args)
}

func TestCoreDirectivesWithoutRequirements(t *testing.T) {
	directives := CoreDirectives("")
	require.Len(t, directives, 2)
	assert.Equal(t, "torch (accelerated)", directives[1].Name)
}

func TestWheelDirective(t *testing.T) {
	d := WheelDirective("/cache/insightface-0.7.3-cp312.whl")
	assert.Equal(t, []string{"/cache/insightface-0.7.3-cp312.whl"}, d.Args)
}

func TestFindUVPrefersVenvBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixture paths are POSIX")
	}
	venv := t.TempDir()
	binDir := filepath.Join(venv, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	uvPath := filepath.Join(binDir, UVCommand)
	require.NoError(t, os.WriteFile(uvPath, []byte("#!/bin/sh\n"), 0o755))

	env := &EnvHandle{Root: venv, BinDir: binDir, Python: filepath.Join(binDir, "python")}
	assert.Equal(t, uvPath, findUV(env), "venv-local uv wins over PATH")
}

func TestFindUVFallsBackToPath(t *testing.T) {
	orig := LookPathFunc
	t.Cleanup(func() { LookPathFunc = orig })

	LookPathFunc = func(name string) (string, error) {
		require.Equal(t, UVCommand, name)
		return "/usr/local/bin/uv", nil
	}
	env := &EnvHandle{Root: t.TempDir(), BinDir: filepath.Join(t.TempDir(), "bin")}
	assert.Equal(t, "/usr/local/bin/uv", findUV(env))

	LookPathFunc = func(name string) (string, error) {
		return "", os.ErrNotExist
	}
	assert.Equal(t, "", findUV(env))
}
