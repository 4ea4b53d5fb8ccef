package internal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	assert.NoError(t, validateCommand("git"))
	assert.NoError(t, validateCommand("python3"))

	for _, bad := range []string{"git; rm -rf /", "python && true", "a|b", "`id`", "../../bin/sh"} {
		assert.Error(t, validateCommand(bad), bad)
	}
}

func TestExecuteCommandForeground(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixture uses a POSIX binary")
	}
	require.NoError(t, ExecuteCommand(context.Background(), "true", nil, ""))

	err := ExecuteCommand(context.Background(), "false", nil, "")
	assert.Error(t, err, "non-zero exit propagates")
}

func TestExecuteCommandEmptyName(t *testing.T) {
	assert.Error(t, ExecuteCommand(context.Background(), "", nil, ""))
}

func TestPIDRoundTrip(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), ComfyUIPidFile)
	require.NoError(t, WritePID(4242, pidFile))

	pid, err := ReadPID(pidFile)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	CleanupPIDFile(pidFile)
	_, err = ReadPID(pidFile)
	assert.Error(t, err)
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), ComfyUIPidFile)
	require.NoError(t, os.WriteFile(pidFile, []byte("not-a-pid"), 0o644))
	_, err := ReadPID(pidFile)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(pidFile, []byte("-5"), 0o644))
	_, err = ReadPID(pidFile)
	assert.Error(t, err)
}

func TestIsProcessRunning(t *testing.T) {
	assert.False(t, IsProcessRunning(0))
	assert.True(t, IsProcessRunning(os.Getpid()))
}
