package internal

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installedPythonVersion reports the major.minor of whatever python the host
// has, or skips the test.
func installedPythonVersion(t *testing.T) string {
	t.Helper()
	for _, name := range PythonExecutables() {
		p, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		out, err := exec.Command(p, "--version").CombinedOutput()
		if err != nil {
			continue
		}
		if m := pythonVersionRe.FindStringSubmatch(string(out)); m != nil {
			return m[1]
		}
	}
	t.Skip("no python installed")
	return ""
}

func TestFindPythonExactVersionMatch(t *testing.T) {
	version := installedPythonVersion(t)

	path, seen := findPython(context.Background(), version)
	assert.NotEmpty(t, path)
	assert.Equal(t, version, seen)
}

func TestFindPythonRejectsVersionMismatch(t *testing.T) {
	actual := installedPythonVersion(t)

	path, seen := findPython(context.Background(), "9.9")
	assert.Empty(t, path, "a wrong-version interpreter must not be returned")
	assert.Equal(t, actual, seen, "the nearest version is reported for the error message")
}

func TestCheckToolsUnattendedVersionMismatchFatal(t *testing.T) {
	if _, err := exec.LookPath(GitCommand); err != nil {
		t.Skip("git not installed")
	}
	installedPythonVersion(t)

	_, err := CheckTools(context.Background(), Unattended, "9.9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrerequisiteMissing)
	assert.Contains(t, err.Error(), "9.9")
}

func TestCheckToolsAcceptsMatchingVersion(t *testing.T) {
	if _, err := exec.LookPath(GitCommand); err != nil {
		t.Skip("git not installed")
	}
	version := installedPythonVersion(t)

	tools, err := CheckTools(context.Background(), Unattended, version)
	require.NoError(t, err)
	assert.NotEmpty(t, tools.GitPath)
	assert.NotEmpty(t, tools.PythonPath)
	assert.Equal(t, version, tools.PythonVer)
}
