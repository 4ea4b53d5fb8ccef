package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func baseOptions() Options {
	return Options{
		Mode:          Interactive,
		ComfyDir:      "/tmp/comfy",
		RepoURL:       ComfyUIRepoURL,
		PythonVersion: DefaultPythonVersion,
		Port:          DefaultPort,
		ProbeInterval: DefaultProbeInterval,
		ProbeDeadline: DefaultProbeDeadline,
	}
}

func TestBuildPlanInstall(t *testing.T) {
	plan := BuildPlan(RunInstall, baseOptions())
	assert.Equal(t, []string{
		"probe-tools", "sync-core", "ensure-venv", "core-packages",
		"plugins", "launchers", "liveness",
	}, stepNames(plan))
}

func TestBuildPlanUpdateSkipsTorchReinstall(t *testing.T) {
	plan := BuildPlan(RunUpdate, baseOptions())
	names := stepNames(plan)
	assert.Contains(t, names, "update-packages")
	assert.NotContains(t, names, "core-packages")
	assert.NotContains(t, names, "extra-wheel")
}

func TestBuildPlanRepairMatchesInstall(t *testing.T) {
	assert.Equal(t, stepNames(BuildPlan(RunInstall, baseOptions())), stepNames(BuildPlan(RunRepair, baseOptions())))
}

func TestBuildPlanOptionalSteps(t *testing.T) {
	opts := baseOptions()
	opts.WheelURL = "https://example.com/pkg.whl"
	opts.ModelsRoot = "/srv/models"
	names := stepNames(BuildPlan(RunInstall, opts))
	assert.Contains(t, names, "extra-wheel")
	assert.Contains(t, names, "model-paths")

	wheelIdx, pluginsIdx := -1, -1
	for i, n := range names {
		switch n {
		case "extra-wheel":
			wheelIdx = i
		case "plugins":
			pluginsIdx = i
		}
	}
	assert.Less(t, wheelIdx, pluginsIdx, "wheel installs before plugins cascade their requirements")
}

func TestBuildPlanUnattendedSkipsLiveness(t *testing.T) {
	opts := baseOptions()
	opts.Mode = Unattended
	assert.NotContains(t, stepNames(BuildPlan(RunInstall, opts)), "liveness")

	opts = baseOptions()
	opts.SkipLiveness = true
	assert.NotContains(t, stepNames(BuildPlan(RunInstall, opts)), "liveness")
}

func TestDetermineRunMode(t *testing.T) {
	assert.Equal(t, RunInstall, DetermineRunMode(filepath.Join(t.TempDir(), "absent")))

	// Present but no venv: repair.
	bare := t.TempDir()
	assert.Equal(t, RunRepair, DetermineRunMode(bare))

	// Present with a usable venv interpreter: update.
	full := t.TempDir()
	binDir := "bin"
	python := "python"
	if runtime.GOOS == "windows" {
		binDir, python = "Scripts", "python.exe"
	}
	require.NoError(t, os.MkdirAll(filepath.Join(full, VenvDir, binDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, VenvDir, binDir, python), []byte("#!/bin/sh\n"), 0o755))
	assert.Equal(t, RunUpdate, DetermineRunMode(full))
}

func TestRunModeString(t *testing.T) {
	assert.Equal(t, "install", RunInstall.String())
	assert.Equal(t, "repair", RunRepair.String())
	assert.Equal(t, "update", RunUpdate.String())
}

func TestCoreRequirementsMissingFile(t *testing.T) {
	assert.Equal(t, "", coreRequirements(filepath.Join(t.TempDir(), "absent")))

	dir := t.TempDir()
	req := filepath.Join(dir, RequirementsTxt)
	require.NoError(t, os.WriteFile(req, []byte("torch\n"), 0o644))
	assert.Equal(t, req, coreRequirements(dir))
}
