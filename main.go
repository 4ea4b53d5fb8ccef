// Copyright (C) 2025 Regi Ellis
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/comfyops/comfy-bootstrap/internal"
)

func main() {
	paths, err := internal.ResolvePaths()
	if err != nil {
		fmt.Println(internal.ErrorStyle.Render("Failed to resolve working paths: " + err.Error()))
		os.Exit(1)
	}

	closer, err := internal.InitTranscript(paths.LogsDir, os.Getenv(internal.VerboseKey) != "")
	if err != nil {
		fmt.Println(internal.ErrorStyle.Render("Failed to open run transcript: " + err.Error()))
		os.Exit(1)
	}
	defer closer.Close()

	mode := internal.DetectMode()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &application{paths: paths, mode: mode, ctx: ctx}
	router := internal.NewCLIRouter()
	app.registerCommands(router)

	routed, err := router.Route(os.Args)
	if err != nil {
		internal.Log.Error().Err(err).Msg("command failed")
		fmt.Println(internal.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
	if routed {
		return
	}

	// No command given. Unattended runs default to a full reconcile;
	// interactive runs get the menu.
	if mode == internal.Unattended {
		if err := app.runReconcile(); err != nil {
			fmt.Println(internal.ErrorStyle.Render(err.Error()))
			os.Exit(1)
		}
		return
	}
	if err := internal.ShowMainMenu(internal.MenuChoices{
		Install:  app.runReconcile,
		Update:   app.runUpdate,
		Models:   app.runModelPaths,
		Check:    app.runLiveness,
		Status:   app.runStatus,
		Watch:    app.runWatch,
		Readme:   app.runReadme,
		ShowHelp: router.ShowHelp,
	}); err != nil {
		fmt.Println(internal.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// application binds command handlers to the resolved paths and run context.
type application struct {
	paths *internal.Paths
	mode  internal.Mode
	ctx   context.Context
}

func (a *application) registerCommands(router *internal.CLIRouter) {
	router.RegisterCommand(&internal.Command{
		Name: "install", Aliases: []string{"reconcile", "repair"},
		Description: "Install ComfyUI or converge an existing install",
		Category:    "Reconciliation", Handler: a.runReconcile,
	})
	router.RegisterCommand(&internal.Command{
		Name: "update", Aliases: []string{"up"},
		Description: "Update ComfyUI and refresh its requirements",
		Category:    "Reconciliation", Handler: a.runUpdate,
	})
	router.RegisterCommand(&internal.Command{
		Name: "plugins", Aliases: []string{"nodes"},
		Description: "Reconcile the declared plugin set only",
		Category:    "Reconciliation", Handler: a.runPlugins,
	})
	router.RegisterCommand(&internal.Command{
		Name: "models", Aliases: []string{"paths"},
		Description: "Regenerate the extra model paths manifest",
		Category:    "Configuration", Handler: a.runModelPaths,
	})
	router.RegisterCommand(&internal.Command{
		Name: "check", Aliases: []string{"liveness"},
		Description: "Start ComfyUI and verify it answers HTTP",
		Category:    "Diagnostics", Handler: a.runLiveness,
	})
	router.RegisterCommand(&internal.Command{
		Name: "status", Aliases: []string{"doctor"},
		Description: "Inspect the install without changing it",
		Category:    "Diagnostics", Handler: a.runStatus,
	})
	router.RegisterCommand(&internal.Command{
		Name:        "watch",
		Description: "Watch the plugin list and re-reconcile on change",
		Category:    "Diagnostics", Handler: a.runWatch,
	})
	router.RegisterCommand(&internal.Command{
		Name:        "readme",
		Description: "Render an installed plugin's README",
		Category:    "Diagnostics", Handler: a.runReadme,
	})
	router.RegisterCommand(&internal.Command{
		Name: "help", Aliases: []string{"--help", "-h"},
		Description: "Show this help",
		Category:    "Diagnostics", Handler: func() error { router.ShowHelp(); return nil },
	})
}

// ensureConfigured prompts for an install directory on first run. Unattended
// runs cannot prompt and fail instead.
func (a *application) ensureConfigured() error {
	if a.paths.IsConfigured {
		return nil
	}
	if a.mode == internal.Unattended {
		return internal.WrapKind(internal.ErrConfigInputInvalid, fmt.Errorf("%s is not set", internal.ComfyUIPathKey), "no install directory configured")
	}
	home, _ := os.UserHomeDir()
	dir, err := internal.PromptForDirectory(a.mode, "Where should ComfyUI live?", filepath.Join(home, "ComfyUI"))
	if err != nil {
		return err
	}
	if dir == "" {
		return internal.WrapKind(internal.ErrConfigInputInvalid, fmt.Errorf("empty path"), "no install directory chosen")
	}
	if err := a.paths.SetComfyUIDir(dir); err != nil {
		return err
	}
	fmt.Println(internal.SuccessStyle.Render("Saved install directory to " + a.paths.EnvFile))
	return nil
}

// buildOptions assembles a reconciliation Options from the environment,
// falling back to defaults for anything unset.
func (a *application) buildOptions() internal.Options {
	return internal.Options{
		Mode:          a.mode,
		ComfyDir:      a.paths.ComfyUIDir,
		RepoURL:       envOr(internal.ComfyUIRepoURL, internal.RepoURLKey),
		PluginList:    a.paths.PluginList,
		PythonVersion: envOr(internal.DefaultPythonVersion, internal.PythonVersionKey),
		Port:          envInt(internal.DefaultPort, internal.PortKey),
		ModelsRoot:    os.Getenv(internal.ModelsRootKey),
		WheelURL:      os.Getenv(internal.ExtraWheelKey),
		LogsDir:       a.paths.LogsDir,
		ProbeInterval: envDuration(internal.DefaultProbeInterval, internal.ProbeIntervalKey),
		ProbeDeadline: envDuration(internal.DefaultProbeDeadline, internal.ProbeDeadlineKey),
	}
}

func (a *application) runReconcile() error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	return internal.Reconcile(a.ctx, a.buildOptions())
}

// runUpdate forces the in-place refresh path even when the venv would
// otherwise trigger a repair.
func (a *application) runUpdate() error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	opts := a.buildOptions()
	if internal.DetermineRunMode(opts.ComfyDir) == internal.RunInstall {
		return internal.WrapKind(internal.ErrConfigInputInvalid, fmt.Errorf("%s does not exist", opts.ComfyDir), "nothing to update")
	}
	return internal.Reconcile(a.ctx, opts)
}

func (a *application) runPlugins() error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	env, err := internal.FindVenv(a.paths.ComfyUIDir)
	if err != nil {
		return internal.WrapKind(internal.ErrPrerequisiteMissing, err, "no virtual environment; run install first")
	}
	pluginsRoot := filepath.Join(a.paths.ComfyUIDir, internal.CustomNodesDir)
	report, err := internal.ReconcilePlugins(a.ctx, a.paths.PluginList, pluginsRoot, env)
	if err != nil {
		return err
	}
	internal.PrintPluginReport(report)
	return report.Err()
}

func (a *application) runModelPaths() error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	modelsRoot := os.Getenv(internal.ModelsRootKey)
	if modelsRoot == "" {
		var err error
		modelsRoot, err = internal.PromptForDirectory(a.mode, "Where is your shared models directory?", "")
		if err != nil {
			return err
		}
		if modelsRoot == "" {
			return internal.WrapKind(internal.ErrConfigInputInvalid, fmt.Errorf("%s is not set", internal.ModelsRootKey), "no models root given")
		}
	}
	outputPath := filepath.Join(a.paths.ComfyUIDir, internal.ManifestFile)
	if _, err := os.Stat(outputPath); err == nil {
		if !internal.Confirm(a.mode, "Overwrite existing "+internal.ManifestFile+"?", true) {
			fmt.Println(internal.InfoStyle.Render("Keeping the existing manifest."))
			return nil
		}
	}
	if err := internal.EmitModelPaths(modelsRoot, outputPath); err != nil {
		return err
	}
	fmt.Println(internal.SuccessStyle.Render("Wrote " + outputPath))
	return nil
}

func (a *application) runLiveness() error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	opts := a.buildOptions()
	env, err := internal.FindVenv(opts.ComfyDir)
	if err != nil {
		return internal.WrapKind(internal.ErrPrerequisiteMissing, err, "no virtual environment; run install first")
	}
	spec := internal.ProbeSpec{
		Command:    env.Python,
		Args:       []string{"-s", filepath.Join(opts.ComfyDir, internal.MainPyFile), "--listen", "127.0.0.1", "--port", strconv.Itoa(opts.Port)},
		WorkDir:    opts.ComfyDir,
		URL:        fmt.Sprintf("http://127.0.0.1:%d/", opts.Port),
		Interval:   opts.ProbeInterval,
		Deadline:   opts.ProbeDeadline,
		StdoutPath: filepath.Join(opts.LogsDir, internal.ChildStdoutFile),
		StderrPath: filepath.Join(opts.LogsDir, internal.ChildStderrFile),
		PidPath:    filepath.Join(opts.LogsDir, internal.ComfyUIPidFile),
	}
	result, err := internal.Probe(a.ctx, spec)
	if err != nil {
		fmt.Println(internal.ErrorStyle.Render("Liveness probe failed: " + err.Error()))
		if result.StderrTail != "" {
			fmt.Println(internal.WarningStyle.Render("--- stderr tail ---"))
			fmt.Println(result.StderrTail)
		}
		return err
	}
	fmt.Println(internal.SuccessStyle.Render(fmt.Sprintf("ComfyUI answered %d after %s.", result.StatusCode, result.Elapsed.Round(time.Millisecond))))
	return nil
}

func (a *application) runStatus() error {
	internal.PrintChecks(internal.RunChecks(a.paths))
	return nil
}

func envOr(def string, key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(def int, key string) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		fmt.Println(internal.WarningStyle.Render(fmt.Sprintf("Ignoring invalid %s=%q", key, v)))
	}
	return def
}

func envDuration(def time.Duration, key string) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		fmt.Println(internal.WarningStyle.Render(fmt.Sprintf("Ignoring invalid %s=%q", key, v)))
	}
	return def
}
