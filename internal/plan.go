package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunMode is the reconciliation strategy selected once at the start of a run
// from the observed state of the install target. Mode checks live here, in
// plan construction, not scattered through the components.
type RunMode int

const (
	RunInstall RunMode = iota // target absent: full bootstrap
	RunRepair                 // target present but venv unusable: rebuild environment
	RunUpdate                 // target and venv present: refresh in place
)

func (m RunMode) String() string {
	switch m {
	case RunRepair:
		return "repair"
	case RunUpdate:
		return "update"
	default:
		return "install"
	}
}

// DetermineRunMode classifies the install target.
func DetermineRunMode(comfyDir string) RunMode {
	comfyDir = ExpandUserPath(comfyDir)
	if _, err := os.Stat(comfyDir); os.IsNotExist(err) {
		return RunInstall
	}
	if _, err := FindVenv(comfyDir); err != nil {
		return RunRepair
	}
	return RunUpdate
}

// Options carries everything a reconciliation run needs, threaded explicitly
// instead of read from ambient globals.
type Options struct {
	Mode          Mode
	ComfyDir      string
	RepoURL       string
	PluginList    string
	PythonVersion string
	Port          int
	ModelsRoot    string // empty: skip the manifest step
	WheelURL      string // empty: skip the wheel step
	LogsDir       string
	ProbeInterval time.Duration
	ProbeDeadline time.Duration
	SkipLiveness  bool
}

// Step is one idempotent, independently retryable stage of the plan.
type Step struct {
	Name string
	Run  func(ctx context.Context, st *runState) error
}

// runState is the mutable state handed from step to step.
type runState struct {
	opts  Options
	tools *Tools
	env   *EnvHandle
}

// BuildPlan turns a run mode into the ordered list of steps to execute.
func BuildPlan(mode RunMode, opts Options) []Step {
	steps := []Step{
		{Name: "probe-tools", Run: stepProbeTools},
		{Name: "sync-core", Run: stepSyncCore},
		{Name: "ensure-venv", Run: stepEnsureVenv},
	}

	if mode == RunUpdate {
		// An update refreshes the declared requirements; re-resolving the
		// pinned torch stack every run is pure network cost.
		steps = append(steps, Step{Name: "update-packages", Run: stepUpdatePackages})
	} else {
		steps = append(steps, Step{Name: "core-packages", Run: stepCorePackages})
		if opts.WheelURL != "" {
			steps = append(steps, Step{Name: "extra-wheel", Run: stepExtraWheel})
		}
	}

	steps = append(steps,
		Step{Name: "plugins", Run: stepPlugins},
		Step{Name: "launchers", Run: stepLaunchers},
	)
	if opts.ModelsRoot != "" {
		steps = append(steps, Step{Name: "model-paths", Run: stepModelPaths})
	}
	if opts.Mode == Interactive && !opts.SkipLiveness {
		steps = append(steps, Step{Name: "liveness", Run: stepLiveness})
	}
	return steps
}

// Reconcile selects a run mode, builds its plan, and executes the steps in
// order. The first failing step aborts the run (the plugin step aggregates
// its own per-entry failures before reporting one error).
func Reconcile(ctx context.Context, opts Options) error {
	mode := DetermineRunMode(opts.ComfyDir)
	Log.Info().Str("run_mode", mode.String()).Str("exec_mode", opts.Mode.String()).Str("dir", opts.ComfyDir).Msg("reconciliation started")
	fmt.Println(TitleStyle.Render(fmt.Sprintf("Reconciling ComfyUI (%s)", mode)))

	st := &runState{opts: opts}
	for _, step := range BuildPlan(mode, opts) {
		stepStart := time.Now()
		if err := step.Run(ctx, st); err != nil {
			Log.Error().Err(err).Str("failed_step", step.Name).Msg("reconciliation aborted")
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		Log.Info().Str("completed_step", step.Name).Dur("took", time.Since(stepStart)).Msg("step done")
	}

	Log.Info().Msg("reconciliation complete")
	fmt.Println(SuccessStyle.Render("Reconciliation complete."))
	return nil
}

func stepProbeTools(ctx context.Context, st *runState) error {
	tools, err := CheckTools(ctx, st.opts.Mode, st.opts.PythonVersion)
	if err != nil {
		return err
	}
	st.tools = tools
	return nil
}

func stepSyncCore(ctx context.Context, st *runState) error {
	result, err := Sync(ctx, st.opts.RepoURL, st.opts.ComfyDir)
	if err != nil {
		return err
	}
	fmt.Println(InfoStyle.Render(fmt.Sprintf("ComfyUI %s at %s", result, st.opts.ComfyDir)))
	return nil
}

func stepEnsureVenv(ctx context.Context, st *runState) error {
	env, err := EnsureVenv(ctx, st.tools, st.opts.ComfyDir, st.opts.PythonVersion)
	if err != nil {
		return err
	}
	st.env = env
	return nil
}

func stepCorePackages(ctx context.Context, st *runState) error {
	return ApplyDirectives(ctx, st.env, CoreDirectives(coreRequirements(st.opts.ComfyDir)))
}

func stepUpdatePackages(ctx context.Context, st *runState) error {
	directives := []PackageDirective{{Name: "pip self-upgrade", Args: []string{"-U", "pip"}}}
	if req := coreRequirements(st.opts.ComfyDir); req != "" {
		directives = append(directives, PackageDirective{Name: "core requirements", Args: []string{"-r", req}})
	}
	return ApplyDirectives(ctx, st.env, directives)
}

func stepExtraWheel(ctx context.Context, st *runState) error {
	return InstallExtraWheel(ctx, st.env, st.opts.WheelURL, filepath.Join(ExpandUserPath(st.opts.ComfyDir), "wheels"))
}

func stepPlugins(ctx context.Context, st *runState) error {
	pluginsRoot := filepath.Join(ExpandUserPath(st.opts.ComfyDir), CustomNodesDir)
	report, err := ReconcilePlugins(ctx, st.opts.PluginList, pluginsRoot, st.env)
	if err != nil {
		return err
	}
	return report.Err()
}

func stepLaunchers(ctx context.Context, st *runState) error {
	return WriteLaunchers(st.env, st.opts.ComfyDir, st.opts.Port)
}

func stepModelPaths(ctx context.Context, st *runState) error {
	outputPath := filepath.Join(ExpandUserPath(st.opts.ComfyDir), ManifestFile)
	return EmitModelPaths(st.opts.ModelsRoot, outputPath)
}

func stepLiveness(ctx context.Context, st *runState) error {
	comfyDir := ExpandUserPath(st.opts.ComfyDir)
	spec := ProbeSpec{
		Command:    st.env.Python,
		Args:       []string{"-s", filepath.Join(comfyDir, MainPyFile), "--listen", "127.0.0.1", "--port", fmt.Sprintf("%d", st.opts.Port)},
		WorkDir:    comfyDir,
		URL:        fmt.Sprintf("http://127.0.0.1:%d/", st.opts.Port),
		Interval:   st.opts.ProbeInterval,
		Deadline:   st.opts.ProbeDeadline,
		StdoutPath: filepath.Join(st.opts.LogsDir, ChildStdoutFile),
		StderrPath: filepath.Join(st.opts.LogsDir, ChildStderrFile),
		PidPath:    filepath.Join(st.opts.LogsDir, ComfyUIPidFile),
	}

	result, err := Probe(ctx, spec)
	if err != nil {
		fmt.Println(ErrorStyle.Render("Liveness probe failed."))
		if result.StdoutTail != "" {
			fmt.Println(WarningStyle.Render("--- stdout tail ---"))
			fmt.Println(result.StdoutTail)
		}
		if result.StderrTail != "" {
			fmt.Println(WarningStyle.Render("--- stderr tail ---"))
			fmt.Println(result.StderrTail)
		}
		return err
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("ComfyUI answered %d after %s.", result.StatusCode, result.Elapsed.Round(time.Millisecond))))
	return nil
}

func coreRequirements(comfyDir string) string {
	req := filepath.Join(ExpandUserPath(comfyDir), RequirementsTxt)
	if _, err := os.Stat(req); err != nil {
		fmt.Println(WarningStyle.Render(fmt.Sprintf("requirements.txt not found at %s. Skipping dependency install.", req)))
		return ""
	}
	return req
}
