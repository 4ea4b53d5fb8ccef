package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParsePluginList reads a line-oriented plugin list: one repository URL per
// line, blank lines and '#' comments skipped, file order preserved.
func ParsePluginList(r io.Reader) []string {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

// LoadPluginList reads listPath. A missing file is not an error: found is
// false and the plugin step degrades to a no-op with a notice.
func LoadPluginList(listPath string) (urls []string, found bool, err error) {
	f, err := os.Open(ExpandUserPath(listPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	return ParsePluginList(f), true, nil
}

// PluginOutcome records what happened to one list entry.
type PluginOutcome struct {
	URL    string
	Dir    string
	Result SyncResult
	Err    error
}

// PluginReport aggregates per-entry outcomes for a reconcile pass.
type PluginReport struct {
	Outcomes []PluginOutcome
}

// Failed returns the outcomes whose entry did not converge.
func (r *PluginReport) Failed() []PluginOutcome {
	var failed []PluginOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err folds the report into a single error, nil when every entry converged.
func (r *PluginReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, len(failed))
	for i, o := range failed {
		names[i] = o.URL
	}
	return WrapKind(ErrSyncFailure, nil,
		fmt.Sprintf("%d of %d plugins failed to reconcile (%s)", len(failed), len(r.Outcomes), strings.Join(names, ", ")))
}

// ReconcilePlugins synchronizes every entry of the plugin list into
// pluginsRoot and cascades each plugin's declared dependencies into the
// package installer. Failures are isolated per entry and aggregated: one bad
// URL no longer blocks the plugins after it, but the run still fails if any
// entry failed. This is a deliberate departure from halt-on-first-failure.
func ReconcilePlugins(ctx context.Context, listPath, pluginsRoot string, env *EnvHandle) (*PluginReport, error) {
	log := WithStep("plugins")

	urls, found, err := LoadPluginList(listPath)
	if err != nil {
		return nil, WrapKind(ErrSyncFailure, err, "reading plugin list")
	}
	if !found {
		log.Info().Str("list", listPath).Msg("no plugin list found, skipping")
		fmt.Println(InfoStyle.Render(fmt.Sprintf("No plugin list at %s; skipping custom nodes.", listPath)))
		return &PluginReport{}, nil
	}

	if err := os.MkdirAll(ExpandUserPath(pluginsRoot), 0o755); err != nil {
		return nil, WrapKind(ErrSyncFailure, err, "creating plugins directory")
	}

	report := &PluginReport{}
	for _, url := range urls {
		outcome := reconcileOnePlugin(ctx, url, pluginsRoot, env)
		if outcome.Err != nil {
			log.Error().Err(outcome.Err).Str("plugin", url).Msg("plugin failed")
			fmt.Println(ErrorStyle.Render(fmt.Sprintf("Plugin %s failed: %v", url, outcome.Err)))
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func reconcileOnePlugin(ctx context.Context, url, pluginsRoot string, env *EnvHandle) PluginOutcome {
	outcome := PluginOutcome{URL: url}

	name, err := DeriveDirName(url)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Dir = filepath.Join(ExpandUserPath(pluginsRoot), name)

	outcome.Result, err = Sync(ctx, url, outcome.Dir)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	reqFile := filepath.Join(outcome.Dir, RequirementsTxt)
	if _, err := os.Stat(reqFile); err == nil {
		if err := ApplyDirectives(ctx, env, []PackageDirective{RequirementsDirective(name, reqFile)}); err != nil {
			outcome.Err = err
		}
	}
	return outcome
}

// PrintPluginReport renders a per-entry summary of a reconcile pass.
func PrintPluginReport(report *PluginReport) {
	if len(report.Outcomes) == 0 {
		return
	}
	fmt.Println(TitleStyle.Render("Plugin Reconcile Summary"))
	for _, o := range report.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Printf("  %s %s: %v\n", ErrorStyle.Render("✗"), o.URL, o.Err)
		case o.Result == SyncCloned:
			fmt.Printf("  %s %s (cloned)\n", SuccessStyle.Render("✓"), o.URL)
		default:
			fmt.Printf("  %s %s (updated)\n", SuccessStyle.Render("✓"), o.URL)
		}
	}
}
