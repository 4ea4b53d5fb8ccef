package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/comfyops/comfy-bootstrap/internal"
)

// runWatch watches the plugin list file and the custom_nodes tree and
// re-runs the plugin reconcile after changes settle. Edits arrive in bursts
// (editors write, rename, chmod), so events are debounced before acting.
func (a *application) runWatch() error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	env, err := internal.FindVenv(a.paths.ComfyUIDir)
	if err != nil {
		return internal.WrapKind(internal.ErrPrerequisiteMissing, err, "no virtual environment; run install first")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := 0
	if _, err := os.Stat(a.paths.PluginList); err == nil {
		// fsnotify on a single file misses atomic-save renames; watch the
		// containing directory and filter instead.
		if err := watcher.Add(filepath.Dir(a.paths.PluginList)); err == nil {
			watched++
		}
	}
	pluginsRoot := filepath.Join(a.paths.ComfyUIDir, internal.CustomNodesDir)
	if err := watcher.Add(pluginsRoot); err == nil {
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("nothing to watch: neither %s nor %s exists", a.paths.PluginList, pluginsRoot)
	}

	debounce := envDuration(internal.DefaultWatchDebounce, internal.WatchDebounceKey)
	fmt.Println(internal.InfoStyle.Render(fmt.Sprintf("Watching for plugin changes (debounce %s). Ctrl+C to stop.", debounce)))
	internal.Log.Info().Str("list", a.paths.PluginList).Str("plugins_root", pluginsRoot).Msg("watch started")

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-a.ctx.Done():
			fmt.Println(internal.InfoStyle.Render("Watch stopped."))
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !a.relevantWatchEvent(event) {
				continue
			}
			internal.Log.Debug().Str("event", event.String()).Msg("change detected")
			pending = true
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			internal.Log.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			fmt.Println(internal.InfoStyle.Render("Change settled, reconciling plugins..."))
			report, err := internal.ReconcilePlugins(a.ctx, a.paths.PluginList, pluginsRoot, env)
			if err != nil {
				fmt.Println(internal.ErrorStyle.Render(err.Error()))
				continue
			}
			internal.PrintPluginReport(report)
			if rerr := report.Err(); rerr != nil {
				fmt.Println(internal.WarningStyle.Render(rerr.Error()))
			}
		}
	}
}

// relevantWatchEvent filters the event stream down to changes that can alter
// the reconciled plugin set.
func (a *application) relevantWatchEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if filepath.Clean(event.Name) == a.paths.PluginList {
		return true
	}
	// Inside custom_nodes, ignore churn from our own capture and log files.
	base := filepath.Base(event.Name)
	if base == internal.ChildStdoutFile || base == internal.ChildStderrFile {
		return false
	}
	return filepath.Dir(event.Name) == filepath.Join(a.paths.ComfyUIDir, internal.CustomNodesDir)
}
