package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePluginList(t *testing.T) {
	input := `
# core nodes
https://github.com/ltdrdata/ComfyUI-Manager.git

https://github.com/cubiq/ComfyUI_IPAdapter_plus
  # indented comment
   https://github.com/Fannovel16/comfyui_controlnet_aux.git
`
	urls := ParsePluginList(strings.NewReader(input))
	assert.Equal(t, []string{
		"https://github.com/ltdrdata/ComfyUI-Manager.git",
		"https://github.com/cubiq/ComfyUI_IPAdapter_plus",
		"https://github.com/Fannovel16/comfyui_controlnet_aux.git",
	}, urls, "order must follow the file, comments and blanks skipped")
}

func TestParsePluginListEmpty(t *testing.T) {
	urls := ParsePluginList(strings.NewReader("\n# nothing here\n\n"))
	assert.Empty(t, urls)
}

func TestLoadPluginListMissingFile(t *testing.T) {
	urls, found, err := LoadPluginList(filepath.Join(t.TempDir(), "no-such-list.txt"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, urls)
}

func TestLoadPluginListPresent(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, PluginListFile)
	require.NoError(t, os.WriteFile(listPath, []byte("https://example.com/a.git\n"), 0o644))

	urls, found, err := LoadPluginList(listPath)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"https://example.com/a.git"}, urls)
}

func TestPluginReportErr(t *testing.T) {
	report := &PluginReport{Outcomes: []PluginOutcome{
		{URL: "https://example.com/ok.git"},
		{URL: "https://example.com/broken.git", Err: errors.New("clone failed")},
		{URL: "https://example.com/also-ok.git"},
	}}

	require.Len(t, report.Failed(), 1)
	err := report.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyncFailure))
	assert.Contains(t, err.Error(), "1 of 3")
	assert.Contains(t, err.Error(), "broken.git")
}

func TestReconcilePluginsIsolatesFailures(t *testing.T) {
	first := makeUpstream(t, "node-first")
	second := makeUpstream(t, "node-second")
	badURL := filepath.Join(t.TempDir(), "no-such-repo")

	listPath := filepath.Join(t.TempDir(), PluginListFile)
	list := strings.Join([]string{first, badURL, second}, "\n") + "\n"
	require.NoError(t, os.WriteFile(listPath, []byte(list), 0o644))

	pluginsRoot := filepath.Join(t.TempDir(), CustomNodesDir)
	report, err := ReconcilePlugins(context.Background(), listPath, pluginsRoot, nil)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)

	// The bad entry fails alone; the entry after it still converges.
	assert.NoError(t, report.Outcomes[0].Err)
	assert.Error(t, report.Outcomes[1].Err)
	assert.NoError(t, report.Outcomes[2].Err)
	assert.DirExists(t, filepath.Join(pluginsRoot, "node-first"))
	assert.DirExists(t, filepath.Join(pluginsRoot, "node-second"))

	aggregate := report.Err()
	require.Error(t, aggregate)
	assert.ErrorIs(t, aggregate, ErrSyncFailure)
	assert.Contains(t, aggregate.Error(), "1 of 3")
}

func TestReconcilePluginsMissingListIsNoop(t *testing.T) {
	report, err := ReconcilePlugins(context.Background(),
		filepath.Join(t.TempDir(), PluginListFile), filepath.Join(t.TempDir(), CustomNodesDir), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.NoError(t, report.Err())
}

func TestPluginReportErrAllConverged(t *testing.T) {
	report := &PluginReport{Outcomes: []PluginOutcome{
		{URL: "https://example.com/a.git"},
		{URL: "https://example.com/b.git"},
	}}
	assert.NoError(t, report.Err())
}
