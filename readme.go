package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"

	"github.com/comfyops/comfy-bootstrap/internal"
)

// runReadme lists the synced plugins and renders the chosen one's README in
// the terminal.
func (a *application) runReadme() error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	pluginsRoot := filepath.Join(a.paths.ComfyUIDir, internal.CustomNodesDir)
	names, err := installedPlugins(pluginsRoot)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println(internal.InfoStyle.Render("No plugins installed yet."))
		return nil
	}

	name := names[0]
	if a.mode == internal.Interactive && len(names) > 1 {
		opts := make([]huh.Option[string], len(names))
		for i, n := range names {
			opts[i] = huh.NewOption(n, n)
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().Title("Which plugin?").Options(opts...).Value(&name),
		)).WithTheme(huh.ThemeCharm())
		if err := form.Run(); err != nil {
			return nil
		}
	}

	readmePath, ok := findReadme(filepath.Join(pluginsRoot, name))
	if !ok {
		fmt.Println(internal.WarningStyle.Render(name + " has no README."))
		return nil
	}
	content, err := os.ReadFile(readmePath)
	if err != nil {
		return err
	}
	rendered, err := glamour.Render(string(content), "dark")
	if err != nil {
		// Fall back to the raw markdown rather than failing the command.
		fmt.Println(string(content))
		return nil
	}
	fmt.Println(rendered)
	return nil
}

func installedPlugins(pluginsRoot string) ([]string, error) {
	entries, err := os.ReadDir(pluginsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != "__pycache__" {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func findReadme(dir string) (string, bool) {
	for _, candidate := range []string{"README.md", "readme.md", "Readme.md", "README.MD"} {
		p := filepath.Join(dir, candidate)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
