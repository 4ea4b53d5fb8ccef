package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const manifestHeader = `# Auto-generated by comfy-bootstrap. Do not edit: this file is
# rewritten in full on every run that regenerates model paths.
`

// EmitModelPaths scans the immediate subdirectories of modelsRoot (hidden
// entries excluded) and writes an extra_model_paths.yaml mapping each
// subdirectory name to its absolute path. The output is regenerated
// wholesale; a previously edited manifest is discarded. A missing modelsRoot
// is a user-input error, not a recoverable condition.
func EmitModelPaths(modelsRoot, outputPath string) error {
	modelsRoot = ExpandUserPath(modelsRoot)

	stat, err := os.Stat(modelsRoot)
	if err != nil || !stat.IsDir() {
		return WrapKind(ErrConfigInputInvalid, err, fmt.Sprintf("models root %s does not exist", modelsRoot))
	}
	absRoot, err := filepath.Abs(modelsRoot)
	if err != nil {
		return WrapKind(ErrConfigInputInvalid, err, "resolving models root")
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return WrapKind(ErrConfigInputInvalid, err, "listing models root")
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	// base_path first, then one entry per category directory. yaml.Node
	// keeps the mapping order; a plain map would not.
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	addMapEntry(mapping, "base_path", yamlPath(absRoot))
	for _, name := range names {
		addMapEntry(mapping, name, yamlPath(filepath.Join(absRoot, name)))
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "comfyui"},
		mapping,
	)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding model paths manifest: %w", err)
	}
	out := append([]byte(manifestHeader), data...)
	if err := os.WriteFile(ExpandUserPath(outputPath), out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	log := WithStep("manifest")
	log.Info().Str("file", outputPath).Int("categories", len(names)).Msg("model paths written")
	return nil
}

func addMapEntry(mapping *yaml.Node, key, value string) {
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}

// yamlPath normalizes a filesystem path for the manifest: forward slashes
// are safe on every platform ComfyUI runs on, backslashes are not.
func yamlPath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
