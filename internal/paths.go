package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
)

// Paths holds every filesystem location the bootstrapper works with,
// resolved once at startup.
type Paths struct {
	CliDir       string
	EnvFile      string
	ComfyUIDir   string
	PluginList   string
	LogsDir      string
	Transcript   string
	IsConfigured bool
}

// ResolvePaths loads the .env file next to the binary (if any) and derives
// all working paths from it. A missing .env or COMFYUI_PATH is not an error;
// it just leaves IsConfigured false so the caller can run the install flow.
func ResolvePaths() (*Paths, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	cliDir := filepath.Dir(exePath)

	p := &Paths{
		CliDir:  cliDir,
		EnvFile: filepath.Join(cliDir, EnvFileName),
	}
	if _, err := os.Stat(p.EnvFile); err == nil {
		_ = godotenv.Load(p.EnvFile)
	}

	comfyDir := strings.TrimSpace(os.Getenv(ComfyUIPathKey))
	if comfyDir != "" {
		p.ComfyUIDir = ExpandUserPath(comfyDir)
		p.IsConfigured = true
	}

	listFile := strings.TrimSpace(os.Getenv(PluginListKey))
	if listFile == "" {
		listFile = filepath.Join(cliDir, PluginListFile)
	}
	p.PluginList = ExpandUserPath(listFile)

	p.LogsDir = filepath.Join(cliDir, LogsDir)
	p.Transcript = filepath.Join(p.LogsDir, TranscriptLogFile)
	return p, nil
}

// SetComfyUIDir points the paths at a chosen installation directory and
// persists the choice to .env.
func (p *Paths) SetComfyUIDir(dir string) error {
	dir = ExpandUserPath(dir)
	p.ComfyUIDir = dir
	p.IsConfigured = true
	return UpdateEnvFile(p.EnvFile, map[string]string{ComfyUIPathKey: dir})
}

// ExpandUserPath replaces {HOME} and {USERPROFILE} with the user's home
// directory for cross-platform config paths.
func ExpandUserPath(path string) string {
	home, _ := os.UserHomeDir()
	path = strings.ReplaceAll(path, "{HOME}", home)
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile != "" {
			path = strings.ReplaceAll(path, "{USERPROFILE}", userProfile)
		}
	}
	return filepath.Clean(path)
}

// ReadEnvFile reads a .env file and returns its key-value pairs.
func ReadEnvFile(path string) (map[string]string, error) {
	path = ExpandUserPath(path)
	if _, err := os.Stat(path); err != nil {
		return map[string]string{}, nil // treat missing as empty
	}
	return godotenv.Read(path)
}

// WriteEnvFile writes the given key-value pairs to a .env file.
func WriteEnvFile(path string, env map[string]string) error {
	path = ExpandUserPath(path)
	return godotenv.Write(env, path)
}

// UpdateEnvFile updates (or adds) the given keys in a .env file.
func UpdateEnvFile(path string, updates map[string]string) error {
	path = ExpandUserPath(path)
	env, _ := ReadEnvFile(path)
	for k, v := range updates {
		env[k] = v
	}
	return WriteEnvFile(path, env)
}
