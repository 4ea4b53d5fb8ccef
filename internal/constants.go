package internal

import "time"

// Directory and file names
const (
	CustomNodesDir = "custom_nodes"
	VenvDir        = "venv"
	DotVenvDir     = ".venv"
	LogsDir        = "logs"

	RequirementsTxt = "requirements.txt"
	PluginListFile  = "custom_nodes.txt"
	ManifestFile    = "extra_model_paths.yaml"
	MainPyFile      = "main.py"
	EnvFileName     = ".env"

	TranscriptLogFile = "bootstrap.log"
	ChildStdoutFile   = "comfyui-stdout.log"
	ChildStderrFile   = "comfyui-stderr.log"
	ComfyUIPidFile    = "comfyui.pid"
)

// Environment variable keys
const (
	ComfyUIPathKey   = "COMFYUI_PATH"
	PythonVersionKey = "PYTHON_VERSION"
	PortKey          = "COMFY_PORT"
	ProbeIntervalKey = "COMFY_PROBE_INTERVAL"
	ProbeDeadlineKey = "COMFY_PROBE_DEADLINE"
	ExtraWheelKey    = "COMFY_EXTRA_WHEEL_URL"
	PluginListKey    = "COMFY_PLUGIN_LIST"
	ModelsRootKey    = "COMFY_MODELS_ROOT"
	UnattendedKey    = "COMFY_BOOTSTRAP_UNATTENDED"
	CIKey            = "CI"
	WatchDebounceKey = "COMFY_WATCH_DEBOUNCE"
	RepoURLKey       = "COMFY_REPO_URL"
	VerboseKey       = "COMFY_VERBOSE"
)

// Default values
const (
	DefaultPort          = 8188
	DefaultPythonVersion = "3.12"
	DefaultProbeInterval = 2 * time.Second
	DefaultProbeDeadline = 60 * time.Second
	DefaultWatchDebounce = 5 * time.Second

	ComfyUIRepoURL = "https://github.com/comfyanonymous/ComfyUI.git"

	// Accelerated torch builds live on a dedicated index; default pip
	// resolution would silently install the CPU wheel instead.
	TorchIndexURL = "https://download.pytorch.org/whl/cu121"
)

// Command names
const (
	GitCommand     = "git"
	PythonCommand  = "python"
	Python3Command = "python3"
	UVCommand      = "uv"
	WingetCommand  = "winget"
)
