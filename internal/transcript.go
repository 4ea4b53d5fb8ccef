package internal

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Log is the run transcript logger. Every reconciliation step writes here in
// addition to the styled terminal output, so failed runs can be diagnosed
// after the fact.
var Log zerolog.Logger

// InitTranscript wires the global logger to an append-only JSON transcript
// under logsDir plus a console writer on stderr. The transcript file is never
// truncated; history across repeated invocations is part of the diagnostic
// surface.
func InitTranscript(logsDir string, verbose bool) (io.Closer, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(logsDir, TranscriptLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	Log = zerolog.New(zerolog.MultiLevelWriter(f, console)).Level(level).With().Timestamp().Logger()
	return f, nil
}

// WithStep returns a child logger tagged with the reconciliation step name.
func WithStep(step string) zerolog.Logger {
	return Log.With().Str("step", step).Logger()
}

func init() {
	// Until InitTranscript runs, log lines go nowhere rather than panicking.
	Log = zerolog.Nop()
}
