package internal

import (
	"os"
	"strconv"
	"strings"
)

// Mode classifies a run as interactive (a human can answer prompts, a GPU is
// expected) or unattended (CI or scripted; every prompt is defaulted and the
// liveness probe is skipped). The value is threaded explicitly through every
// component instead of living in a package global.
type Mode int

const (
	Interactive Mode = iota
	Unattended
)

func (m Mode) String() string {
	if m == Unattended {
		return "unattended"
	}
	return "interactive"
}

// DetectMode reads the process environment flags that mark an unattended run.
func DetectMode() Mode {
	if envBool(UnattendedKey) || envBool(CIKey) {
		return Unattended
	}
	return Interactive
}

func envBool(key string) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		// CI systems set CI=true, CI=1, or just CI=yes; anything non-empty
		// that is not an explicit false counts.
		return !strings.EqualFold(val, "false") && val != "0"
	}
	return b
}
