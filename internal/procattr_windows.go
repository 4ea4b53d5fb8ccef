//go:build windows

package internal

import (
	"os/exec"
)

// ConfigureSysProcAttr is a no-op on Windows; there is no session concept
// equivalent to Setsid here.
func ConfigureSysProcAttr(cmd *exec.Cmd) {
}
