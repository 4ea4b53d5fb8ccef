//go:build !windows

package internal

import (
	"os/exec"
	"syscall"
)

// ConfigureSysProcAttr detaches the child into its own session so a
// terminal signal aimed at the bootstrapper never reaches it.
func ConfigureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
