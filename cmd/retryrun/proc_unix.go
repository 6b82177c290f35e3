//go:build unix

package main

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// startInOwnGroup puts the command in a new process group and makes context
// cancellation kill the whole group, so children of a shell die with it.
func startInOwnGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		err := syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
