//go:build unix

package pipeline

import (
	"os/exec"
	"syscall"
)

// configureProcess starts cmd in its own process group and kills the whole
// group when the context is done.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
