//go:build unix

package sandbox

import (
	"errors"
	"os/exec"
	"syscall"
)

// configureProcess puts the child in its own process group and kills the whole
// group on cancellation, so grandchildren cannot outlive a timeout.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if err != nil && !errors.Is(err, syscall.ESRCH) {
			return cmd.Process.Kill()
		}
		return nil
	}
}
