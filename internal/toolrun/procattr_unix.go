//go:build unix

package toolrun

import (
	"errors"
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts the tool in its own process group so that
// cancellation also reaches processes it spawned, such as the JVM behind a
// wrapper script.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
			return err
		}
		return nil
	}
}
