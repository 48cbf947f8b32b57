//go:build unix

package supervisor

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcAttrs puts the child in its own process group so cancellation can
// reach its descendants too.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate signals the child's process group with SIGTERM and escalates to
// SIGKILL if the child has not exited within the grace period. exited is
// closed by the caller once the child's Wait returns.
func terminate(cmd *exec.Cmd, exited <-chan struct{}) {
	if cmd.Process == nil {
		return
	}
	pgid := -cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case <-exited:
	case <-time.After(termGrace):
		_ = syscall.Kill(pgid, syscall.SIGKILL)
	}
}
