//go:build !unix

package supervisor

import "os/exec"

func setProcAttrs(cmd *exec.Cmd) {}

// terminate kills the child directly. Process groups are a unix concept, so
// descendants may outlive the child here.
func terminate(cmd *exec.Cmd, exited <-chan struct{}) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
