//go:build windows

package runner

import "os/exec"

// setProcessGroup is a no-op on Windows; there is no POSIX process group
// to create.
func setProcessGroup(cmd *exec.Cmd) {}

// terminate kills the immediate child. Descendants are not tracked on
// Windows without a job object.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
