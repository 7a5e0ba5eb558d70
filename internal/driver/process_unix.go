//go:build unix

package driver

import (
	"os"

	"golang.org/x/sys/unix"
)

// killProcessGroup kills p and everything it spawned. The program leads its
// own process group, so a negative pid addresses the whole group.
func killProcessGroup(p *os.Process) error {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		if err == unix.ESRCH {
			return os.ErrProcessDone
		}
		return p.Kill()
	}
	return nil
}
