//go:build !unix

package driver

import (
	"os"
)

func killProcessGroup(p *os.Process) error {
	return p.Kill()
}
