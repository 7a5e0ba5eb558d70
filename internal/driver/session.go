package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
)

const readSize = 4096

// session is one running program attached to a pseudo-terminal.
type session struct {
	cmd  *exec.Cmd
	ptm  *os.File
	log  *slog.Logger
	echo io.Writer

	// chunks is fed by readLoop and closed when the terminal reaches EOF.
	chunks chan []byte
	// stop is closed by close, releasing readLoop if it is blocked sending.
	stop chan struct{}
	// exited is closed once the process has been reaped.
	exited chan struct{}

	buf bytes.Buffer
	eof bool
}

func start(opts Options) (*session, error) {
	cmd := exec.Command(opts.Program, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		fmt.Sprintf("COLUMNS=%d", opts.Cols),
		fmt.Sprintf("LINES=%d", opts.Rows),
	)
	cmd.Env = append(cmd.Env, opts.Env...)

	// StartWithSize makes the terminal the controlling TTY of a new session,
	// so the process leads its own process group.
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: opts.Rows, Cols: opts.Cols})
	if err != nil {
		return nil, err
	}

	s := &session{
		cmd:    cmd,
		ptm:    ptm,
		log:    opts.Logger.With("program", opts.Program, "pid", cmd.Process.Pid),
		echo:   opts.Echo,
		chunks: make(chan []byte),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go s.readLoop()
	go func() {
		defer close(s.exited)
		err := cmd.Wait()
		s.log.Debug("process exited", "error", err)
	}()
	return s, nil
}

// readLoop copies terminal output into chunks until the terminal is closed.
// Linux reports a hung-up terminal as EIO rather than io.EOF; both end the
// loop.
func (s *session) readLoop() {
	defer close(s.chunks)
	buf := make([]byte, readSize)
	for {
		n, err := s.ptm.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// waitExit gives the program up to d to exit after the exit command, and
// kills it otherwise. Not exiting is not an error; the output is complete.
// Output printed meanwhile is read and discarded.
func (s *session) waitExit(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	chunks := s.chunks
	if s.eof {
		chunks = nil
	}
	var discarded int
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
			}
			discarded += len(chunk)
		case <-s.exited:
			if discarded > 0 {
				s.log.Debug("discarded output after exit command", "bytes", discarded)
			}
			return
		case <-timer.C:
			s.log.Warn("program did not exit, killing", "wait", d, "discarded", discarded)
			s.kill()
			return
		case <-ctx.Done():
			s.log.Warn("program did not exit before deadline, killing", "discarded", discarded)
			s.kill()
			return
		}
	}
}

func (s *session) kill() {
	select {
	case <-s.exited:
		return
	default:
	}
	if err := killProcessGroup(s.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.log.Warn("kill failed", "error", err)
	}
}

// close terminates the program if it is still running and releases the
// terminal.
func (s *session) close() {
	s.kill()
	select {
	case <-s.exited:
	case <-time.After(2 * time.Second):
		s.log.Warn("process not reaped after kill")
	}
	close(s.stop)
	if err := s.ptm.Close(); err != nil {
		s.log.Debug("close terminal", "error", err)
	}
}
