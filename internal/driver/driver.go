// Package driver runs one scripted interaction with an interactive terminal
// program inside a pseudo-terminal and records everything it prints.
//
// The interaction is fixed: wait for start-up, type a command, press Enter,
// let the program paint for a while, press Escape, type the exit command and
// wait for the program to leave. Output is drained continuously between the
// keystrokes, bounded by per-step windows and an overall session timeout.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/creack/pty"

	"github.com/joeycumines/usage-capture/internal/termtext"
)

var (
	// ErrPTYUnavailable means the platform cannot provide a pseudo-terminal.
	ErrPTYUnavailable = errors.New("pseudo-terminal support unavailable")
	// ErrLaunch means the program could not be started.
	ErrLaunch = errors.New("failed to launch program")
	// ErrTimeout means the session deadline passed before the script finished.
	ErrTimeout = errors.New("session timed out")
	// ErrNoOutput means the program never wrote anything to the terminal.
	ErrNoOutput = errors.New("no output received")
)

// LaunchError reports a program that could not be started. It matches
// ErrLaunch with errors.Is.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// Keystrokes written by the script.
const (
	KeyEnter    = "\r"
	KeyEscape   = "\x1b"
	ExitCommand = "/exit\n"
)

// Options configures a session. Zero values are replaced by the defaults
// from DefaultOptions.
type Options struct {
	// Program and Args name the interactive program to start.
	Program string
	Args    []string
	// Env is appended to the inherited environment.
	Env []string
	// Dir is the working directory, the current one if empty.
	Dir string

	// Command is typed, without a newline, once start-up has settled.
	Command string

	// Rows and Cols size the pseudo-terminal. A wide terminal keeps the
	// report from wrapping.
	Rows, Cols uint16

	StartupDelay time.Duration // before typing Command
	SettleDelay  time.Duration // between Command and Enter
	Wait         time.Duration // after Enter, while the report paints
	DismissDrain time.Duration // after Escape, and again after ExitCommand
	ExitWait     time.Duration // for the program to exit on its own
	Timeout      time.Duration // for the whole session

	// Echo, when set, receives every raw chunk as it is read.
	Echo io.Writer

	// OnStep, when set, is called before each step of the script runs,
	// including steps skipped after EOF.
	OnStep func(Step)

	Logger *slog.Logger
}

// DefaultOptions returns the options used to capture the /usage report from
// the claude TUI.
func DefaultOptions() Options {
	return Options{
		Program:      "claude",
		Command:      "/usage",
		Rows:         40,
		Cols:         160,
		StartupDelay: 2 * time.Second,
		SettleDelay:  500 * time.Millisecond,
		Wait:         5 * time.Second,
		DismissDrain: time.Second,
		ExitWait:     5 * time.Second,
		Timeout:      30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Program == "" {
		o.Program = d.Program
	}
	if o.Command == "" {
		o.Command = d.Command
	}
	if o.Rows == 0 {
		o.Rows = d.Rows
	}
	if o.Cols == 0 {
		o.Cols = d.Cols
	}
	if o.StartupDelay == 0 {
		o.StartupDelay = d.StartupDelay
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = d.SettleDelay
	}
	if o.Wait == 0 {
		o.Wait = d.Wait
	}
	if o.DismissDrain == 0 {
		o.DismissDrain = d.DismissDrain
	}
	if o.ExitWait == 0 {
		o.ExitWait = d.ExitWait
	}
	if o.Timeout == 0 {
		o.Timeout = d.Timeout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Step is one keystroke of the script followed by a drain window.
type Step struct {
	Name  string
	Input string
	Drain time.Duration
	// SkipAfterEOF drops the drain once the program has closed the terminal.
	SkipAfterEOF bool
}

// Script returns the steps Run performs for opts.
func Script(opts Options) []Step {
	opts = opts.withDefaults()
	return []Step{
		{Name: "startup", Drain: opts.StartupDelay},
		{Name: "command", Input: opts.Command, Drain: opts.SettleDelay},
		{Name: "activate", Input: KeyEnter, Drain: opts.Wait},
		{Name: "dismiss", Input: KeyEscape, Drain: opts.DismissDrain, SkipAfterEOF: true},
		{Name: "exit", Input: ExitCommand, Drain: opts.DismissDrain, SkipAfterEOF: true},
	}
}

// Transcript is everything read from the terminal during one session.
type Transcript struct {
	Raw string
	// EOF is set when the program closed the terminal during the session.
	EOF     bool
	Elapsed time.Duration
}

// Clean returns the transcript with terminal control sequences removed.
func (t *Transcript) Clean() string {
	return termtext.Clean(t.Raw)
}

// CheckPTY reports whether a pseudo-terminal can be allocated, returning an
// error wrapping ErrPTYUnavailable if not.
func CheckPTY() error {
	ptm, pts, err := pty.Open()
	if err != nil {
		return fmt.Errorf("%w (%w)", ErrPTYUnavailable, err)
	}
	_ = pts.Close()
	_ = ptm.Close()
	return nil
}

// Run starts the program, performs the script and returns the transcript.
//
// The returned error is a *LaunchError if the program could not be started,
// ErrTimeout if opts.Timeout (or ctx's deadline) passed first, or ErrNoOutput
// if the program printed nothing. On timeout the partial transcript is
// returned alongside the error. The program is always terminated before Run
// returns.
func Run(ctx context.Context, opts Options) (*Transcript, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With("program", opts.Program)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	started := time.Now()
	s, err := start(opts)
	if err != nil {
		log.Error("launch failed", "error", err)
		return nil, &LaunchError{Program: opts.Program, Err: err}
	}
	defer s.close()
	log.Debug("started", "pid", s.cmd.Process.Pid, "rows", opts.Rows, "cols", opts.Cols)

	var scriptErr error
	for _, step := range Script(opts) {
		if opts.OnStep != nil {
			opts.OnStep(step)
		}
		if scriptErr = s.perform(ctx, step); scriptErr != nil {
			break
		}
	}
	if scriptErr == nil {
		s.waitExit(ctx, opts.ExitWait)
	}

	t := &Transcript{
		Raw:     s.buf.String(),
		EOF:     s.eof,
		Elapsed: time.Since(started),
	}
	log.Debug("session finished", "bytes", len(t.Raw), "eof", t.EOF, "elapsed", t.Elapsed)

	switch {
	case errors.Is(scriptErr, context.DeadlineExceeded):
		log.Warn("session timed out", "timeout", opts.Timeout, "bytes", len(t.Raw))
		return t, fmt.Errorf("%w after %v: %w", ErrTimeout, opts.Timeout, scriptErr)
	case scriptErr != nil:
		return t, fmt.Errorf("session interrupted: %w", scriptErr)
	case len(t.Raw) == 0:
		return t, ErrNoOutput
	}
	return t, nil
}

// perform writes the step's input, if any, then drains output for the step's
// window.
func (s *session) perform(ctx context.Context, step Step) error {
	if s.eof && step.SkipAfterEOF {
		s.log.Debug("skipping step after eof", "step", step.Name)
		return nil
	}
	if step.Input != "" {
		s.send(step.Name, step.Input)
	}
	return s.drain(ctx, step.Drain)
}

// drain collects output until d elapses, the terminal reaches EOF, or ctx is
// done. Only the last case is an error.
func (s *session) drain(ctx context.Context, d time.Duration) error {
	if s.eof {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				s.eof = true
				s.log.Debug("eof")
				return nil
			}
			s.buf.Write(chunk)
			if s.echo != nil {
				_, _ = s.echo.Write(chunk)
			}
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// send writes input to the terminal. Write failures are logged and otherwise
// ignored; a broken terminal shows up as EOF on the next drain.
func (s *session) send(name, input string) {
	if s.eof {
		return
	}
	s.log.Debug("send", "step", name, "input", input)
	if _, err := io.WriteString(s.ptm, input); err != nil {
		s.log.Warn("write to terminal failed", "step", name, "error", err)
	}
}
