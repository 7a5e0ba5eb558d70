package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeycumines/usage-capture/internal/argv"
	"github.com/joeycumines/usage-capture/internal/config"
	"github.com/joeycumines/usage-capture/internal/driver"
	"github.com/joeycumines/usage-capture/internal/logging"
	"github.com/joeycumines/usage-capture/internal/storage"
	"github.com/joeycumines/usage-capture/internal/usage"
	"github.com/joeycumines/usage-capture/internal/usagelog"
)

// Failure messages written to the console and the usage log.
const (
	msgMissingDependency = "Missing dependency: %v"
	msgSpawnFailed       = "Failed to spawn %s TUI (%v)"
	msgNoOutput          = "Failed to capture output or no output received"
	msgBusy              = "Another capture is already running (%s)"
	msgWriteFailed       = "Warning: Failed to write usage log (%v)"
)

// CaptureCommand drives the assistant's TUI, extracts its usage report and
// writes it to the usage log.
type CaptureCommand struct {
	*BaseCommand
	config *config.Config

	debug      bool
	silent     bool
	strict     bool
	timeout    time.Duration
	wait       time.Duration
	usageLog   string
	program    string
	transcript string
	layout     string
	logFile    string
	logLevel   string

	// Seams for tests.
	checkPTY   func() error
	run        func(context.Context, driver.Options) (*driver.Transcript, error)
	ctxFactory func() (context.Context, context.CancelFunc)
	styled     func(io.Writer) bool
}

// NewCaptureCommand creates the capture command. cfg supplies the defaults
// for every flag.
func NewCaptureCommand(cfg *config.Config) *CaptureCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &CaptureCommand{
		BaseCommand: NewBaseCommand(
			"capture",
			"Run a slash command in the TUI and save its usage report",
			"capture [options] [slash-command]",
		),
		config:   cfg,
		checkPTY: driver.CheckPTY,
		run:      driver.Run,
		styled:   isTerminal,
	}
}

// SetupFlags configures the flags for the capture command. Defaults are the
// effective configuration values.
func (c *CaptureCommand) SetupFlags(fs *flag.FlagSet) {
	schema := config.DefaultSchema()
	c.debug = schema.ResolveBool(c.config, config.KeyDebug)
	c.silent = schema.ResolveBool(c.config, config.KeySilent)
	c.timeout = schema.ResolveDuration(c.config, config.KeyTimeout)
	c.wait = schema.ResolveDuration(c.config, config.KeyWait)
	c.usageLog = schema.Resolve(c.config, config.KeyUsageLog)
	c.program = schema.Resolve(c.config, config.KeyProgram)

	fs.BoolVar(&c.debug, "debug", c.debug, "Echo the raw session to stdout and log diagnostics to stderr")
	fs.BoolVar(&c.silent, "silent", c.silent, "Suppress normal output; only emit errors")
	fs.BoolVar(&c.strict, "strict", false, "Exit non-zero when no usage section is found")
	fs.Var(newSecondsValue(&c.timeout), "timeout", "Session timeout, in seconds or as a duration")
	fs.Var(newSecondsValue(&c.wait), "wait", "Time to capture after sending the command, in seconds or as a duration")
	fs.StringVar(&c.usageLog, "usage-log", c.usageLog, "File to write the extracted usage section to (empty to skip)")
	fs.StringVar(&c.program, "program", c.program, "Interactive program to drive")
	fs.StringVar(&c.transcript, "transcript", "", "Also save the raw terminal capture to this file")
	fs.StringVar(&c.layout, "layout", "", "Only try this report layout (settings-dialog, status-strip)")
	fs.StringVar(&c.logFile, "log-file", "", "Path to diagnostic log file (JSON output)")
	fs.StringVar(&c.logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")
}

// Execute runs the capture.
func (c *CaptureCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if c.debug && c.silent {
		_, _ = fmt.Fprintln(stderr, "--debug and --silent cannot be used together")
		return fmt.Errorf("conflicting flags: --debug and --silent")
	}
	if len(args) > 1 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args[1:])
		return fmt.Errorf("unexpected arguments")
	}

	layouts := usage.Layouts()
	if c.layout != "" {
		l, err := usage.LayoutByName(c.layout)
		if err != nil {
			return err
		}
		layouts = []usage.Layout{l}
	}

	logCfg, err := logging.Resolve(c.logFile, c.logLevel, c.debug, c.config)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(logCfg, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With("cmd", c.Name())

	var ctx context.Context
	var cancel context.CancelFunc
	if c.ctxFactory != nil {
		ctx, cancel = c.ctxFactory()
	} else {
		ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
	defer cancel()

	opts := c.driverOptions(logger)
	if len(args) == 1 {
		opts.Command = args[0]
	}

	r := &captureRun{
		CaptureCommand: c,
		stdout:         stdout,
		stderr:         stderr,
		log:            logger,
		ulog:           usagelog.Writer{Path: c.usageLog},
	}

	// Concurrent captures into the same usage log are refused.
	if r.ulog.Enabled() {
		lock, err := storage.TryLock(r.ulog.Path + ".lock")
		switch {
		case errors.Is(err, storage.ErrLocked):
			if !c.silent {
				_, _ = fmt.Fprintf(stderr, msgBusy+"\n", r.ulog.Path+".lock")
			}
			return fmt.Errorf("%w: %w", ErrReported, err)
		case err != nil:
			logger.Warn("running without lock", "error", err)
		default:
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release lock", "error", err)
				}
			}()
		}
	}

	if err := c.checkPTY(); err != nil {
		return r.fail(fmt.Sprintf(msgMissingDependency, err), err)
	}
	return r.capture(ctx, opts, layouts)
}

// driverOptions builds the session options from the configuration and
// flags.
func (c *CaptureCommand) driverOptions(logger *slog.Logger) driver.Options {
	schema := config.DefaultSchema()
	return driver.Options{
		Program:      c.program,
		Args:         argv.Split(schema.Resolve(c.config, config.KeyArgs)),
		Command:      schema.Resolve(c.config, config.KeyCommand),
		Rows:         clampUint16(schema.ResolveInt(c.config, config.KeyRows)),
		Cols:         clampUint16(schema.ResolveInt(c.config, config.KeyCols)),
		StartupDelay: schema.ResolveDuration(c.config, config.KeyStartupDelay),
		SettleDelay:  schema.ResolveDuration(c.config, config.KeySettleDelay),
		Wait:         c.wait,
		DismissDrain: schema.ResolveDuration(c.config, config.KeyDismissDrain),
		ExitWait:     schema.ResolveDuration(c.config, config.KeyExitWait),
		Timeout:      c.timeout,
		Logger:       logger,
	}
}

func clampUint16(n int) uint16 {
	return uint16(min(max(n, 0), math.MaxUint16))
}

// captureRun is the state of one Execute call.
type captureRun struct {
	*CaptureCommand
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
	ulog   usagelog.Writer
}

func (r *captureRun) capture(ctx context.Context, opts driver.Options, layouts []usage.Layout) error {
	if r.debug {
		opts.Echo = r.stdout
	}
	opts.OnStep = r.progress

	program := opts.Program
	if program == "" {
		program = driver.DefaultOptions().Program
	}
	command := opts.Command
	if command == "" {
		command = driver.DefaultOptions().Command
	}
	r.emit("Spawning %s TUI to execute '%s'...\n", program, command)

	tr, err := r.run(ctx, opts)
	if tr != nil && r.transcript != "" {
		if werr := storage.AtomicWriteFile(r.transcript, []byte(tr.Raw), 0644); werr != nil {
			_, _ = fmt.Fprintf(r.stderr, "Warning: failed to save transcript (%v)\n", werr)
		}
	}

	var launchErr *driver.LaunchError
	switch {
	case errors.As(err, &launchErr):
		return r.fail(fmt.Sprintf(msgSpawnFailed, program, launchErr.Err), err)
	case err != nil:
		return r.fail(msgNoOutput, err)
	}

	if r.debug {
		_, _ = fmt.Fprintf(r.stdout, "\nRaw captured output length: %d\n", len(tr.Raw))
	}

	clean := tr.Clean()
	output := clean
	if output == "" {
		output = tr.Raw
	}

	rep := newReport(r.stdout, r.styled(r.stdout), int(opts.Cols))
	if !r.silent {
		rep.framed(fmt.Sprintf("OUTPUT FROM '%s':", command), output)
	}

	section, extractErr := usage.ExtractWith(clean, layouts...)
	if extractErr == nil {
		r.log.Info("usage section found", "layout", section.Layout, "lines", len(section.Lines))
	} else {
		r.log.Warn("usage section not found", "bytes", len(clean))
	}

	if r.ulog.Enabled() {
		var werr error
		if section != nil {
			werr = r.ulog.WriteSection(section.Text())
		} else {
			werr = r.ulog.WriteNotFound(output)
		}
		if werr != nil {
			_, _ = fmt.Fprintf(r.stderr, "\n"+msgWriteFailed+"\n", werr)
		} else {
			r.emit("\nUsage details saved to: %s", r.ulog.Path)
		}
	}

	if section != nil {
		if !r.silent {
			rep.titled("Captured Usage Section:", section.Text())
		}
		return nil
	}

	if !r.silent {
		_, _ = fmt.Fprintf(r.stderr, "\nWarning: %s\n", usagelog.NotFoundMessage)
	}
	if r.strict {
		return fmt.Errorf("%w: %w", ErrReported, extractErr)
	}
	return nil
}

// progress narrates the session, one line per step.
func (r *captureRun) progress(step driver.Step) {
	switch step.Name {
	case "startup":
		r.emit("Waiting for initial output...")
	case "command":
		r.emit("Sending command: %s", step.Input)
	case "activate":
		r.emit("Pressing Enter to execute command...")
		r.emit("Capturing output for %s...", describeWait(step.Drain))
	case "dismiss":
		r.emit("Pressing Escape to dismiss dialog...")
	case "exit":
		r.emit("Sending /exit to terminate session...")
	}
}

func describeWait(d time.Duration) string {
	if d == time.Second {
		return "1 second"
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d seconds", int64(d/time.Second))
	}
	return d.String()
}

// emit prints a progress line unless silent.
func (r *captureRun) emit(format string, args ...any) {
	if r.silent {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, format+"\n", args...)
}

// fail records message in the usage log and on stderr, and returns an error
// that main will not print again.
func (r *captureRun) fail(message string, cause error) error {
	r.log.Error("capture failed", "message", message, "error", cause)
	if err := r.ulog.WriteError(message); err != nil && !r.silent {
		_, _ = fmt.Fprintf(r.stderr, msgWriteFailed+"\n", err)
	}
	if !r.silent {
		_, _ = fmt.Fprintln(r.stderr, message)
	}
	return fmt.Errorf("%w: %w", ErrReported, cause)
}
