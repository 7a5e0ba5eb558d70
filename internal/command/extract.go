package command

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/usage-capture/internal/config"
	"github.com/joeycumines/usage-capture/internal/termtext"
	"github.com/joeycumines/usage-capture/internal/usage"
	"github.com/joeycumines/usage-capture/internal/usagelog"
)

// readInput reads the file named by args[0], or stdin if there is no
// argument or it is "-".
func readInput(args []string, stdin io.Reader) ([]byte, error) {
	switch {
	case len(args) > 1:
		return nil, fmt.Errorf("unexpected arguments: %v", args[1:])
	case len(args) == 0 || args[0] == "-":
		return io.ReadAll(stdin)
	default:
		return os.ReadFile(args[0])
	}
}

// ExtractCommand finds the usage section in a saved transcript.
type ExtractCommand struct {
	*BaseCommand
	config   *config.Config
	stdin    io.Reader
	layout   string
	usageLog string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(cfg *config.Config) *ExtractCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &ExtractCommand{
		BaseCommand: NewBaseCommand(
			"extract",
			"Extract the usage section from a saved transcript",
			"extract [options] [file]",
		),
		config: cfg,
		stdin:  os.Stdin,
	}
}

// SetupFlags configures the flags for the extract command.
func (c *ExtractCommand) SetupFlags(fs *flag.FlagSet) {
	c.layout, _ = c.config.GetCommandOption(c.Name(), "layout")
	fs.StringVar(&c.layout, "layout", c.layout, "Only try this report layout (settings-dialog, status-strip)")
	fs.StringVar(&c.usageLog, "usage-log", "", "Also write the result to this usage log")
}

// Execute prints the usage section of the transcript.
func (c *ExtractCommand) Execute(args []string, stdout, stderr io.Writer) error {
	layouts := usage.Layouts()
	if c.layout != "" {
		l, err := usage.LayoutByName(c.layout)
		if err != nil {
			return err
		}
		layouts = []usage.Layout{l}
	}

	data, err := readInput(args, c.stdin)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	clean := termtext.Clean(string(data))

	ulog := usagelog.Writer{Path: c.usageLog}
	section, err := usage.ExtractWith(clean, layouts...)
	if errors.Is(err, usage.ErrNotFound) {
		if werr := ulog.WriteNotFound(clean); werr != nil {
			_, _ = fmt.Fprintf(stderr, msgWriteFailed+"\n", werr)
		}
		_, _ = fmt.Fprintf(stderr, "Warning: %s\n", usagelog.NotFoundMessage)
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	if err != nil {
		return err
	}

	if werr := ulog.WriteSection(section.Text()); werr != nil {
		_, _ = fmt.Fprintf(stderr, msgWriteFailed+"\n", werr)
	}
	_, _ = fmt.Fprintln(stdout, section.Text())
	return nil
}

// CleanCommand strips terminal control sequences from a saved transcript.
type CleanCommand struct {
	*BaseCommand
	stdin io.Reader
}

// NewCleanCommand creates the clean command.
func NewCleanCommand() *CleanCommand {
	return &CleanCommand{
		BaseCommand: NewBaseCommand(
			"clean",
			"Strip escape sequences and carriage returns from a transcript",
			"clean [file]",
		),
		stdin: os.Stdin,
	}
}

// Execute writes the cleaned transcript to stdout.
func (c *CleanCommand) Execute(args []string, stdout, stderr io.Writer) error {
	data, err := readInput(args, c.stdin)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	_, err = io.WriteString(stdout, termtext.Clean(string(data)))
	return err
}
