// Package command implements the usage-capture subcommands.
package command

import (
	"errors"
	"flag"
	"io"
)

// ErrReported marks a failure whose message has already been written (or
// deliberately suppressed by --silent). main exits non-zero without printing
// it again.
var ErrReported = errors.New("error already reported")

// Command is a subcommand of the usage-capture binary.
type Command interface {
	// Name is the word used to select the command.
	Name() string

	// Description is a one-line summary shown by help.
	Description() string

	// Usage is the synopsis shown by help and on flag errors.
	Usage() string

	// SetupFlags registers the command's flags on fs, which is then parsed
	// against the arguments following the command name.
	SetupFlags(fs *flag.FlagSet)

	// Execute runs the command with the positional arguments left after
	// flag parsing.
	Execute(args []string, stdout, stderr io.Writer) error
}

// BaseCommand supplies the descriptive half of Command. Commands embed it
// and provide Execute, plus SetupFlags when they take flags.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

// NewBaseCommand creates a new BaseCommand.
func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{name: name, description: description, usage: usage}
}

func (c *BaseCommand) Name() string        { return c.name }
func (c *BaseCommand) Description() string { return c.description }
func (c *BaseCommand) Usage() string       { return c.usage }

// SetupFlags registers nothing.
func (c *BaseCommand) SetupFlags(fs *flag.FlagSet) {}
