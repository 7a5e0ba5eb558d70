package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joeycumines/usage-capture/internal/command"
	"github.com/joeycumines/usage-capture/internal/config"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, command.ErrReported) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		configPath = ""
	}
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: ignoring configuration (%v)\n", err)
		cfg = config.NewConfig()
	}

	registry := command.NewRegistry()
	helpCmd := command.NewHelpCommand(registry)
	registry.Register(helpCmd)
	registry.Register(command.NewVersionCommand(version))
	registry.Register(command.NewConfigCommand(cfg, configPath))
	registry.Register(command.NewCaptureCommand(cfg))
	registry.Register(command.NewExtractCommand(cfg))
	registry.Register(command.NewCleanCommand())
	registry.SetDefault("capture")

	cmd, cmdArgs, err := selectCommand(registry, args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		_, _ = fmt.Fprintln(stderr, "Use 'usage-capture help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: usage-capture %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	if err := fs.Parse(cmdArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", command.ErrReported, err)
	}

	return cmd.Execute(fs.Args(), stdout, stderr)
}

// selectCommand picks the command named by args[0]. With no arguments, or
// when the first argument is a flag or a slash command, the default command
// receives all of args.
func selectCommand(registry *command.Registry, args []string) (command.Command, []string, error) {
	if len(args) == 0 {
		return registry.Default(), nil, nil
	}
	switch first := args[0]; {
	case first == "-h" || first == "--help":
		cmd, err := registry.Get("help")
		return cmd, nil, err
	case strings.HasPrefix(first, "-"), strings.HasPrefix(first, "/"):
		return registry.Default(), args, nil
	default:
		cmd, err := registry.Get(first)
		return cmd, args[1:], err
	}
}
