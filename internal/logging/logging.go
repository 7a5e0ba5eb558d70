// Package logging builds the diagnostic slog.Logger for a run.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joeycumines/usage-capture/internal/config"
)

// Config is the resolved diagnostic logging configuration.
type Config struct {
	// File receives JSON records when set.
	File string
	// Level applies to whichever handler is active.
	Level slog.Level
	// MaxSizeMB and MaxBackups control rotation of File.
	MaxSizeMB  int
	MaxBackups int
	// Debug enables a text handler on Stderr when File is empty.
	Debug bool
}

// Resolve merges flag values with the configuration. Flags win when set;
// otherwise the schema supplies the value (env var, config file, default).
// cfg may be nil.
func Resolve(flagFile, flagLevel string, debug bool, cfg *config.Config) (Config, error) {
	schema := config.DefaultSchema()
	if cfg == nil {
		cfg = config.NewConfig()
	}

	c := Config{
		File:       flagFile,
		MaxSizeMB:  schema.ResolveInt(cfg, config.KeyLogMaxSizeMB),
		MaxBackups: schema.ResolveInt(cfg, config.KeyLogMaxFiles),
		Debug:      debug,
	}
	if c.File == "" {
		c.File = schema.Resolve(cfg, config.KeyLogFile)
	}

	levelStr := flagLevel
	if levelStr == "" {
		levelStr = schema.Resolve(cfg, config.KeyLogLevel)
		// --debug without an explicit level means debug.
		if debug && cfg.Global[config.KeyLogLevel] == "" {
			levelStr = "debug"
		}
	}
	level, err := ParseLevel(levelStr)
	if err != nil {
		return c, err
	}
	c.Level = level
	return c, nil
}

// ParseLevel parses debug, info, warn (or warning) and error, case
// insensitively. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// New returns a logger for c tagged with a fresh run id. The returned closer
// must be closed when the run ends; it is never nil.
func New(c Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var (
		handler slog.Handler
		closer  io.Closer = nopCloser{}
	)
	switch {
	case c.File != "":
		f, err := OpenRotatingFile(c.File, c.MaxSizeMB, c.MaxBackups)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", c.File, err)
		}
		handler = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: c.Level})
		closer = f
	case c.Debug:
		handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: c.Level})
	default:
		handler = slog.DiscardHandler
	}
	return slog.New(handler).With("run", uuid.NewString()), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
