package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "500ms") or a
	// plain number of seconds.
	TypeDuration OptionType = "duration"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file (kebab-case).
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a command/section name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options for the application.
// It is used for validation, documentation, typed getters, and env var mapping.
type ConfigSchema struct {
	options []*ConfigOption
	// byKey indexes global options by key for fast lookup.
	byKey map[string]*ConfigOption
	// bySection indexes command/section options by section then key.
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. Duplicate keys within the same
// section are silently overwritten (last registration wins).
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
	} else {
		if s.bySection[opt.Section] == nil {
			s.bySection[opt.Section] = make(map[string]*ConfigOption)
		}
		s.bySection[opt.Section][opt.Key] = ref
	}
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key]
	}
	return nil
}

// IsKnown returns true if the key is registered in the given section.
// For command sections, global keys are also considered known (they can
// appear in command sections and fall back to the global value).
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section == "" {
		return s.byKey[key] != nil
	}
	// Command section: check section-specific, then global.
	if sec, ok := s.bySection[section]; ok {
		if sec[key] != nil {
			return true
		}
	}
	return s.byKey[key] != nil
}

// GlobalOptions returns all registered global options (Section == "").
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == "" {
			out = append(out, *o)
		}
	}
	return out
}

// SectionOptions returns all registered options for a specific section.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns a sorted list of all registered non-empty section names.
func (s *ConfigSchema) Sections() []string {
	seen := make(map[string]bool)
	for sec := range s.bySection {
		seen[sec] = true
	}
	out := make([]string, 0, len(seen))
	for sec := range seen {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for a global config key by checking,
// in order: (1) the environment variable declared in the schema for this key,
// (2) the config value, (3) the schema default. Returns "" if the key is not
// found anywhere.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	// Check env var override from schema.
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	// Check config value.
	v, ok := c.GetGlobalOption(key)
	if ok {
		return v
	}
	// Fall back to schema default.
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig checks a loaded Config against the schema and returns a list
// of human-readable issues (empty if the config is valid). Validation includes:
//   - Unknown global options (not in schema)
//   - Unknown command options (not in schema for that section, and not global)
//   - Type mismatches for options with declared types
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	// Validate global options.
	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	// Validate command-section options.
	for section, opts := range c.Commands {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			// Find the option definition (section-specific or global fallback).
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt != nil {
				if err := validateType(opt.Type, value); err != nil {
					issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// validateType checks that a string value matches the expected OptionType.
func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := ParseSeconds(value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// --- Typed resolution ---

// ResolveBool resolves key as a boolean, falling back to the schema default
// when the effective value does not parse.
func (s *ConfigSchema) ResolveBool(c *Config, key string) bool {
	if b, err := parseBool(s.Resolve(c, key)); err == nil {
		return b
	}
	b, _ := parseBool(s.defaultOf(key))
	return b
}

// ResolveInt resolves key as an integer, falling back to the schema default
// when the effective value does not parse.
func (s *ConfigSchema) ResolveInt(c *Config, key string) int {
	if i, err := strconv.Atoi(s.Resolve(c, key)); err == nil {
		return i
	}
	i, _ := strconv.Atoi(s.defaultOf(key))
	return i
}

// ResolveDuration resolves key as a time.Duration, falling back to the
// schema default when the effective value does not parse.
func (s *ConfigSchema) ResolveDuration(c *Config, key string) time.Duration {
	if d, err := ParseSeconds(s.Resolve(c, key)); err == nil {
		return d
	}
	d, _ := ParseSeconds(s.defaultOf(key))
	return d
}

func (s *ConfigSchema) defaultOf(key string) string {
	if opt := s.Lookup("", key); opt != nil {
		return opt.Default
	}
	return ""
}

// ParseSeconds parses a duration given either as a Go duration string
// ("1m30s", "500ms") or as a plain number of seconds ("30", "2.5").
func ParseSeconds(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f < 0 {
			return 0, fmt.Errorf("negative duration %q", v)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("expected seconds or duration, got %q", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return d, nil
}

// --- Help text generation ---

// FormatHelp returns a formatted, human-readable reference of all registered
// options in the schema, grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	// Global options first.
	globals := s.GlobalOptions()
	if len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	// Section options.
	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[%s] Options:\n", sec))
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	b.WriteString(fmt.Sprintf("  %-35s %s", o.Key, o.Description))
	parts := make([]string, 0, 3)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		b.WriteString(fmt.Sprintf(" (%s)", strings.Join(parts, ", ")))
	}
	b.WriteString("\n")
}

// --- Default schema ---

// Global option keys.
const (
	KeyProgram      = "capture.program"
	KeyArgs         = "capture.args"
	KeyCommand      = "capture.command"
	KeyTimeout      = "capture.timeout"
	KeyWait         = "capture.wait"
	KeyStartupDelay = "capture.startup-delay"
	KeySettleDelay  = "capture.settle-delay"
	KeyDismissDrain = "capture.dismiss-drain"
	KeyExitWait     = "capture.exit-wait"
	KeyRows         = "capture.rows"
	KeyCols         = "capture.cols"
	KeyUsageLog     = "usage-log"
	KeyDebug        = "debug"
	KeySilent       = "silent"
	KeyLogFile      = "log.file"
	KeyLogLevel     = "log.level"
	KeyLogMaxSizeMB = "log.max-size-mb"
	KeyLogMaxFiles  = "log.max-files"
)

// DefaultSchema returns the schema declaring every known option. It is the
// single source of truth for option names, types, defaults, descriptions and
// environment variable overrides.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterAll(defaultCommandOptions())
	return s
}

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		// Session driver
		{Key: KeyProgram, Type: TypeString, Default: "claude", Description: "Interactive program to drive", EnvVar: "USAGE_CAPTURE_PROGRAM"},
		{Key: KeyArgs, Type: TypeString, Default: "", Description: "Extra program arguments, shell-quoted", EnvVar: "USAGE_CAPTURE_ARGS"},
		{Key: KeyCommand, Type: TypeString, Default: "/usage", Description: "Slash command to send"},
		{Key: KeyTimeout, Type: TypeDuration, Default: "30s", Description: "Hard limit for the whole session", EnvVar: "USAGE_CAPTURE_TIMEOUT"},
		{Key: KeyWait, Type: TypeDuration, Default: "5s", Description: "Capture window after sending the command", EnvVar: "USAGE_CAPTURE_WAIT"},
		{Key: KeyStartupDelay, Type: TypeDuration, Default: "2s", Description: "Wait for the program to start before typing"},
		{Key: KeySettleDelay, Type: TypeDuration, Default: "500ms", Description: "Pause between typing the command and pressing Enter"},
		{Key: KeyDismissDrain, Type: TypeDuration, Default: "1s", Description: "Capture window after Escape and after /exit"},
		{Key: KeyExitWait, Type: TypeDuration, Default: "5s", Description: "Wait for the program to exit before killing it"},
		{Key: KeyRows, Type: TypeInt, Default: "40", Description: "Pseudo-terminal rows"},
		{Key: KeyCols, Type: TypeInt, Default: "160", Description: "Pseudo-terminal columns"},

		// Output
		{Key: KeyUsageLog, Type: TypeString, Default: "/tmp/usage.log", Description: "File receiving the extracted usage section (empty to skip)", EnvVar: "USAGE_CAPTURE_LOG"},
		{Key: KeyDebug, Type: TypeBool, Default: "false", Description: "Echo the raw session and log diagnostics to stderr"},
		{Key: KeySilent, Type: TypeBool, Default: "false", Description: "Suppress normal output; only emit errors"},

		// Diagnostic logging
		{Key: KeyLogFile, Type: TypeString, Default: "", Description: "Diagnostic log file path (JSON output)", EnvVar: "USAGE_CAPTURE_LOG_FILE"},
		{Key: KeyLogLevel, Type: TypeString, Default: "info", Description: "Diagnostic log level: debug, info, warn, error", EnvVar: "USAGE_CAPTURE_LOG_LEVEL"},
		{Key: KeyLogMaxSizeMB, Type: TypeInt, Default: "10", Description: "Max diagnostic log size in MB before rotation"},
		{Key: KeyLogMaxFiles, Type: TypeInt, Default: "5", Description: "Max number of rotated diagnostic log backups"},
	}
}

func defaultCommandOptions() []ConfigOption {
	return []ConfigOption{
		// [extract] section
		{Key: "layout", Section: "extract", Type: TypeString, Default: "", Description: "Only try the named layout"},
	}
}
