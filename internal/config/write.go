package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeycumines/usage-capture/internal/storage"
)

// SetKeyInFile sets a global option in the config file at path, creating the
// file if needed. Comments, blank lines and sections are preserved. An
// existing global line for key is replaced in place; otherwise the option is
// inserted before the first section header, or appended.
//
// Keys inside [section] blocks are never matched.
func SetKeyInFile(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(string(data), "\n")
	}
	lines = upsertGlobal(lines, key, value)

	return storage.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func upsertGlobal(lines []string, key, value string) []string {
	option := formatOption(key, value)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isSectionHeader(trimmed) {
			// Global section ends here.
			return append(lines[:i], append([]string{option}, lines[i:]...)...)
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = option
			return lines
		}
	}

	// Keep a trailing newline trailing.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return append(lines[:n-1], option, "")
	}
	return append(lines, option)
}

func formatOption(key, value string) string {
	if value == "" {
		return key
	}
	return key + " " + value
}

func isSectionHeader(trimmed string) bool {
	return strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")
}
