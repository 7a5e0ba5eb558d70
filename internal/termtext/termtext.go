// Package termtext turns raw pseudo-terminal output into plain text.
//
// Terminal applications paint their screens with cursor movement, colour and
// mode-switching sequences. Clean removes all of those, along with carriage
// returns, leaving only the printable text and line breaks that a scraper can
// match against.
package termtext

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Clean strips every escape sequence recognised by a VT500-compatible parser
// (CSI, OSC, DCS, SOS/PM/APC strings and two-byte ESC sequences) and every
// carriage return from s. Other characters, including line feeds, tabs and
// multi-byte text, are kept as-is. Invalid UTF-8 is replaced with U+FFFD.
//
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, "\uFFFD")
	if strings.IndexByte(s, '\x1b') >= 0 {
		s = ansi.Strip(s)
	}
	return strings.ReplaceAll(s, "\r", "")
}

// Lines splits cleaned text into lines with trailing whitespace removed.
// A trailing line break does not produce an extra empty line.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return lines
}
