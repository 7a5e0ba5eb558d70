// Package usage locates the usage report inside the cleaned screen text of
// an interactive session.
//
// The target program has shipped several different renderings of the report.
// Each one is described by a Layout: how to recognise the line that starts
// the report, and how to recognise the line that follows it. Extract tries
// the known layouts in order.
package usage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joeycumines/usage-capture/internal/termtext"
)

// ErrNotFound is returned when no layout locates a non-empty report.
var ErrNotFound = errors.New("could not locate usage section in output")

// Section is a report block located within the cleaned lines of a capture.
type Section struct {
	// Layout is the name of the layout that matched.
	Layout string
	// Start and End bound the block within the cleaned lines, [Start, End).
	Start, End int
	// Lines holds the block's lines, trailing whitespace removed.
	Lines []string
}

// Text returns the block joined with newlines, without leading or trailing
// blank lines.
func (s *Section) Text() string {
	return strings.TrimSpace(strings.Join(s.Lines, "\n"))
}

func (s *Section) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Layout, s.Start, s.End)
}

// Layout describes how one rendering of the report is delimited.
type Layout struct {
	Name string

	// Anchors are tried in order; the first that matches at least one line
	// is used, and of its matches the last line wins, since later redraws
	// are more completely rendered.
	Anchors []func(line string) bool

	// IncludeRule pulls in the line directly above the anchor when it is a
	// horizontal rule.
	IncludeRule bool

	// Stop reports whether the trimmed, non-blank line ends the block. Blank
	// lines never end a block.
	Stop func(trimmed string) bool
}

// Locate applies the layout to lines. It returns nil when the layout's anchor
// is absent or the resulting block is blank.
func (l *Layout) Locate(lines []string) *Section {
	start := -1
	for _, anchor := range l.Anchors {
		if start = lastIndex(lines, anchor); start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}

	first := start
	if l.IncludeRule && start > 0 && strings.HasPrefix(strings.TrimSpace(lines[start-1]), "─") {
		first = start - 1
	}

	end := start + 1
	for ; end < len(lines); end++ {
		if trimmed := strings.TrimSpace(lines[end]); trimmed != "" && l.Stop(trimmed) {
			break
		}
	}

	s := &Section{
		Layout: l.Name,
		Start:  first,
		End:    end,
		Lines:  append([]string(nil), lines[first:end]...),
	}
	if s.Text() == "" {
		return nil
	}
	return s
}

// Extract locates the usage report in cleaned capture text using the
// built-in layouts.
func Extract(clean string) (*Section, error) {
	return ExtractWith(clean, Layouts()...)
}

// ExtractWith locates the report using only the given layouts, in order.
func ExtractWith(clean string, layouts ...Layout) (*Section, error) {
	lines := termtext.Lines(clean)
	for i := range layouts {
		if s := layouts[i].Locate(lines); s != nil {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func lastIndex(lines []string, match func(string) bool) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if match(lines[i]) {
			return i
		}
	}
	return -1
}
