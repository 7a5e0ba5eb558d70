package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

// minRuleWidth is the narrowest rule drawn around a block.
const minRuleWidth = 60

// report writes the human-readable result of a capture.
type report struct {
	w        io.Writer
	styled   bool
	title    lipgloss.Style
	maxWidth int
}

// newReport returns a report writing to w. Titles are bold when styled is
// set. Rules never grow past maxWidth columns, if positive.
func newReport(w io.Writer, styled bool, maxWidth int) *report {
	return &report{
		w:        w,
		styled:   styled,
		title:    lipgloss.NewRenderer(w).NewStyle().Bold(true),
		maxWidth: maxWidth,
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *report) heading(s string) string {
	if !r.styled {
		return s
	}
	return r.title.Render(s)
}

// framed writes body with title, ruled above and below:
//
//	====
//	title
//	====
//	body
//	====
func (r *report) framed(title, body string) {
	rule := r.rule(body)
	_, _ = fmt.Fprintf(r.w, "\n%s\n%s\n%s\n%s\n%s\n", rule, r.heading(title), rule, body, rule)
}

// titled writes title, then body between two rules.
func (r *report) titled(title, body string) {
	rule := r.rule(body)
	_, _ = fmt.Fprintf(r.w, "\n%s\n%s\n%s\n%s\n", r.heading(title), rule, body, rule)
}

func (r *report) rule(body string) string {
	return strings.Repeat("=", ruleWidth(body, r.maxWidth))
}

// ruleWidth is the display width of the widest line of body, at least
// minRuleWidth and at most maxWidth (when maxWidth is at least
// minRuleWidth).
func ruleWidth(body string, maxWidth int) int {
	width := minRuleWidth
	for line := range strings.SplitSeq(body, "\n") {
		width = max(width, uniseg.StringWidth(line))
	}
	if maxWidth >= minRuleWidth {
		width = min(width, maxWidth)
	}
	return width
}
