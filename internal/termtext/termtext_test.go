package termtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain text untouched", in: "Current session\n  12% used\n", want: "Current session\n  12% used\n"},
		{name: "sgr colour", in: "\x1b[1;32mgreen\x1b[0m text", want: "green text"},
		{name: "escape then carriage return", in: "a\x1b[2K\rb", want: "ab"},
		{name: "cursor movement", in: "\x1b[?25l\x1b[3;1Hline\x1b[K\x1b[?25h", want: "line"},
		{name: "two byte escape", in: "\x1b7saved\x1b8", want: "saved"},
		{name: "osc title with bel", in: "\x1b]0;claude\x07prompt", want: "prompt"},
		{name: "osc hyperlink with st", in: "\x1b]8;;https://example.com\x1b\\link\x1b]8;;\x1b\\", want: "link"},
		{name: "crlf line endings", in: "one\r\ntwo\r\n", want: "one\ntwo\n"},
		{name: "box drawing preserved", in: "\x1b[2m────\x1b[22m\n│ Usage │", want: "────\n│ Usage │"},
		{name: "tabs and middle dot preserved", in: "\t· Opus\r\n", want: "\t· Opus\n"},
		{name: "invalid utf8 replaced", in: "ok\xffok", want: "ok\uFFFDok"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clean(tc.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	for _, in := range []string{
		"",
		"plain",
		"\x1b[31mred\x1b[0m\r\n",
		"\x1b]0;t\x07\x1b[?2004h> /usage\r\x1b[2K",
		"┌─ project ─┐\r\n│ Session: 3% │ Week: 10% │",
		"\xc2\r\x1b[31mx",
		"\xe2\r\x1b[",
		"trailing escape \x1b",
	} {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestLines(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, Lines(""))
	})

	t.Run("trims trailing whitespace only", func(t *testing.T) {
		got := Lines("  indented   \nnext\t\n\n  ")
		require.Len(t, got, 4)
		assert.Equal(t, []string{"  indented", "next", "", ""}, got)
	})

	t.Run("single trailing newline does not add a line", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, Lines("a\nb\n"))
	})
}
