// Package argv splits a command line string into arguments the way a POSIX
// shell would, without expansion of any kind.
package argv

import (
	"iter"
	"strings"
)

// Seq yields the arguments in s.
//
//   - Unquoted blanks (space, tab, newline) separate arguments.
//   - Single quotes keep everything up to the next single quote literally.
//   - Double quotes keep their contents; inside them a backslash escapes only
//     $, `, ", \ and newline.
//   - Outside quotes a backslash escapes the next character, and a
//     backslash-newline pair is removed.
//   - Quoted and unquoted parts join: --name="a b" is the single argument
//     --name=a b, and "" is an empty argument.
//
// An unterminated quote runs to the end of s.
func Seq(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var (
			b       strings.Builder
			inArg   bool
			quote   rune
			escaped bool
		)
		for _, r := range s {
			switch {
			case escaped:
				escaped = false
				if quote == '"' && !strings.ContainsRune("$`\"\\\n", r) {
					b.WriteRune('\\')
				}
				if r != '\n' {
					b.WriteRune(r)
					inArg = true
				}
			case quote == '\'':
				if r == '\'' {
					quote = 0
				} else {
					b.WriteRune(r)
				}
			case r == '\\':
				escaped = true
			case quote == '"':
				if r == '"' {
					quote = 0
				} else {
					b.WriteRune(r)
				}
			case r == '\'' || r == '"':
				quote = r
				inArg = true
			case r == ' ' || r == '\t' || r == '\n':
				if inArg {
					if !yield(b.String()) {
						return
					}
					b.Reset()
					inArg = false
				}
			default:
				b.WriteRune(r)
				inArg = true
			}
		}
		if escaped && quote != 0 {
			b.WriteRune('\\')
		}
		if inArg || b.Len() > 0 {
			yield(b.String())
		}
	}
}

// Split collects Seq into a slice. It returns nil when s holds no
// arguments.
func Split(s string) []string {
	var out []string
	for arg := range Seq(s) {
		out = append(out, arg)
	}
	return out
}
