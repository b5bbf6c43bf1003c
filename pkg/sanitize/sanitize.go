package sanitize

import (
	"strings"
	"unicode"
)

// Text normalises user-typed notice text for storage: line endings become "\n",
// control characters other than newline and tab are dropped, and the result is
// trimmed. Markup is kept as literal text; escaping belongs to the renderer.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Flatten is Text with all whitespace runs collapsed to one space, for search documents.
func Flatten(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}
