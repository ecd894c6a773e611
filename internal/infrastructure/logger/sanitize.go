package logger

import (
	"fmt"
	"strings"
)

// SanitizeForLog neutralizes control characters in user-supplied values
// before they reach a log line, so a crafted filename cannot forge log
// entries or emit terminal escape sequences. Printable Unicode passes
// through untouched.
func SanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteString(escapeRune(r))
	}
	return b.String()
}

func escapeRune(r rune) string {
	switch r {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	}
	if r < 0x20 || r == 0x7f {
		return fmt.Sprintf(`\x%02x`, r)
	}
	return string(r)
}
