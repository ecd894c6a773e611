package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxFilenameLength caps sanitized names at the common filesystem limit.
const maxFilenameLength = 255

// headerUnsafe lists characters that can break out of a quoted
// Content-Disposition value or smuggle path components.
const headerUnsafe = `"\/:` + "\n\r"

// SanitizeFilename makes a client-supplied filename safe for HTTP headers
// and local paths. Control characters, quotes, path separators and CR/LF
// become underscores; printable Unicode is kept. Names longer than 255
// bytes are truncated with the extension preserved, and inputs that
// sanitize to nothing come back as "file".
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(headerUnsafe, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	if strings.Trim(out, "_") == "" {
		return "file"
	}
	if len(out) > maxFilenameLength {
		out = truncateName(out)
	}
	return out
}

// truncateName shortens a name to maxFilenameLength bytes, keeping the
// extension when one fits and never splitting a multi-byte rune.
func truncateName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || len(ext) >= maxFilenameLength {
		return cutAtRuneBoundary(name, maxFilenameLength)
	}
	base := name[:len(name)-len(ext)]
	return cutAtRuneBoundary(base, maxFilenameLength-len(ext)) + ext
}

func cutAtRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// ContentDisposition builds a Content-Disposition header value around the
// sanitized filename. inline previews in the browser, attachment forces a
// download.
func ContentDisposition(filename string, inline bool) string {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	return fmt.Sprintf("%s; filename=%q", disposition, SanitizeFilename(filename))
}
