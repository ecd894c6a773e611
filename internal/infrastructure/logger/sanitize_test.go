package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain string", "clip.mp4", "clip.mp4"},
		{"empty string", "", ""},
		{"unicode preserved", "vidéo-動画-🎬.mp4", "vidéo-動画-🎬.mp4"},
		{"newline escaped", "line1\nline2", `line1\nline2`},
		{"carriage return escaped", "line1\rline2", `line1\rline2`},
		{"tab escaped", "col1\tcol2", `col1\tcol2`},
		{"null byte escaped", "file\x00name", `file\x00name`},
		{"ANSI escape code", "text\x1b[31mred", `text\x1b[31mred`},
		{"fake log entry injection", "name\nERROR: fake entry", `name\nERROR: fake entry`},
		{"DEL escaped", string(rune(127)), `\x7f`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeForLog(tt.input))
		})
	}
}

func TestSanitizeForLog_AllControlChars(t *testing.T) {
	for i := 0; i < 32; i++ {
		input := fmt.Sprintf("a%cb", rune(i))
		result := SanitizeForLog(input)
		assert.NotContains(t, result, string(rune(i)), "control char %d should be escaped", i)
	}
}
