package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// ParseProgressLine extracts the elapsed output timestamp from one line of
// ffmpeg "-progress pipe:1" output ("out_time=HH:MM:SS.micro"). Lines from
// the legacy stderr format ("time=HH:MM:SS.cs") are accepted too. The
// second return value is false for lines carrying no timestamp.
func ParseProgressLine(line string) (time.Duration, bool) {
	line = strings.TrimSpace(line)

	var value string
	switch {
	case strings.HasPrefix(line, "out_time="):
		value = strings.TrimPrefix(line, "out_time=")
	case strings.Contains(line, "time="):
		rest := line[strings.Index(line, "time=")+len("time="):]
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			rest = rest[:i]
		}
		value = rest
	default:
		return 0, false
	}

	return parseClock(value)
}

// parseClock parses HH:MM:SS[.fraction] into a duration.
func parseClock(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil || hours < 0 || minutes < 0 || seconds < 0 {
		return 0, false
	}
	total := float64(hours)*3600 + float64(minutes)*60 + seconds
	return time.Duration(total * float64(time.Second)), true
}
