package domain

import (
	"fmt"
	"math"
	"strconv"
)

type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	NbStreams  int    `json:"nb_streams"`
}

type ProbeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Profile      string `json:"profile"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixFmt       string `json:"pix_fmt"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
	RawJSON string        `json:"-"`
}

func (p *ProbeResult) VideoStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

func (p *ProbeResult) Dimensions() (width, height int) {
	vs := p.VideoStream()
	if vs != nil {
		return vs.Width, vs.Height
	}
	return 0, 0
}

// Duration returns the container duration in seconds, or 0 when unknown.
func (p *ProbeResult) Duration() float64 {
	return ParseDuration(p.Format.Duration)
}

// FrameCount returns the total video frame count. When the container does
// not carry nb_frames it is estimated from duration and frame rate.
func (p *ProbeResult) FrameCount() int {
	vs := p.VideoStream()
	if vs == nil {
		return 0
	}
	if n, err := strconv.Atoi(vs.NbFrames); err == nil && n > 0 {
		return n
	}
	fps := ParseFrameRate(vs.AvgFrameRate)
	if fps == 0 {
		fps = ParseFrameRate(vs.RFrameRate)
	}
	dur := ParseDuration(vs.Duration)
	if dur == 0 {
		dur = p.Duration()
	}
	return int(math.Floor(dur * fps))
}

// FrameRate returns the average video frame rate, or 0 when unknown.
func (p *ProbeResult) FrameRate() float64 {
	vs := p.VideoStream()
	if vs == nil {
		return 0
	}
	if fps := ParseFrameRate(vs.AvgFrameRate); fps > 0 {
		return fps
	}
	return ParseFrameRate(vs.RFrameRate)
}

func ParseFrameRate(fraction string) float64 {
	if fraction == "" || fraction == "0/0" {
		return 0
	}
	var num, den int
	if _, err := fmt.Sscanf(fraction, "%d/%d", &num, &den); err == nil && den > 0 {
		return float64(num) / float64(den)
	}
	return 0
}

func ParseDuration(durationStr string) float64 {
	if durationStr == "" || durationStr == "N/A" {
		return 0
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0
	}
	return duration
}

func ParseSize(sizeStr string) int64 {
	if sizeStr == "" {
		return 0
	}
	var size int64
	if _, err := fmt.Sscanf(sizeStr, "%d", &size); err == nil {
		return size
	}
	return 0
}
