package domain

import (
	"time"

	"github.com/google/uuid"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaInfo describes one uploaded blob. The orchestration core only reads
// input keys and writes result keys; it never mutates media metadata.
type MediaInfo struct {
	ID           string    `json:"id"`
	Kind         MediaKind `json:"kind"`
	Key          string    `json:"key"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Duration     float64   `json:"duration,omitempty"`
	Codec        string    `json:"codec,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func NewMediaInfo(kind MediaKind, key, originalName, contentType string, sizeBytes int64) *MediaInfo {
	return &MediaInfo{
		ID:           uuid.NewString(),
		Kind:         kind,
		Key:          key,
		OriginalName: originalName,
		ContentType:  contentType,
		SizeBytes:    sizeBytes,
		UploadedAt:   time.Now().UTC(),
	}
}

// CompatibleWith reports whether media of this kind can feed the given job
// kind. Video jobs need video input, image inference needs an image.
func (m *MediaInfo) CompatibleWith(kind JobKind) bool {
	switch kind {
	case JobKindImageInference:
		return m.Kind == MediaKindImage
	case JobKindVideoInference, JobKindTranscode:
		return m.Kind == MediaKindVideo
	}
	return false
}
