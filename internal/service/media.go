package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"visionq/internal/domain"
	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
)

// MediaService registers uploaded blobs in the catalog, probing video
// metadata on ingest so the dispatcher can validate job submissions
// without touching the blob.
type MediaService struct {
	catalog    port.MediaCatalog
	blobs      port.BlobStore
	transcoder port.Transcoder
}

func NewMediaService(catalog port.MediaCatalog, blobs port.BlobStore, transcoder port.Transcoder) *MediaService {
	return &MediaService{catalog: catalog, blobs: blobs, transcoder: transcoder}
}

// Upload stores the local file under a fresh origins/ key and records its
// metadata. localPath must outlive the call; the caller owns its cleanup.
func (s *MediaService) Upload(ctx context.Context, localPath, originalName, contentType string, kind domain.MediaKind) (*domain.MediaInfo, error) {
	fi, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	key := "origins/" + uuid.NewString() + ext

	if err := s.blobs.Push(ctx, localPath, key); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	info := domain.NewMediaInfo(kind, key, originalName, contentType, fi.Size())

	if kind == domain.MediaKindVideo {
		probe, err := s.transcoder.Probe(ctx, localPath)
		if err != nil {
			// Metadata is advisory; a probe failure does not reject the upload.
			logger.Warn.Printf("media %s: probe failed: %v", info.ID, err)
		} else {
			info.Width, info.Height = probe.Dimensions()
			info.Duration = probe.Duration()
			if vs := probe.VideoStream(); vs != nil {
				info.Codec = vs.CodecName
			}
		}
	}

	if err := s.catalog.Save(info); err != nil {
		s.blobs.Delete(ctx, key)
		return nil, fmt.Errorf("save media metadata: %w", err)
	}

	logger.Info.Printf("media uploaded: id=%s, name=%s, kind=%s, size=%d", info.ID, logger.SanitizeForLog(originalName), kind, fi.Size())
	return info, nil
}

func (s *MediaService) Get(id string) (*domain.MediaInfo, error) {
	return s.catalog.Get(id)
}

func (s *MediaService) List() ([]*domain.MediaInfo, error) {
	return s.catalog.List()
}

// FetchFile copies the stored media object into destDir and returns the
// local path alongside its catalog record.
func (s *MediaService) FetchFile(ctx context.Context, id, destDir string) (string, *domain.MediaInfo, error) {
	info, err := s.catalog.Get(id)
	if err != nil {
		return "", nil, err
	}
	path, err := s.blobs.Fetch(ctx, info.Key, destDir)
	if err != nil {
		return "", nil, err
	}
	return path, info, nil
}

// Delete removes the catalog entry and its blob. Blob removal is
// best-effort; a dangling blob is swept later, a dangling record is not.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	info, err := s.catalog.Get(id)
	if err != nil {
		return err
	}

	if failed := s.blobs.Delete(ctx, info.Key); len(failed) > 0 {
		logger.Warn.Printf("media %s: blob delete: %v", id, failed)
	}

	return s.catalog.Delete(id)
}
