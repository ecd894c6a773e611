package port

import "visionq/internal/domain"

// MediaCatalog stores descriptive metadata for uploaded blobs. Owned by the
// media subsystem; the orchestration core only resolves input references
// through it.
type MediaCatalog interface {
	Save(m *domain.MediaInfo) error
	Get(id string) (*domain.MediaInfo, error)
	List() ([]*domain.MediaInfo, error)
	Delete(id string) error
}
