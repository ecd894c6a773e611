// Package jsonfile persists the media catalog as a single JSON document.
// Catalog traffic is light (one write per upload), so a flat file with
// atomic rewrites is enough.
package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"visionq/internal/domain"
	"visionq/internal/port"
)

type Store struct {
	mu    sync.RWMutex
	path  string
	media map[string]*domain.MediaInfo
}

func NewStore(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "media.json")

	store := &Store{
		path:  path,
		media: make(map[string]*domain.MediaInfo),
	}

	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return store, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	var mediaList []*domain.MediaInfo
	if err := json.Unmarshal(data, &mediaList); err != nil {
		return err
	}

	for _, m := range mediaList {
		s.media[m.ID] = m
	}

	return nil
}

func (s *Store) save() error {
	tmpPath := s.path + ".tmp"

	mediaList := make([]*domain.MediaInfo, 0, len(s.media))
	for _, m := range s.media {
		mediaList = append(mediaList, m)
	}
	sort.Slice(mediaList, func(i, j int) bool {
		return mediaList[i].UploadedAt.After(mediaList[j].UploadedAt)
	})

	data, err := json.MarshalIndent(mediaList, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}

func (s *Store) Save(m *domain.MediaInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.media[m.ID] = m
	return s.save()
}

func (s *Store) Get(id string) (*domain.MediaInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.media[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return m, nil
}

func (s *Store) List() ([]*domain.MediaInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.MediaInfo, 0, len(s.media))
	for _, m := range s.media {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	return list, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.media, id)
	return s.save()
}

var _ port.MediaCatalog = (*Store)(nil)
