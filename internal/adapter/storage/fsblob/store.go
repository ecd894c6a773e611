// Package fsblob implements the media store gateway on a local directory
// tree. Keys are slash-separated paths relative to the base directory.
package fsblob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"visionq/internal/domain"
	"visionq/internal/port"
)

type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create blob directory %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) Fetch(ctx context.Context, key, destDir string) (string, error) {
	src, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
		}
		return "", fmt.Errorf("open blob %s: %w", key, err)
	}
	defer in.Close()

	localPath := filepath.Join(destDir, filepath.Base(key))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", localPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("copy blob %s: %w", key, err)
	}
	return localPath, nil
}

func (s *Store) Push(ctx context.Context, localPath, key string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create blob prefix for %s: %w", key, err)
	}

	in, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer in.Close()

	// Write to a temp name first so readers never see a partial blob.
	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize blob %s: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) map[string]error {
	failed := make(map[string]error)
	for _, key := range keys {
		if key == "" {
			continue
		}
		path, err := s.resolve(key)
		if err != nil {
			failed[key] = err
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failed[key] = err
		}
	}
	return failed
}

// resolve maps a key onto the base directory, rejecting traversal outside it.
func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty blob key: %w", domain.ErrInvalidInput)
	}
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("blob key %q escapes base directory: %w", key, domain.ErrInvalidInput)
	}
	return path, nil
}

var _ port.BlobStore = (*Store)(nil)
