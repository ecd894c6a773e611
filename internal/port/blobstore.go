package port

import "context"

// BlobStore is the media store gateway. Keys are opaque slash-separated
// paths ("origins/<uuid>.mp4", "results/<job-id>.mp4"); blobs are opaque
// bytes. Per-key operations are independent and safe for concurrent use.
type BlobStore interface {
	// Fetch copies the blob under key into destDir and returns the local
	// path. Returns domain.ErrNotFound when the key is absent.
	Fetch(ctx context.Context, key, destDir string) (string, error)

	// Push stores the local file under key, overwriting any existing blob.
	Push(ctx context.Context, localPath, key string) error

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the given keys best-effort. Per-key failures are
	// reported in the returned map and are not fatal to the caller.
	Delete(ctx context.Context, keys ...string) map[string]error
}
