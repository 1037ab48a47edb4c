package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by Read when no bytes are stored at a path.
var ErrNotFound = errors.New("storage: object not found")

// WriteResult describes bytes that were just stored.
type WriteResult struct {
	Hash string
	Size int64
}

// Store is path-addressed byte storage for the cache. Paths are slash
// separated and relative to the cache root.
type Store interface {
	// Write stores data at path, replacing whatever was there.
	Write(ctx context.Context, path string, data []byte) (WriteResult, error)
	// Read returns the bytes stored at path or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
	// Delete removes a single file. Missing files are not an error.
	Delete(ctx context.Context, path string) error
	// DeleteFolder removes path and everything below it.
	DeleteFolder(ctx context.Context, path string) error
	// ListAll returns every stored file path.
	ListAll(ctx context.Context) ([]string, error)
	// ListTopLevelFolders returns the names of folders directly under the root.
	ListTopLevelFolders(ctx context.Context) ([]string, error)
}

// NewStore builds the backend selected in cfg.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendDisk:
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir %s: %w", cfg.Dir, err)
		}
		return NewDiskStore(afero.NewBasePathFs(afero.NewOsFs(), cfg.Dir)), nil
	case BackendS3:
		client, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
			return nil, err
		}
		return NewObjectStore(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
