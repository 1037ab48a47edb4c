package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"drive-cache/core/utils"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const tmpPrefix = ".tmp-"

// DiskStore keeps the cache on a filesystem. Production uses a BasePathFs
// rooted at the cache dir; tests use a MemMapFs.
type DiskStore struct {
	fs afero.Fs
}

// NewDiskStore wraps an already rooted filesystem.
func NewDiskStore(fs afero.Fs) *DiskStore {
	return &DiskStore{fs: fs}
}

func abs(p string) string {
	return "/" + strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Write stores data through a temp file and rename so readers never see a
// partially written file.
func (s *DiskStore) Write(_ context.Context, p string, data []byte) (WriteResult, error) {
	target := abs(p)
	dir := path.Dir(target)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return WriteResult{}, err
	}

	tmp := path.Join(dir, tmpPrefix+uuid.NewString())
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return WriteResult{}, err
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return WriteResult{}, err
	}

	return WriteResult{Hash: utils.ContentHash(data), Size: int64(len(data))}, nil
}

func (s *DiskStore) Read(_ context.Context, p string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, abs(p))
	if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *DiskStore) Delete(_ context.Context, p string) error {
	err := s.fs.Remove(abs(p))
	if err != nil && !os.IsNotExist(err) && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) DeleteFolder(_ context.Context, p string) error {
	target := abs(p)
	if target == "/" {
		return errors.New("refusing to delete cache root")
	}
	return s.fs.RemoveAll(target)
}

func (s *DiskStore) ListAll(ctx context.Context) ([]string, error) {
	var paths []string
	err := afero.Walk(s.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), tmpPrefix) {
			return nil
		}
		paths = append(paths, strings.TrimPrefix(filepath.ToSlash(p), "/"))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *DiskStore) ListTopLevelFolders(_ context.Context) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, "/")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	return folders, nil
}
