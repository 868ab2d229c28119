package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stockroom/internal/common"
)

// FileStore persists each collection as <dir>/<name>.json. Missing files
// are initialized to an empty array on first read. Writes go through a
// temp file and rename so a crash never leaves a half-written collection.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data directory %s: %v", common.ErrPersistence, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) ReadCollection(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		if werr := s.WriteCollection(context.Background(), name, emptyCollection); werr != nil {
			return nil, werr
		}
		return emptyCollection, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrPersistence, name, err)
	}
	if len(data) == 0 {
		return emptyCollection, nil
	}
	return data, nil
}

func (s *FileStore) WriteCollection(_ context.Context, name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: staging %s: %v", common.ErrPersistence, name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", common.ErrPersistence, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %v", common.ErrPersistence, name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %v", common.ErrPersistence, name, err)
	}
	return nil
}

func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("%w: data directory unavailable: %v", common.ErrPersistence, err)
	}
	return nil
}
