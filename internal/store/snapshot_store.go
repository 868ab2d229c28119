package store

import (
	"context"
	"log"
	"sync"
)

// SnapshotStore wraps another Store with an in-process copy of every
// collection. The snapshot has a fixed lifecycle: warmed once at startup,
// refreshed on every successful read and write, and served as a read
// fallback when the backend is unreachable. It is never reset mid-session.
type SnapshotStore struct {
	backend Store

	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewSnapshotStore(backend Store) *SnapshotStore {
	return &SnapshotStore{
		backend:   backend,
		snapshots: make(map[string][]byte),
	}
}

// Warm loads every named collection from the backend. Called once at
// startup; a failure here is fatal for the caller since there is nothing
// to fall back to yet.
func (s *SnapshotStore) Warm(ctx context.Context, names []string) error {
	for _, name := range names {
		data, err := s.backend.ReadCollection(ctx, name)
		if err != nil {
			return err
		}
		s.set(name, data)
	}
	return nil
}

// Refresh re-reads every cached collection from the backend, keeping the
// stale snapshot for any collection whose read fails.
func (s *SnapshotStore) Refresh(ctx context.Context) {
	s.mu.RLock()
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	s.mu.RUnlock()

	for _, name := range names {
		data, err := s.backend.ReadCollection(ctx, name)
		if err != nil {
			log.Printf("snapshot refresh: keeping stale %s: %v", name, err)
			continue
		}
		s.set(name, data)
	}
}

func (s *SnapshotStore) ReadCollection(ctx context.Context, name string) ([]byte, error) {
	data, err := s.backend.ReadCollection(ctx, name)
	if err != nil {
		if cached, ok := s.get(name); ok {
			log.Printf("read %s failed, serving snapshot: %v", name, err)
			return cached, nil
		}
		return nil, err
	}
	s.set(name, data)
	return data, nil
}

func (s *SnapshotStore) WriteCollection(ctx context.Context, name string, data []byte) error {
	if err := s.backend.WriteCollection(ctx, name, data); err != nil {
		return err
	}
	s.set(name, data)
	return nil
}

func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *SnapshotStore) get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.snapshots[name]
	return data, ok
}

func (s *SnapshotStore) set(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[name] = data
}
