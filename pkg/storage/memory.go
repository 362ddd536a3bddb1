package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps the link log in process. Used when no DSN is
// configured and in tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	links []Link
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) SaveLink(ctx context.Context, l Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = int64(len(s.links) + 1)
	s.links = append(s.links, l)
	return nil
}

// RecentLinks returns up to limit links, newest first.
func (s *MemoryStorage) RecentLinks(ctx context.Context, limit int) ([]Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.links) {
		limit = len(s.links)
	}

	out := make([]Link, 0, limit)
	for i := len(s.links) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.links[i])
	}
	return out, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
