package repo

import (
	"context"
	"sort"
	"sync"
)

// InMemoryFlagStore keeps flags in a map. It is not durable and exists for
// tests and ephemeral runs.
type InMemoryFlagStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewInMemoryFlagStore() *InMemoryFlagStore {
	return &InMemoryFlagStore{flags: make(map[string]bool)}
}

var _ FlagStore = (*InMemoryFlagStore)(nil)

func (s *InMemoryFlagStore) IsDownloaded(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[flagKey(id)], nil
}

func (s *InMemoryFlagStore) Downloaded(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.flags))
	for k, v := range s.flags {
		if id, ok := idFromKey(k); ok && v {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InMemoryFlagStore) SetDownloaded(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flagKey(id)] = true
	return nil
}

func (s *InMemoryFlagStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, flagKey(id))
	return nil
}

func (s *InMemoryFlagStore) Ping(ctx context.Context) error { return nil }
