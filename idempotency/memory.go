package idempotency

import (
	"context"
	"sync"
	"time"
)

const maxMemoryEntries = 10000

// MemoryStore is a process-local Store used when redis is not configured.
type MemoryStore struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	entry
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryStore{ttl: ttl, entries: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Begin(_ context.Context, key string) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.entries) >= maxMemoryEntries {
		for k, e := range s.entries {
			if !now.Before(e.expires) {
				delete(s.entries, k)
			}
		}
	}
	if e, ok := s.entries[key]; ok && now.Before(e.expires) {
		if !e.Done {
			return nil, ErrInProgress
		}
		resp := *e.Response
		return &resp, nil
	}
	s.entries[key] = memEntry{expires: now.Add(s.ttl)}
	return nil, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memEntry{entry: entry{Done: true, Response: &resp}, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
