package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// CacheStore is a map-backed extraction cache keyed by fingerprint.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]driven.CachedExtraction
}

var _ driven.ExtractionCache = (*CacheStore)(nil)

// NewCacheStore creates an empty cache.
func NewCacheStore() *CacheStore {
	return &CacheStore{entries: make(map[string]driven.CachedExtraction)}
}

// Get returns the cached extraction, or nil on a miss.
func (s *CacheStore) Get(_ context.Context, fingerprint string) (*driven.CachedExtraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[fingerprint]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Set stores the extraction, overwriting any previous entry.
func (s *CacheStore) Set(_ context.Context, fingerprint string, entry driven.CachedExtraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fingerprint] = entry
	return nil
}

// Len reports the number of cached entries.
func (s *CacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
