package memory

import (
	"context"
	"sync"

	"shortlink/internal/domain"
	"shortlink/internal/repository"
)

// MappingStore keeps mappings in a map guarded by a RWMutex.
// It honors the same write-once contract as the database backends
// and is what tests and "memory://" deployments run against.
type MappingStore struct {
	mu   sync.RWMutex
	urls map[string]string
}

// NewMappingStore creates an empty store.
func NewMappingStore() *MappingStore {
	return &MappingStore{
		urls: make(map[string]string),
	}
}

var _ repository.MappingStore = (*MappingStore)(nil)

// Save inserts the mapping unless the short code is already present.
func (s *MappingStore) Save(ctx context.Context, mapping domain.URLMapping) error {
	if err := ctx.Err(); err != nil {
		return repository.Backend("insert mapping", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.urls[mapping.ShortCode]; exists {
		return repository.Conflict("insert mapping", mapping.ShortCode)
	}
	s.urls[mapping.ShortCode] = mapping.OriginalURL
	return nil
}

// Find returns the mapping for shortCode if present.
func (s *MappingStore) Find(ctx context.Context, shortCode string) (domain.URLMapping, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.URLMapping{}, false, repository.Backend("select mapping", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	originalURL, ok := s.urls[shortCode]
	if !ok {
		return domain.URLMapping{}, false, nil
	}
	return domain.NewURLMapping(shortCode, originalURL), true, nil
}

// Ping always succeeds.
func (s *MappingStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored mappings.
func (s *MappingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls)
}
