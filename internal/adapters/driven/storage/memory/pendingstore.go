package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// PendingStore keeps pending artifacts in a map. Quarantined artifacts
// move to a side map so tests can observe them.
type PendingStore struct {
	mu          sync.RWMutex
	plans       map[string]domain.PendingPlan
	quarantined map[string]domain.PendingPlan
}

var _ driven.PendingStore = (*PendingStore)(nil)

// NewPendingStore creates an empty store.
func NewPendingStore() *PendingStore {
	return &PendingStore{
		plans:       make(map[string]domain.PendingPlan),
		quarantined: make(map[string]domain.PendingPlan),
	}
}

// Save stores the artifact keyed by its ID. The returned location is
// the synthetic "memory:<id>".
func (s *PendingStore) Save(_ context.Context, plan domain.PendingPlan) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[plan.ID] = plan
	return "memory:" + plan.ID, nil
}

// List returns unresolved artifacts, newest first.
func (s *PendingStore) List(_ context.Context) ([]domain.PendingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PendingPlan, 0, len(s.plans))
	for _, plan := range s.plans {
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns one artifact by ID.
func (s *PendingStore) Get(_ context.Context, id string) (*domain.PendingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("pending plan %s: %w", id, domain.ErrNotFound)
	}
	return &plan, nil
}

// Delete removes the artifact.
func (s *PendingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return fmt.Errorf("pending plan %s: %w", id, domain.ErrNotFound)
	}
	delete(s.plans, id)
	return nil
}

// Quarantine moves the artifact to the quarantine map.
func (s *PendingStore) Quarantine(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[id]
	if !ok {
		return fmt.Errorf("pending plan %s: %w", id, domain.ErrNotFound)
	}
	delete(s.plans, id)
	s.quarantined[id] = plan
	return nil
}

// Quarantined reports whether the artifact was quarantined.
func (s *PendingStore) Quarantined(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.quarantined[id]
	return ok
}

// Prune removes artifacts created before the age cutoff.
func (s *PendingStore) Prune(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, plan := range s.plans {
		if plan.CreatedAt.Before(cutoff) {
			delete(s.plans, id)
			removed++
		}
	}
	return removed, nil
}
