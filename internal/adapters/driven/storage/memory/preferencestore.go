package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Confidence bookkeeping for learned preferences: start, reinforcement
// step and ceiling.
const (
	prefInitialConfidence = 0.8
	prefConfidenceStep    = 0.05
	prefMaxConfidence     = 1.0
)

type prefEntry struct {
	value       string
	confidence  float64
	sampleCount int
	disabled    bool
}

type prefID struct {
	kind driven.PreferenceKind
	key  driven.PreferenceKey
}

// PreferenceStore is a map-backed preference store.
type PreferenceStore struct {
	mu      sync.RWMutex
	entries map[prefID]*prefEntry
}

var _ driven.PreferenceStore = (*PreferenceStore)(nil)

// NewPreferenceStore creates an empty store.
func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{entries: make(map[prefID]*prefEntry)}
}

// Lookup returns the stored value when its confidence clears the floor.
func (s *PreferenceStore) Lookup(_ context.Context, kind driven.PreferenceKind, key driven.PreferenceKey, minConfidence float64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[prefID{kind: kind, key: key}]
	if !ok || entry.disabled || entry.confidence < minConfidence {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Learn creates the preference or reinforces it. A changed value resets
// the entry rather than averaging with the old one.
func (s *PreferenceStore) Learn(_ context.Context, kind driven.PreferenceKind, key driven.PreferenceKey, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := prefID{kind: kind, key: key}
	entry, ok := s.entries[id]
	if !ok || entry.value != value {
		s.entries[id] = &prefEntry{
			value:       value,
			confidence:  prefInitialConfidence,
			sampleCount: 1,
		}
		return nil
	}

	entry.sampleCount++
	entry.disabled = false
	entry.confidence += prefConfidenceStep
	if entry.confidence > prefMaxConfidence {
		entry.confidence = prefMaxConfidence
	}
	return nil
}

// List returns all active preferences of the kind.
func (s *PreferenceStore) List(_ context.Context, kind driven.PreferenceKind) ([]driven.LearnedPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []driven.LearnedPreference
	for id, entry := range s.entries {
		if id.kind != kind || entry.disabled {
			continue
		}
		out = append(out, driven.LearnedPreference{
			Kind:        id.kind,
			Key:         id.key,
			Value:       entry.value,
			Confidence:  entry.confidence,
			SampleCount: entry.sampleCount,
		})
	}
	return out, nil
}

// Disable deactivates the preference; Lookup stops returning it.
func (s *PreferenceStore) Disable(_ context.Context, kind driven.PreferenceKind, key driven.PreferenceKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[prefID{kind: kind, key: key}]; ok {
		entry.disabled = true
	}
	return nil
}
