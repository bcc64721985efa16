package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Confidence bookkeeping for learned preferences: start, reinforcement
// step and ceiling.
const (
	prefInitialConfidence = 0.8
	prefConfidenceStep    = 0.05
	prefMaxConfidence     = 1.0
)

// preferenceStore implements driven.PreferenceStore.
type preferenceStore struct {
	store *Store
}

var _ driven.PreferenceStore = (*preferenceStore)(nil)

// Lookup returns the stored value when its confidence clears the floor.
func (s *preferenceStore) Lookup(ctx context.Context, kind driven.PreferenceKind, key driven.PreferenceKey, minConfidence float64) (string, bool, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT value
		FROM preferences
		WHERE kind = ? AND vendor = ? AND category = ?
			AND disabled = 0 AND confidence >= ?
	`, string(kind), key.Vendor, key.Category, minConfidence)

	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying preference: %w", err)
	}

	return value, true, nil
}

// Learn creates the preference or reinforces it. A changed value resets
// the entry rather than averaging with the old one.
func (s *preferenceStore) Learn(ctx context.Context, kind driven.PreferenceKind, key driven.PreferenceKey, value string) error {
	now := time.Now().UTC()

	row := s.store.db.QueryRowContext(ctx, `
		SELECT value, confidence, sample_count
		FROM preferences
		WHERE kind = ? AND vendor = ? AND category = ?
	`, string(kind), key.Vendor, key.Category)

	var (
		stored      string
		confidence  float64
		sampleCount int
	)
	err := row.Scan(&stored, &confidence, &sampleCount)
	switch {
	case err == sql.ErrNoRows || (err == nil && stored != value):
		confidence = prefInitialConfidence
		sampleCount = 1
	case err != nil:
		return fmt.Errorf("querying preference: %w", err)
	default:
		sampleCount++
		confidence += prefConfidenceStep
		if confidence > prefMaxConfidence {
			confidence = prefMaxConfidence
		}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO preferences (kind, vendor, category, value, confidence, sample_count, disabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(kind, vendor, category) DO UPDATE SET
			value = excluded.value,
			confidence = excluded.confidence,
			sample_count = excluded.sample_count,
			disabled = 0,
			updated_at = excluded.updated_at
	`, string(kind), key.Vendor, key.Category, value, confidence, sampleCount, now)
	if err != nil {
		return fmt.Errorf("saving preference: %w", err)
	}

	return nil
}

// List returns all active preferences of the kind.
func (s *preferenceStore) List(ctx context.Context, kind driven.PreferenceKind) ([]driven.LearnedPreference, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT vendor, category, value, confidence, sample_count
		FROM preferences
		WHERE kind = ? AND disabled = 0
		ORDER BY vendor, category
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing preferences: %w", err)
	}
	defer rows.Close()

	var out []driven.LearnedPreference
	for rows.Next() {
		pref := driven.LearnedPreference{Kind: kind}
		if err := rows.Scan(&pref.Key.Vendor, &pref.Key.Category,
			&pref.Value, &pref.Confidence, &pref.SampleCount); err != nil {
			return nil, fmt.Errorf("scanning preference: %w", err)
		}
		out = append(out, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating preferences: %w", err)
	}

	return out, nil
}

// Disable deactivates the preference; Lookup stops returning it.
func (s *preferenceStore) Disable(ctx context.Context, kind driven.PreferenceKind, key driven.PreferenceKey) error {
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE preferences SET disabled = 1, updated_at = ?
		WHERE kind = ? AND vendor = ? AND category = ?
	`, time.Now().UTC(), string(kind), key.Vendor, key.Category)
	if err != nil {
		return fmt.Errorf("disabling preference: %w", err)
	}

	return nil
}
