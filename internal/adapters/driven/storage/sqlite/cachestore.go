package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// cacheStore implements driven.ExtractionCache.
type cacheStore struct {
	store *Store
}

var _ driven.ExtractionCache = (*cacheStore)(nil)

// Get returns the cached extraction for the fingerprint, or (nil, nil)
// on a miss.
func (s *cacheStore) Get(ctx context.Context, fingerprint string) (*driven.CachedExtraction, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT text, method, confidence, quality_score
		FROM extraction_cache
		WHERE fingerprint = ?
	`, fingerprint)

	var (
		entry  driven.CachedExtraction
		method string
	)
	err := row.Scan(&entry.Text, &method, &entry.Confidence, &entry.QualityScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying extraction cache: %w", err)
	}
	entry.Method = domain.ExtractionMethod(method)

	return &entry, nil
}

// Set stores or replaces the entry for the fingerprint.
func (s *cacheStore) Set(ctx context.Context, fingerprint string, entry driven.CachedExtraction) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO extraction_cache (fingerprint, text, method, confidence, quality_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			text = excluded.text,
			method = excluded.method,
			confidence = excluded.confidence,
			quality_score = excluded.quality_score,
			created_at = excluded.created_at
	`, fingerprint, entry.Text, string(entry.Method), entry.Confidence,
		entry.QualityScore, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving extraction cache entry: %w", err)
	}

	return nil
}
