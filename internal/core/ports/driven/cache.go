package driven

import (
	"context"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

// CachedExtraction is the persisted slice of an extraction result,
// keyed by content fingerprint. No TTL: fingerprints are assumed stable
// for the life of the file content.
type CachedExtraction struct {
	// Text is the extracted preview.
	Text string

	// Method is the base method that produced the text.
	Method domain.ExtractionMethod

	// Confidence is the source confidence in [0,1].
	Confidence float64

	// QualityScore is the derived 0-100 score.
	QualityScore int
}

// ExtractionCache stores extraction results by content fingerprint so
// that repeated (paid, slow) optical recognition is avoided.
//
// Cache failures must never block extraction: callers log and continue.
type ExtractionCache interface {
	// Get returns the cached extraction for the fingerprint, or
	// (nil, nil) on a miss.
	Get(ctx context.Context, fingerprint string) (*CachedExtraction, error)

	// Set stores or replaces the entry for the fingerprint.
	Set(ctx context.Context, fingerprint string, entry CachedExtraction) error
}
