package driven

import (
	"context"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

// Classifier infers a document category and metadata from a text preview
// and the original filename.
//
// Implementations must degrade rather than fail: on any upstream error
// they return domain.FallbackAnalysis and a nil error, so classification
// never aborts the pipeline.
type Classifier interface {
	// Analyse classifies the preview. maxPreview bounds how much of the
	// text is sent upstream.
	Analyse(ctx context.Context, preview, filename string, maxPreview int) (domain.AnalysisResult, error)

	// ModelName returns the backing model identifier for audit logging.
	ModelName() string

	// Close releases resources.
	Close() error
}
