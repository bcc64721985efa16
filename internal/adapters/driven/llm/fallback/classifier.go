// Package fallback provides a filename-only classifier used when no LLM
// is configured. Every document degrades to the conservative default
// category, so the pipeline still runs end to end without an API key.
package fallback

import (
	"context"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Classifier returns the filename-only fallback analysis for every input.
type Classifier struct{}

var _ driven.Classifier = (*Classifier)(nil)

// NewClassifier creates the degraded-mode classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Analyse ignores the preview and classifies on the filename alone.
func (c *Classifier) Analyse(_ context.Context, _ string, filename string, _ int) (domain.AnalysisResult, error) {
	return domain.FallbackAnalysis(filename, "no classifier configured"), nil
}

// ModelName identifies the degraded mode in audit logs.
func (c *Classifier) ModelName() string {
	return "fallback"
}

// Close is a no-op.
func (c *Classifier) Close() error {
	return nil
}
