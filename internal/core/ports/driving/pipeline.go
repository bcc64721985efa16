package driving

import (
	"context"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

// ProcessOptions controls one pipeline invocation.
type ProcessOptions struct {
	// DryRun simulates apply without touching the filesystem.
	DryRun bool

	// AutoApprove approves valid, review-free plans synchronously
	// instead of persisting them as pending.
	AutoApprove bool

	// MaxPreview bounds the extracted text sent to the classifier.
	// Zero means the configured default.
	MaxPreview int
}

// PipelineService runs files through the full processing pipeline
// (extract, classify, route, validate, approve, apply or skip) and
// resolves previously-pending plans.
type PipelineService interface {
	// ProcessFile runs one file end to end and returns its audit record.
	// Per-file failures are folded into the record; the error return is
	// reserved for context cancellation and unusable input paths.
	ProcessFile(ctx context.Context, path string, opts ProcessOptions) (domain.AuditRecord, error)

	// ResolvePending applies an external resolution to a pending plan.
	// Extraction, routing and validation are not re-run; only the
	// safe-move/skip step plus audit emission happen here.
	ResolvePending(ctx context.Context, id string, res domain.Resolution, dryRun bool) (domain.AuditRecord, error)
}
