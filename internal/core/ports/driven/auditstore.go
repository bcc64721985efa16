package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

// AuditFilter narrows history queries. Zero values mean "no filter".
type AuditFilter struct {
	// Category filters by document category.
	Category string

	// Vendor substring-matches the recorded vendor.
	Vendor string

	// Decision filters by decision literal.
	Decision string

	// Limit caps the number of rows returned (default applied by store).
	Limit int
}

// AuditStats summarises recent activity for the reporting surface.
type AuditStats struct {
	// Total is the all-time record count.
	Total int

	// Recent is the count within the requested window.
	Recent int

	// ByDecision breaks Recent down per decision literal.
	ByDecision map[string]int

	// TopVendors lists the most frequent vendors in the window.
	TopVendors []VendorCount

	// AvgElapsed is the mean per-file processing time in the window,
	// over the records that carry a measured duration.
	AvgElapsed time.Duration
}

// VendorCount is one row of the top-vendors breakdown.
type VendorCount struct {
	Vendor string
	Count  int
}

// AuditStore is the append-only sink for processing records. The pipeline
// only appends; the query surface exists for the CLI reporting commands
// and never feeds back into routing or approval decisions.
type AuditStore interface {
	// Append persists one record. Failures are logged by callers and
	// must not block the decision that produced the record.
	Append(ctx context.Context, rec domain.AuditRecord) error

	// ListRecent returns the newest records matching the filter.
	ListRecent(ctx context.Context, filter AuditFilter) ([]domain.AuditRecord, error)

	// Stats aggregates activity over the last window.
	Stats(ctx context.Context, window time.Duration) (AuditStats, error)
}
