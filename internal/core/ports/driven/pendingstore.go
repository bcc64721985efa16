package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

// PendingStore persists pending plans awaiting external resolution.
// Artifacts are durable: they survive restarts and have no automatic
// expiry. Prune is the explicit staleness policy, driven by an operator.
type PendingStore interface {
	// Save writes the artifact and returns its storage location.
	Save(ctx context.Context, plan domain.PendingPlan) (path string, err error)

	// List returns all unresolved artifacts, newest first.
	List(ctx context.Context) ([]domain.PendingPlan, error)

	// Get returns one artifact by ID.
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.PendingPlan, error)

	// Delete removes a resolved artifact.
	Delete(ctx context.Context, id string) error

	// Quarantine moves the artifact to the quarantine area instead of
	// deleting it.
	Quarantine(ctx context.Context, id string) error

	// Prune deletes artifacts older than the given age and returns how
	// many were removed.
	Prune(ctx context.Context, olderThan time.Duration) (int, error)
}
