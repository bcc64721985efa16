package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

func auditRecord(vendor string, decision domain.Decision, ts time.Time) domain.AuditRecord {
	return domain.AuditRecord{
		Timestamp: ts,
		Plan: domain.RenamePlan{
			Category:  domain.CategoryInvoice,
			Extracted: map[string]string{"vendor": vendor},
		},
		Decision: decision,
	}
}

func TestAuditStore_ListRecent(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Append(ctx, auditRecord("Acme", domain.DecisionApproved, now.Add(-2*time.Hour))))
	require.NoError(t, store.Append(ctx, auditRecord("Globex", domain.DecisionRejected, now.Add(-time.Hour))))
	require.NoError(t, store.Append(ctx, auditRecord("Acme", domain.DecisionApproved, now)))

	t.Run("newest first", func(t *testing.T) {
		records, err := store.ListRecent(ctx, driven.AuditFilter{})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, now, records[0].Timestamp)
	})

	t.Run("filter by decision", func(t *testing.T) {
		records, err := store.ListRecent(ctx, driven.AuditFilter{Decision: "rejected"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Globex", records[0].Plan.Extracted["vendor"])
	})

	t.Run("filter by vendor substring", func(t *testing.T) {
		records, err := store.ListRecent(ctx, driven.AuditFilter{Vendor: "acm"})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("limit", func(t *testing.T) {
		records, err := store.ListRecent(ctx, driven.AuditFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})
}

func TestAuditStore_Stats(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Append(ctx, auditRecord("Acme", domain.DecisionApproved, now.Add(-48*time.Hour))))
	require.NoError(t, store.Append(ctx, auditRecord("Acme", domain.DecisionApproved, now)))
	require.NoError(t, store.Append(ctx, auditRecord("Globex", domain.DecisionPending, now)))

	timed := auditRecord("Initech", domain.DecisionApproved, now)
	timed.Elapsed = 2 * time.Second
	require.NoError(t, store.Append(ctx, timed))
	timed.Elapsed = 4 * time.Second
	require.NoError(t, store.Append(ctx, timed))

	stats, err := store.Stats(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Recent)
	assert.Equal(t, 3, stats.ByDecision["approved"])
	assert.Equal(t, 1, stats.ByDecision["pending"])
	require.NotEmpty(t, stats.TopVendors)
	assert.Equal(t, 3*time.Second, stats.AvgElapsed, "records without a duration stay out of the average")
}
