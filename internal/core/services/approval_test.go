package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/archivist-cli/internal/core/domain"
)

func TestApprovalGate_InvalidPlanAutoRejected(t *testing.T) {
	pending := memory.NewPendingStore()
	gate := NewApprovalGate(pending)

	plan := &domain.RenamePlan{IsValid: false, ValidationMsg: "unsafe destination"}
	path, err := gate.Review(context.Background(), domain.FileRecord{Path: "/in/a.pdf"}, plan,
		domain.ExtractionResult{}, true)

	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, domain.DecisionAutoRejectInvalid, plan.Decision)

	plans, err := pending.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plans, "invalid plans never become pending artifacts")
}

func TestApprovalGate_AutoApprove(t *testing.T) {
	gate := NewApprovalGate(memory.NewPendingStore())

	plan := &domain.RenamePlan{IsValid: true}
	path, err := gate.Review(context.Background(), domain.FileRecord{Path: "/in/a.pdf"}, plan,
		domain.ExtractionResult{QualityScore: 95}, true)

	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, domain.DecisionApproved, plan.Decision)
}

func TestApprovalGate_LowQualityOverridesAutoApprove(t *testing.T) {
	pending := memory.NewPendingStore()
	gate := NewApprovalGate(pending)

	plan := &domain.RenamePlan{IsValid: true}
	extraction := domain.ExtractionResult{
		QualityScore: 40,
		NeedsReview:  true,
		Method:       domain.MethodOCR,
	}
	path, err := gate.Review(context.Background(), domain.FileRecord{Path: "/in/a.pdf"}, plan, extraction, true)

	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, domain.DecisionPending, plan.Decision)

	plans, err := pending.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.NotNil(t, plans[0].QualityIssue)
	assert.Equal(t, 40, plans[0].QualityIssue.Score)
	assert.Equal(t, domain.MethodOCR, plans[0].QualityIssue.Method)
}

func TestApprovalGate_DefaultIsPending(t *testing.T) {
	pending := memory.NewPendingStore()
	gate := NewApprovalGate(pending)
	gate.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 123e6, time.UTC)
	}

	plan := &domain.RenamePlan{
		IsValid:  true,
		NewName:  "2024-03_发票_Acme.pdf",
		DestDir:  "发票/2024/03",
		Category: domain.CategoryInvoice,
	}
	extraction := domain.ExtractionResult{Text: strings.Repeat("x", 900), QualityScore: 95}

	path, err := gate.Review(context.Background(),
		domain.FileRecord{Path: "/in/acme invoice march.pdf"}, plan, extraction, false)

	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, domain.DecisionPending, plan.Decision)

	plans, listErr := pending.List(context.Background())
	require.NoError(t, listErr)
	require.Len(t, plans, 1)

	artifact := plans[0]
	assert.Equal(t, "plan_20240315_103000_123_acme_invoice_march", artifact.ID)
	assert.Equal(t, "acme invoice march.pdf", artifact.OriginalName)
	assert.Equal(t, domain.PendingStatus, artifact.Status)
	assert.Nil(t, artifact.QualityIssue)
	assert.Len(t, artifact.Preview, 500, "preview is truncated")
}

func TestApprovalGate_ArtifactIDMatchesCreatedAt(t *testing.T) {
	pending := memory.NewPendingStore()
	gate := NewApprovalGate(pending)

	// A clock that steps on every reading, straddling a second boundary.
	base := time.Date(2024, 3, 15, 10, 30, 0, 999e6, time.UTC)
	calls := 0
	gate.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * time.Millisecond)
	}

	plan := &domain.RenamePlan{IsValid: true, NewName: "report.pdf", DestDir: "reports"}
	_, err := gate.Review(context.Background(),
		domain.FileRecord{Path: "/in/report.pdf"}, plan, domain.ExtractionResult{QualityScore: 95}, false)
	require.NoError(t, err)

	plans, err := pending.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)

	wantTS := strings.ReplaceAll(plans[0].CreatedAt.Format("20060102_150405.000"), ".", "_")
	assert.Equal(t, "plan_"+wantTS+"_report", plans[0].ID)
}

func TestApprovalGate_ArtifactIDStemTruncated(t *testing.T) {
	longStem := strings.Repeat("verylongname", 10)
	id := artifactID("/in/"+longStem+".pdf", time.Now())

	parts := strings.SplitN(id, "_", 5)
	require.Len(t, parts, 5)
	assert.Equal(t, "plan", parts[0])
	assert.LessOrEqual(t, len([]rune(parts[4])), pendingStemLimit)
}
