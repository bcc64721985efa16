package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// previewExcerptLimit bounds the preview kept in pending artifacts.
const previewExcerptLimit = 500

// pendingStemLimit bounds the sanitised stem used in artifact IDs.
const pendingStemLimit = 30

// ApprovalGate decides, for a validated plan, between synchronous
// approval, rejection and asynchronous pending persistence.
//
// The state machine is small and strict: an invalid plan is always
// auto-rejected before any policy runs, and a plan whose extraction
// needs review can never be approved synchronously.
type ApprovalGate struct {
	pending driven.PendingStore
	now     func() time.Time
}

// NewApprovalGate creates the gate. The pending store is required for
// asynchronous decisions.
func NewApprovalGate(pending driven.PendingStore) *ApprovalGate {
	return &ApprovalGate{pending: pending, now: time.Now}
}

// Review annotates the plan with its decision and, for pending
// decisions, persists the artifact and returns its location.
func (g *ApprovalGate) Review(
	ctx context.Context,
	rec domain.FileRecord,
	plan *domain.RenamePlan,
	extraction domain.ExtractionResult,
	autoApprove bool,
) (pendingPath string, err error) {
	// Invalid plans never reach an approval policy.
	if !plan.IsValid {
		plan.Decision = domain.DecisionAutoRejectInvalid
		return "", nil
	}

	// Low extraction quality forces a human into the loop, regardless
	// of what the caller asked for.
	var issue *domain.QualityIssue
	if extraction.NeedsReview {
		issue = &domain.QualityIssue{
			Score:  extraction.QualityScore,
			Method: extraction.Method,
			Reason: fmt.Sprintf("extraction quality %d below review threshold", extraction.QualityScore),
		}
		if autoApprove {
			logger.Info("auto-approve overridden for %s: quality %d needs review",
				filepath.Base(rec.Path), extraction.QualityScore)
		}
		autoApprove = false
	}

	if autoApprove {
		plan.Decision = domain.DecisionApproved
		return "", nil
	}

	plan.Decision = domain.DecisionPending
	now := g.now()
	artifact := domain.PendingPlan{
		ID:            artifactID(rec.Path, now),
		OriginalFile:  rec.Path,
		OriginalName:  filepath.Base(rec.Path),
		NewName:       plan.NewName,
		DestDir:       plan.DestDir,
		Category:      plan.Category,
		Confidence:    plan.Confidence,
		Extracted:     plan.Extracted,
		Rationale:     plan.Rationale,
		Preview:       truncate(extraction.Text, previewExcerptLimit),
		CreatedAt:     now,
		Status:        domain.PendingStatus,
		QualityIssue:  issue,
		RoutingSource: plan.RoutingSource,
	}

	path, err := g.pending.Save(ctx, artifact)
	if err != nil {
		return "", fmt.Errorf("persisting pending plan for %s: %w", rec.Path, err)
	}
	logger.Info("plan for %s awaiting approval: %s", artifact.OriginalName, path)
	return path, nil
}

// artifactID builds a unique, filesystem-safe pending identifier from
// the creation timestamp and the (shortened) source filename stem. The
// timestamp is the artifact's CreatedAt, so the ID and the stored
// creation time always agree.
func artifactID(srcPath string, now time.Time) string {
	ts := now.Format("20060102_150405.000")
	ts = strings.ReplaceAll(ts, ".", "_")

	stem := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	stem = strings.ReplaceAll(stem, " ", "_")
	stem = SanitiseFilename(stem)
	if runes := []rune(stem); len(runes) > pendingStemLimit {
		stem = string(runes[:pendingStemLimit])
	}

	return fmt.Sprintf("plan_%s_%s", ts, stem)
}
