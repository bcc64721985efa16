package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// defaultMaxPreview bounds the text sent to the classifier when the
// caller does not override it.
const defaultMaxPreview = 3000

// quarantineDestDir is where files land when classification errors out
// entirely. The plan is marked invalid so the gate auto-rejects it and
// nothing actually moves; the destination only documents intent.
const quarantineDestDir = "quarantine/failed"

// Pipeline wires the processing stages together: extraction cascade,
// classifier, routing engine, validator, approval gate, executor and
// the audit trail.
type Pipeline struct {
	cascade    *Cascade
	classifier driven.Classifier
	router     *Router
	gate       *ApprovalGate
	executor   *Executor
	audit      driven.AuditStore
	pending    driven.PendingStore
	prefs      driven.PreferenceStore
	sessionID  string
	now        func() time.Time
}

var _ driving.PipelineService = (*Pipeline)(nil)

// NewPipeline assembles a pipeline. audit and prefs may be nil, in
// which case history recording and preference learning are disabled.
func NewPipeline(
	cascade *Cascade,
	classifier driven.Classifier,
	router *Router,
	gate *ApprovalGate,
	executor *Executor,
	audit driven.AuditStore,
	pending driven.PendingStore,
	prefs driven.PreferenceStore,
) *Pipeline {
	return &Pipeline{
		cascade:    cascade,
		classifier: classifier,
		router:     router,
		gate:       gate,
		executor:   executor,
		audit:      audit,
		pending:    pending,
		prefs:      prefs,
		sessionID:  newSessionID(),
		now:        time.Now,
	}
}

// SessionID identifies this pipeline instance in the audit trail.
func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// ProcessFile runs one file through the full pipeline. Per-file
// degradations (failed extraction, unavailable classifier, failed move)
// are folded into the returned record; the error return is reserved for
// context cancellation and files that cannot be fingerprinted at all.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, opts driving.ProcessOptions) (domain.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditRecord{}, err
	}
	started := p.now()

	rec, err := domain.NewFileRecord(path)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("reading %s: %w", path, err)
	}

	limit := opts.MaxPreview
	if limit <= 0 {
		limit = defaultMaxPreview
	}

	logger.Section(filepath.Base(path))
	extraction := p.cascade.Extract(ctx, rec, limit)
	logger.Debug("extracted %d chars via %s (quality %d)",
		extraction.CharCount, extraction.Method, extraction.QualityScore)

	plan := p.plan(ctx, rec, extraction, limit)

	pendingPath := ""
	if plan.Decision == "" {
		ValidatePlan(plan)
		pendingPath, err = p.gate.Review(ctx, rec, plan, extraction, opts.AutoApprove)
		if err != nil {
			logger.Warn("approval gate failed for %s: %v", path, err)
			plan.Decision = domain.DecisionSkipped
		}
	}

	record := domain.AuditRecord{
		Timestamp:        p.now(),
		SessionID:        p.sessionID,
		SourcePath:       rec.Path,
		SizeBytes:        rec.Size,
		Preview:          truncate(extraction.Text, previewExcerptLimit),
		DryRun:           opts.DryRun,
		Decision:         plan.Decision,
		ExecutionStatus:  domain.ExecSkipped,
		ExtractionMethod: extraction.Method,
		QualityScore:     extraction.QualityScore,
		RoutingSource:    plan.RoutingSource,
		PendingPath:      pendingPath,
	}

	if plan.Decision == domain.DecisionApproved {
		final, outcome := p.executor.Apply(rec, plan, opts.DryRun)
		switch {
		case opts.DryRun:
			record.ExecutionStatus = domain.ExecDryRun
			record.MovedTo = final
		case outcome.Status == domain.MoveSuccess:
			record.ExecutionStatus = domain.ExecSuccess
			record.MovedTo = final
			record.Move = outcome
		default:
			record.ExecutionStatus = domain.ExecFailed
			record.Move = outcome
		}
	}

	record.Plan = *plan
	record.Elapsed = p.now().Sub(started)
	p.appendAudit(ctx, record)
	return record, nil
}

// plan classifies and routes, producing the rename plan. A classifier
// hard error yields an invalid quarantine plan so the file surfaces in
// the audit trail without moving anywhere.
func (p *Pipeline) plan(ctx context.Context, rec domain.FileRecord, extraction domain.ExtractionResult, limit int) *domain.RenamePlan {
	filename := filepath.Base(rec.Path)

	analysis, err := p.classifier.Analyse(ctx, extraction.Text, filename, limit)
	if err != nil {
		logger.Warn("classification failed for %s: %v", filename, err)
		return &domain.RenamePlan{
			Category:      domain.CategoryError,
			NewName:       filename,
			DestDir:       quarantineDestDir,
			Rationale:     fmt.Sprintf("classification error: %v", err),
			IsValid:       false,
			ValidationMsg: "classification failed",
			Decision:      domain.DecisionAutoRejectInvalid,
		}
	}

	destDir, source := p.router.Route(ctx, analysis)
	newName := analysis.SuggestedName
	if newName == "" {
		newName = fmt.Sprintf("[%s]_%s", analysis.Category, filename)
	}
	if ext := filepath.Ext(rec.Path); ext != "" && filepath.Ext(newName) != ext {
		newName += ext
	}

	return &domain.RenamePlan{
		Category:   analysis.Category,
		NewName:    newName,
		DestDir:    destDir,
		Confidence: analysis.Confidence,
		Extracted: map[string]string{
			"date":   analysis.Date,
			"amount": analysis.Amount,
			"vendor": analysis.Vendor,
			"title":  analysis.Title,
		},
		Rationale:     analysis.Rationale,
		RoutingSource: source,
	}
}

// ResolvePending applies an external resolution to a stored artifact.
// Only the move/skip step and audit emission run here; extraction,
// classification and routing are never re-done.
func (p *Pipeline) ResolvePending(ctx context.Context, id string, res domain.Resolution, dryRun bool) (domain.AuditRecord, error) {
	pp, err := p.pending.Get(ctx, id)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("loading pending plan %s: %w", id, err)
	}
	if pp.Status != domain.PendingStatus {
		return domain.AuditRecord{}, fmt.Errorf("pending plan %s: %w", id, domain.ErrPendingResolved)
	}

	switch res.Disposition {
	case domain.DispositionApprove:
		return p.applyResolution(ctx, pp, res, dryRun)
	case domain.DispositionReject:
		if err := p.pending.Delete(ctx, id); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("deleting pending plan %s: %w", id, err)
		}
		rec := p.resolutionRecord(pp, domain.DecisionRejected, dryRun)
		p.appendAudit(ctx, rec)
		return rec, nil
	case domain.DispositionQuarantine:
		if err := p.pending.Quarantine(ctx, id); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("quarantining pending plan %s: %w", id, err)
		}
		rec := p.resolutionRecord(pp, domain.DecisionRejected, dryRun)
		p.appendAudit(ctx, rec)
		return rec, nil
	default:
		return domain.AuditRecord{}, fmt.Errorf("disposition %q: %w", res.Disposition, domain.ErrInvalidInput)
	}
}

// applyResolution handles the approve path: optional amendments, plan
// re-validation, preference learning, the move and artifact cleanup.
func (p *Pipeline) applyResolution(ctx context.Context, pp *domain.PendingPlan, res domain.Resolution, dryRun bool) (domain.AuditRecord, error) {
	plan := &domain.RenamePlan{
		Category:      pp.Category,
		NewName:       pp.NewName,
		DestDir:       pp.DestDir,
		Confidence:    pp.Confidence,
		Extracted:     pp.Extracted,
		Rationale:     pp.Rationale,
		RoutingSource: pp.RoutingSource,
	}
	if res.FinalName != "" {
		plan.NewName = res.FinalName
	}
	if res.FinalDir != "" {
		plan.DestDir = res.FinalDir
	}

	// Amended values go through the same validation as fresh plans.
	ValidatePlan(plan)
	if !plan.IsValid {
		return domain.AuditRecord{}, fmt.Errorf("amended plan for %s: %s: %w",
			pp.ID, plan.ValidationMsg, domain.ErrInvalidInput)
	}
	plan.Decision = domain.DecisionApproved

	// A human choosing a different folder is the signal the preference
	// store learns from.
	if p.prefs != nil && plan.DestDir != pp.DestDir && !dryRun {
		if vendor := pp.Extracted["vendor"]; vendor != "" {
			key := driven.PreferenceKey{Vendor: vendor, Category: pp.Category.String()}
			if err := p.prefs.Learn(ctx, driven.KindVendorFolder, key, plan.DestDir); err != nil {
				logger.Warn("learning preference for %s failed: %v", vendor, err)
			} else {
				logger.Debug("learned preference: %s/%s -> %s", vendor, pp.Category, plan.DestDir)
			}
		}
	}

	fileRec, err := domain.NewFileRecord(pp.OriginalFile)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("reading %s: %w", pp.OriginalFile, err)
	}

	record := p.resolutionRecord(pp, domain.DecisionApproved, dryRun)
	record.Plan = *plan

	final, outcome := p.executor.Apply(fileRec, plan, dryRun)
	switch {
	case dryRun:
		record.ExecutionStatus = domain.ExecDryRun
		record.MovedTo = final
	case outcome.Status == domain.MoveSuccess:
		record.ExecutionStatus = domain.ExecSuccess
		record.MovedTo = final
		record.Move = outcome
		if err := p.pending.Delete(ctx, pp.ID); err != nil {
			logger.Warn("removing resolved artifact %s: %v", pp.ID, err)
		}
	default:
		// The artifact stays so the resolution can be retried.
		record.ExecutionStatus = domain.ExecFailed
		record.Move = outcome
	}

	p.appendAudit(ctx, record)
	return record, nil
}

// resolutionRecord builds the audit skeleton shared by all resolution
// outcomes.
func (p *Pipeline) resolutionRecord(pp *domain.PendingPlan, decision domain.Decision, dryRun bool) domain.AuditRecord {
	plan := domain.RenamePlan{
		Category:      pp.Category,
		NewName:       pp.NewName,
		DestDir:       pp.DestDir,
		Confidence:    pp.Confidence,
		Extracted:     pp.Extracted,
		Rationale:     pp.Rationale,
		IsValid:       true,
		Decision:      decision,
		RoutingSource: pp.RoutingSource,
	}
	return domain.AuditRecord{
		Timestamp:       p.now(),
		SessionID:       p.sessionID,
		SourcePath:      pp.OriginalFile,
		Preview:         pp.Preview,
		Plan:            plan,
		DryRun:          dryRun,
		Decision:        decision,
		ExecutionStatus: domain.ExecSkipped,
		RoutingSource:   pp.RoutingSource,
	}
}

// appendAudit records the outcome. Audit failures are logged, never
// propagated: history must not block processing.
func (p *Pipeline) appendAudit(ctx context.Context, rec domain.AuditRecord) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Append(ctx, rec); err != nil {
		logger.Warn("audit append failed for %s: %v", rec.SourcePath, err)
	}
}

// newSessionID produces an identifier for one pipeline run, unique
// enough to group audit rows without coordination.
func newSessionID() string {
	return fmt.Sprintf("run_%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
}
