package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driving"
)

type fakeClassifier struct {
	result domain.AnalysisResult
	err    error
}

func (f *fakeClassifier) Analyse(_ context.Context, _, filename string, _ int) (domain.AnalysisResult, error) {
	if f.err != nil {
		return domain.AnalysisResult{}, f.err
	}
	if f.result.SuggestedName == "" && f.result.Category != "" {
		res := f.result
		res.SuggestedName = "[" + string(res.Category) + "]_" + filename
		return res, nil
	}
	return f.result, nil
}

func (f *fakeClassifier) ModelName() string { return "fake-model" }
func (f *fakeClassifier) Close() error      { return nil }

type pipelineFixture struct {
	pipeline *Pipeline
	inbox    string
	archive  string
	audit    *memory.AuditStore
	pending  *memory.PendingStore
	prefs    *memory.PreferenceStore
}

func newPipelineFixture(t *testing.T, classifier driven.Classifier) *pipelineFixture {
	t.Helper()
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	archive := filepath.Join(root, "archive")
	require.NoError(t, os.MkdirAll(inbox, 0o755))

	reader := &fakeReader{exts: []string{".txt"}, text: healthyText, pages: 1}
	cascade := NewCascade([]driven.Reader{reader}, nil, nil, memory.NewCacheStore(), DefaultCascadeConfig())

	audit := memory.NewAuditStore()
	pending := memory.NewPendingStore()
	prefs := memory.NewPreferenceStore()

	pipeline := NewPipeline(
		cascade,
		classifier,
		NewRouter(prefs, DefaultRouterConfig()),
		NewApprovalGate(pending),
		NewExecutor(archive),
		audit,
		pending,
		prefs,
	)
	return &pipelineFixture{
		pipeline: pipeline,
		inbox:    inbox,
		archive:  archive,
		audit:    audit,
		pending:  pending,
		prefs:    prefs,
	}
}

func (f *pipelineFixture) drop(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.inbox, name)
	require.NoError(t, os.WriteFile(path, []byte("document body"), 0o644))
	return path
}

func TestPipeline_ProcessFile_AutoApprove(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AnalysisResult{
		Category:      domain.CategoryInvoice,
		Confidence:    0.92,
		Date:          "2024-03",
		Vendor:        "Acme",
		SuggestedName: "2024-03_发票_Acme",
	}}
	fx := newPipelineFixture(t, classifier)
	src := fx.drop(t, "scan001.txt")

	rec, err := fx.pipeline.ProcessFile(context.Background(), src,
		driving.ProcessOptions{AutoApprove: true})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionApproved, rec.Decision)
	assert.Equal(t, domain.ExecSuccess, rec.ExecutionStatus)
	assert.Equal(t, domain.RouteDatePartition, rec.RoutingSource)
	assert.Equal(t, filepath.Join(fx.archive, "发票", "2024", "03", "2024-03_发票_Acme.txt"), rec.MovedTo)
	assert.FileExists(t, rec.MovedTo)
	assert.NoFileExists(t, src)

	records, err := fx.audit.ListRecent(context.Background(), driven.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fx.pipeline.SessionID(), records[0].SessionID)
	assert.Equal(t, domain.MethodDirect, records[0].ExtractionMethod)
}

func TestPipeline_ProcessFile_RecordsElapsed(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AnalysisResult{
		Category:   domain.CategoryInvoice,
		Confidence: 0.9,
	}}
	fx := newPipelineFixture(t, classifier)
	src := fx.drop(t, "scan.txt")

	base := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	calls := 0
	fx.pipeline.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 50 * time.Millisecond)
	}

	rec, err := fx.pipeline.ProcessFile(context.Background(), src,
		driving.ProcessOptions{AutoApprove: true})
	require.NoError(t, err)
	assert.Positive(t, rec.Elapsed)

	records, err := fx.audit.ListRecent(context.Background(), driven.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.Elapsed, records[0].Elapsed)
}

func TestPipeline_ProcessFile_DefaultGoesPending(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AnalysisResult{
		Category:   domain.CategoryContract,
		Confidence: 0.9,
		Vendor:     "Globex",
	}}
	fx := newPipelineFixture(t, classifier)
	src := fx.drop(t, "agreement.txt")

	rec, err := fx.pipeline.ProcessFile(context.Background(), src, driving.ProcessOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionPending, rec.Decision)
	assert.Equal(t, domain.ExecSkipped, rec.ExecutionStatus)
	assert.NotEmpty(t, rec.PendingPath)
	assert.FileExists(t, src, "pending files stay in the inbox")

	plans, err := fx.pending.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, src, plans[0].OriginalFile)
	assert.Equal(t, "合同/Globex", plans[0].DestDir)
}

func TestPipeline_ProcessFile_ClassifierHardError(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("api exploded")}
	fx := newPipelineFixture(t, classifier)
	src := fx.drop(t, "mystery.txt")

	rec, err := fx.pipeline.ProcessFile(context.Background(), src, driving.ProcessOptions{AutoApprove: true})
	require.NoError(t, err, "per-file degradation is folded into the record")

	assert.Equal(t, domain.CategoryError, rec.Plan.Category)
	assert.Equal(t, domain.DecisionAutoRejectInvalid, rec.Decision)
	assert.Equal(t, domain.ExecSkipped, rec.ExecutionStatus)
	assert.FileExists(t, src, "nothing moves on a failed classification")
}

func TestPipeline_ProcessFile_DryRun(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AnalysisResult{
		Category:   domain.CategoryInvoice,
		Confidence: 0.92,
		Date:       "2024-03",
		Vendor:     "Acme",
	}}
	fx := newPipelineFixture(t, classifier)
	src := fx.drop(t, "invoice.txt")

	rec, err := fx.pipeline.ProcessFile(context.Background(), src,
		driving.ProcessOptions{DryRun: true, AutoApprove: true})
	require.NoError(t, err)

	assert.Equal(t, domain.ExecDryRun, rec.ExecutionStatus)
	assert.FileExists(t, src)
	assert.NoDirExists(t, fx.archive)
}

func TestPipeline_ProcessFile_UnsafePlanAutoRejected(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AnalysisResult{
		Category:      domain.CategoryDefault,
		Confidence:    0.9,
		SuggestedName: "escape",
	}}
	fx := newPipelineFixture(t, classifier)
	src := fx.drop(t, "escape.txt")

	// Poison the routing tier with a traversal destination.
	key := driven.PreferenceKey{Vendor: "Evil", Category: "default"}
	require.NoError(t, fx.prefs.Learn(context.Background(), driven.KindVendorFolder, key, "../../outside"))
	classifier.result.Vendor = "Evil"

	rec, err := fx.pipeline.ProcessFile(context.Background(), src, driving.ProcessOptions{AutoApprove: true})
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionAutoRejectInvalid, rec.Decision)
	assert.Equal(t, domain.ExecSkipped, rec.ExecutionStatus)
	assert.Contains(t, rec.Plan.ValidationMsg, "path traversal")
	assert.FileExists(t, src)
}

func TestPipeline_ProcessFile_MissingFile(t *testing.T) {
	fx := newPipelineFixture(t, &fakeClassifier{})

	_, err := fx.pipeline.ProcessFile(context.Background(),
		filepath.Join(fx.inbox, "gone.txt"), driving.ProcessOptions{})
	assert.Error(t, err)
}

func TestPipeline_ResolvePending(t *testing.T) {
	newPendingFixture := func(t *testing.T) (*pipelineFixture, string, domain.AuditRecord) {
		classifier := &fakeClassifier{result: domain.AnalysisResult{
			Category:   domain.CategoryContract,
			Confidence: 0.9,
			Vendor:     "Globex",
		}}
		fx := newPipelineFixture(t, classifier)
		src := fx.drop(t, "agreement.txt")

		rec, err := fx.pipeline.ProcessFile(context.Background(), src, driving.ProcessOptions{})
		require.NoError(t, err)
		require.Equal(t, domain.DecisionPending, rec.Decision)
		return fx, src, rec
	}

	pendingID := func(t *testing.T, fx *pipelineFixture) string {
		plans, err := fx.pending.List(context.Background())
		require.NoError(t, err)
		require.Len(t, plans, 1)
		return plans[0].ID
	}

	t.Run("approve moves and deletes artifact", func(t *testing.T) {
		fx, src, _ := newPendingFixture(t)
		id := pendingID(t, fx)

		rec, err := fx.pipeline.ResolvePending(context.Background(), id,
			domain.Resolution{Disposition: domain.DispositionApprove}, false)
		require.NoError(t, err)

		assert.Equal(t, domain.DecisionApproved, rec.Decision)
		assert.Equal(t, domain.ExecSuccess, rec.ExecutionStatus)
		assert.FileExists(t, rec.MovedTo)
		assert.NoFileExists(t, src)

		_, err = fx.pending.Get(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("approve with amended folder learns a preference", func(t *testing.T) {
		fx, _, _ := newPendingFixture(t)
		id := pendingID(t, fx)

		_, err := fx.pipeline.ResolvePending(context.Background(), id,
			domain.Resolution{Disposition: domain.DispositionApprove, FinalDir: "合同/Globex重要"}, false)
		require.NoError(t, err)

		key := driven.PreferenceKey{Vendor: "Globex", Category: "contract"}
		value, ok, err := fx.prefs.Lookup(context.Background(), driven.KindVendorFolder, key, 0.7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "合同/Globex重要", value)
	})

	t.Run("approve with unsafe amendment fails", func(t *testing.T) {
		fx, src, _ := newPendingFixture(t)
		id := pendingID(t, fx)

		_, err := fx.pipeline.ResolvePending(context.Background(), id,
			domain.Resolution{Disposition: domain.DispositionApprove, FinalDir: "../outside"}, false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.FileExists(t, src)

		_, err = fx.pending.Get(context.Background(), id)
		assert.NoError(t, err, "artifact survives a failed resolution")
	})

	t.Run("reject deletes artifact and leaves file", func(t *testing.T) {
		fx, src, _ := newPendingFixture(t)
		id := pendingID(t, fx)

		rec, err := fx.pipeline.ResolvePending(context.Background(), id,
			domain.Resolution{Disposition: domain.DispositionReject}, false)
		require.NoError(t, err)

		assert.Equal(t, domain.DecisionRejected, rec.Decision)
		assert.Equal(t, domain.ExecSkipped, rec.ExecutionStatus)
		assert.FileExists(t, src)

		_, err = fx.pending.Get(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("quarantine parks the artifact", func(t *testing.T) {
		fx, src, _ := newPendingFixture(t)
		id := pendingID(t, fx)

		_, err := fx.pipeline.ResolvePending(context.Background(), id,
			domain.Resolution{Disposition: domain.DispositionQuarantine}, false)
		require.NoError(t, err)

		assert.True(t, fx.pending.Quarantined(id))
		assert.FileExists(t, src)
	})

	t.Run("unknown id", func(t *testing.T) {
		fx, _, _ := newPendingFixture(t)

		_, err := fx.pipeline.ResolvePending(context.Background(), "plan_nope",
			domain.Resolution{Disposition: domain.DispositionApprove}, false)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("dry run approve keeps the artifact", func(t *testing.T) {
		fx, src, _ := newPendingFixture(t)
		id := pendingID(t, fx)

		rec, err := fx.pipeline.ResolvePending(context.Background(), id,
			domain.Resolution{Disposition: domain.DispositionApprove}, true)
		require.NoError(t, err)

		assert.Equal(t, domain.ExecDryRun, rec.ExecutionStatus)
		assert.FileExists(t, src)

		_, err = fx.pending.Get(context.Background(), id)
		assert.NoError(t, err)
	})
}
