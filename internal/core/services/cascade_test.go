package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

type fakeReader struct {
	exts  []string
	text  string
	pages int
	err   error
}

func (f *fakeReader) Extensions() []string { return f.exts }

func (f *fakeReader) Extract(context.Context, string, int) (driven.ReadResult, error) {
	return driven.ReadResult{Text: f.text, PageCount: f.pages}, f.err
}

type fakeOCR struct {
	out   driven.OpticalResult
	err   error
	calls int
}

func (f *fakeOCR) Recognise(context.Context, string, int) (driven.OpticalResult, error) {
	f.calls++
	return f.out, f.err
}

type fakeVision struct {
	out   driven.OpticalResult
	err   error
	calls int
}

func (f *fakeVision) Transcribe(context.Context, string, int) (driven.OpticalResult, error) {
	f.calls++
	return f.out, f.err
}

var healthyText = strings.Repeat("An ordinary paragraph with plenty of content. ", 10)

func record(path string, size int64) domain.FileRecord {
	return domain.FileRecord{Path: path, Size: size, Fingerprint: "fp-" + path}
}

func TestCascade_DirectPath(t *testing.T) {
	reader := &fakeReader{exts: []string{".pdf"}, text: healthyText, pages: 2}
	cascade := NewCascade([]driven.Reader{reader}, nil, nil, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/report.pdf", 2048), 3000)

	assert.Equal(t, domain.MethodDirect, res.Method)
	assert.Equal(t, 0.95, res.Confidence)
	assert.Equal(t, 2, res.PageCount)
	assert.False(t, res.NeedsReview)
	assert.NotEmpty(t, res.Text)
}

func TestCascade_DirectPathNonPDFConfidence(t *testing.T) {
	reader := &fakeReader{exts: []string{".docx"}, text: healthyText, pages: 0}
	cascade := NewCascade([]driven.Reader{reader}, nil, nil, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/notes.docx", 2048), 3000)

	assert.Equal(t, domain.MethodDirect, res.Method)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestCascade_EmptyDirectTriggersOCR(t *testing.T) {
	reader := &fakeReader{exts: []string{".pdf"}, text: "", pages: 3}
	ocr := &fakeOCR{out: driven.OpticalResult{Text: healthyText, Confidence: 0.85, PagesProcessed: 3}}
	cascade := NewCascade([]driven.Reader{reader}, ocr, nil, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/scan.pdf", 2048), 3000)

	assert.Equal(t, domain.MethodOCR, res.Method)
	assert.Equal(t, 0.85, res.Confidence)
	assert.Equal(t, 1, ocr.calls)
}

func TestCascade_EmptyTextNeverReportsDirect(t *testing.T) {
	// No reader, no OCR, no vision: the cascade must still return a
	// usable result, and it must not claim direct extraction worked.
	cascade := NewCascade(nil, nil, nil, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/blob.xyz", 2048), 3000)

	assert.Equal(t, domain.MethodDirectFallback, res.Method)
	assert.Empty(t, res.Text)
	assert.Equal(t, 0.3, res.Confidence)
	assert.True(t, res.NeedsReview)
}

func TestCascade_VisionForImportantDocuments(t *testing.T) {
	reader := &fakeReader{exts: []string{".pdf"}, text: "", pages: 2}
	ocr := &fakeOCR{out: driven.OpticalResult{Text: "ocr text", Confidence: 0.8}}
	vision := &fakeVision{out: driven.OpticalResult{Text: healthyText, PagesProcessed: 2}}
	cascade := NewCascade([]driven.Reader{reader}, ocr, vision, nil, DefaultCascadeConfig())

	t.Run("important document uses vision", func(t *testing.T) {
		res := cascade.Extract(context.Background(), record("/in/invoice_march.pdf", 200<<10), 3000)
		assert.Equal(t, domain.MethodVision, res.Method)
		assert.Equal(t, 0.95, res.Confidence)
		assert.Equal(t, 1, vision.calls)
		assert.Zero(t, ocr.calls)
	})

	t.Run("plain document skips vision", func(t *testing.T) {
		vision.calls, ocr.calls = 0, 0
		res := cascade.Extract(context.Background(), record("/in/random_notes.pdf", 200<<10), 3000)
		assert.Equal(t, domain.MethodOCR, res.Method)
		assert.Zero(t, vision.calls)
	})

	t.Run("important but too small skips vision", func(t *testing.T) {
		vision.calls, ocr.calls = 0, 0
		res := cascade.Extract(context.Background(), record("/in/invoice_tiny.pdf", 10<<10), 3000)
		assert.Equal(t, domain.MethodOCR, res.Method)
		assert.Zero(t, vision.calls)
	})
}

func TestCascade_VisionFailureFallsBackToOCR(t *testing.T) {
	reader := &fakeReader{exts: []string{".pdf"}, text: "", pages: 1}
	ocr := &fakeOCR{out: driven.OpticalResult{Text: healthyText, Confidence: 0.8, PagesProcessed: 1}}
	vision := &fakeVision{err: errors.New("model overloaded")}
	cascade := NewCascade([]driven.Reader{reader}, ocr, vision, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/contract_acme.pdf", 200<<10), 3000)

	assert.Equal(t, domain.MethodOCR, res.Method)
	assert.Equal(t, 1, vision.calls)
	assert.Equal(t, 1, ocr.calls)
	assert.Contains(t, res.Err, "vision")
}

func TestCascade_AllOpticalPathsFailKeepsDirectText(t *testing.T) {
	direct := "Header only" // too short per page, triggers optical
	reader := &fakeReader{exts: []string{".pdf"}, text: direct, pages: 5}
	ocr := &fakeOCR{err: errors.New("service down")}
	cascade := NewCascade([]driven.Reader{reader}, ocr, nil, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/scan.pdf", 2048), 3000)

	assert.Equal(t, domain.MethodDirectFallback, res.Method)
	assert.Equal(t, direct, res.Text)
	assert.Equal(t, 0.3, res.Confidence)
	assert.Contains(t, res.Err, "ocr")
}

func TestCascade_ImagesGoStraightToOCR(t *testing.T) {
	ocr := &fakeOCR{out: driven.OpticalResult{Text: healthyText, Confidence: 0.9, PagesProcessed: 1}}
	cascade := NewCascade(nil, ocr, nil, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/receipt.jpg", 2048), 3000)

	assert.Equal(t, domain.MethodOCR, res.Method)
	assert.Equal(t, 1, ocr.calls)
}

func TestCascade_CacheRoundTrip(t *testing.T) {
	reader := &fakeReader{exts: []string{".pdf"}, text: "", pages: 1}
	ocr := &fakeOCR{out: driven.OpticalResult{Text: healthyText, Confidence: 0.85, PagesProcessed: 1}}
	cache := memory.NewCacheStore()
	cascade := NewCascade([]driven.Reader{reader}, ocr, nil, cache, DefaultCascadeConfig())
	rec := record("/in/scan.pdf", 2048)

	first := cascade.Extract(context.Background(), rec, 3000)
	require.Equal(t, domain.MethodOCR, first.Method)
	require.Equal(t, 1, cache.Len())

	second := cascade.Extract(context.Background(), rec, 3000)
	assert.Equal(t, domain.MethodOCR.Cached(), second.Method)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.QualityScore, second.QualityScore)
	assert.Equal(t, 1, ocr.calls, "cache hit must not re-run OCR")
}

func TestCascade_LowQualityResultsAreNotCached(t *testing.T) {
	reader := &fakeReader{exts: []string{".pdf"}, text: "", pages: 1}
	ocr := &fakeOCR{out: driven.OpticalResult{Text: "\x01\x02\x03", Confidence: 0.2}}
	cache := memory.NewCacheStore()
	cascade := NewCascade([]driven.Reader{reader}, ocr, nil, cache, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/noise.pdf", 2048), 3000)

	assert.True(t, res.NeedsReview)
	assert.Zero(t, cache.Len())
}

func TestCascade_DirectResultsAreNotCached(t *testing.T) {
	reader := &fakeReader{exts: []string{".pdf"}, text: healthyText, pages: 1}
	cache := memory.NewCacheStore()
	cascade := NewCascade([]driven.Reader{reader}, nil, nil, cache, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/report.pdf", 2048), 3000)

	assert.Equal(t, domain.MethodDirect, res.Method)
	assert.Zero(t, cache.Len())
}

func TestCascade_TruncatesToLimit(t *testing.T) {
	long := strings.Repeat("热爱写作的程序员。", 100)
	reader := &fakeReader{exts: []string{".txt"}, text: long, pages: 0}
	cascade := NewCascade([]driven.Reader{reader}, nil, nil, nil, DefaultCascadeConfig())

	res := cascade.Extract(context.Background(), record("/in/long.txt", 2048), 50)

	assert.Equal(t, 50, res.CharCount)
	assert.Equal(t, 50, len([]rune(res.Text)))
}
