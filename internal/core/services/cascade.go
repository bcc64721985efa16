package services

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// Confidence assigned to direct extractions that produced text.
const (
	directPDFConfidence   = 0.95
	directOtherConfidence = 0.9
	fallbackConfidence    = 0.3
	visionConfidence      = 0.95
)

// Quality floor below which results are not worth caching.
const cacheMinQuality = 30

// CascadeConfig tunes the extraction cascade.
type CascadeConfig struct {
	// OCREnabled gates the cheap optical path.
	OCREnabled bool

	// OCRMaxPages bounds how many pages the OCR engine sees.
	OCRMaxPages int

	// VisionEnabled gates the expensive vision path.
	VisionEnabled bool

	// VisionMaxPages bounds how many pages the vision model sees.
	VisionMaxPages int

	// ImportantKeywords mark documents worth the vision path.
	ImportantKeywords []string

	// ImportantMinSize / ImportantMaxSize bound the byte range for
	// "important" documents.
	ImportantMinSize int64
	ImportantMaxSize int64

	// ImportantMaxPages is the page ceiling for "important" documents.
	ImportantMaxPages int

	// ImageExtensions are treated as raster images with no text layer.
	ImageExtensions []string
}

// DefaultCascadeConfig mirrors the production thresholds.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		OCREnabled:     true,
		OCRMaxPages:    10,
		VisionEnabled:  true,
		VisionMaxPages: 3,
		ImportantKeywords: []string{
			"invoice", "发票", "contract", "合同",
			"report", "报告", "statement", "对账单",
			"协议", "agreement", "证明", "certificate",
		},
		ImportantMinSize:  100 << 10, // 100 KiB
		ImportantMaxSize:  10 << 20,  // 10 MiB
		ImportantMaxPages: 5,
		ImageExtensions:   []string{".png", ".jpg", ".jpeg", ".webp", ".gif"},
	}
}

// Cascade produces a bounded text preview for any input file, degrading
// through direct extraction, OCR and vision transcription. It never
// returns an error: failures yield an empty, low-confidence result with
// the error recorded.
type Cascade struct {
	readers map[string]driven.Reader
	ocr     driven.OCREngine
	vision  driven.VisionAnalyser
	cache   driven.ExtractionCache
	cfg     CascadeConfig
}

// NewCascade wires the cascade. ocr, vision and cache may be nil, in
// which case the corresponding paths are skipped.
func NewCascade(readers []driven.Reader, ocr driven.OCREngine, vision driven.VisionAnalyser, cache driven.ExtractionCache, cfg CascadeConfig) *Cascade {
	byExt := make(map[string]driven.Reader)
	for _, r := range readers {
		for _, ext := range r.Extensions() {
			byExt[strings.ToLower(ext)] = r
		}
	}
	return &Cascade{
		readers: byExt,
		ocr:     ocr,
		vision:  vision,
		cache:   cache,
		cfg:     cfg,
	}
}

// Extract runs the cascade for one file, bounding the text to limit
// characters.
func (c *Cascade) Extract(ctx context.Context, rec domain.FileRecord, limit int) domain.ExtractionResult {
	start := time.Now()

	if cached := c.cacheGet(ctx, rec.Fingerprint); cached != nil {
		logger.Debug("extraction cache hit for %s (method=%s)", filepath.Base(rec.Path), cached.Method)
		return domain.ExtractionResult{
			Text:         truncate(cached.Text, limit),
			Method:       cached.Method.Cached(),
			Confidence:   cached.Confidence,
			QualityScore: cached.QualityScore,
			NeedsReview:  cached.QualityScore < qualityReviewThreshold,
			CharCount:    utf8.RuneCountInString(truncate(cached.Text, limit)),
		}
	}

	ext := strings.ToLower(filepath.Ext(rec.Path))

	var res domain.ExtractionResult
	if c.isImage(ext) {
		// Raster images have no text layer to try first.
		res = c.optical(ctx, rec, "", 1, limit)
	} else {
		res = c.extractWithFallback(ctx, rec, ext, limit)
	}

	res.Text = truncate(res.Text, limit)
	res.CharCount = utf8.RuneCountInString(res.Text)
	res.QualityScore, res.NeedsReview = QualityScore(res.Text, res.Confidence)
	res.Elapsed = time.Since(start)

	c.cacheSet(ctx, rec.Fingerprint, res)

	logger.Info("extracted %s: method=%s confidence=%.2f quality=%d chars=%d elapsed=%s",
		filepath.Base(rec.Path), res.Method, res.Confidence, res.QualityScore, res.CharCount, res.Elapsed)
	return res
}

// extractWithFallback tries the direct reader first, then decides
// whether optical recognition is warranted.
func (c *Cascade) extractWithFallback(ctx context.Context, rec domain.FileRecord, ext string, limit int) domain.ExtractionResult {
	directText, pageCount, directErr := c.direct(ctx, rec.Path, ext, limit)

	needsOCR, reason := ShouldUseOCR(directText, pageCount)
	if !needsOCR {
		confidence := directOtherConfidence
		if ext == ".pdf" {
			confidence = directPDFConfidence
		}
		return domain.ExtractionResult{
			Text:       directText,
			Method:     domain.MethodDirect,
			Confidence: confidence,
			PageCount:  pageCount,
			Err:        errString(directErr),
		}
	}

	logger.Debug("optical recognition triggered for %s: %s", filepath.Base(rec.Path), reason)
	res := c.optical(ctx, rec, directText, pageCount, limit)
	if res.Err != "" && directErr != nil {
		res.Err = res.Err + "; direct: " + directErr.Error()
	}
	return res
}

// direct runs the format-native reader for the extension.
// A missing reader or reader failure yields empty text, never an abort.
func (c *Cascade) direct(ctx context.Context, path, ext string, limit int) (string, int, error) {
	reader, ok := c.readers[ext]
	if !ok {
		return "", 0, domain.ErrUnsupportedType
	}
	out, err := reader.Extract(ctx, path, limit)
	if err != nil {
		logger.Warn("direct extraction failed for %s: %v", filepath.Base(path), err)
		return "", out.PageCount, err
	}
	return strings.TrimSpace(out.Text), out.PageCount, nil
}

// optical runs the vision or OCR path, falling back from one to the
// other and finally to the direct text with a pinned low confidence.
func (c *Cascade) optical(ctx context.Context, rec domain.FileRecord, directText string, pageCount int, limit int) domain.ExtractionResult {
	useVision := c.vision != nil && c.cfg.VisionEnabled &&
		pageCount <= c.cfg.ImportantMaxPages &&
		c.isImportant(rec, pageCount)

	var firstErr string
	if useVision {
		logger.Info("using vision transcription for important document %s", filepath.Base(rec.Path))
		out, err := c.vision.Transcribe(ctx, rec.Path, c.cfg.VisionMaxPages)
		if err == nil {
			return domain.ExtractionResult{
				Text:       out.Text,
				Method:     domain.MethodVision,
				Confidence: visionConfidence,
				PageCount:  max(pageCount, out.PagesProcessed),
			}
		}
		firstErr = "vision: " + err.Error()
		logger.Warn("vision transcription failed for %s, falling back to OCR: %v", filepath.Base(rec.Path), err)
	}

	if c.ocr != nil && c.cfg.OCREnabled {
		out, err := c.ocr.Recognise(ctx, rec.Path, c.cfg.OCRMaxPages)
		if err == nil {
			return domain.ExtractionResult{
				Text:       out.Text,
				Method:     domain.MethodOCR,
				Confidence: out.Confidence,
				PageCount:  max(pageCount, out.PagesProcessed),
				Err:        firstErr,
			}
		}
		if firstErr != "" {
			firstErr += "; "
		}
		firstErr += "ocr: " + err.Error()
		logger.Warn("OCR failed for %s: %v", filepath.Base(rec.Path), err)

		// OCR was primary: vision is the remaining optical option.
		if !useVision && c.vision != nil && c.cfg.VisionEnabled {
			if out, err := c.vision.Transcribe(ctx, rec.Path, c.cfg.VisionMaxPages); err == nil {
				return domain.ExtractionResult{
					Text:       out.Text,
					Method:     domain.MethodVision,
					Confidence: visionConfidence,
					PageCount:  max(pageCount, out.PagesProcessed),
					Err:        firstErr,
				}
			}
		}
	} else if firstErr == "" {
		firstErr = domain.ErrOCRUnavailable.Error()
	}

	// Both optical paths are gone: keep whatever direct produced.
	return domain.ExtractionResult{
		Text:       directText,
		Method:     domain.MethodDirectFallback,
		Confidence: fallbackConfidence,
		PageCount:  pageCount,
		Err:        firstErr,
	}
}

// isImportant marks documents worth the expensive vision path:
// filename keyword, size within range, page count under the ceiling.
func (c *Cascade) isImportant(rec domain.FileRecord, pageCount int) bool {
	name := strings.ToLower(filepath.Base(rec.Path))
	keyword := false
	for _, kw := range c.cfg.ImportantKeywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			keyword = true
			break
		}
	}
	if !keyword {
		return false
	}
	if rec.Size < c.cfg.ImportantMinSize || rec.Size > c.cfg.ImportantMaxSize {
		return false
	}
	if pageCount > c.cfg.ImportantMaxPages {
		return false
	}
	return true
}

func (c *Cascade) isImage(ext string) bool {
	for _, e := range c.cfg.ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// cacheGet swallows cache failures: they must never block extraction.
func (c *Cascade) cacheGet(ctx context.Context, fingerprint string) *driven.CachedExtraction {
	if c.cache == nil {
		return nil
	}
	entry, err := c.cache.Get(ctx, fingerprint)
	if err != nil {
		logger.Warn("extraction cache read failed: %v", err)
		return nil
	}
	return entry
}

// cacheSet persists optical results worth keeping. Direct results are
// cheap to recompute and are deliberately not cached.
func (c *Cascade) cacheSet(ctx context.Context, fingerprint string, res domain.ExtractionResult) {
	if c.cache == nil || res.Method.IsCached() {
		return
	}
	if res.Method != domain.MethodOCR && res.Method != domain.MethodVision {
		return
	}
	if res.Text == "" || res.QualityScore < cacheMinQuality {
		return
	}
	err := c.cache.Set(ctx, fingerprint, driven.CachedExtraction{
		Text:         res.Text,
		Method:       res.Method,
		Confidence:   res.Confidence,
		QualityScore: res.QualityScore,
	})
	if err != nil {
		logger.Warn("extraction cache write failed: %v", err)
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
