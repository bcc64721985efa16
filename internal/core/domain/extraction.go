package domain

import (
	"strings"
	"time"
)

// ExtractionMethod identifies which path of the cascade produced the text.
type ExtractionMethod string

const (
	// MethodDirect is format-native text extraction (PDF text layer,
	// DOCX paragraphs, plain text).
	MethodDirect ExtractionMethod = "direct"

	// MethodOCR is optical character recognition.
	MethodOCR ExtractionMethod = "ocr"

	// MethodVision is vision-model transcription of page images.
	MethodVision ExtractionMethod = "vision"

	// MethodDirectFallback is the direct text kept after the optical
	// paths failed; confidence is pinned low.
	MethodDirectFallback ExtractionMethod = "direct_fallback"
)

// cachedSuffix tags results served from the extraction cache.
const cachedSuffix = "_cached"

// Cached returns the cached variant of the method.
func (m ExtractionMethod) Cached() ExtractionMethod {
	if m.IsCached() {
		return m
	}
	return ExtractionMethod(string(m) + cachedSuffix)
}

// IsCached reports whether the method is a cached variant.
func (m ExtractionMethod) IsCached() bool {
	return strings.HasSuffix(string(m), cachedSuffix)
}

// Base strips the cached tag, returning the originating method.
func (m ExtractionMethod) Base() ExtractionMethod {
	return ExtractionMethod(strings.TrimSuffix(string(m), cachedSuffix))
}

// ExtractionResult is the output of the extraction cascade for one file.
// A failed extraction is represented as an empty, low-confidence result
// with Err set; the cascade never aborts the pipeline.
type ExtractionResult struct {
	// Text is the extracted preview, bounded to the configured limit.
	Text string

	// Method records which cascade path produced the text.
	Method ExtractionMethod

	// Confidence is the source confidence in [0,1].
	Confidence float64

	// QualityScore is the derived 0-100 heuristic score.
	QualityScore int

	// NeedsReview is true when QualityScore is below the review threshold.
	NeedsReview bool

	// PageCount is the number of pages or slides seen, when known.
	PageCount int

	// CharCount is len(Text).
	CharCount int

	// Elapsed is how long extraction took. Zero for cache hits.
	Elapsed time.Duration

	// Err records a degraded extraction. The result is still usable.
	Err string
}
