package domain

// AnalysisResult is the structured output of the classifier for one file.
// The routing engine treats it as opaque input.
type AnalysisResult struct {
	// Category is the inferred document category.
	Category Category

	// Confidence is the classifier's certainty in [0,1].
	Confidence float64

	// Date is the extracted date string (YYYY-MM or YYYY-MM-DD), if any.
	Date string

	// Amount is the extracted monetary amount with unit, if any.
	Amount string

	// Vendor is the counterparty, supplier or author, if any.
	Vendor string

	// Title is a short subject line, if any.
	Title string

	// SuggestedName is the proposed filename stem, without extension.
	SuggestedName string

	// Rationale is the classifier's free-text reasoning.
	Rationale string
}

// FallbackAnalysis is the conservative default used when classification
// fails. The pipeline must keep running on classifier errors.
func FallbackAnalysis(filename, reason string) AnalysisResult {
	return AnalysisResult{
		Category:      CategoryDefault,
		Confidence:    0.3,
		Title:         filename,
		SuggestedName: "[其他]_" + filename,
		Rationale:     "classifier unavailable, filename-only fallback: " + reason,
	}
}
