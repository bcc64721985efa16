package driven

import "context"

// Reader performs direct, format-native text extraction.
// Each reader handles specific file extensions (e.g. PDF, DOCX).
type Reader interface {
	// Extensions returns the lowercase dotted extensions this reader
	// handles (e.g. ".pdf").
	Extensions() []string

	// Extract reads up to limit characters of text from the file.
	// Page and character bounds are the reader's responsibility.
	Extract(ctx context.Context, path string, limit int) (ReadResult, error)
}

// ReadResult is the output of direct extraction.
type ReadResult struct {
	// Text is the extracted text, bounded to the requested limit.
	Text string

	// PageCount is the total number of pages or slides in the document,
	// zero when the format has no page concept.
	PageCount int
}
