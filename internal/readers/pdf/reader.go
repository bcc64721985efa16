// Package pdf extracts the text layer of PDF documents.
package pdf

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// Reader handles PDF files. It only reads the embedded text layer;
// scanned PDFs come back empty and the cascade escalates to OCR.
type Reader struct{}

// New creates a PDF reader.
func New() *Reader {
	return &Reader{}
}

// Extensions returns the file extensions this reader handles.
func (r *Reader) Extensions() []string {
	return []string{".pdf"}
}

// Extract walks the pages in order, stopping once the character limit
// is reached. PageCount always reflects the full document, even when
// extraction stops early.
func (r *Reader) Extract(ctx context.Context, path string, limit int) (driven.ReadResult, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return driven.ReadResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	total := doc.NumPage()
	var b strings.Builder
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return driven.ReadResult{PageCount: total}, err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A malformed page should not void the rest of the document.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")

		if limit > 0 && utf8.RuneCountInString(b.String()) >= limit {
			break
		}
	}

	text := strings.TrimSpace(b.String())
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}

	return driven.ReadResult{Text: text, PageCount: total}, nil
}
