// Package plaintext reads text files directly.
package plaintext

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// maxReadBytes bounds how much of the file is loaded; more than enough
// for any preview limit.
const maxReadBytes = 1 << 20

// Reader handles plain text formats.
type Reader struct{}

// New creates a plain text reader.
func New() *Reader {
	return &Reader{}
}

// Extensions returns the file extensions this reader handles.
func (r *Reader) Extensions() []string {
	return []string{".txt", ".md", ".csv", ".log"}
}

// Extract reads up to limit characters from the file. Text files have
// no page concept, so PageCount is always zero.
func (r *Reader) Extract(_ context.Context, path string, limit int) (driven.ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return driven.ReadResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxReadBytes))
	if err != nil {
		return driven.ReadResult{}, fmt.Errorf("reading %s: %w", path, err)
	}

	text := strings.ToValidUTF8(string(raw), "")
	text = strings.TrimSpace(text)
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}

	return driven.ReadResult{Text: text}, nil
}
