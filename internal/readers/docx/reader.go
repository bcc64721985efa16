// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// Reader handles DOCX files.
type Reader struct{}

// New creates a DOCX reader.
func New() *Reader {
	return &Reader{}
}

// Extensions returns the file extensions this reader handles.
func (r *Reader) Extensions() []string {
	return []string{".docx"}
}

// Extract reads word/document.xml out of the OOXML container and joins
// the paragraph runs. Word documents carry no reliable page count, so
// PageCount is zero.
func (r *Reader) Extract(_ context.Context, path string, limit int) (driven.ReadResult, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return driven.ReadResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer archive.Close()

	content, err := readArchiveFile(&archive.Reader, "word/document.xml")
	if err != nil {
		return driven.ReadResult{}, fmt.Errorf("reading document body of %s: %w", path, err)
	}

	text := parseDocumentXML(content)
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}

	return driven.ReadResult{Text: text}, nil
}

// readArchiveFile returns the named entry's bytes, or nil when absent.
func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		return io.ReadAll(rc)
	}
	return nil, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}
