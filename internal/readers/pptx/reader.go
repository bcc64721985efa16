// Package pptx extracts slide text from PowerPoint documents.
package pptx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// slidePattern matches slide entries inside the OOXML container.
var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Reader handles PPTX files.
type Reader struct{}

// New creates a PPTX reader.
func New() *Reader {
	return &Reader{}
}

// Extensions returns the file extensions this reader handles.
func (r *Reader) Extensions() []string {
	return []string{".pptx"}
}

// Extract walks the slides in deck order and joins their text runs,
// one blank line between slides. PageCount is the slide count.
func (r *Reader) Extract(ctx context.Context, path string, limit int) (driven.ReadResult, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return driven.ReadResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer archive.Close()

	slides := orderedSlides(&archive.Reader)

	var b strings.Builder
	for i, slide := range slides {
		if err := ctx.Err(); err != nil {
			return driven.ReadResult{PageCount: len(slides)}, err
		}

		rc, err := slide.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(parseSlideXML(content))

		if limit > 0 && utf8.RuneCountInString(b.String()) >= limit {
			break
		}
	}

	text := strings.TrimSpace(b.String())
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}

	return driven.ReadResult{Text: text, PageCount: len(slides)}, nil
}

// orderedSlides returns the slide entries sorted by slide number.
// Zip entry order is not deck order.
func orderedSlides(reader *zip.Reader) []*zip.File {
	type numbered struct {
		file *zip.File
		n    int
	}

	var slides []numbered
	for _, file := range reader.File {
		m := slidePattern.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, numbered{file: file, n: n})
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	out := make([]*zip.File, len(slides))
	for i, s := range slides {
		out[i] = s.file
	}
	return out
}

// slideXML collects every text run in a slide regardless of nesting.
type slideXML struct {
	Texts []string `xml:"cSld>spTree>sp>txBody>p>r>t"`
}

// parseSlideXML extracts the text runs of one slide.
func parseSlideXML(content []byte) string {
	var slide slideXML
	if err := xml.Unmarshal(content, &slide); err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(slide.Texts, "\n"))
}
