// Package readers wires the format-native extraction readers.
//
// Each subpackage handles one document family (PDF, DOCX, PPTX, plain
// text) behind the driven.Reader port. Defaults returns the stock set
// the extraction cascade is built with.
package readers

import (
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/readers/docx"
	"github.com/custodia-labs/archivist-cli/internal/readers/pdf"
	"github.com/custodia-labs/archivist-cli/internal/readers/plaintext"
	"github.com/custodia-labs/archivist-cli/internal/readers/pptx"
)

// Defaults returns one reader per supported document family.
func Defaults() []driven.Reader {
	return []driven.Reader{
		pdf.New(),
		docx.New(),
		pptx.New(),
		plaintext.New(),
	}
}
