package domain

// Category classifies a document for routing purposes.
type Category string

const (
	// CategoryInvoice covers invoices, receipts and billing documents.
	CategoryInvoice Category = "invoice"

	// CategoryContract covers contracts and agreements.
	CategoryContract Category = "contract"

	// CategoryPaper covers academic papers and reports.
	CategoryPaper Category = "paper"

	// CategoryImage covers raster image files.
	CategoryImage Category = "image"

	// CategoryPresentation covers slide decks.
	CategoryPresentation Category = "presentation"

	// CategoryDefault is the conservative catch-all.
	CategoryDefault Category = "default"

	// CategoryError marks a plan built from a failed analysis.
	// It is internal: the classifier never emits it.
	CategoryError Category = "error"
)

// KnownCategories lists the categories the classifier may emit.
var KnownCategories = []Category{
	CategoryInvoice,
	CategoryContract,
	CategoryPaper,
	CategoryImage,
	CategoryPresentation,
	CategoryDefault,
}

// ParseCategory maps a raw classifier string to a Category.
// Unknown values fall back to CategoryDefault.
func ParseCategory(s string) Category {
	for _, c := range KnownCategories {
		if string(c) == s {
			return c
		}
	}
	return CategoryDefault
}

// String returns the category identifier.
func (c Category) String() string { return string(c) }
