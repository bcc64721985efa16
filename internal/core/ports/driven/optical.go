package driven

import "context"

// OpticalResult is the output of an optical recognition pass.
type OpticalResult struct {
	// Text is the recognised text.
	Text string

	// Confidence is the engine's mean confidence in [0,1].
	Confidence float64

	// PagesProcessed is how many pages were actually recognised.
	PagesProcessed int
}

// OCREngine recognises text in scanned documents and images.
// The cheaper of the two optical paths in the extraction cascade.
type OCREngine interface {
	// Recognise runs OCR over up to maxPages pages of the file.
	Recognise(ctx context.Context, path string, maxPages int) (OpticalResult, error)
}

// VisionAnalyser transcribes document pages with a vision language model.
// The higher-fidelity optical path, reserved for important documents.
type VisionAnalyser interface {
	// Transcribe renders up to maxPages pages and asks the model for a
	// faithful transcription. Blocking from the caller's point of view.
	Transcribe(ctx context.Context, path string, maxPages int) (OpticalResult, error)
}
