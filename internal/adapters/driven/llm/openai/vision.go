package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Ensure Vision implements the interface.
var _ driven.VisionAnalyser = (*Vision)(nil)

// visionMaxTokens bounds the transcription answer.
const visionMaxTokens = 2000

// visionFileLimit refuses files the API would reject anyway.
const visionFileLimit = 20 << 20

// visionPrompt asks for a faithful transcription rather than a summary.
const visionPrompt = `Transcribe all text visible in this document, preserving the reading order. Output the text only, no commentary. If part of the text is unreadable, skip it silently.`

// imageMIMETypes maps supported raster extensions to their MIME type.
var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Vision transcribes document images with a multimodal model.
type Vision struct {
	client *client
	model  string
}

// NewVision creates the vision analyser.
func NewVision(cfg Config) (*Vision, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	cfg = cfg.withDefaults()
	return &Vision{client: newClient(cfg), model: cfg.VisionModel}, nil
}

// Transcribe sends the file inline as a data URI and returns the
// model's transcription. maxPages is advisory only: the whole image is
// a single page, and PDFs are bounded by the model's own page handling.
func (v *Vision) Transcribe(ctx context.Context, path string, maxPages int) (driven.OpticalResult, error) {
	mime, ok := imageMIMETypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return driven.OpticalResult{}, fmt.Errorf("vision: unsupported format %s", filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return driven.OpticalResult{}, fmt.Errorf("vision: %w", err)
	}
	if info.Size() > visionFileLimit {
		return driven.OpticalResult{}, fmt.Errorf("vision: %s exceeds the %d byte upload limit", path, int64(visionFileLimit))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return driven.OpticalResult{}, fmt.Errorf("vision: %w", err)
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw))

	content, err := v.client.chatCompletion(ctx, chatCompletionRequest{
		Model: v.model,
		Messages: []chatCompletionMsg{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: visionPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
				},
			},
		},
		MaxTokens: visionMaxTokens,
	})
	if err != nil {
		return driven.OpticalResult{}, err
	}

	text := strings.TrimSpace(content)
	if text == "" {
		return driven.OpticalResult{}, fmt.Errorf("vision: empty transcription for %s", path)
	}
	return driven.OpticalResult{Text: text, Confidence: 0.95, PagesProcessed: 1}, nil
}
