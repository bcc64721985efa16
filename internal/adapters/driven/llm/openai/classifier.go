package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

// classifyMaxTokens bounds the structured classification answer.
const classifyMaxTokens = 500

// classifyPrompt asks for a strict JSON document analysis. The preview
// and filename are appended.
const classifyPrompt = `You are a document filing assistant. Analyse the document below and answer with a single JSON object, no markdown, no commentary.

Fields:
- "category": one of "invoice", "contract", "paper", "image", "presentation", "default"
- "confidence": your certainty, 0.0 to 1.0
- "date": the document's own date as YYYY-MM or YYYY-MM-DD, or "" if none
- "amount": total monetary amount with currency, or "" if none
- "vendor": issuing company, counterparty or author, or "" if unclear
- "title": a short subject line
- "suggested_name": a concise descriptive filename stem, no extension
- "reason": one sentence of reasoning

Original filename: %s

Document text:
%s`

// Classifier infers document metadata via the chat-completions API.
// It degrades instead of failing: any upstream or parse error yields
// the filename-only fallback analysis with a nil error.
type Classifier struct {
	client *client
	model  string
}

// NewClassifier creates the classifier.
func NewClassifier(cfg Config) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required: %w", domain.ErrClassifierUnavailable)
	}
	cfg = cfg.withDefaults()
	return &Classifier{client: newClient(cfg), model: cfg.Model}, nil
}

// analysisWire is the JSON shape the model is asked to produce.
type analysisWire struct {
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
	Date          string  `json:"date"`
	Amount        string  `json:"amount"`
	Vendor        string  `json:"vendor"`
	Title         string  `json:"title"`
	SuggestedName string  `json:"suggested_name"`
	Reason        string  `json:"reason"`
}

// Analyse classifies the preview text.
func (c *Classifier) Analyse(ctx context.Context, preview, filename string, maxPreview int) (domain.AnalysisResult, error) {
	if maxPreview > 0 && utf8.RuneCountInString(preview) > maxPreview {
		preview = string([]rune(preview)[:maxPreview])
	}

	content, err := c.client.chatCompletion(ctx, chatCompletionRequest{
		Model: c.model,
		Messages: []chatCompletionMsg{
			{Role: "user", Content: fmt.Sprintf(classifyPrompt, filename, preview)},
		},
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		logger.Warn("classification request failed for %s: %v", filename, err)
		return domain.FallbackAnalysis(filename, err.Error()), nil
	}

	result, err := parseAnalysis(content)
	if err != nil {
		logger.Warn("unparseable classification for %s: %v", filename, err)
		return domain.FallbackAnalysis(filename, err.Error()), nil
	}
	return result, nil
}

// parseAnalysis decodes the model answer, tolerating markdown fences.
func parseAnalysis(content string) (domain.AnalysisResult, error) {
	raw := stripCodeFence(content)

	var wire analysisWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("decode analysis: %w", err)
	}

	confidence := wire.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.AnalysisResult{
		Category:      domain.ParseCategory(strings.ToLower(strings.TrimSpace(wire.Category))),
		Confidence:    confidence,
		Date:          strings.TrimSpace(wire.Date),
		Amount:        strings.TrimSpace(wire.Amount),
		Vendor:        strings.TrimSpace(wire.Vendor),
		Title:         strings.TrimSpace(wire.Title),
		SuggestedName: strings.TrimSpace(wire.SuggestedName),
		Rationale:     strings.TrimSpace(wire.Reason),
	}, nil
}

// stripCodeFence unwraps ```json ... ``` blocks some models insist on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ModelName returns the backing model identifier.
func (c *Classifier) ModelName() string {
	return c.model
}

// Close releases resources.
func (c *Classifier) Close() error {
	return nil
}
