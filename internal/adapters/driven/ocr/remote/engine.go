// Package remote adapts an HTTP OCR service to the OCREngine port.
//
// The wire contract is deliberately small so self-hosted engines
// (PaddleOCR server, Tesseract behind a shim) and commercial APIs can
// all sit behind it: multipart upload in, JSON text out.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// DefaultTimeout covers slow multi-page recognition.
const DefaultTimeout = 5 * time.Minute

// maxUploadBytes refuses files the service would reject anyway.
const maxUploadBytes = 50 << 20

// Config holds the OCR service connection settings.
type Config struct {
	// Endpoint is the recognition URL (required).
	Endpoint string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Engine calls a remote OCR service.
type Engine struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// New creates the engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ocr: endpoint is required: %w", domain.ErrOCRUnavailable)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Engine{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
	}, nil
}

// recogniseResponse is the service's JSON answer.
type recogniseResponse struct {
	Text           string  `json:"text"`
	Confidence     float64 `json:"confidence"`
	PagesProcessed int     `json:"pages_processed"`
	Error          string  `json:"error,omitempty"`
}

// Recognise uploads the file and returns the recognised text.
func (e *Engine) Recognise(ctx context.Context, path string, maxPages int) (driven.OpticalResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return driven.OpticalResult{}, fmt.Errorf("ocr: %w", err)
	}
	if info.Size() > maxUploadBytes {
		return driven.OpticalResult{}, fmt.Errorf("ocr: %s exceeds the %d byte upload limit", path, int64(maxUploadBytes))
	}

	body, contentType, err := buildUpload(path, maxPages)
	if err != nil {
		return driven.OpticalResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, body)
	if err != nil {
		return driven.OpticalResult{}, fmt.Errorf("ocr: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return driven.OpticalResult{}, fmt.Errorf("ocr: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return driven.OpticalResult{}, fmt.Errorf("ocr: read response: %w", err)
	}

	var out recogniseResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return driven.OpticalResult{}, fmt.Errorf("ocr: decode response: %w", err)
	}
	if out.Error != "" {
		return driven.OpticalResult{}, fmt.Errorf("ocr: service error: %s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return driven.OpticalResult{}, fmt.Errorf("ocr: service returned status %d: %s", resp.StatusCode, string(raw))
	}

	return driven.OpticalResult{
		Text:           out.Text,
		Confidence:     out.Confidence,
		PagesProcessed: out.PagesProcessed,
	}, nil
}

// buildUpload assembles the multipart request body.
func buildUpload(path string, maxPages int) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("ocr: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("ocr: build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("ocr: build upload: %w", err)
	}
	if maxPages > 0 {
		if err := w.WriteField("max_pages", strconv.Itoa(maxPages)); err != nil {
			return nil, "", fmt.Errorf("ocr: build upload: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("ocr: build upload: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
