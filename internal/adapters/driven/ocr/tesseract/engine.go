// Package tesseract provides an OCR engine adapter using Tesseract via
// gosseract.
//
// Tesseract clients are not safe for reuse across failures, so a fresh
// client is created per extraction and always closed, mirroring how the
// backfill loop treats the engine as a scoped resource.
package tesseract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Default configuration values.
const (
	DefaultLanguage = "eng"
	DefaultTimeout  = 2 * time.Minute

	// maxImageBytes caps the downloaded image size. Scanned pages are a
	// few MB; anything larger is a broken asset, not a page.
	maxImageBytes = 50 << 20
)

// Config holds configuration for the Tesseract engine.
type Config struct {
	// Language is the Tesseract language code (default: eng).
	Language string

	// Timeout bounds the image download (default: 2m). Inference itself
	// is not timed out.
	Timeout time.Duration
}

// Engine runs OCR over remote page images.
type Engine struct {
	client   *http.Client
	language string
}

// NewEngine creates a new Tesseract-backed OCR engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Engine{
		client:   &http.Client{Timeout: cfg.Timeout},
		language: cfg.Language,
	}
}

// ExtractText downloads the image and runs Tesseract over it.
// All failures, unreachable resource included, wrap domain.ErrOCRFailed.
func (e *Engine) ExtractText(ctx context.Context, imageURL string) (string, error) {
	img, err := e.fetchImage(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrOCRFailed, err)
	}

	// One client per invocation, released even on failure.
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("%w: set language: %w", domain.ErrOCRFailed, err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("%w: load image: %w", domain.ErrOCRFailed, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: recognize: %w", domain.ErrOCRFailed, err)
	}

	return text, nil
}

// fetchImage downloads the page image.
func (e *Engine) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("fetch image: empty body")
	}

	return img, nil
}
