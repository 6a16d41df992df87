// Package ollama provides an embedding service adapter using Ollama.
//
// The backfill loop runs against a local Ollama server so inference
// never leaves the machine. The server loads the model once and reuses
// it across calls; Ping forces that load before batch work starts.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768 // nomic-embed-text default
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int
}

// EmbeddingService generates embeddings using Ollama.
// Vectors are L2-normalized before they are returned, so embedding the
// same text twice yields bit-for-bit equal vectors regardless of
// whether the backend normalizes.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int

	warmOnce sync.Once
	warmErr  error
}

// embedRequest is the Ollama API request format.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the Ollama API response format.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a mean-pooled, L2-normalized vector for the given text.
// A vector of the wrong size is a configuration problem
// (domain.ErrDimensionMismatch), never a per-row failure.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	raw, err := s.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}

	if len(raw) != s.dimensions {
		return nil, fmt.Errorf("%w: model returned %d dimensions, store expects %d",
			domain.ErrDimensionMismatch, len(raw), s.dimensions)
	}

	embedding := make([]float32, len(raw))
	for i, v := range raw {
		embedding[i] = float32(v)
	}

	if !domain.NormalizeL2(embedding) {
		return nil, fmt.Errorf("%w: zero-norm embedding", domain.ErrEmbeddingFailed)
	}

	return embedding, nil
}

// embed performs the raw API call.
func (s *EmbeddingService) embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := embedRequest{
		Model:  s.model,
		Prompt: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return embedResp.Embedding, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable and forces the model load.
// The first embed request makes Ollama pull the model into memory; doing
// it here keeps model-load failures process-level instead of turning the
// first row of every batch into a spurious error flag. The warm-up runs
// once per process.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	s.warmOnce.Do(func() {
		_, s.warmErr = s.Embed(ctx, "warmup")
	})
	return s.warmErr
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
