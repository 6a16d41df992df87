// Package supabase provides the live store adapters over the Supabase
// REST API (PostgREST) and edge functions.
//
// One Store implements the PageStore, SearchGateway and CatalogSource
// ports. All requests carry the project key as both apikey header and
// bearer token, the way Supabase clients authenticate.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
)

// Interface assertions.
var (
	_ driven.PageStore     = (*Store)(nil)
	_ driven.SearchGateway = (*Store)(nil)
	_ driven.CatalogSource = (*Store)(nil)
)

// DefaultTimeout bounds individual REST requests.
const DefaultTimeout = 30 * time.Second

// pageColumns is the select list for full page rows.
const pageColumns = "id,parent_record_id,page_number,cloudinary,ocr_result,embedding,error,updated_at"

// Config holds connection parameters for a Supabase project.
type Config struct {
	// URL is the project URL (https://<ref>.supabase.co).
	URL string

	// Key is the service or anon key used for both the apikey header
	// and the bearer token.
	Key string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RateLimit tunes the request rate limiter.
	RateLimit RateLimitConfig
}

// Store talks to the Supabase project backing the archive.
type Store struct {
	client  *http.Client
	baseURL string
	key     string
	limiter *RateLimiter
}

// NewStore creates a store for the given project.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: supabase URL is required", domain.ErrInvalidInput)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: supabase key is required", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Key})
	client := oauth2.NewClient(context.Background(), src)
	client.Timeout = cfg.Timeout

	return &Store{
		client:  client,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.Key,
		limiter: NewRateLimiter(cfg.RateLimit),
	}, nil
}

// ==================== Page Store ====================

// pageRow is the PostgREST wire form of a page.
type pageRow struct {
	ID             string             `json:"id"`
	ParentRecordID string             `json:"parent_record_id"`
	PageNumber     string             `json:"page_number"`
	Cloudinary     *domain.Cloudinary `json:"cloudinary"`
	OCRResult      *string            `json:"ocr_result"`
	Embedding      json.RawMessage    `json:"embedding"`
	Error          *bool              `json:"error"`
	UpdatedAt      *time.Time         `json:"updated_at"`
}

func (r pageRow) toDomain() (domain.Page, error) {
	embedding, err := decodeVector(r.Embedding)
	if err != nil {
		return domain.Page{}, fmt.Errorf("page %s: %w", r.ID, err)
	}

	page := domain.Page{
		ID:             r.ID,
		ParentRecordID: r.ParentRecordID,
		PageNumber:     r.PageNumber,
		Cloudinary:     r.Cloudinary,
		OCRResult:      r.OCRResult,
		Embedding:      embedding,
	}
	if r.Error != nil {
		page.Error = *r.Error
	}
	if r.UpdatedAt != nil {
		page.UpdatedAt = *r.UpdatedAt
	}
	return page, nil
}

// decodeVector parses a pgvector column. PostgREST serialises vectors
// either as a JSON array or as a quoted "[0.1,0.2]" string depending on
// the column cast; null means no embedding.
func decodeVector(raw json.RawMessage) ([]float32, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err == nil {
		return vec, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}

	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return []float32{}, nil
	}
	parts := strings.Split(s, ",")
	vec = make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("decode embedding element %d: %w", i, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

// FetchErrorBatch returns up to limit pages flagged error=true.
func (s *Store) FetchErrorBatch(ctx context.Context, limit int) ([]domain.Page, error) {
	query := fmt.Sprintf("select=%s&error=eq.true&limit=%d", pageColumns, limit)
	return s.fetchPages(ctx, query)
}

// FetchPendingEmbedding returns all pages with OCR text but no vector.
func (s *Store) FetchPendingEmbedding(ctx context.Context) ([]domain.Page, error) {
	query := fmt.Sprintf("select=%s&ocr_result=not.is.null&embedding=is.null", pageColumns)
	return s.fetchPages(ctx, query)
}

// GetPage retrieves a page by ID.
func (s *Store) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	query := fmt.Sprintf("select=%s&id=eq.%s", pageColumns, id)
	pages, err := s.fetchPages(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, domain.ErrNotFound
	}
	return &pages[0], nil
}

// ListByRecord returns all pages belonging to a parent record.
func (s *Store) ListByRecord(ctx context.Context, parentRecordID string) ([]domain.Page, error) {
	query := fmt.Sprintf("select=%s&parent_record_id=eq.%s", pageColumns, parentRecordID)
	return s.fetchPages(ctx, query)
}

// UpdatePage applies a partial update to one page row.
// PostgREST applies the PATCH atomically per row.
func (s *Store) UpdatePage(ctx context.Context, id string, update domain.PageUpdate) error {
	fields := make(map[string]any)
	if update.OCRResult != nil {
		fields["ocr_result"] = *update.OCRResult
	}
	if update.Embedding != nil {
		fields["embedding"] = update.Embedding
	}
	if update.Error != nil {
		fields["error"] = *update.Error
	}
	if update.UpdatedAt != nil {
		fields["updated_at"] = update.UpdatedAt.Format(time.RFC3339Nano)
	}
	if len(fields) == 0 {
		return nil
	}

	return s.patchPage(ctx, id, fields)
}

// MarkError sets error=true and refreshes updated_at, nothing else.
func (s *Store) MarkError(ctx context.Context, id string) error {
	return s.patchPage(ctx, id, map[string]any{
		"error":      true,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Store) fetchPages(ctx context.Context, query string) ([]domain.Page, error) {
	body, err := s.do(ctx, http.MethodGet, "/rest/v1/page?"+query, nil)
	if err != nil {
		return nil, err
	}

	var rows []pageRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode pages: %w", domain.ErrStoreFailed, err)
	}

	pages := make([]domain.Page, 0, len(rows))
	for _, row := range rows {
		page, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreFailed, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (s *Store) patchPage(ctx context.Context, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: marshal update: %w", domain.ErrStoreFailed, err)
	}

	_, err = s.do(ctx, http.MethodPatch, "/rest/v1/page?id=eq."+id, payload)
	return err
}

// ==================== Search Gateway ====================

// searchRow is the wire form of a hybrid_search result.
type searchRow struct {
	ID             string  `json:"id"`
	ParentRecordID string  `json:"parent_record_id"`
	PageNumber     string  `json:"page_number"`
	OCRResult      string  `json:"ocr_result"`
	Similarity     float64 `json:"similarity"`
	Error          any     `json:"error"`
}

func (r searchRow) toDomain() domain.SearchResult {
	return domain.SearchResult{
		ID:             r.ID,
		ParentRecordID: r.ParentRecordID,
		PageNumber:     r.PageNumber,
		Content:        r.OCRResult,
		Similarity:     r.Similarity,
		Error:          isTruthy(r.Error),
	}
}

// isTruthy mirrors the frontend's loose `!item?.error` filter: any
// non-null, non-false, non-empty marker counts as an error.
func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	default:
		return true
	}
}

// HybridSearch calls the hybrid_search database procedure. Ranking is
// entirely server-side.
func (s *Store) HybridSearch(
	ctx context.Context, queryText string, embedding []float32, matchCount int,
) ([]domain.SearchResult, error) {
	payload, err := json.Marshal(map[string]any{
		"query_text":      queryText,
		"query_embedding": embedding,
		"match_count":     matchCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal rpc args: %w", domain.ErrSearchFailed, err)
	}

	body, err := s.do(ctx, http.MethodPost, "/rest/v1/rpc/hybrid_search", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}

	return decodeSearchRows(body)
}

// EmbedSearch calls the embed-search edge function, which embeds the
// query and ranks in a single round trip.
func (s *Store) EmbedSearch(ctx context.Context, query string, matchCount int) ([]domain.SearchResult, error) {
	payload, err := json.Marshal(map[string]any{
		"query":       query,
		"match_count": matchCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrSearchFailed, err)
	}

	body, err := s.do(ctx, http.MethodPost, "/functions/v1/embed-search", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}

	return decodeSearchRows(body)
}

func decodeSearchRows(body []byte) ([]domain.SearchResult, error) {
	var rows []searchRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode results: %w", domain.ErrSearchFailed, err)
	}

	results := make([]domain.SearchResult, len(rows))
	for i, row := range rows {
		results[i] = row.toDomain()
	}
	return results, nil
}

// ==================== Catalog Source ====================

// recordRow is the wire form of a record.
type recordRow struct {
	ID           string    `json:"id"`
	RecordNumber string    `json:"record_number"`
	Title        string    `json:"title"`
	Agency       string    `json:"agency"`
	Pages        int       `json:"pages"`
	CreatedAt    time.Time `json:"created_at"`
}

// issueRow is the wire form of an issue.
type issueRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Issues returns all issues, newest first.
func (s *Store) Issues(ctx context.Context) ([]domain.Issue, error) {
	body, err := s.do(ctx, http.MethodGet, "/rest/v1/issue?select=*&order=created_at.desc", nil)
	if err != nil {
		return nil, err
	}

	var rows []issueRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode issues: %w", domain.ErrStoreFailed, err)
	}

	issues := make([]domain.Issue, len(rows))
	for i, row := range rows {
		issues[i] = domain.Issue{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		}
	}
	return issues, nil
}

// Records returns all records.
func (s *Store) Records(ctx context.Context) ([]domain.Record, error) {
	body, err := s.do(ctx, http.MethodGet, "/rest/v1/record?select=*", nil)
	if err != nil {
		return nil, err
	}

	var rows []recordRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode records: %w", domain.ErrStoreFailed, err)
	}

	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = domain.Record{
			ID:           row.ID,
			RecordNumber: row.RecordNumber,
			Title:        row.Title,
			Agency:       row.Agency,
			Pages:        row.Pages,
			CreatedAt:    row.CreatedAt,
		}
	}
	return records, nil
}

// ==================== Transport ====================

// do performs one rate-limited request and returns the response body.
// Store failures wrap domain.ErrStoreFailed; the gateway never retries.
func (s *Store) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrStoreFailed, err)
	}

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrStoreFailed, err)
	}

	req.Header.Set("apikey", s.key)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPatch {
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrStoreFailed, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		s.limiter.RecordRateLimitError(retryAfter)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s %s: status %d: %s",
			domain.ErrStoreFailed, method, path, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrStoreFailed, err)
	}
	return body, nil
}
