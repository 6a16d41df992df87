package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
	"github.com/archivist-labs/pagefill/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService provides hybrid search over the page table.
//
// The backend combines lexical and vector ranking server-side; this
// service only embeds the query, forwards both signals, and filters out
// result rows carrying an error marker.
type SearchService struct {
	gateway  driven.SearchGateway
	embedder driven.EmbeddingService
}

// NewSearchService creates a new search service.
func NewSearchService(gateway driven.SearchGateway, embedder driven.EmbeddingService) *SearchService {
	return &SearchService{
		gateway:  gateway,
		embedder: embedder,
	}
}

// Search embeds the query and performs hybrid search.
// Failures propagate wrapped in domain.ErrSearchFailed with no partial
// results; the caller decides between an empty-result and an error state.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	matchCount := opts.MatchCount
	if matchCount <= 0 {
		matchCount = domain.DefaultMatchCount
	}
	logger.Debug("Match count: %d", matchCount)

	embedding, err := s.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.gateway.HybridSearch(ctx, query, embedding, matchCount)
	if err != nil {
		logger.Warn("Hybrid search failed: %v", err)
		return nil, fmt.Errorf("%w: hybrid search: %w", domain.ErrSearchFailed, err)
	}

	filtered := filterOK(results)
	logger.Info("Final results: %d (of %d returned)", len(filtered), len(results))
	return filtered, nil
}

// EmbedQuery generates the embedding vector for a query string.
func (s *SearchService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: embedding service unavailable", domain.ErrSearchFailed)
	}

	logger.Debug("Generating query embedding...")
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrSearchFailed, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	return embedding, nil
}

// EmbedSearch delegates embedding and ranking to the remote embed-search
// endpoint in one round trip, applying the same error-marker filtering.
func (s *SearchService) EmbedSearch(ctx context.Context, query string, matchCount int) ([]domain.SearchResult, error) {
	if s.gateway == nil {
		return nil, errors.New("search gateway unavailable")
	}
	if matchCount <= 0 {
		matchCount = domain.DefaultMatchCount
	}

	results, err := s.gateway.EmbedSearch(ctx, query, matchCount)
	if err != nil {
		return nil, fmt.Errorf("%w: embed search: %w", domain.ErrSearchFailed, err)
	}

	return filterOK(results), nil
}

// filterOK drops result rows carrying an error marker.
func filterOK(results []domain.SearchResult) []domain.SearchResult {
	filtered := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Ok() {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
