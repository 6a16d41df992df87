package driven

import (
	"context"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// SearchGateway issues ranked search requests against the backend.
// Ranking happens entirely server-side; the client never re-orders
// results. Failures wrap domain.ErrSearchFailed.
type SearchGateway interface {
	// HybridSearch sends the raw query text and its embedding to the
	// backend's hybrid_search procedure, which combines lexical and
	// vector ranking. Results may include rows carrying an error marker;
	// filtering them is the caller's responsibility.
	HybridSearch(ctx context.Context, queryText string, embedding []float32, matchCount int) ([]domain.SearchResult, error)

	// EmbedSearch delegates both embedding and ranking to the remote
	// embed-search endpoint in a single round trip.
	EmbedSearch(ctx context.Context, query string, matchCount int) ([]domain.SearchResult, error)
}
