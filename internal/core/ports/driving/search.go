package driving

import (
	"context"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search embeds the query and performs hybrid search across all
	// pages. Results carrying an error marker are filtered out.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// EmbedQuery generates the embedding vector for a query string.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}
