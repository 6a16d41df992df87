package driving

import (
	"context"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// PageService exposes page lookups to external actors.
type PageService interface {
	// PagesFor returns all pages of a record keyed by numeric page
	// number. Pages whose stored page_number does not parse are omitted.
	PagesFor(ctx context.Context, parentRecordID string) (domain.PageMap, error)

	// Get retrieves a single page by ID.
	Get(ctx context.Context, id string) (*domain.Page, error)
}

// CatalogService exposes the archive's browsable catalog, resolving the
// static snapshot before falling back to the live store.
type CatalogService interface {
	// Issues returns all issues, newest first.
	Issues(ctx context.Context) ([]domain.Issue, error)

	// Records returns all records.
	Records(ctx context.Context) ([]domain.Record, error)
}
