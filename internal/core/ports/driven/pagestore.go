package driven

import (
	"context"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// PageStore is the typed gateway to the page table.
// It performs no retries of its own; retry policy lives in the backfill
// loop. Store failures wrap domain.ErrStoreFailed.
type PageStore interface {
	// FetchErrorBatch returns up to limit pages flagged error=true, in
	// backend-defined order. Order is only stable within one call.
	FetchErrorBatch(ctx context.Context, limit int) ([]domain.Page, error)

	// FetchPendingEmbedding returns all pages with a non-null OCR result
	// and no embedding.
	FetchPendingEmbedding(ctx context.Context) ([]domain.Page, error)

	// GetPage retrieves a page by ID.
	// Returns domain.ErrNotFound when no such row exists.
	GetPage(ctx context.Context, id string) (*domain.Page, error)

	// UpdatePage applies a partial update to one page row. The write is
	// atomic per row; other readers never observe partial field writes.
	UpdatePage(ctx context.Context, id string, update domain.PageUpdate) error

	// MarkError sets error=true and refreshes updated_at, leaving every
	// other field unchanged.
	MarkError(ctx context.Context, id string) error

	// ListByRecord returns all pages belonging to a parent record.
	ListByRecord(ctx context.Context, parentRecordID string) ([]domain.Page, error)
}
