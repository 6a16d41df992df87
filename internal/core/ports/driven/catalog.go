package driven

import (
	"context"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// CatalogSource lists the browsable records and issues of the archive.
//
// Two implementations exist: a static snapshot (issues.json, records.csv
// served alongside the frontend) and the live store. The catalog service
// consults the snapshot first and falls back to the live store when the
// snapshot is missing, empty or unparseable (domain.ErrEmptySnapshot).
type CatalogSource interface {
	// Issues returns all issues, newest first.
	Issues(ctx context.Context) ([]domain.Issue, error)

	// Records returns all records.
	Records(ctx context.Context) ([]domain.Record, error)
}
