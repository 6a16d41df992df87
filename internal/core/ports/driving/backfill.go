package driving

import (
	"context"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// Backfiller drives the derived-data backfill loops.
//
// Rows are processed strictly one at a time; the OCR and embedding
// engines are singleton resources and sequential processing is the
// backpressure mechanism. A per-row failure flags the row and moves on;
// only process-level failures (model init, store connectivity loss)
// abort a loop.
type Backfiller interface {
	// RetryErrors reprocesses pages flagged error=true in batches until
	// a fetch returns empty, then returns. There is no delay between
	// batches.
	RetryErrors(ctx context.Context) (domain.RunReport, error)

	// RunEmbeddings polls for pages with OCR text but no embedding,
	// processes each batch, then waits a fixed interval before polling
	// again. It only returns when ctx is cancelled or a process-level
	// failure occurs.
	RunEmbeddings(ctx context.Context) error

	// EmbeddingPass performs a single poll-and-process cycle of the
	// incremental-embedding mode.
	EmbeddingPass(ctx context.Context) (domain.RunReport, error)
}
