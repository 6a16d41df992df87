package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
	"github.com/archivist-labs/pagefill/internal/logger"
)

// Ensure Backfiller implements the interface.
var _ driving.Backfiller = (*Backfiller)(nil)

// Default configuration values.
const (
	// DefaultErrorBatchSize is the number of error rows fetched per batch.
	DefaultErrorBatchSize = 1000

	// DefaultPollInterval is the wait between incremental-embedding polls.
	DefaultPollInterval = 60 * time.Second
)

// BackfillConfig holds tunables for the backfill loops.
type BackfillConfig struct {
	// ErrorBatchSize is the fetch limit for error-retry batches
	// (default: 1000).
	ErrorBatchSize int

	// PollInterval is the wait between incremental-embedding polls
	// (default: 60s).
	PollInterval time.Duration
}

// Backfiller computes missing or failed derived data (OCR text,
// embedding vectors) for previously ingested pages.
//
// It owns no state beyond its collaborators: the page table is the sole
// source of truth and the sole coordination point. A killed process
// loses nothing; the next run re-discovers unfinished rows via the
// error flag and missing-embedding predicates.
type Backfiller struct {
	pages    driven.PageStore
	ocr      driven.OCREngine
	embedder driven.EmbeddingService
	cfg      BackfillConfig
}

// NewBackfiller creates a backfiller.
// The OCR engine may be nil when only the embedding mode will run.
func NewBackfiller(
	pages driven.PageStore,
	ocr driven.OCREngine,
	embedder driven.EmbeddingService,
	cfg BackfillConfig,
) *Backfiller {
	if cfg.ErrorBatchSize <= 0 {
		cfg.ErrorBatchSize = DefaultErrorBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Backfiller{
		pages:    pages,
		ocr:      ocr,
		embedder: embedder,
		cfg:      cfg,
	}
}

// RetryErrors reprocesses pages flagged error=true until none remain.
// An empty fetch terminates the mode: at that instant no error rows
// exist. Batches are fetched back to back with no delay.
func (b *Backfiller) RetryErrors(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID: uuid.NewString(),
		Mode:  domain.ModeErrorRetry,
	}
	start := time.Now()

	if err := b.warmUp(ctx); err != nil {
		return report, err
	}

	for {
		batch, err := b.pages.FetchErrorBatch(ctx, b.cfg.ErrorBatchSize)
		if err != nil {
			return report, fmt.Errorf("fetch error batch: %w", err)
		}

		if len(batch) == 0 {
			logger.Info("Run %s: no more error rows to process", report.RunID)
			break
		}

		logger.Info("Run %s: found %d rows with errors", report.RunID, len(batch))
		b.processBatch(ctx, batch, &report)

		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	report.Duration = time.Since(start)
	logger.Info("Run %s: finished, %d processed, %d failed in %s",
		report.RunID, report.Processed, report.Failed, report.Duration)
	return report, nil
}

// RunEmbeddings polls for pages with OCR text but no embedding, forever.
// Each cycle processes the whole pending set, then sleeps for the poll
// interval. Only ctx cancellation or a process-level failure ends it.
func (b *Backfiller) RunEmbeddings(ctx context.Context) error {
	if err := b.warmUp(ctx); err != nil {
		return err
	}

	for {
		if _, err := b.EmbeddingPass(ctx); err != nil {
			return err
		}

		logger.Debug("Waiting %s before next check", b.cfg.PollInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.cfg.PollInterval):
		}
	}
}

// EmbeddingPass performs one poll-and-process cycle of the
// incremental-embedding mode.
func (b *Backfiller) EmbeddingPass(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID: uuid.NewString(),
		Mode:  domain.ModeEmbedding,
	}
	start := time.Now()

	batch, err := b.pages.FetchPendingEmbedding(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch pending embeddings: %w", err)
	}

	if len(batch) == 0 {
		logger.Debug("Run %s: no new rows to process", report.RunID)
		return report, nil
	}

	logger.Info("Run %s: processing %d rows", report.RunID, len(batch))
	b.processBatch(ctx, batch, &report)

	report.Duration = time.Since(start)
	logger.Info("Run %s: finished batch, %d processed, %d failed",
		report.RunID, report.Processed, report.Failed)
	return report, ctx.Err()
}

// warmUp verifies the embedding backend is reachable and its model
// loaded before any batch work. Failure here is process-level and is
// never translated into per-row error flags.
func (b *Backfiller) warmUp(ctx context.Context) error {
	if b.embedder == nil {
		return errors.New("embedding service not configured")
	}
	if err := b.embedder.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service unavailable: %w", err)
	}
	return nil
}

// processBatch drives each row of a batch through the row processor,
// strictly one at a time and in store order. Row failures are recorded
// and never abort the batch.
func (b *Backfiller) processBatch(ctx context.Context, batch []domain.Page, report *domain.RunReport) {
	for i := range batch {
		if ctx.Err() != nil {
			return
		}
		if err := b.processRow(ctx, &batch[i]); err != nil {
			report.Failed++
			continue
		}
		report.Processed++
	}
}

// processRow is the per-row state machine: fetch current state, run OCR
// if needed, run embedding if needed, persist results or flag failure.
//
// Every failure path ends in MarkError and a non-nil return; the caller
// moves on to the next row regardless.
func (b *Backfiller) processRow(ctx context.Context, row *domain.Page) error {
	// Re-read the row so decisions are made against current state, not
	// the state at batch-fetch time.
	page, err := b.pages.GetPage(ctx, row.ID)
	if err != nil {
		logger.Warn("Row %s: fetch failed: %v", row.ID, err)
		b.flagError(ctx, row.ID)
		return err
	}

	text := ""
	if page.HasText() {
		// Embedding-only path: usable text already committed, the
		// machine starts directly at the embedding step.
		text = *page.OCRResult
	} else {
		text, err = b.runOCR(ctx, page)
		if err != nil {
			logger.Warn("Row %s: %v", page.ID, err)
			b.flagError(ctx, page.ID)
			return err
		}
	}

	embedding, err := b.embedder.Embed(ctx, text)
	if err != nil {
		logger.Warn("Row %s: embedding failed: %v", page.ID, err)
		b.flagError(ctx, page.ID)
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}

	// Terminal success state: commit text, vector, cleared flag and
	// timestamp in a single per-row write.
	now := time.Now().UTC()
	errFalse := false
	update := domain.PageUpdate{
		OCRResult: &text,
		Embedding: embedding,
		Error:     &errFalse,
		UpdatedAt: &now,
	}
	if err := b.pages.UpdatePage(ctx, page.ID, update); err != nil {
		logger.Warn("Row %s: update failed: %v", page.ID, err)
		b.flagError(ctx, page.ID)
		return err
	}

	logger.Info("Successfully processed row %s", page.ID)
	return nil
}

// runOCR extracts text for a page, failing when the page has no image.
func (b *Backfiller) runOCR(ctx context.Context, page *domain.Page) (string, error) {
	if !page.HasImage() {
		return "", domain.ErrNoImage
	}
	if b.ocr == nil {
		return "", errors.New("ocr engine not configured")
	}

	text, err := b.ocr.ExtractText(ctx, page.Cloudinary.SecureURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrOCRFailed, err)
	}
	return text, nil
}

// flagError marks a row failed, bumping updated_at and touching nothing
// else. A failed flag write is logged and swallowed: the row keeps
// whichever predicate made it a candidate and will be re-discovered.
func (b *Backfiller) flagError(ctx context.Context, id string) {
	if err := b.pages.MarkError(ctx, id); err != nil {
		logger.Warn("Row %s: setting error flag failed: %v", id, err)
	}
}
