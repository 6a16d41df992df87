package domain

import "time"

// RunReport summarises one backfill pass over a batch of pages.
type RunReport struct {
	// RunID uniquely identifies the pass for log correlation.
	RunID string

	// Mode is the backfill mode that produced the report.
	Mode BackfillMode

	// Processed is the number of rows committed successfully.
	Processed int

	// Failed is the number of rows flagged with an error.
	Failed int

	// Duration is the wall-clock time the pass took.
	Duration time.Duration
}

// BackfillMode selects which rows a backfill pass targets.
type BackfillMode string

const (
	// ModeErrorRetry reprocesses rows flagged with error=true until
	// none remain.
	ModeErrorRetry BackfillMode = "errors"

	// ModeEmbedding fills in vectors for rows with OCR text but no
	// embedding, polling forever.
	ModeEmbedding BackfillMode = "embeddings"
)
