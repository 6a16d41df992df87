package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOCRFailed indicates the OCR engine could not read the page
	// image, either because the resource was unreachable or unreadable.
	ErrOCRFailed = errors.New("ocr failed")

	// ErrEmbeddingFailed indicates the embedding backend rejected the
	// input or failed while generating a vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStoreFailed indicates a read or write against the backing
	// store failed. The gateway performs no retries; retry policy lives
	// in the backfill loop.
	ErrStoreFailed = errors.New("store operation failed")

	// ErrSearchFailed indicates query embedding or the hybrid search
	// call failed. No partial results accompany it.
	ErrSearchFailed = errors.New("search failed")

	// ErrNoImage indicates a page has no storage descriptor, which makes
	// it terminally unprocessable for OCR.
	ErrNoImage = errors.New("page has no image")

	// ErrDimensionMismatch indicates the embedding model's vector size
	// does not match the store's. This is a configuration error, never
	// a per-row error.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptySnapshot indicates a static snapshot was missing, empty or
	// unparseable, and the caller should fall back to the live store.
	ErrEmptySnapshot = errors.New("snapshot empty or unavailable")
)
