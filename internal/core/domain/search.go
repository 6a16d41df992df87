package domain

// DefaultMatchCount is the number of hits requested from the hybrid
// search backend when the caller does not specify one.
const DefaultMatchCount = 30

// SearchOptions configures a search query.
type SearchOptions struct {
	// MatchCount is the maximum number of results to request from the
	// backend. Zero means DefaultMatchCount.
	MatchCount int
}

// SearchResult is a single hybrid-search hit as ranked by the backend.
// The client performs no ranking of its own.
type SearchResult struct {
	// ID is the matched page's identifier.
	ID string

	// ParentRecordID references the record the matched page belongs to.
	ParentRecordID string

	// PageNumber is the matched page's textual ordinal.
	PageNumber string

	// Content is the matched page's OCR text.
	Content string

	// Similarity is the backend's combined relevance score.
	Similarity float64

	// Error is set when the backend returned a failed row. Results
	// carrying an error marker are filtered out before reaching callers.
	Error bool
}

// Ok reports whether the result is usable, i.e. carries no error marker.
func (r SearchResult) Ok() bool {
	return !r.Error
}
