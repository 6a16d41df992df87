package domain

import "time"

// Record is an archival record owning an ordered set of scanned pages.
// Records are read-only from this system's point of view; they are
// created by the ingestion process and only browsed here.
type Record struct {
	// ID is the unique identifier for the record.
	ID string

	// RecordNumber is the archive's own citation number.
	RecordNumber string

	// Title is the human-readable record title.
	Title string

	// Agency is the originating agency, when known.
	Agency string

	// Pages is the number of scanned pages the record holds.
	Pages int

	// CreatedAt is when the record was ingested.
	CreatedAt time.Time
}

// Issue is a curated collection of records, surfaced to readers as a
// browsable grouping.
type Issue struct {
	// ID is the unique identifier for the issue.
	ID string

	// Title is the issue headline.
	Title string

	// Description summarises the issue for readers.
	Description string

	// CreatedAt orders issues newest-first in listings.
	CreatedAt time.Time
}
