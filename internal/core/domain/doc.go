// Package domain defines the core business entities for Pagefill.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Page: One scanned page of an archival record
//   - Record: An archival record owning a set of pages
//   - Issue: A curated collection of records
//   - SearchResult: A ranked hybrid-search hit
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
