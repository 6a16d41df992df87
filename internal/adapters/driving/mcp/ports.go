package mcp

import (
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides hybrid search over pages.
	Search driving.SearchService

	// Pages resolves individual pages and record page maps.
	Pages driving.PageService

	// Catalog lists issues and records.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Pages and Catalog are optional; the matching resources 404.
	return nil
}
