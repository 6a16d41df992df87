// Package tui provides an interactive terminal browser for the archive.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides hybrid search over pages.
	Search driving.SearchService

	// Pages resolves individual pages for the full-text view.
	Pages driving.PageService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(search driving.SearchService, pages driving.PageService) *Ports {
	return &Ports{
		Search: search,
		Pages:  pages,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Pages == nil {
		return ErrMissingPageService
	}
	return nil
}
