package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
	"github.com/archivist-labs/pagefill/internal/logger"
)

// Ensure PageService implements the interface.
var _ driving.PageService = (*PageService)(nil)

// PageService exposes page lookups keyed the way readers expect:
// by numeric page number within a record, not by storage id.
type PageService struct {
	pages driven.PageStore
}

// NewPageService creates a new page service.
func NewPageService(pages driven.PageStore) *PageService {
	return &PageService{pages: pages}
}

// PagesFor returns all pages of a record keyed by numeric page number.
// The store keeps page_number as text; entries that do not parse as
// integers are dropped rather than surfaced as errors.
func (s *PageService) PagesFor(ctx context.Context, parentRecordID string) (domain.PageMap, error) {
	pages, err := s.pages.ListByRecord(ctx, parentRecordID)
	if err != nil {
		return nil, fmt.Errorf("list pages for record %s: %w", parentRecordID, err)
	}

	pageMap := make(domain.PageMap, len(pages))
	for _, page := range pages {
		num, err := strconv.Atoi(page.PageNumber)
		if err != nil {
			logger.Warn("Record %s: skipping page %s with non-numeric page_number %q",
				parentRecordID, page.ID, page.PageNumber)
			continue
		}
		pageMap[num] = page
	}

	return pageMap, nil
}

// Get retrieves a single page by ID.
func (s *PageService) Get(ctx context.Context, id string) (*domain.Page, error) {
	page, err := s.pages.GetPage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", id, err)
	}
	return page, nil
}
