package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/archivist-labs/pagefill/internal/core/domain"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
	"github.com/archivist-labs/pagefill/internal/core/ports/driving"
	"github.com/archivist-labs/pagefill/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService resolves the archive catalog in two stages: the static
// snapshot first, then the live store. A missing, empty or unparseable
// snapshot (domain.ErrEmptySnapshot) silently selects the live path; any
// other snapshot failure does the same, since snapshots are best-effort
// read-only copies.
type CatalogService struct {
	snapshot driven.CatalogSource
	live     driven.CatalogSource
}

// NewCatalogService creates a catalog service.
// The snapshot source may be nil, in which case every call goes live.
func NewCatalogService(snapshot, live driven.CatalogSource) *CatalogService {
	return &CatalogService{
		snapshot: snapshot,
		live:     live,
	}
}

// Issues returns all issues, newest first.
func (s *CatalogService) Issues(ctx context.Context) ([]domain.Issue, error) {
	if s.snapshot != nil {
		issues, err := s.snapshot.Issues(ctx)
		if err == nil && len(issues) > 0 {
			logger.Debug("Using static issues (%d)", len(issues))
			return issues, nil
		}
		if err != nil && !errors.Is(err, domain.ErrEmptySnapshot) {
			logger.Warn("Issues snapshot unreadable: %v", err)
		}
	}

	logger.Debug("No static issues found, falling back to live store")
	issues, err := s.live.Issues(ctx)
	if err != nil {
		return nil, fmt.Errorf("live issues: %w", err)
	}
	return issues, nil
}

// Records returns all records.
func (s *CatalogService) Records(ctx context.Context) ([]domain.Record, error) {
	if s.snapshot != nil {
		records, err := s.snapshot.Records(ctx)
		if err == nil && len(records) > 0 {
			logger.Debug("Using static records (%d)", len(records))
			return records, nil
		}
		if err != nil && !errors.Is(err, domain.ErrEmptySnapshot) {
			logger.Warn("Records snapshot unreadable: %v", err)
		}
	}

	logger.Debug("No static records found, falling back to live store")
	records, err := s.live.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("live records: %w", err)
	}
	return records, nil
}
