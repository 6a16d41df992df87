package mcp

import (
	"context"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	vector  []float32
	err     error
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	_ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockSearchService) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return m.vector, m.err
}

// mockPageService is a mock implementation of driving.PageService.
type mockPageService struct {
	pages domain.PageMap
	page  *domain.Page
	err   error
}

func (m *mockPageService) PagesFor(_ context.Context, _ string) (domain.PageMap, error) {
	return m.pages, m.err
}

func (m *mockPageService) Get(_ context.Context, _ string) (*domain.Page, error) {
	return m.page, m.err
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	issues  []domain.Issue
	records []domain.Record
	err     error
}

func (m *mockCatalogService) Issues(_ context.Context) ([]domain.Issue, error) {
	return m.issues, m.err
}

func (m *mockCatalogService) Records(_ context.Context) ([]domain.Record, error) {
	return m.records, m.err
}
