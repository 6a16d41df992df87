package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for archive resources.
	uriScheme = "pagefill://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the issue catalog.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "issues",
		Name:        "issues",
		Description: "Curated issues grouping archival records",
		MIMEType:    "application/json",
	}, s.handleIssuesResource)

	// Static resource for the record catalog.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "records",
		Name:        "records",
		Description: "Archival records with scanned pages",
		MIMEType:    "application/json",
	}, s.handleRecordsResource)

	// Template for a record's pages.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{recordId}/pages",
		Name:        "record-pages",
		Description: "Scanned pages of a specific record",
		MIMEType:    "application/json",
	}, s.handlePagesResource)

	// Template for page OCR text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "pages/{pageId}",
		Name:        "page-text",
		Description: "OCR text of a specific page",
		MIMEType:    "text/plain",
	}, s.handlePageTextResource)
}

// handleIssuesResource returns the issue catalog.
func (s *Server) handleIssuesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	issues, err := s.ports.Catalog.Issues(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	type issueInfo struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
	}

	infos := make([]issueInfo, len(issues))
	for i, issue := range issues {
		infos[i] = issueInfo{
			ID:          issue.ID,
			Title:       issue.Title,
			Description: issue.Description,
		}
	}

	return jsonContents(req.Params.URI, infos)
}

// handleRecordsResource returns the record catalog.
func (s *Server) handleRecordsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.ports.Catalog.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	type recordInfo struct {
		ID           string `json:"id"`
		RecordNumber string `json:"record_number"`
		Title        string `json:"title"`
		Agency       string `json:"agency,omitempty"`
		Pages        int    `json:"pages"`
	}

	infos := make([]recordInfo, len(records))
	for i, record := range records {
		infos[i] = recordInfo{
			ID:           record.ID,
			RecordNumber: record.RecordNumber,
			Title:        record.Title,
			Agency:       record.Agency,
			Pages:        record.Pages,
		}
	}

	return jsonContents(req.Params.URI, infos)
}

// handlePagesResource returns the pages of a specific record.
func (s *Server) handlePagesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Pages == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract recordId from URI: pagefill://records/{recordId}/pages
	recordID := extractRecordID(req.Params.URI)
	if recordID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	pages, err := s.ports.Pages.PagesFor(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	type pageInfo struct {
		ID         string `json:"id"`
		PageNumber int    `json:"page_number"`
		HasText    bool   `json:"has_text"`
		Error      bool   `json:"error"`
	}

	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	infos := make([]pageInfo, len(numbers))
	for i, n := range numbers {
		page := pages[n]
		infos[i] = pageInfo{
			ID:         page.ID,
			PageNumber: n,
			HasText:    page.HasText(),
			Error:      page.Error,
		}
	}

	return jsonContents(req.Params.URI, infos)
}

// handlePageTextResource returns the OCR text of a specific page.
func (s *Server) handlePageTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Pages == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract pageId from URI: pagefill://pages/{pageId}
	pageID := extractPageID(req.Params.URI)
	if pageID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	page, err := s.ports.Pages.Get(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("getting page: %w", err)
	}

	text := ""
	if page.OCRResult != nil {
		text = *page.OCRResult
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRecordID extracts the record ID from a URI like pagefill://records/{recordId}/pages.
func extractRecordID(uri string) string {
	const prefix = uriScheme + "records/"
	const suffix = "/pages"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractPageID extracts the page ID from a URI like pagefill://pages/{pageId}.
func extractPageID(uri string) string {
	const prefix = uriScheme + "pages/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
