package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

// SearchInput is the input schema for the search_pages tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the search query to find scanned pages"`
	MatchCount int    `json:"match_count,omitempty" jsonschema:"maximum number of results to return (default 30)"`
}

// SearchOutput is the output schema for the search_pages tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	PageID     string  `json:"page_id"`
	RecordID   string  `json:"record_id"`
	PageNumber string  `json:"page_number"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_pages",
		Description: "Search the archive's scanned pages by meaning and keywords",
	}, s.handleSearch)
}

// handleSearch handles the search_pages tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	matchCount := input.MatchCount
	if matchCount <= 0 {
		matchCount = domain.DefaultMatchCount
	}

	opts := domain.SearchOptions{MatchCount: matchCount}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			PageID:     results[i].ID,
			RecordID:   results[i].ParentRecordID,
			PageNumber: results[i].PageNumber,
			Similarity: results[i].Similarity,
			Content:    results[i].Content,
		}
	}

	return nil, output, nil
}
