// Package mcp provides an MCP (Model Context Protocol) server adapter
// for the archive. It lets AI assistants search scanned pages and read
// their OCR text directly.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
