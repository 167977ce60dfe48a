// Package mcp provides an MCP (Model Context Protocol) server adapter for bookwise.
// It lets AI assistants search the library, ask for advice and browse topics and concepts.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingLibraryService is returned when the library service is not provided.
	ErrMissingLibraryService = errors.New("mcp: library service is required")
)
