package mcp

import (
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Library lists books, subjects and chapters.
	Library driving.LibraryService

	// Search provides semantic search.
	Search driving.SearchService

	// Advice synthesizes answers and comparisons. Optional.
	Advice driving.AdviceService

	// Explore browses topics and concepts. Optional.
	Explore driving.ExploreService

	// Summary summarises chapters. Optional.
	Summary driving.SummaryService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	// Tools backed by optional ports are only registered when the port is set.
	return nil
}
