// Package tui provides an interactive terminal browser for the library.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Search runs semantic queries. Required.
	Search driving.SearchService

	// Library lists books and chapters. Required.
	Library driving.LibraryService

	// Explore lists topics. The Topics screen is hidden without it.
	Explore driving.ExploreService

	// Summary summarises chapters. Optional.
	Summary driving.SummaryService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	return nil
}
