package driving

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// CurationService validates and imports hand-curated book content.
// Failures are reported inside the results so callers see one result type.
type CurationService interface {
	// Validate checks a curated book.
	Validate(book *domain.CuratedBook) domain.ValidationResult

	// ValidateDirectory loads and checks a curated book directory.
	ValidateDirectory(dir string) domain.ValidationResult

	// Import projects a curated book into the topic registry and knowledge graph.
	// When validate is true an invalid book is rejected before any store is touched.
	Import(ctx context.Context, book *domain.CuratedBook, subject string, validate bool) domain.ImportResult

	// ImportDirectory loads, validates and imports a curated book directory.
	ImportDirectory(ctx context.Context, dir, subject string) domain.ImportResult

	// InitTemplate writes starter files for a new curated book.
	InitTemplate(slug, dir string) error
}
