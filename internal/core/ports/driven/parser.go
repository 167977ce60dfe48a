package driven

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// BookParser extracts metadata and chapters from a book file.
type BookParser interface {
	// Parse reads the file at path.
	Parse(ctx context.Context, path string) (*domain.ParsedBook, error)

	// Extensions returns the lower-case file extensions handled, with the dot.
	Extensions() []string
}
