package driven

import "github.com/custodia-labs/bookwise/internal/core/domain"

// CurationRepository reads and writes curated book directories.
type CurationRepository interface {
	// Load reads a curated book from dir. Fails with domain.ErrNotFound
	// when the required metadata file is missing.
	Load(dir string) (*domain.CuratedBook, error)

	// Save writes the book's files into dir, creating it if needed.
	Save(book *domain.CuratedBook, dir string) error

	// WriteTemplate writes commented starter files for a new book.
	WriteTemplate(slug, dir string) error
}
