package driving

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// LibraryService ingests, rebuilds and removes books.
type LibraryService interface {
	// AddBook parses, chunks, embeds and records a book file.
	AddBook(ctx context.Context, path string, opts domain.AddBookOptions) (*domain.IngestResult, error)

	// RemoveBook deletes a book from every store.
	// Returns domain.ErrNotFound if the book does not exist.
	RemoveBook(ctx context.Context, slug string) (*domain.RemoveResult, error)

	// Rebuild re-ingests one book, or every book when slug is empty,
	// from its recorded file path.
	Rebuild(ctx context.Context, slug string) ([]domain.IngestResult, error)

	// ListBooks returns every book, or those in a subject when one is given.
	ListBooks(ctx context.Context, subject string) ([]domain.BookRecord, error)

	// GetBook returns a book, or nil if it does not exist.
	GetBook(ctx context.Context, slug string) (*domain.BookRecord, error)

	// Subjects returns every subject with book and chunk totals.
	Subjects(ctx context.Context) ([]domain.SubjectSummary, error)

	// Chapters returns a book's chapters in order.
	Chapters(ctx context.Context, slug string) ([]domain.ChapterRecord, error)
}
