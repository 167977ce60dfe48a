package driven

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// MetadataStore persists book and chapter records.
// Absent books are reported as (nil, nil), never as an error.
type MetadataStore interface {
	// AddBook upserts a book by slug. Re-adding overwrites title, author,
	// subject and file path but keeps the original AddedAt.
	AddBook(ctx context.Context, book *domain.BookRecord) error

	// GetBook returns the book, or nil if it does not exist.
	GetBook(ctx context.Context, slug string) (*domain.BookRecord, error)

	// ListBooks returns every book, newest first.
	ListBooks(ctx context.Context) ([]domain.BookRecord, error)

	// BooksBySubject returns the books filed under a subject, newest first.
	BooksBySubject(ctx context.Context, subject string) ([]domain.BookRecord, error)

	// Subjects returns each subject with its book and chunk totals, ordered by subject.
	Subjects(ctx context.Context) ([]domain.SubjectSummary, error)

	// UpdateChunkCount records the chunk total for a book.
	UpdateChunkCount(ctx context.Context, slug string, count int) error

	// DeleteBook removes a book and its chapters. Returns false if it did not exist.
	DeleteBook(ctx context.Context, slug string) (bool, error)

	// BookExists reports whether a book is recorded.
	BookExists(ctx context.Context, slug string) (bool, error)

	// ReplaceChapters deletes the book's chapters and inserts the given ones.
	ReplaceChapters(ctx context.Context, slug string, chapters []domain.ChapterRecord) error

	// Chapters returns a book's chapters ordered by number.
	Chapters(ctx context.Context, slug string) ([]domain.ChapterRecord, error)

	// Close releases resources.
	Close() error
}
