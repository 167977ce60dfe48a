package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/bookwise/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// MetadataStore implements driven.MetadataStore on SQLite.
type MetadataStore struct {
	db   *sql.DB
	path string
}

var _ driven.MetadataStore = (*MetadataStore)(nil)

// NewMetadataStore opens dir/library.db.
func NewMetadataStore(dir string) (*MetadataStore, error) {
	db, path, err := openDatabase(dir, "library.db", migrations.Metadata())
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	return &MetadataStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *MetadataStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *MetadataStore) Path() string {
	return s.path
}

const bookColumns = "slug, title, author, subject, file_path, added_at, chunk_count"

// ==================== Books ====================

// AddBook upserts a book. AddedAt is only written on first insert; the stored
// value is copied back into book.
func (s *MetadataStore) AddBook(ctx context.Context, book *domain.BookRecord) error {
	if book == nil || book.Slug == "" {
		return fmt.Errorf("%w: book slug is required", domain.ErrInvalidInput)
	}

	addedAt := book.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}
	subject := book.Subject
	if subject == "" {
		subject = domain.DefaultSubject
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (slug, title, author, subject, file_path, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			subject = excluded.subject,
			file_path = excluded.file_path
	`, book.Slug, book.Title, book.Author, subject, book.FilePath, addedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving book: %w", err)
	}

	stored, err := s.GetBook(ctx, book.Slug)
	if err != nil {
		return err
	}
	if stored != nil {
		*book = *stored
	}
	return nil
}

// GetBook returns the book or nil when it does not exist.
func (s *MetadataStore) GetBook(ctx context.Context, slug string) (*domain.BookRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM books WHERE slug = ?", slug)

	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning book: %w", err)
	}
	return book, nil
}

// ListBooks returns every book, newest first.
func (s *MetadataStore) ListBooks(ctx context.Context) ([]domain.BookRecord, error) {
	return s.queryBooks(ctx, "SELECT "+bookColumns+" FROM books ORDER BY added_at DESC, slug")
}

// BooksBySubject returns the books in a subject, newest first.
func (s *MetadataStore) BooksBySubject(ctx context.Context, subject string) ([]domain.BookRecord, error) {
	return s.queryBooks(ctx,
		"SELECT "+bookColumns+" FROM books WHERE subject = ? ORDER BY added_at DESC, slug", subject)
}

// Subjects aggregates book and chunk counts per subject.
func (s *MetadataStore) Subjects(ctx context.Context) ([]domain.SubjectSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, COUNT(*), COALESCE(SUM(chunk_count), 0)
		FROM books
		GROUP BY subject
		ORDER BY subject
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subjects: %w", err)
	}
	defer rows.Close()

	var subjects []domain.SubjectSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var summary domain.SubjectSummary
		if err := rows.Scan(&summary.Subject, &summary.BookCount, &summary.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning subject: %w", err)
		}
		subjects = append(subjects, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subjects: %w", err)
	}
	return subjects, nil
}

// UpdateChunkCount records the chunk total for a book.
func (s *MetadataStore) UpdateChunkCount(ctx context.Context, slug string, count int) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE books SET chunk_count = ? WHERE slug = ?", count, slug); err != nil {
		return fmt.Errorf("updating chunk count: %w", err)
	}
	return nil
}

// DeleteBook removes a book; its chapters go with it through the foreign key cascade.
func (s *MetadataStore) DeleteBook(ctx context.Context, slug string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE slug = ?", slug)
	if err != nil {
		return false, fmt.Errorf("deleting book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting book: %w", err)
	}
	return n > 0, nil
}

// BookExists reports whether a book is recorded.
func (s *MetadataStore) BookExists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM books WHERE slug = ?", slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking book: %w", err)
	}
	return true, nil
}

func (s *MetadataStore) queryBooks(ctx context.Context, query string, args ...any) ([]domain.BookRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []domain.BookRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, *book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	return books, nil
}

// ==================== Chapters ====================

// ReplaceChapters deletes the book's chapters and inserts the new set in one transaction.
func (s *MetadataStore) ReplaceChapters(ctx context.Context, slug string, chapters []domain.ChapterRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters WHERE book_slug = ?", slug); err != nil {
		return fmt.Errorf("deleting chapters: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chapters (book_slug, number, title, start_position, end_position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chapters {
		if _, err := stmt.ExecContext(ctx, slug, ch.Number, ch.Title, ch.StartPosition, ch.EndPosition); err != nil {
			return fmt.Errorf("saving chapter %d: %w", ch.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Chapters returns a book's chapters ordered by number.
func (s *MetadataStore) Chapters(ctx context.Context, slug string) ([]domain.ChapterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_slug, number, title, start_position, end_position
		FROM chapters WHERE book_slug = ? ORDER BY number
	`, slug)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	var chapters []domain.ChapterRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ch domain.ChapterRecord
		if err := rows.Scan(&ch.ID, &ch.BookSlug, &ch.Number, &ch.Title,
			&ch.StartPosition, &ch.EndPosition); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return chapters, nil
}

// ==================== Helper Functions ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*domain.BookRecord, error) {
	var book domain.BookRecord
	var addedAt sql.NullTime
	if err := row.Scan(&book.Slug, &book.Title, &book.Author, &book.Subject,
		&book.FilePath, &addedAt, &book.ChunkCount); err != nil {
		return nil, err
	}
	if addedAt.Valid {
		book.AddedAt = addedAt.Time
	}
	return &book, nil
}
