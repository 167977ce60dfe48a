package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu       sync.RWMutex
	books    map[string]domain.BookRecord
	chapters map[string][]domain.ChapterRecord
	nextID   int64
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		books:    make(map[string]domain.BookRecord),
		chapters: make(map[string][]domain.ChapterRecord),
	}
}

// AddBook upserts a book, keeping AddedAt and ChunkCount of an existing record.
func (s *MetadataStore) AddBook(_ context.Context, book *domain.BookRecord) error {
	if book == nil || book.Slug == "" {
		return fmt.Errorf("%w: book slug is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *book
	if stored.Subject == "" {
		stored.Subject = domain.DefaultSubject
	}
	if existing, ok := s.books[book.Slug]; ok {
		stored.AddedAt = existing.AddedAt
		stored.ChunkCount = existing.ChunkCount
	} else {
		stored.ChunkCount = 0
		if stored.AddedAt.IsZero() {
			stored.AddedAt = time.Now()
		}
	}
	s.books[book.Slug] = stored
	*book = stored
	return nil
}

// GetBook returns the book or nil when it does not exist.
func (s *MetadataStore) GetBook(_ context.Context, slug string) (*domain.BookRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[slug]
	if !ok {
		return nil, nil
	}
	return &book, nil
}

// ListBooks returns every book, newest first.
func (s *MetadataStore) ListBooks(_ context.Context) ([]domain.BookRecord, error) {
	return s.filterBooks(func(domain.BookRecord) bool { return true }), nil
}

// BooksBySubject returns the books in a subject, newest first.
func (s *MetadataStore) BooksBySubject(_ context.Context, subject string) ([]domain.BookRecord, error) {
	return s.filterBooks(func(b domain.BookRecord) bool { return b.Subject == subject }), nil
}

// Subjects aggregates book and chunk counts per subject.
func (s *MetadataStore) Subjects(_ context.Context) ([]domain.SubjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySubject := make(map[string]*domain.SubjectSummary)
	for _, book := range s.books {
		summary, ok := bySubject[book.Subject]
		if !ok {
			summary = &domain.SubjectSummary{Subject: book.Subject}
			bySubject[book.Subject] = summary
		}
		summary.BookCount++
		summary.ChunkCount += book.ChunkCount
	}

	subjects := make([]domain.SubjectSummary, 0, len(bySubject))
	for _, summary := range bySubject {
		subjects = append(subjects, *summary)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Subject < subjects[j].Subject })
	return subjects, nil
}

// UpdateChunkCount records the chunk total for a book.
func (s *MetadataStore) UpdateChunkCount(_ context.Context, slug string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if book, ok := s.books[slug]; ok {
		book.ChunkCount = count
		s.books[slug] = book
	}
	return nil
}

// DeleteBook removes a book and its chapters.
func (s *MetadataStore) DeleteBook(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.books[slug]
	delete(s.books, slug)
	delete(s.chapters, slug)
	return ok, nil
}

// BookExists reports whether a book is recorded.
func (s *MetadataStore) BookExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.books[slug]
	return ok, nil
}

// ReplaceChapters swaps the book's chapters for the given set.
func (s *MetadataStore) ReplaceChapters(_ context.Context, slug string, chapters []domain.ChapterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.ChapterRecord, 0, len(chapters))
	for _, ch := range chapters {
		s.nextID++
		ch.ID = s.nextID
		ch.BookSlug = slug
		stored = append(stored, ch)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Number < stored[j].Number })
	s.chapters[slug] = stored
	return nil
}

// Chapters returns a book's chapters ordered by number.
func (s *MetadataStore) Chapters(_ context.Context, slug string) ([]domain.ChapterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapters := s.chapters[slug]
	if len(chapters) == 0 {
		return nil, nil
	}
	return append([]domain.ChapterRecord(nil), chapters...), nil
}

// Close releases resources.
func (s *MetadataStore) Close() error {
	return nil
}

func (s *MetadataStore) filterBooks(keep func(domain.BookRecord) bool) []domain.BookRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var books []domain.BookRecord
	for _, book := range s.books {
		if keep(book) {
			books = append(books, book)
		}
	}
	sort.Slice(books, func(i, j int) bool {
		if !books[i].AddedAt.Equal(books[j].AddedAt) {
			return books[i].AddedAt.After(books[j].AddedAt)
		}
		return books[i].Slug < books[j].Slug
	})
	return books
}
