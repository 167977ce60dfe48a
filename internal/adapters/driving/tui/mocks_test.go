package tui

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

type mockSearch struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSearch) Search(context.Context, string, domain.SearchOptions) ([]domain.SearchResult, error) {
	return m.results, m.err
}

type mockLibrary struct {
	driving.LibraryService
	books    []domain.BookRecord
	chapters []domain.ChapterRecord
}

func (m *mockLibrary) ListBooks(context.Context, string) ([]domain.BookRecord, error) {
	return m.books, nil
}

func (m *mockLibrary) Chapters(context.Context, string) ([]domain.ChapterRecord, error) {
	return m.chapters, nil
}

type mockExplore struct {
	driving.ExploreService
	topics []domain.Topic
}

func (m *mockExplore) Topics(context.Context, string, string) ([]domain.Topic, error) {
	return m.topics, nil
}

type mockSummary struct{}

func (mockSummary) SummariseChapter(_ context.Context, slug string, chapter int) (*domain.ChapterSummary, error) {
	return &domain.ChapterSummary{BookSlug: slug, ChapterNumber: chapter, Summary: "A summary.", Provider: "rule-based"}, nil
}
