package mcp

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.SearchResult
	err       error
	gotQuery  string
	gotOpts   domain.SearchOptions
	callCount int
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.callCount++
	m.gotQuery = query
	m.gotOpts = opts
	return m.results, m.err
}

// mockLibraryService is a mock implementation of driving.LibraryService.
type mockLibraryService struct {
	books      []domain.BookRecord
	book       *domain.BookRecord
	subjects   []domain.SubjectSummary
	chapters   []domain.ChapterRecord
	err        error
	gotSubject string
}

func (m *mockLibraryService) AddBook(
	_ context.Context, _ string, _ domain.AddBookOptions,
) (*domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockLibraryService) RemoveBook(_ context.Context, _ string) (*domain.RemoveResult, error) {
	return nil, m.err
}

func (m *mockLibraryService) Rebuild(_ context.Context, _ string) ([]domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockLibraryService) ListBooks(_ context.Context, subject string) ([]domain.BookRecord, error) {
	m.gotSubject = subject
	return m.books, m.err
}

func (m *mockLibraryService) GetBook(_ context.Context, _ string) (*domain.BookRecord, error) {
	return m.book, m.err
}

func (m *mockLibraryService) Subjects(_ context.Context) ([]domain.SubjectSummary, error) {
	return m.subjects, m.err
}

func (m *mockLibraryService) Chapters(_ context.Context, _ string) ([]domain.ChapterRecord, error) {
	return m.chapters, m.err
}

// mockAdviceService is a mock implementation of driving.AdviceService.
type mockAdviceService struct {
	advice       *domain.SynthesizedAdvice
	perspectives []domain.SourcePerspective
	comparison   *domain.SourceComparison
	err          error
	gotOpts      domain.SearchOptions
}

func (m *mockAdviceService) Advise(
	_ context.Context, _ string, opts domain.SearchOptions,
) (*domain.SynthesizedAdvice, error) {
	m.gotOpts = opts
	return m.advice, m.err
}

func (m *mockAdviceService) AdviseBySource(
	_ context.Context, _ string, opts domain.SearchOptions,
) ([]domain.SourcePerspective, error) {
	m.gotOpts = opts
	return m.perspectives, m.err
}

func (m *mockAdviceService) Compare(
	_ context.Context, _ string, opts domain.SearchOptions,
) (*domain.SourceComparison, error) {
	m.gotOpts = opts
	return m.comparison, m.err
}

// mockExploreService is a mock implementation of driving.ExploreService.
type mockExploreService struct {
	topics          []domain.Topic
	searchedTopics  []domain.Topic
	booksForTopic   []string
	concepts        []domain.ConceptNode
	searched        []domain.ConceptNode
	concept         *domain.ConceptNode
	related         []domain.RelatedConcept
	err             error
	gotSubject      string
	gotBook         string
	gotRelationship domain.Relationship
	gotDepth        int
}

func (m *mockExploreService) Overview(_ context.Context, _ string) ([]domain.SubjectOverview, error) {
	return nil, m.err
}

func (m *mockExploreService) Topics(_ context.Context, subject, book string) ([]domain.Topic, error) {
	m.gotSubject = subject
	m.gotBook = book
	return m.topics, m.err
}

func (m *mockExploreService) SearchTopics(_ context.Context, _ string) ([]domain.Topic, error) {
	return m.searchedTopics, m.err
}

func (m *mockExploreService) ChunksForTopic(
	_ context.Context, _, _ string, _ int,
) ([]domain.ChunkRelevance, error) {
	return nil, m.err
}

func (m *mockExploreService) BooksForTopic(_ context.Context, _ string) ([]string, error) {
	return m.booksForTopic, m.err
}

func (m *mockExploreService) Concepts(_ context.Context, book string) ([]domain.ConceptNode, error) {
	m.gotBook = book
	return m.concepts, m.err
}

func (m *mockExploreService) SearchConcepts(_ context.Context, _ string) ([]domain.ConceptNode, error) {
	return m.searched, m.err
}

func (m *mockExploreService) Concept(_ context.Context, _ string) (*domain.ConceptNode, error) {
	return m.concept, m.err
}

func (m *mockExploreService) RelatedConcepts(
	_ context.Context, _ string, relationship domain.Relationship, depth int,
) ([]domain.RelatedConcept, error) {
	m.gotRelationship = relationship
	m.gotDepth = depth
	return m.related, m.err
}

func (m *mockExploreService) GraphStats(_ context.Context) (domain.GraphStats, error) {
	return domain.GraphStats{}, m.err
}

// mockSummaryService is a mock implementation of driving.SummaryService.
type mockSummaryService struct {
	summary *domain.ChapterSummary
	err     error
}

func (m *mockSummaryService) SummariseChapter(
	_ context.Context, _ string, _ int,
) (*domain.ChapterSummary, error) {
	return m.summary, m.err
}
