package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are letter frequencies, so texts sharing words land close together.
type mockEmbeddingService struct {
	embedErr   error
	shortBatch bool
	calls      int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return letterVector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = letterVector(text)
	}
	if m.shortBatch && len(result) > 0 {
		result = result[:len(result)-1]
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 26
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

func letterVector(text string) []float32 {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	// Keep blank text off the origin so cosine distance is defined.
	vec[0] += 0.01
	return vec
}

// mockBookParser implements driven.BookParser for testing.
type mockBookParser struct {
	book     *domain.ParsedBook
	parseErr error
	parsed   []string
}

func (m *mockBookParser) Parse(_ context.Context, path string) (*domain.ParsedBook, error) {
	m.parsed = append(m.parsed, path)
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	return m.book, nil
}

func (m *mockBookParser) Extensions() []string {
	return []string{".epub"}
}

// mockSummariser implements driven.ChapterSummariser for testing.
type mockSummariser struct {
	got          domain.ChapterContent
	summariseErr error
}

func (m *mockSummariser) Summarise(_ context.Context, chapter domain.ChapterContent) (*domain.ChapterSummary, error) {
	m.got = chapter
	if m.summariseErr != nil {
		return nil, m.summariseErr
	}
	return &domain.ChapterSummary{
		BookSlug:      chapter.BookSlug,
		ChapterNumber: chapter.ChapterNumber,
		ChapterTitle:  chapter.ChapterTitle,
		Summary:       "summary of " + chapter.ChapterTitle,
		KeyPoints:     []string{"first point"},
		ChunkCount:    chapter.ChunkCount,
		Provider:      m.Provider(),
	}, nil
}

func (m *mockSummariser) Provider() string {
	return "mock"
}

// failingVectorIndex wraps a real index and fails selected operations.
type failingVectorIndex struct {
	driven.VectorIndex
	queryErr error
	getErr   error
}

func (f *failingVectorIndex) Query(ctx context.Context, vector []float32, k int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.VectorIndex.Query(ctx, vector, k, filter)
}

func (f *failingVectorIndex) Get(ctx context.Context, filter *driven.VectorFilter) ([]driven.VectorRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.VectorIndex.Get(ctx, filter)
}

// mockSearchService implements driving.SearchService with canned results.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	gotOpts domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// wordsOf repeats a vocabulary until it reaches n words, ending sentences every ten words.
func wordsOf(n int, vocabulary ...string) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		word := vocabulary[i%len(vocabulary)]
		if i%10 == 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			word = string(runes)
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		if i%10 == 9 {
			b.WriteByte('.')
		}
	}
	if n%10 != 0 {
		b.WriteByte('.')
	}
	return b.String()
}
