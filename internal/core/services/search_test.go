package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// --- Test helpers ---

type searchFixture struct {
	vectors  *memory.VectorIndex
	metadata *memory.MetadataStore
	embedder *mockEmbeddingService
	service  *SearchService
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	ctx := context.Background()

	f := &searchFixture{
		vectors:  memory.NewVectorIndex(),
		metadata: memory.NewMetadataStore(),
		embedder: &mockEmbeddingService{},
	}

	books := []domain.BookRecord{
		{Slug: "calm-parent", Title: "The Calm Parent", Author: "A. Writer", Subject: "parenting"},
		{Slug: "tantrums", Title: "Taming Tantrums", Author: "B. Writer", Subject: "parenting"},
		{Slug: "deep-work", Title: "Deep Work", Author: "C. Writer", Subject: "productivity"},
	}
	for i := range books {
		require.NoError(t, f.metadata.AddBook(ctx, &books[i]))
	}

	chunks := []domain.Chunk{
		{ID: "calm-parent-ch001-0000", Content: "Stay calm when your child is upset.", BookSlug: "calm-parent", ChapterNumber: 1, ChapterTitle: "Calm"},
		{ID: "tantrums-ch002-0000", Content: "Tantrums pass when children feel heard.", BookSlug: "tantrums", ChapterNumber: 2, ChapterTitle: "Heard"},
		{ID: "deep-work-ch001-0000", Content: "Focus deeply on one task at a time.", BookSlug: "deep-work", ChapterNumber: 1, ChapterTitle: "Focus"},
		{ID: "orphan-ch001-0000", Content: "A passage whose book was never recorded.", BookSlug: "orphan", ChapterNumber: 1, ChapterTitle: "Lost"},
	}
	batch := driven.VectorBatch{}
	for _, c := range chunks {
		batch.IDs = append(batch.IDs, c.ID)
		batch.Vectors = append(batch.Vectors, letterVector(c.Content))
		batch.Contents = append(batch.Contents, c.Content)
		batch.Metadata = append(batch.Metadata, c.Metadata())
	}
	require.NoError(t, f.vectors.Add(ctx, batch))

	f.service = NewSearchService(f.embedder, f.vectors, f.metadata)
	return f
}

func slugsOf(results []domain.SearchResult) []string {
	slugs := make([]string, len(results))
	for i, r := range results {
		slugs[i] = r.BookSlug
	}
	return slugs
}

// --- Tests ---

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "   ", domain.SearchOptions{})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, f.embedder.calls, "blank queries are never embedded")
}

func TestSearchService_Search_NoEmbedder(t *testing.T) {
	f := newSearchFixture(t)
	service := NewSearchService(nil, f.vectors, f.metadata)

	_, err := service.Search(context.Background(), "calm", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSearchService_Search_OrderedByScore(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "Stay calm when your child is upset.", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "calm-parent-ch001-0000", results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchService_Search_EnrichesWithBookMetadata(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "calm child", domain.SearchOptions{})

	require.NoError(t, err)
	byBook := make(map[string]domain.SearchResult)
	for _, r := range results {
		byBook[r.BookSlug] = r
	}

	calm := byBook["calm-parent"]
	assert.Equal(t, "The Calm Parent", calm.BookTitle)
	assert.Equal(t, "A. Writer", calm.BookAuthor)
	assert.Equal(t, 1, calm.ChapterNumber)
	assert.Equal(t, "Calm", calm.ChapterTitle)

	orphan := byBook["orphan"]
	assert.Equal(t, "orphan", orphan.BookTitle)
	assert.Equal(t, domain.UnknownAuthor, orphan.BookAuthor)
}

func TestSearchService_Search_Limit(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "calm", domain.SearchOptions{Limit: 2})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchService_Search_BookFilter(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "calm", domain.SearchOptions{
		BookSlugs: []string{"deep-work", "tantrums"},
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"deep-work", "tantrums"}, slugsOf(results))
}

func TestSearchService_Search_SubjectFilter(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "calm", domain.SearchOptions{Subject: "parenting"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"calm-parent", "tantrums"}, slugsOf(results))
}

func TestSearchService_Search_SubjectIntersectsBooks(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "calm", domain.SearchOptions{
		Subject:   "parenting",
		BookSlugs: []string{"tantrums", "deep-work"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"tantrums"}, slugsOf(results))
}

func TestSearchService_Search_EmptyIntersection(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "calm", domain.SearchOptions{
		Subject:   "productivity",
		BookSlugs: []string{"tantrums"},
	})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, f.embedder.calls)
}

func TestSearchService_Search_UnknownSubject(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "calm", domain.SearchOptions{Subject: "cooking"})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_Search_EmbedError(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.embedErr = errors.New("model offline")

	_, err := f.service.Search(context.Background(), "calm", domain.SearchOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestSearchService_Search_QueryError(t *testing.T) {
	f := newSearchFixture(t)
	vectors := &failingVectorIndex{VectorIndex: f.vectors, queryErr: errors.New("index corrupt")}
	service := NewSearchService(f.embedder, vectors, f.metadata)

	_, err := service.Search(context.Background(), "calm", domain.SearchOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index corrupt")
}

func TestSearchService_Search_EmptyIndex(t *testing.T) {
	service := NewSearchService(&mockEmbeddingService{}, memory.NewVectorIndex(), memory.NewMetadataStore())

	results, err := service.Search(context.Background(), "anything", domain.SearchOptions{})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
