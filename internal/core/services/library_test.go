package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/adapters/driven/graph/jsonfile"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// --- Test helpers ---

type libraryFixture struct {
	dir      string
	bookPath string
	metadata *memory.MetadataStore
	vectors  *memory.VectorIndex
	topics   *memory.TopicRegistry
	graph    *jsonfile.Graph
	embedder *mockEmbeddingService
	parser   *mockBookParser
	service  *LibraryService
}

func newLibraryFixture(t *testing.T) *libraryFixture {
	t.Helper()
	dir := t.TempDir()

	graph, err := jsonfile.New(filepath.Join(dir, "graph"))
	require.NoError(t, err)

	bookPath := filepath.Join(dir, "calm.epub")
	require.NoError(t, os.WriteFile(bookPath, []byte("epub bytes"), 0600))

	f := &libraryFixture{
		dir:      dir,
		bookPath: bookPath,
		metadata: memory.NewMetadataStore(),
		vectors:  memory.NewVectorIndex(),
		topics:   memory.NewTopicRegistry(),
		graph:    graph,
		embedder: &mockEmbeddingService{},
		parser:   &mockBookParser{book: twoChapterBook()},
	}
	f.service = NewLibraryService(
		f.metadata, f.vectors, f.topics, f.graph, f.embedder, f.parser,
		domain.ChunkingSettings{Size: 100, Overlap: 20},
	)
	return f
}

func twoChapterBook() *domain.ParsedBook {
	first := wordsOf(500, "parents", "stay", "calm", "during", "emotional", "storms", "children", "learn", "regulation", "slowly")
	second := wordsOf(500, "routines", "give", "children", "steady", "anchors", "bedtime", "stories", "soothe", "anxious", "minds")
	return &domain.ParsedBook{
		Title:  "The Calm Parent",
		Author: "A. Writer",
		Chapters: []domain.ParsedChapter{
			{Number: 1, Title: "Storms", Content: first, StartPosition: 0, EndPosition: len(first)},
			{Number: 2, Title: "Anchors", Content: second, StartPosition: len(first), EndPosition: len(first) + len(second)},
		},
	}
}

func (f *libraryFixture) vectorCount(t *testing.T, slug string) int {
	t.Helper()
	n, err := f.vectors.Count(context.Background(), driven.Where(domain.MetaBookSlug, slug))
	require.NoError(t, err)
	return n
}

// --- Tests ---

func TestLibraryService_AddBook(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	result, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{})

	require.NoError(t, err)
	assert.Equal(t, "the-calm-parent", result.Book.Slug)
	assert.Equal(t, "The Calm Parent", result.Book.Title)
	assert.Equal(t, "A. Writer", result.Book.Author)
	assert.Equal(t, domain.DefaultSubject, result.Book.Subject)
	assert.Equal(t, f.bookPath, result.Book.FilePath)
	assert.Equal(t, 2, result.ChapterCount)
	assert.GreaterOrEqual(t, result.ChunkCount, 4)
	assert.Equal(t, result.ChunkCount, result.Book.ChunkCount)
	assert.Zero(t, result.TopicCount)

	assert.Equal(t, result.ChunkCount, f.vectorCount(t, "the-calm-parent"))

	chapters, err := f.service.Chapters(ctx, "the-calm-parent")
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Storms", chapters[0].Title)
	assert.Equal(t, "Anchors", chapters[1].Title)
}

func TestLibraryService_AddBook_ChunksCarryMetadata(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	_, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{})
	require.NoError(t, err)

	records, err := f.vectors.Get(ctx, driven.Where(domain.MetaBookSlug, "the-calm-parent").And(domain.MetaChapterNumber, 2))
	require.NoError(t, err)
	require.NotEmpty(t, records)

	first := records[0].Chunk()
	assert.Equal(t, "the-calm-parent-ch002-0000", first.ID)
	assert.Equal(t, "Anchors", first.ChapterTitle)
	assert.Zero(t, first.StartPosition)
	assert.NotEmpty(t, records[0].Metadata[domain.MetaIngestID])
	for _, rec := range records {
		assert.LessOrEqual(t, len([]rune(rec.Content)), 100)
	}
}

func TestLibraryService_AddBook_Overrides(t *testing.T) {
	f := newLibraryFixture(t)
	overlap := 40

	result, err := f.service.AddBook(context.Background(), f.bookPath, domain.AddBookOptions{
		Slug:         "calm",
		Title:        "Calm",
		Author:       "Someone Else",
		Subject:      "parenting",
		ChunkSize:    400,
		ChunkOverlap: &overlap,
	})

	require.NoError(t, err)
	assert.Equal(t, "calm", result.Book.Slug)
	assert.Equal(t, "Calm", result.Book.Title)
	assert.Equal(t, "Someone Else", result.Book.Author)
	assert.Equal(t, "parenting", result.Book.Subject)
	for _, rec := range mustGet(t, f.vectors, "calm") {
		assert.LessOrEqual(t, len([]rune(rec.Content)), 400)
	}
}

func TestLibraryService_AddBook_ZeroOverlap(t *testing.T) {
	zero := 0
	tests := []struct {
		name     string
		chunking domain.ChunkingSettings
		opts     domain.AddBookOptions
	}{
		{"option", domain.ChunkingSettings{Size: 100, Overlap: 20}, domain.AddBookOptions{ChunkOverlap: &zero}},
		{"settings", domain.ChunkingSettings{Size: 100, Overlap: 0}, domain.AddBookOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLibraryFixture(t)
			f.service = NewLibraryService(
				f.metadata, f.vectors, f.topics, f.graph, f.embedder, f.parser, tt.chunking,
			)

			_, err := f.service.AddBook(context.Background(), f.bookPath, tt.opts)
			require.NoError(t, err)

			records := mustGet(t, f.vectors, "the-calm-parent")
			require.Greater(t, len(records), 2)
			chunks := make([]domain.Chunk, len(records))
			for i, rec := range records {
				chunks[i] = rec.Chunk()
			}
			sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
			for i := 1; i < len(chunks); i++ {
				prev, cur := chunks[i-1], chunks[i]
				if prev.ChapterNumber != cur.ChapterNumber {
					continue
				}
				assert.GreaterOrEqual(t, cur.StartPosition, prev.EndPosition, "%s overlaps %s", cur.ID, prev.ID)
			}
		})
	}
}

func TestLibraryService_AddBook_DefaultOverlapWhenUnconfigured(t *testing.T) {
	f := newLibraryFixture(t)
	f.service = NewLibraryService(
		f.metadata, f.vectors, f.topics, f.graph, f.embedder, f.parser, domain.ChunkingSettings{},
	)

	assert.Equal(t, domain.DefaultChunkOverlap, f.service.configuredOverlap())
}

func mustGet(t *testing.T, vectors driven.VectorIndex, slug string) []driven.VectorRecord {
	t.Helper()
	records, err := vectors.Get(context.Background(), driven.Where(domain.MetaBookSlug, slug))
	require.NoError(t, err)
	return records
}

func TestLibraryService_AddBook_ReAddSweepsStaleChunks(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	first, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{ChunkSize: 100})
	require.NoError(t, err)

	second, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{ChunkSize: 1000})
	require.NoError(t, err)

	assert.Less(t, second.ChunkCount, first.ChunkCount)
	assert.Equal(t, second.ChunkCount, f.vectorCount(t, "the-calm-parent"))
	assert.Equal(t, first.Book.AddedAt, second.Book.AddedAt, "re-adding keeps the original added time")

	books, err := f.service.ListBooks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestLibraryService_AddBook_EmptyBookClearsVectors(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	_, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{})
	require.NoError(t, err)

	f.parser.book = &domain.ParsedBook{Title: "The Calm Parent"}
	result, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{})

	require.NoError(t, err)
	assert.Zero(t, result.ChunkCount)
	assert.Zero(t, f.vectorCount(t, "the-calm-parent"))
}

func TestLibraryService_AddBook_ExtractTopics(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	result, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{
		Subject:       "parenting",
		ChunkSize:     400,
		ExtractTopics: true,
	})

	require.NoError(t, err)
	assert.Positive(t, result.TopicCount)

	topics, err := f.topics.TopicsForBook(ctx, "the-calm-parent")
	require.NoError(t, err)
	assert.Len(t, topics, result.TopicCount)
	for _, topic := range topics {
		assert.Equal(t, "parenting", topic.Subject)
		assert.NotEmpty(t, topic.DisplayName)
	}
}

func TestLibraryService_AddBook_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *libraryFixture) string
		wantErr error
	}{
		{
			name:    "missing file",
			setup:   func(f *libraryFixture) string { return filepath.Join(f.dir, "missing.epub") },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "directory",
			setup:   func(f *libraryFixture) string { return f.dir },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "unsupported type",
			setup: func(f *libraryFixture) string {
				path := filepath.Join(f.dir, "notes.pdf")
				_ = os.WriteFile(path, []byte("pdf"), 0600)
				return path
			},
			wantErr: domain.ErrUnsupportedType,
		},
		{
			name: "no embedder",
			setup: func(f *libraryFixture) string {
				f.service.embedder = nil
				return f.bookPath
			},
			wantErr: domain.ErrEmbeddingUnavailable,
		},
		{
			name: "embedding count mismatch",
			setup: func(f *libraryFixture) string {
				f.embedder.shortBatch = true
				return f.bookPath
			},
			wantErr: domain.ErrInputMismatch,
		},
		{
			name: "title without slug characters",
			setup: func(f *libraryFixture) string {
				f.parser.book = &domain.ParsedBook{Title: "!!!"}
				return f.bookPath
			},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLibraryFixture(t)
			path := tt.setup(f)

			_, err := f.service.AddBook(context.Background(), path, domain.AddBookOptions{})

			assert.ErrorIs(t, err, tt.wantErr)
			books, _ := f.metadata.ListBooks(context.Background())
			assert.Empty(t, books, "failed ingestion records nothing")
		})
	}
}

func TestLibraryService_AddBook_ParseError(t *testing.T) {
	f := newLibraryFixture(t)
	f.parser.parseErr = errors.New("bad container")

	_, err := f.service.AddBook(context.Background(), f.bookPath, domain.AddBookOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad container")
	assert.Contains(t, err.Error(), "calm.epub")
}

func TestLibraryService_RemoveBook(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	added, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{ChunkSize: 400, ExtractTopics: true})
	require.NoError(t, err)
	_, err = f.graph.AddConcept(ctx, domain.ConceptNode{ID: "calm-presence", SourceBook: "the-calm-parent"})
	require.NoError(t, err)
	_, err = f.graph.AddConcept(ctx, domain.ConceptNode{ID: "deep-focus", SourceBook: "deep-work"})
	require.NoError(t, err)

	result, err := f.service.RemoveBook(ctx, "the-calm-parent")

	require.NoError(t, err)
	assert.Equal(t, "the-calm-parent", result.Slug)
	assert.Equal(t, added.ChunkCount, result.VectorsRemoved)
	assert.Positive(t, result.OccurrencesRemoved)
	assert.Equal(t, 1, result.ConceptsRemoved)

	assert.Zero(t, f.vectorCount(t, "the-calm-parent"))
	book, err := f.service.GetBook(ctx, "the-calm-parent")
	require.NoError(t, err)
	assert.Nil(t, book)
	topics, err := f.topics.TopicsForBook(ctx, "the-calm-parent")
	require.NoError(t, err)
	assert.Empty(t, topics)

	kept, err := f.graph.GetConcept(ctx, "deep-focus")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestLibraryService_RemoveBook_NotFound(t *testing.T) {
	f := newLibraryFixture(t)

	_, err := f.service.RemoveBook(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryService_Rebuild(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	_, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{
		Slug:    "calm",
		Title:   "Custom Title",
		Subject: "parenting",
	})
	require.NoError(t, err)

	results, err := f.service.Rebuild(ctx, "calm")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "calm", results[0].Book.Slug)
	assert.Equal(t, "Custom Title", results[0].Book.Title)
	assert.Equal(t, "parenting", results[0].Book.Subject)
	assert.Len(t, f.parser.parsed, 2)
	assert.Equal(t, results[0].ChunkCount, f.vectorCount(t, "calm"))
}

func TestLibraryService_Rebuild_All(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	for _, slug := range []string{"one", "two"} {
		_, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{Slug: slug})
		require.NoError(t, err)
	}

	results, err := f.service.Rebuild(ctx, "")

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestLibraryService_Rebuild_NotFound(t *testing.T) {
	f := newLibraryFixture(t)

	_, err := f.service.Rebuild(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryService_ListBooksAndSubjects(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	f.service.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{Slug: "a", Subject: "parenting"})
	require.NoError(t, err)
	_, err = f.service.AddBook(ctx, f.bookPath, domain.AddBookOptions{Slug: "b", Subject: "productivity"})
	require.NoError(t, err)

	parenting, err := f.service.ListBooks(ctx, "parenting")
	require.NoError(t, err)
	require.Len(t, parenting, 1)
	assert.Equal(t, "a", parenting[0].Slug)

	subjects, err := f.service.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "parenting", subjects[0].Subject)
	assert.Equal(t, 1, subjects[0].BookCount)
	assert.Positive(t, subjects[0].ChunkCount)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Calm Parent", "the-calm-parent"},
		{"  Hello,   World!  ", "hello-world"},
		{"Self-Care -- A Guide", "self-care-a-guide"},
		{"snake_case title", "snake_case-title"},
		{"Café Olé", "café-olé"},
		{"Chapter 12: Focus", "chapter-12-focus"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestDisplayNameFromID(t *testing.T) {
	assert.Equal(t, "Emotional Regulation", displayNameFromID("emotional-regulation"))
	assert.Equal(t, "Focus", displayNameFromID("focus"))
	assert.Equal(t, "Self Care 2", displayNameFromID("self-care-2"))
}
