package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
	"github.com/custodia-labs/bookwise/internal/logger"
	"github.com/custodia-labs/bookwise/internal/postprocessors/chunker"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// Topic extraction limits used during ingestion.
const (
	ingestMaxTopics      = 15
	ingestMinOccurrences = 2
)

// LibraryService ingests books into the vector index, metadata store and
// topic registry, and removes them again.
type LibraryService struct {
	metadata driven.MetadataStore
	vectors  driven.VectorIndex
	topics   driven.TopicRegistry
	graph    driven.KnowledgeGraph
	embedder driven.EmbeddingService
	parser   driven.BookParser
	chunking domain.ChunkingSettings
	now      func() time.Time
}

// NewLibraryService creates a new library service.
// The embedder may be nil, in which case ingestion fails with
// domain.ErrEmbeddingUnavailable while listing and removal keep working.
func NewLibraryService(
	metadata driven.MetadataStore,
	vectors driven.VectorIndex,
	topics driven.TopicRegistry,
	graph driven.KnowledgeGraph,
	embedder driven.EmbeddingService,
	parser driven.BookParser,
	chunking domain.ChunkingSettings,
) *LibraryService {
	return &LibraryService{
		metadata: metadata,
		vectors:  vectors,
		topics:   topics,
		graph:    graph,
		embedder: embedder,
		parser:   parser,
		chunking: chunking,
		now:      time.Now,
	}
}

// AddBook parses, chunks, embeds and records a book file.
func (s *LibraryService) AddBook(
	ctx context.Context, path string, opts domain.AddBookOptions,
) (*domain.IngestResult, error) {
	logger.Section("Add Book")
	logger.Debug("File: %s", path)

	absPath, err := s.checkFile(path)
	if err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: cannot index books", domain.ErrEmbeddingUnavailable)
	}

	done := logger.Timer("Parsing")
	parsed, err := s.parser.Parse(ctx, absPath)
	done()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(absPath), err)
	}

	book := domain.BookRecord{
		Slug:     opts.Slug,
		Title:    firstNonEmpty(opts.Title, parsed.Title),
		Author:   firstNonEmpty(opts.Author, parsed.Author),
		Subject:  firstNonEmpty(opts.Subject, domain.DefaultSubject),
		FilePath: absPath,
		AddedAt:  s.now(),
	}
	if book.Slug == "" {
		book.Slug = Slugify(book.Title)
	}
	if book.Slug == "" {
		return nil, fmt.Errorf("%w: cannot derive a slug from title %q", domain.ErrInvalidInput, book.Title)
	}
	logger.Info("Book: %s by %s (slug=%s, subject=%s, chapters=%d)",
		book.Title, book.Author, book.Slug, book.Subject, len(parsed.Chapters))

	chunks := s.chunkBook(parsed, book.Slug, opts)
	logger.Debug("Chunks: %d", len(chunks))

	if err := s.indexChunks(ctx, book.Slug, chunks); err != nil {
		return nil, err
	}

	if err := s.metadata.AddBook(ctx, &book); err != nil {
		return nil, fmt.Errorf("store book: %w", err)
	}
	chapters := make([]domain.ChapterRecord, 0, len(parsed.Chapters))
	for _, ch := range parsed.Chapters {
		chapters = append(chapters, domain.ChapterRecord{
			BookSlug:      book.Slug,
			Number:        ch.Number,
			Title:         ch.Title,
			StartPosition: ch.StartPosition,
			EndPosition:   ch.EndPosition,
		})
	}
	if err := s.metadata.ReplaceChapters(ctx, book.Slug, chapters); err != nil {
		return nil, fmt.Errorf("store chapters: %w", err)
	}
	if err := s.metadata.UpdateChunkCount(ctx, book.Slug, len(chunks)); err != nil {
		return nil, fmt.Errorf("update chunk count: %w", err)
	}

	result := &domain.IngestResult{
		ChapterCount: len(chapters),
		ChunkCount:   len(chunks),
	}

	if opts.ExtractTopics {
		count, err := s.extractTopics(ctx, book.Slug, book.Subject, chunks)
		if err != nil {
			return nil, err
		}
		result.TopicCount = count
	}

	stored, err := s.metadata.GetBook(ctx, book.Slug)
	if err != nil {
		return nil, fmt.Errorf("reload book: %w", err)
	}
	if stored != nil {
		book = *stored
	}
	result.Book = book

	logger.Info("Added %s: %d chapters, %d chunks, %d topics",
		book.Slug, result.ChapterCount, result.ChunkCount, result.TopicCount)
	return result, nil
}

// checkFile resolves the path and rejects missing files and unsupported types.
func (s *LibraryService) checkFile(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: file not found: %s", domain.ErrNotFound, absPath)
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", absPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, absPath)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	for _, supported := range s.parser.Extensions() {
		if ext == supported {
			return absPath, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)",
		domain.ErrUnsupportedType, ext, strings.Join(s.parser.Extensions(), ", "))
}

func (s *LibraryService) chunkBook(parsed *domain.ParsedBook, slug string, opts domain.AddBookOptions) []domain.Chunk {
	size := firstPositive(opts.ChunkSize, s.chunking.Size, domain.DefaultChunkSize)
	overlap := s.configuredOverlap()
	if opts.ChunkOverlap != nil && *opts.ChunkOverlap >= 0 {
		overlap = *opts.ChunkOverlap
	}
	logger.Debug("Chunk size: %d, overlap: %d", size, overlap)

	chk := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))

	var chunks []domain.Chunk
	for _, ch := range parsed.Chapters {
		chunks = append(chunks, chk.ChunkChapter(ch.Content, slug, ch.Number, ch.Title)...)
	}
	return chunks
}

// configuredOverlap returns the settings overlap, which may be zero.
// Unset chunking settings fall back to the default.
func (s *LibraryService) configuredOverlap() int {
	if s.chunking.Size <= 0 || s.chunking.Overlap < 0 {
		return domain.DefaultChunkOverlap
	}
	return s.chunking.Overlap
}

// indexChunks embeds and stores the chunks, then sweeps vectors left over
// from an earlier ingestion of the same book.
func (s *LibraryService) indexChunks(ctx context.Context, slug string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		removed, err := s.vectors.DeleteByBook(ctx, slug)
		if err != nil {
			return fmt.Errorf("clear vectors: %w", err)
		}
		logger.Debug("No chunks produced, cleared %d old vectors", removed)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	done := logger.Timer("Embedding")
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	done()
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", domain.ErrInputMismatch, len(chunks), len(vectors))
	}

	ingestID := uuid.NewString()
	logger.Debug("Ingest id: %s", ingestID)

	batch := driven.VectorBatch{
		IDs:      make([]string, len(chunks)),
		Vectors:  vectors,
		Contents: texts,
		Metadata: make([]map[string]any, len(chunks)),
	}
	for i, c := range chunks {
		batch.IDs[i] = c.ID
		meta := c.Metadata()
		meta[domain.MetaIngestID] = ingestID
		batch.Metadata[i] = meta
	}
	if err := s.vectors.Add(ctx, batch); err != nil {
		return fmt.Errorf("store vectors: %w", err)
	}

	existing, err := s.vectors.Get(ctx, driven.Where(domain.MetaBookSlug, slug))
	if err != nil {
		return fmt.Errorf("list vectors: %w", err)
	}
	var stale []string
	for _, rec := range existing {
		if id, _ := rec.Metadata[domain.MetaIngestID].(string); id != ingestID {
			stale = append(stale, rec.ID)
		}
	}
	if len(stale) > 0 {
		logger.Debug("Removing %d stale vectors", len(stale))
		if err := s.vectors.Delete(ctx, stale); err != nil {
			return fmt.Errorf("remove stale vectors: %w", err)
		}
	}
	return nil
}

func (s *LibraryService) extractTopics(ctx context.Context, slug, subject string, chunks []domain.Chunk) (int, error) {
	logger.Debug("Extracting topics")

	extractor := NewTopicExtractor(
		WithMaxTopics(ingestMaxTopics),
		WithMinOccurrences(ingestMinOccurrences),
	)
	found := extractor.ExtractFromChunks(chunks)

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		topic := domain.Topic{ID: id, DisplayName: displayNameFromID(id), Subject: subject}
		if _, err := s.topics.AddTopic(ctx, topic); err != nil {
			return 0, fmt.Errorf("add topic %s: %w", id, err)
		}
		for _, occ := range found[id] {
			err := s.topics.AddOccurrence(ctx, domain.TopicOccurrence{
				TopicID:   id,
				ChunkID:   occ.ChunkID,
				BookSlug:  slug,
				Relevance: occ.Relevance,
			})
			if err != nil {
				return 0, fmt.Errorf("add occurrence %s/%s: %w", id, occ.ChunkID, err)
			}
		}
	}

	logger.Debug("Topics extracted: %d", len(ids))
	return len(ids), nil
}

// RemoveBook deletes a book's vectors, topic occurrences, concepts and records.
func (s *LibraryService) RemoveBook(ctx context.Context, slug string) (*domain.RemoveResult, error) {
	logger.Section("Remove Book")

	book, err := s.metadata.GetBook(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("%w: book %q", domain.ErrNotFound, slug)
	}

	result := &domain.RemoveResult{Slug: slug}

	if result.VectorsRemoved, err = s.vectors.DeleteByBook(ctx, slug); err != nil {
		return nil, fmt.Errorf("delete vectors: %w", err)
	}
	if result.OccurrencesRemoved, err = s.topics.DeleteByBook(ctx, slug); err != nil {
		return nil, fmt.Errorf("delete topic occurrences: %w", err)
	}
	if result.ConceptsRemoved, err = s.graph.DeleteByBook(ctx, slug); err != nil {
		return nil, fmt.Errorf("delete concepts: %w", err)
	}
	if _, err := s.metadata.DeleteBook(ctx, slug); err != nil {
		return nil, fmt.Errorf("delete book: %w", err)
	}

	logger.Info("Removed %s: %d vectors, %d occurrences, %d concepts",
		slug, result.VectorsRemoved, result.OccurrencesRemoved, result.ConceptsRemoved)
	return result, nil
}

// Rebuild re-ingests books from their recorded file paths, keeping their
// slug, title, author and subject. Topics are re-extracted for books that
// already had some.
func (s *LibraryService) Rebuild(ctx context.Context, slug string) ([]domain.IngestResult, error) {
	logger.Section("Rebuild")

	var books []domain.BookRecord
	if slug != "" {
		book, err := s.metadata.GetBook(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("get book: %w", err)
		}
		if book == nil {
			return nil, fmt.Errorf("%w: book %q", domain.ErrNotFound, slug)
		}
		books = []domain.BookRecord{*book}
	} else {
		all, err := s.metadata.ListBooks(ctx)
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		books = all
	}

	results := make([]domain.IngestResult, 0, len(books))
	for _, book := range books {
		topics, err := s.topics.TopicsForBook(ctx, book.Slug)
		if err != nil {
			return results, fmt.Errorf("topics for %s: %w", book.Slug, err)
		}

		res, err := s.AddBook(ctx, book.FilePath, domain.AddBookOptions{
			Slug:          book.Slug,
			Title:         book.Title,
			Author:        book.Author,
			Subject:       book.Subject,
			ExtractTopics: len(topics) > 0,
		})
		if err != nil {
			return results, fmt.Errorf("rebuild %s: %w", book.Slug, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

// ListBooks returns every book, or those in a subject when one is given.
func (s *LibraryService) ListBooks(ctx context.Context, subject string) ([]domain.BookRecord, error) {
	if subject == "" {
		return s.metadata.ListBooks(ctx)
	}
	return s.metadata.BooksBySubject(ctx, subject)
}

// GetBook returns a book, or nil if it does not exist.
func (s *LibraryService) GetBook(ctx context.Context, slug string) (*domain.BookRecord, error) {
	return s.metadata.GetBook(ctx, slug)
}

// Subjects returns every subject with book and chunk totals.
func (s *LibraryService) Subjects(ctx context.Context) ([]domain.SubjectSummary, error) {
	return s.metadata.Subjects(ctx)
}

// Chapters returns a book's chapters in order.
func (s *LibraryService) Chapters(ctx context.Context, slug string) ([]domain.ChapterRecord, error) {
	return s.metadata.Chapters(ctx, slug)
}

// Slugify converts text to a URL-friendly slug: lower-case, characters other
// than letters, digits, underscores, spaces and hyphens dropped, and runs of
// spaces and hyphens collapsed to a single hyphen.
func Slugify(text string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// displayNameFromID turns "emotional-regulation" into "Emotional Regulation".
func displayNameFromID(id string) string {
	return titleCase(strings.ReplaceAll(id, "-", " "))
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
