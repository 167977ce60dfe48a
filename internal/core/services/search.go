package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
	"github.com/custodia-labs/bookwise/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultSearchLimit is the number of results returned when no limit is given.
const DefaultSearchLimit = 10

// bookInfo is the display metadata resolved once per book per query.
type bookInfo struct {
	title  string
	author string
}

// SearchService ranks indexed chunks by vector similarity to a query.
type SearchService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	metadata driven.MetadataStore
}

// NewSearchService creates a new search service.
// The embedder may be nil; searches then fail with domain.ErrEmbeddingUnavailable.
func NewSearchService(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	metadata driven.MetadataStore,
) *SearchService {
	return &SearchService{
		embedder: embedder,
		vectors:  vectors,
		metadata: metadata,
	}
}

// Search returns chunks ordered by descending score, where score is
// 1 - distance. A subject filter is intersected with any explicit books;
// an empty intersection returns no results without querying the index.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: cannot embed query", domain.ErrEmbeddingUnavailable)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	logger.Debug("Limit: %d", limit)

	slugs := opts.BookSlugs
	if opts.Subject != "" {
		var err error
		slugs, err = s.restrictToSubject(ctx, opts.Subject, slugs)
		if err != nil {
			return nil, err
		}
		if len(slugs) == 0 {
			logger.Debug("No books match subject %q", opts.Subject)
			return []domain.SearchResult{}, nil
		}
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filter *driven.VectorFilter
	if len(slugs) > 0 {
		values := make([]any, len(slugs))
		for i, slug := range slugs {
			values[i] = slug
		}
		filter = driven.Where(domain.MetaBookSlug, values...)
		logger.Debug("Book filter: %v", slugs)
	}

	hits, err := s.vectors.Query(ctx, vector, limit, filter)
	if err != nil {
		logger.Warn("Vector query failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Raw results: %d hits", len(hits))

	books := make(map[string]bookInfo)
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk := hit.Chunk()
		info := s.lookupBook(ctx, chunk.BookSlug, books)
		results = append(results, domain.SearchResult{
			ChunkID:       chunk.ID,
			Content:       chunk.Content,
			BookSlug:      chunk.BookSlug,
			BookTitle:     info.title,
			BookAuthor:    info.author,
			ChapterNumber: chunk.ChapterNumber,
			ChapterTitle:  chunk.ChapterTitle,
			StartPosition: chunk.StartPosition,
			EndPosition:   chunk.EndPosition,
			Score:         1 - hit.Distance,
		})
	}
	return results, nil
}

// restrictToSubject intersects the requested books with the subject's books.
// With no requested books, every book in the subject is used.
func (s *SearchService) restrictToSubject(ctx context.Context, subject string, slugs []string) ([]string, error) {
	books, err := s.metadata.BooksBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("books for subject %q: %w", subject, err)
	}

	inSubject := make(map[string]bool, len(books))
	subjectSlugs := make([]string, 0, len(books))
	for _, b := range books {
		inSubject[b.Slug] = true
		subjectSlugs = append(subjectSlugs, b.Slug)
	}
	if len(slugs) == 0 {
		return subjectSlugs, nil
	}

	var kept []string
	for _, slug := range slugs {
		if inSubject[slug] {
			kept = append(kept, slug)
		}
	}
	return kept, nil
}

// lookupBook resolves display metadata, caching per query. A chunk whose
// book is missing falls back to its slug and an unknown author.
func (s *SearchService) lookupBook(ctx context.Context, slug string, cache map[string]bookInfo) bookInfo {
	if info, ok := cache[slug]; ok {
		return info
	}

	info := bookInfo{title: slug, author: domain.UnknownAuthor}
	book, err := s.metadata.GetBook(ctx, slug)
	switch {
	case err != nil:
		logger.Warn("Book metadata for %s unavailable: %v", slug, err)
	case book == nil:
		logger.Debug("No metadata for %s, using slug", slug)
	default:
		info = bookInfo{title: book.Title, author: book.Author}
	}

	cache[slug] = info
	return info
}
