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

// Ensure SummaryService implements the interface.
var _ driving.SummaryService = (*SummaryService)(nil)

// Chapter text beyond this many characters is cut before summarising.
const (
	maxSummaryInput     = 15000
	truncatedInputTrail = "\n\n[Content truncated...]"
)

// SummaryService summarises chapters from their indexed chunks.
type SummaryService struct {
	vectors    driven.VectorIndex
	metadata   driven.MetadataStore
	summariser driven.ChapterSummariser
}

// NewSummaryService creates a new summary service.
func NewSummaryService(
	vectors driven.VectorIndex,
	metadata driven.MetadataStore,
	summariser driven.ChapterSummariser,
) *SummaryService {
	return &SummaryService{
		vectors:    vectors,
		metadata:   metadata,
		summariser: summariser,
	}
}

// SummariseChapter joins the chapter's chunks in reading order and asks
// the configured summariser for a summary.
func (s *SummaryService) SummariseChapter(
	ctx context.Context, slug string, chapter int,
) (*domain.ChapterSummary, error) {
	logger.Section("Chapter Summary")
	logger.Debug("Book: %s, chapter: %d, provider: %s", slug, chapter, s.summariser.Provider())

	records, err := s.vectors.Get(ctx, driven.Where(domain.MetaBookSlug, slug).And(domain.MetaChapterNumber, chapter))
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no chunks for %s chapter %d", domain.ErrNotFound, slug, chapter)
	}

	parts := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Content != "" {
			parts = append(parts, rec.Content)
		}
	}
	content := strings.Join(parts, "\n\n")
	if len([]rune(content)) > maxSummaryInput {
		content = truncateRunes(content, maxSummaryInput) + truncatedInputTrail
		logger.Debug("Chapter content truncated to %d characters", maxSummaryInput)
	}

	input := domain.ChapterContent{
		BookSlug:      slug,
		BookTitle:     slug,
		ChapterNumber: chapter,
		ChapterTitle:  records[0].Chunk().ChapterTitle,
		Content:       content,
		ChunkCount:    len(records),
	}
	if err := s.fillTitles(ctx, &input); err != nil {
		return nil, err
	}

	summary, err := s.summariser.Summarise(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("summarise chapter: %w", err)
	}
	return summary, nil
}

// fillTitles prefers the recorded book and chapter titles over the ones
// carried in chunk metadata.
func (s *SummaryService) fillTitles(ctx context.Context, input *domain.ChapterContent) error {
	book, err := s.metadata.GetBook(ctx, input.BookSlug)
	if err != nil {
		return fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil
	}
	input.BookTitle = book.Title

	chapters, err := s.metadata.Chapters(ctx, input.BookSlug)
	if err != nil {
		return fmt.Errorf("get chapters: %w", err)
	}
	for _, ch := range chapters {
		if ch.Number == input.ChapterNumber && ch.Title != "" {
			input.ChapterTitle = ch.Title
			break
		}
	}
	return nil
}
