package driving

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// SummaryService summarises chapters of ingested books.
type SummaryService interface {
	// SummariseChapter summarises one chapter from its indexed chunks.
	// Returns domain.ErrNotFound if the book or chapter has no chunks.
	SummariseChapter(ctx context.Context, slug string, chapter int) (*domain.ChapterSummary, error)
}
