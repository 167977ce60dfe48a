package driven

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// ChapterSummariser condenses a chapter into a summary and key points.
type ChapterSummariser interface {
	// Summarise produces a summary of the chapter content.
	Summarise(ctx context.Context, chapter domain.ChapterContent) (*domain.ChapterSummary, error)

	// Provider names the summariser (e.g. "rule-based", "ollama").
	Provider() string
}
