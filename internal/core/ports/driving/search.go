package driving

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// SearchService provides semantic search to external actors.
type SearchService interface {
	// Search returns results ordered by descending score.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// AdviceService answers questions by searching and synthesizing the results.
type AdviceService interface {
	// Advise condenses the top results into a single answer.
	Advise(ctx context.Context, question string, opts domain.SearchOptions) (*domain.SynthesizedAdvice, error)

	// AdviseBySource returns one perspective per book.
	AdviseBySource(ctx context.Context, question string, opts domain.SearchOptions) ([]domain.SourcePerspective, error)

	// Compare contrasts what different books say about a topic.
	Compare(ctx context.Context, topic string, opts domain.SearchOptions) (*domain.SourceComparison, error)
}
