package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
	"github.com/custodia-labs/bookwise/internal/logger"
)

// Ensure AdviceService implements the interface.
var _ driving.AdviceService = (*AdviceService)(nil)

// Result counts fetched when the caller gives no limit.
const (
	DefaultAdviceLimit  = 10
	DefaultCompareLimit = 15
)

// AdviceService answers questions by searching the library and running the
// results through the synthesizer.
type AdviceService struct {
	search      driving.SearchService
	synthesizer *Synthesizer
}

// NewAdviceService creates a new advice service.
func NewAdviceService(search driving.SearchService, settings domain.SynthesisSettings) *AdviceService {
	return &AdviceService{
		search:      search,
		synthesizer: NewSynthesizer(settings),
	}
}

// Advise condenses the top results into a single answer.
func (s *AdviceService) Advise(
	ctx context.Context, question string, opts domain.SearchOptions,
) (*domain.SynthesizedAdvice, error) {
	logger.Section("Advice")
	results, err := s.retrieve(ctx, question, opts, DefaultAdviceLimit)
	if err != nil {
		return nil, err
	}
	return s.synthesizer.Synthesize(question, results), nil
}

// AdviseBySource returns one perspective per book.
func (s *AdviceService) AdviseBySource(
	ctx context.Context, question string, opts domain.SearchOptions,
) ([]domain.SourcePerspective, error) {
	logger.Section("Advice By Source")
	results, err := s.retrieve(ctx, question, opts, DefaultAdviceLimit)
	if err != nil {
		return nil, err
	}
	return s.synthesizer.SynthesizeBySource(question, results), nil
}

// Compare contrasts what different books say about a topic.
func (s *AdviceService) Compare(
	ctx context.Context, topic string, opts domain.SearchOptions,
) (*domain.SourceComparison, error) {
	logger.Section("Compare Sources")
	results, err := s.retrieve(ctx, topic, opts, DefaultCompareLimit)
	if err != nil {
		return nil, err
	}
	return s.synthesizer.CompareSources(topic, results), nil
}

func (s *AdviceService) retrieve(
	ctx context.Context, query string, opts domain.SearchOptions, defaultLimit int,
) ([]domain.SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	results, err := s.search.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}
	logger.Debug("Synthesizing %d passages", len(results))
	return results, nil
}
