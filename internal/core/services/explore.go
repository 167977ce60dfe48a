package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
)

// Ensure ExploreService implements the interface.
var _ driving.ExploreService = (*ExploreService)(nil)

// DefaultRelatedDepth is the traversal depth used when none is given.
const DefaultRelatedDepth = 1

// ExploreService browses the library, its topics and its concepts.
type ExploreService struct {
	metadata driven.MetadataStore
	topics   driven.TopicRegistry
	graph    driven.KnowledgeGraph
}

// NewExploreService creates a new explore service.
func NewExploreService(
	metadata driven.MetadataStore,
	topics driven.TopicRegistry,
	graph driven.KnowledgeGraph,
) *ExploreService {
	return &ExploreService{
		metadata: metadata,
		topics:   topics,
		graph:    graph,
	}
}

// Overview lists subjects with their books. An empty subject means all.
// An unknown subject yields an empty overview.
func (s *ExploreService) Overview(ctx context.Context, subject string) ([]domain.SubjectOverview, error) {
	summaries, err := s.metadata.Subjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	overview := []domain.SubjectOverview{}
	for _, summary := range summaries {
		if subject != "" && summary.Subject != subject {
			continue
		}
		books, err := s.metadata.BooksBySubject(ctx, summary.Subject)
		if err != nil {
			return nil, fmt.Errorf("books for subject %q: %w", summary.Subject, err)
		}
		overview = append(overview, domain.SubjectOverview{SubjectSummary: summary, Books: books})
	}
	return overview, nil
}

// Topics lists topics for a book when one is given, else for a subject, else all.
func (s *ExploreService) Topics(ctx context.Context, subject, book string) ([]domain.Topic, error) {
	if book != "" {
		return s.topics.TopicsForBook(ctx, book)
	}
	return s.topics.AllTopics(ctx, subject)
}

// SearchTopics finds topics by substring.
func (s *ExploreService) SearchTopics(ctx context.Context, query string) ([]domain.Topic, error) {
	return s.topics.SearchTopics(ctx, strings.TrimSpace(query))
}

// ChunksForTopic returns the most relevant chunks for a topic, optionally in one book.
func (s *ExploreService) ChunksForTopic(
	ctx context.Context, topicID, book string, limit int,
) ([]domain.ChunkRelevance, error) {
	return s.topics.ChunksForTopic(ctx, topicID, book, limit)
}

// BooksForTopic returns the books a topic occurs in.
func (s *ExploreService) BooksForTopic(ctx context.Context, topicID string) ([]string, error) {
	return s.topics.BooksForTopic(ctx, topicID)
}

// Concepts lists every concept, or a book's concepts when one is given.
func (s *ExploreService) Concepts(ctx context.Context, book string) ([]domain.ConceptNode, error) {
	if book != "" {
		return s.graph.ConceptsByBook(ctx, book)
	}
	return s.graph.AllConcepts(ctx)
}

// SearchConcepts finds concepts by substring.
func (s *ExploreService) SearchConcepts(ctx context.Context, query string) ([]domain.ConceptNode, error) {
	return s.graph.SearchConcepts(ctx, strings.TrimSpace(query))
}

// Concept returns one concept, or nil if it does not exist.
func (s *ExploreService) Concept(ctx context.Context, id string) (*domain.ConceptNode, error) {
	return s.graph.GetConcept(ctx, id)
}

// RelatedConcepts walks the graph from a concept. A non-positive depth
// uses DefaultRelatedDepth; an unknown relationship is rejected.
func (s *ExploreService) RelatedConcepts(
	ctx context.Context, id string, relationship domain.Relationship, depth int,
) ([]domain.RelatedConcept, error) {
	if relationship != "" {
		if _, err := domain.ParseRelationship(string(relationship)); err != nil {
			return nil, err
		}
	}
	if depth <= 0 {
		depth = DefaultRelatedDepth
	}
	return s.graph.RelatedConcepts(ctx, id, relationship, depth)
}

// GraphStats returns concept and relationship counts.
func (s *ExploreService) GraphStats(ctx context.Context) (domain.GraphStats, error) {
	return s.graph.Stats(ctx)
}
