package driving

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// ExploreService browses the library, its topics and its concepts.
type ExploreService interface {
	// Overview lists subjects with their books. An empty subject means all.
	Overview(ctx context.Context, subject string) ([]domain.SubjectOverview, error)

	// Topics lists topics, optionally for one subject or one book.
	Topics(ctx context.Context, subject, book string) ([]domain.Topic, error)

	// SearchTopics finds topics by substring.
	SearchTopics(ctx context.Context, query string) ([]domain.Topic, error)

	// ChunksForTopic returns the most relevant chunks for a topic, optionally in one book.
	ChunksForTopic(ctx context.Context, topicID, book string, limit int) ([]domain.ChunkRelevance, error)

	// BooksForTopic returns the books a topic occurs in.
	BooksForTopic(ctx context.Context, topicID string) ([]string, error)

	// Concepts lists concepts, optionally for one book.
	Concepts(ctx context.Context, book string) ([]domain.ConceptNode, error)

	// SearchConcepts finds concepts by substring.
	SearchConcepts(ctx context.Context, query string) ([]domain.ConceptNode, error)

	// Concept returns one concept, or nil if it does not exist.
	Concept(ctx context.Context, id string) (*domain.ConceptNode, error)

	// RelatedConcepts walks the graph from a concept.
	RelatedConcepts(ctx context.Context, id string, relationship domain.Relationship, depth int) ([]domain.RelatedConcept, error)

	// GraphStats returns concept and relationship counts.
	GraphStats(ctx context.Context) (domain.GraphStats, error)
}
