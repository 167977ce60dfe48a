package driven

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// KnowledgeGraph stores concepts and typed, directed relationships between them.
// Every mutation is persisted before it returns.
type KnowledgeGraph interface {
	// AddConcept upserts a concept. SourceChunks are merged as a set union;
	// description and source book are only replaced by non-empty values.
	AddConcept(ctx context.Context, concept domain.ConceptNode) (*domain.ConceptNode, error)

	// AddRelationship adds or overwrites the edge source -> target.
	// Missing endpoints are created with their id as display name.
	// Unknown relationships fail with domain.ErrInvalidRelationship.
	AddRelationship(ctx context.Context, edge domain.ConceptEdge) error

	// GetConcept returns the concept, or nil if it does not exist.
	GetConcept(ctx context.Context, id string) (*domain.ConceptNode, error)

	// RelatedConcepts walks outgoing and incoming edges up to depth hops.
	// An empty relationship matches every edge.
	RelatedConcepts(ctx context.Context, id string, relationship domain.Relationship, depth int) ([]domain.RelatedConcept, error)

	// AllConcepts returns every concept in insertion order.
	AllConcepts(ctx context.Context) ([]domain.ConceptNode, error)

	// ConceptsByBook returns the concepts whose source book is slug.
	ConceptsByBook(ctx context.Context, slug string) ([]domain.ConceptNode, error)

	// SearchConcepts matches the query case-insensitively against id, name and description.
	SearchConcepts(ctx context.Context, query string) ([]domain.ConceptNode, error)

	// DeleteByBook removes the book's concepts and their edges, returning the number removed.
	DeleteByBook(ctx context.Context, slug string) (int, error)

	// Stats returns the number of concepts and relationships.
	Stats(ctx context.Context) (domain.GraphStats, error)
}
