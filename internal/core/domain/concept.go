package domain

import (
	"fmt"
	"strings"
)

// Relationship is the type of a directed edge between two concepts.
type Relationship string

// Available relationship types.
const (
	RelationshipSupports    Relationship = "supports"
	RelationshipElaborates  Relationship = "elaborates"
	RelationshipContradicts Relationship = "contradicts"
	RelationshipRelated     Relationship = "related"
	RelationshipSimilar     Relationship = "similar"
	RelationshipImplements  Relationship = "implements"
	RelationshipExtends     Relationship = "extends"
)

// ReversePrefix marks relationships reached through an incoming edge during traversal.
const ReversePrefix = "reverse:"

// AllRelationships returns every valid relationship type.
func AllRelationships() []Relationship {
	return []Relationship{
		RelationshipSupports,
		RelationshipElaborates,
		RelationshipContradicts,
		RelationshipRelated,
		RelationshipSimilar,
		RelationshipImplements,
		RelationshipExtends,
	}
}

// IsValid returns true if the relationship is one of the fixed types.
func (r Relationship) IsValid() bool {
	for _, valid := range AllRelationships() {
		if r == valid {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (r Relationship) String() string {
	return string(r)
}

// ParseRelationship validates a relationship name.
// Unknown names are rejected, never coerced.
func ParseRelationship(s string) (Relationship, error) {
	r := Relationship(s)
	if !r.IsValid() {
		names := make([]string, 0, len(AllRelationships()))
		for _, valid := range AllRelationships() {
			names = append(names, valid.String())
		}
		return "", fmt.Errorf("%w '%s': must be one of: %s",
			ErrInvalidRelationship, s, strings.Join(names, ", "))
	}
	return r, nil
}

// ConceptNode is a concept in the knowledge graph.
type ConceptNode struct {
	// ID is the slug-form primary key.
	ID string `json:"id"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"display_name"`

	// Description is kept unless a later write supplies a non-empty one.
	Description string `json:"description,omitempty"`

	// SourceBook is the slug of the book the concept primarily comes from.
	SourceBook string `json:"source_book,omitempty"`

	// SourceChunks is the set of chunk ids the concept appears in, sorted.
	SourceChunks []string `json:"source_chunks,omitempty"`
}

// ConceptEdge is a directed, typed relationship between two concepts.
type ConceptEdge struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	Relationship Relationship `json:"relationship"`
	SourceBook   string       `json:"source_book,omitempty"`
	Weight       float64      `json:"weight"`
}

// RelatedConcept is one result of a bounded graph traversal.
// Label is the relationship name, prefixed with ReversePrefix when the
// concept was reached through an incoming edge.
type RelatedConcept struct {
	Concept ConceptNode `json:"concept"`
	Label   string      `json:"relationship"`
	Weight  float64     `json:"weight"`
}

// GraphStats holds knowledge graph sizes.
type GraphStats struct {
	Concepts      int `json:"concepts"`
	Relationships int `json:"relationships"`
}
