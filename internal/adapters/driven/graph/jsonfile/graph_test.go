package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New(t.TempDir())
	require.NoError(t, err)
	return g
}

func addEdge(t *testing.T, g *Graph, source, target string, rel domain.Relationship) {
	t.Helper()
	require.NoError(t, g.AddRelationship(context.Background(), domain.ConceptEdge{
		Source: source, Target: target, Relationship: rel,
	}))
}

func relatedIDs(related []domain.RelatedConcept) []string {
	ids := make([]string, 0, len(related))
	for _, r := range related {
		ids = append(ids, r.Concept.ID)
	}
	return ids
}

func TestNew_EmptyGraph(t *testing.T) {
	g := newTestGraph(t)

	stats, err := g.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.GraphStats{}, stats)
}

func TestGraph_AddConcept(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	node, err := g.AddConcept(ctx, domain.ConceptNode{
		ID:          "emotion-coaching",
		DisplayName: "Emotion Coaching",
		SourceBook:  "raising-emotionally-intelligent",
	})
	require.NoError(t, err)
	assert.Equal(t, "Emotion Coaching", node.DisplayName)

	got, err := g.GetConcept(ctx, "emotion-coaching")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "raising-emotionally-intelligent", got.SourceBook)
}

func TestGraph_AddConcept_RequiresID(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.AddConcept(context.Background(), domain.ConceptNode{DisplayName: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGraph_AddConcept_MergesChunks(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	_, err := g.AddConcept(ctx, domain.ConceptNode{ID: "c", DisplayName: "C", SourceChunks: []string{"ch001-0002", "ch001-0001"}})
	require.NoError(t, err)
	_, err = g.AddConcept(ctx, domain.ConceptNode{ID: "c", DisplayName: "C", SourceChunks: []string{"ch001-0001", "ch002-0001"}})
	require.NoError(t, err)
	node, err := g.AddConcept(ctx, domain.ConceptNode{ID: "c", DisplayName: "C", SourceChunks: []string{"ch002-0001"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"ch001-0001", "ch001-0002", "ch002-0001"}, node.SourceChunks)
}

func TestGraph_AddConcept_KeepsDescriptionAndBookWhenEmpty(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	_, err := g.AddConcept(ctx, domain.ConceptNode{ID: "c", DisplayName: "Old", Description: "desc", SourceBook: "book"})
	require.NoError(t, err)
	node, err := g.AddConcept(ctx, domain.ConceptNode{ID: "c", DisplayName: "New"})
	require.NoError(t, err)

	assert.Equal(t, "New", node.DisplayName)
	assert.Equal(t, "desc", node.Description)
	assert.Equal(t, "book", node.SourceBook)

	node, err = g.AddConcept(ctx, domain.ConceptNode{ID: "c", DisplayName: "New", Description: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "changed", node.Description)
}

func TestGraph_AddRelationship(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	require.NoError(t, g.AddRelationship(ctx, domain.ConceptEdge{
		Source: "connection", Target: "correction", Relationship: domain.RelationshipSupports,
	}))

	stats, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Concepts)
	assert.Equal(t, 1, stats.Relationships)

	related, err := g.RelatedConcepts(ctx, "connection", "", 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.InDelta(t, 1.0, related[0].Weight, 1e-9)
}

func TestGraph_AddRelationship_Invalid(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	err := g.AddRelationship(ctx, domain.ConceptEdge{Source: "a", Target: "b", Relationship: "loves"})
	require.ErrorIs(t, err, domain.ErrInvalidRelationship)

	stats, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Concepts, "no endpoints should be created for a rejected edge")
}

func TestGraph_AddRelationship_AllValid(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	for i, rel := range domain.AllRelationships() {
		addEdge(t, g, "hub", string(rune('a'+i)), rel)
	}

	stats, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(domain.AllRelationships()), stats.Relationships)
}

func TestGraph_AddRelationship_AutoCreatesEndpoints(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "new-concept-a", "new-concept-b", domain.RelationshipRelated)

	a, err := g.GetConcept(ctx, "new-concept-a")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "new-concept-a", a.DisplayName)

	b, err := g.GetConcept(ctx, "new-concept-b")
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestGraph_AddRelationship_Overwrites(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "a", "b", domain.RelationshipSupports)
	require.NoError(t, g.AddRelationship(ctx, domain.ConceptEdge{
		Source: "a", Target: "b", Relationship: domain.RelationshipExtends, Weight: 0.5,
	}))

	stats, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Relationships)

	related, err := g.RelatedConcepts(ctx, "a", "", 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "extends", related[0].Label)
	assert.InDelta(t, 0.5, related[0].Weight, 1e-9)
}

func TestGraph_RelatedConcepts(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "connection", "emotional-safety", domain.RelationshipSupports)
	addEdge(t, g, "connection", "validation", domain.RelationshipElaborates)

	related, err := g.RelatedConcepts(ctx, "connection", "", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"emotional-safety", "validation"}, relatedIDs(related))
	assert.Equal(t, "supports", related[0].Label)
}

func TestGraph_RelatedConcepts_Filter(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "a", "b", domain.RelationshipSupports)
	addEdge(t, g, "a", "c", domain.RelationshipContradicts)

	related, err := g.RelatedConcepts(ctx, "a", domain.RelationshipSupports, 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "b", related[0].Concept.ID)

	_, err = g.RelatedConcepts(ctx, "a", "bogus", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidRelationship)
}

func TestGraph_RelatedConcepts_Reverse(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "source", "target", domain.RelationshipSupports)

	related, err := g.RelatedConcepts(ctx, "target", "", 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "source", related[0].Concept.ID)
	assert.Equal(t, "reverse:supports", related[0].Label)
}

func TestGraph_RelatedConcepts_Depth(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "a", "b", domain.RelationshipSupports)
	addEdge(t, g, "b", "c", domain.RelationshipSupports)
	addEdge(t, g, "c", "d", domain.RelationshipSupports)

	depth1, err := g.RelatedConcepts(ctx, "a", "", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, relatedIDs(depth1))

	depth2, err := g.RelatedConcepts(ctx, "a", "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, relatedIDs(depth2))

	depth3, err := g.RelatedConcepts(ctx, "a", "", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, relatedIDs(depth3))

	depth0, err := g.RelatedConcepts(ctx, "a", "", 0)
	require.NoError(t, err)
	assert.Empty(t, depth0)
}

func TestGraph_RelatedConcepts_OutgoingBeforeIncomingDepthFirst(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "x", "root", domain.RelationshipRelated)
	addEdge(t, g, "root", "y", domain.RelationshipSupports)
	addEdge(t, g, "y", "z", domain.RelationshipExtends)

	related, err := g.RelatedConcepts(ctx, "root", "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "z", "x"}, relatedIDs(related))
	assert.Equal(t, "reverse:related", related[2].Label)
}

func TestGraph_RelatedConcepts_Cycle(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	addEdge(t, g, "a", "b", domain.RelationshipRelated)
	addEdge(t, g, "b", "a", domain.RelationshipRelated)

	related, err := g.RelatedConcepts(ctx, "a", "", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, relatedIDs(related))
}

func TestGraph_RelatedConcepts_Unknown(t *testing.T) {
	g := newTestGraph(t)

	related, err := g.RelatedConcepts(context.Background(), "nope", "", 2)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestGraph_GetConcept_NotFound(t *testing.T) {
	g := newTestGraph(t)

	got, err := g.GetConcept(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGraph_AllConceptsAndByBook(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	for _, c := range []domain.ConceptNode{
		{ID: "a", DisplayName: "A", SourceBook: "book1"},
		{ID: "b", DisplayName: "B", SourceBook: "book1"},
		{ID: "c", DisplayName: "C", SourceBook: "book2"},
	} {
		_, err := g.AddConcept(ctx, c)
		require.NoError(t, err)
	}

	all, err := g.AllConcepts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)

	book1, err := g.ConceptsByBook(ctx, "book1")
	require.NoError(t, err)
	assert.Len(t, book1, 2)

	book2, err := g.ConceptsByBook(ctx, "book2")
	require.NoError(t, err)
	assert.Len(t, book2, 1)
}

func TestGraph_DeleteByBook(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	for _, c := range []domain.ConceptNode{
		{ID: "a", DisplayName: "A", SourceBook: "book1"},
		{ID: "b", DisplayName: "B", SourceBook: "book1"},
		{ID: "c", DisplayName: "C", SourceBook: "book2"},
	} {
		_, err := g.AddConcept(ctx, c)
		require.NoError(t, err)
	}
	addEdge(t, g, "a", "c", domain.RelationshipSupports)
	addEdge(t, g, "c", "placeholder", domain.RelationshipRelated)

	deleted, err := g.DeleteByBook(ctx, "book1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	all, err := g.AllConcepts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "placeholder"}, []string{all[0].ID, all[1].ID})

	stats, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Relationships, "edges touching removed concepts are dropped")

	deleted, err = g.DeleteByBook(ctx, "book1")
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestGraph_SearchConcepts(t *testing.T) {
	g := newTestGraph(t)
	ctx := context.Background()

	for _, c := range []domain.ConceptNode{
		{ID: "emotional-safety", DisplayName: "Emotional Safety", Description: "Feeling secure"},
		{ID: "emotion-coaching", DisplayName: "Emotion Coaching"},
		{ID: "boundaries", DisplayName: "Boundaries", Description: "Setting limits with love"},
	} {
		_, err := g.AddConcept(ctx, c)
		require.NoError(t, err)
	}

	results, err := g.SearchConcepts(ctx, "emotion")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = g.SearchConcepts(ctx, "LIMITS")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "boundaries", results[0].ID)

	results, err = g.SearchConcepts(ctx, "safety")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestGraph_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	g, err := New(dir)
	require.NoError(t, err)
	_, err = g.AddConcept(ctx, domain.ConceptNode{ID: "p", DisplayName: "Persistent Concept", SourceChunks: []string{"x"}})
	require.NoError(t, err)
	addEdge(t, g, "p", "q", domain.RelationshipSupports)

	assert.FileExists(t, filepath.Join(dir, FileName))

	reopened, err := New(dir)
	require.NoError(t, err)

	concept, err := reopened.GetConcept(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, concept)
	assert.Equal(t, "Persistent Concept", concept.DisplayName)
	assert.Equal(t, []string{"x"}, concept.SourceChunks)

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.GraphStats{Concepts: 2, Relationships: 1}, stats)
}

func TestNew_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0600))

	_, err := New(dir)
	assert.Error(t, err)
}
