// Package jsonfile provides a knowledge graph persisted as a single JSON document.
//
// The whole graph is held in memory and rewritten to disk (temp file plus
// rename) after every mutation, so a second instance opened on the same
// directory reads every write made before it.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// FileName is the graph document written inside the storage directory.
const FileName = "concepts.json"

// Ensure Graph implements the interface.
var _ driven.KnowledgeGraph = (*Graph)(nil)

// Graph is a directed concept graph. Nodes and edges keep insertion order,
// and re-adding an existing edge overwrites it in place.
type Graph struct {
	mu    sync.RWMutex
	path  string
	order []string
	nodes map[string]*domain.ConceptNode
	edges []domain.ConceptEdge
}

// document is the on-disk layout.
type document struct {
	Concepts      []domain.ConceptNode `json:"concepts"`
	Relationships []domain.ConceptEdge `json:"relationships"`
}

// New opens the graph stored in dir, creating the directory if needed.
func New(dir string) (*Graph, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating graph directory: %w", err)
	}

	g := &Graph{
		path:  filepath.Join(dir, FileName),
		nodes: make(map[string]*domain.ConceptNode),
	}
	if err := g.load(); err != nil {
		return nil, err
	}
	return g, nil
}

// Path returns the graph document path.
func (g *Graph) Path() string {
	return g.path
}

// AddConcept upserts a concept and returns the stored node.
func (g *Graph) AddConcept(_ context.Context, concept domain.ConceptNode) (*domain.ConceptNode, error) {
	if concept.ID == "" {
		return nil, fmt.Errorf("%w: concept id is required", domain.ErrInvalidInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.upsert(concept)
	if err := g.save(); err != nil {
		return nil, err
	}
	return cloneNode(node), nil
}

// AddRelationship adds or overwrites the edge source -> target.
func (g *Graph) AddRelationship(_ context.Context, edge domain.ConceptEdge) error {
	if _, err := domain.ParseRelationship(string(edge.Relationship)); err != nil {
		return err
	}
	if edge.Source == "" || edge.Target == "" {
		return fmt.Errorf("%w: relationship source and target are required", domain.ErrInvalidInput)
	}
	if edge.Weight == 0 {
		edge.Weight = 1.0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range []string{edge.Source, edge.Target} {
		if _, ok := g.nodes[id]; !ok {
			g.upsert(domain.ConceptNode{ID: id, DisplayName: id})
		}
	}

	replaced := false
	for i := range g.edges {
		if g.edges[i].Source == edge.Source && g.edges[i].Target == edge.Target {
			g.edges[i] = edge
			replaced = true
			break
		}
	}
	if !replaced {
		g.edges = append(g.edges, edge)
	}

	return g.save()
}

// GetConcept returns a concept or nil when absent.
func (g *Graph) GetConcept(_ context.Context, id string) (*domain.ConceptNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil, nil
	}
	return cloneNode(node), nil
}

// RelatedConcepts walks depth-first from id, following outgoing edges before
// incoming ones at every node. Each concept is reported once.
func (g *Graph) RelatedConcepts(_ context.Context, id string, relationship domain.Relationship, depth int) ([]domain.RelatedConcept, error) {
	if relationship != "" {
		if _, err := domain.ParseRelationship(string(relationship)); err != nil {
			return nil, err
		}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, nil
	}

	var results []domain.RelatedConcept
	visited := map[string]bool{id: true}

	var traverse func(node string, level int)
	traverse = func(node string, level int) {
		if level > depth {
			return
		}

		visit := func(next, label string, edge domain.ConceptEdge) {
			if visited[next] {
				return
			}
			if relationship != "" && edge.Relationship != relationship {
				return
			}
			concept, ok := g.nodes[next]
			if !ok {
				return
			}
			results = append(results, domain.RelatedConcept{
				Concept: *cloneNode(concept),
				Label:   label,
				Weight:  edge.Weight,
			})
			visited[next] = true
			if level < depth {
				traverse(next, level+1)
			}
		}

		for _, edge := range g.outEdges(node) {
			visit(edge.Target, edge.Relationship.String(), edge)
		}
		for _, edge := range g.inEdges(node) {
			visit(edge.Source, domain.ReversePrefix+edge.Relationship.String(), edge)
		}
	}
	traverse(id, 1)

	return results, nil
}

// AllConcepts returns every concept in insertion order.
func (g *Graph) AllConcepts(_ context.Context) ([]domain.ConceptNode, error) {
	return g.filter(func(*domain.ConceptNode) bool { return true }), nil
}

// ConceptsByBook returns the concepts whose source book is slug.
func (g *Graph) ConceptsByBook(_ context.Context, slug string) ([]domain.ConceptNode, error) {
	return g.filter(func(n *domain.ConceptNode) bool { return n.SourceBook == slug }), nil
}

// SearchConcepts is a case-insensitive substring match on name, description and id.
func (g *Graph) SearchConcepts(_ context.Context, query string) ([]domain.ConceptNode, error) {
	q := strings.ToLower(query)
	return g.filter(func(n *domain.ConceptNode) bool {
		return strings.Contains(strings.ToLower(n.DisplayName), q) ||
			strings.Contains(strings.ToLower(n.Description), q) ||
			strings.Contains(strings.ToLower(n.ID), q)
	}), nil
}

// DeleteByBook removes the book's concepts along with every edge touching them.
// The document is only rewritten when something was removed.
func (g *Graph) DeleteByBook(_ context.Context, slug string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := make(map[string]bool)
	order := g.order[:0]
	for _, id := range g.order {
		if g.nodes[id].SourceBook == slug {
			removed[id] = true
			delete(g.nodes, id)
			continue
		}
		order = append(order, id)
	}
	g.order = order

	if len(removed) == 0 {
		return 0, nil
	}

	edges := g.edges[:0]
	for _, edge := range g.edges {
		if removed[edge.Source] || removed[edge.Target] {
			continue
		}
		edges = append(edges, edge)
	}
	g.edges = edges

	if err := g.save(); err != nil {
		return 0, err
	}
	return len(removed), nil
}

// Stats returns the number of concepts and relationships.
func (g *Graph) Stats(_ context.Context) (domain.GraphStats, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return domain.GraphStats{Concepts: len(g.order), Relationships: len(g.edges)}, nil
}

// ==================== Internals ====================

// upsert merges concept into the graph. Callers hold the write lock.
func (g *Graph) upsert(concept domain.ConceptNode) *domain.ConceptNode {
	existing, ok := g.nodes[concept.ID]
	if !ok {
		existing = &domain.ConceptNode{ID: concept.ID}
		g.nodes[concept.ID] = existing
		g.order = append(g.order, concept.ID)
	}

	existing.DisplayName = concept.DisplayName
	if concept.Description != "" {
		existing.Description = concept.Description
	}
	if concept.SourceBook != "" {
		existing.SourceBook = concept.SourceBook
	}
	existing.SourceChunks = mergeChunks(existing.SourceChunks, concept.SourceChunks)

	return existing
}

func (g *Graph) outEdges(node string) []domain.ConceptEdge {
	var out []domain.ConceptEdge
	for _, edge := range g.edges {
		if edge.Source == node {
			out = append(out, edge)
		}
	}
	return out
}

func (g *Graph) inEdges(node string) []domain.ConceptEdge {
	var in []domain.ConceptEdge
	for _, edge := range g.edges {
		if edge.Target == node {
			in = append(in, edge)
		}
	}
	return in
}

func (g *Graph) filter(keep func(*domain.ConceptNode) bool) []domain.ConceptNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []domain.ConceptNode
	for _, id := range g.order {
		if node := g.nodes[id]; keep(node) {
			out = append(out, *cloneNode(node))
		}
	}
	return out
}

func (g *Graph) load() error {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading graph: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing graph %s: %w", g.path, err)
	}

	for i := range doc.Concepts {
		node := doc.Concepts[i]
		if _, dup := g.nodes[node.ID]; dup {
			continue
		}
		g.nodes[node.ID] = &node
		g.order = append(g.order, node.ID)
	}
	g.edges = doc.Relationships
	return nil
}

// save rewrites the whole document. Callers hold the write lock.
func (g *Graph) save() error {
	doc := document{
		Concepts:      make([]domain.ConceptNode, 0, len(g.order)),
		Relationships: g.edges,
	}
	for _, id := range g.order {
		doc.Concepts = append(doc.Concepts, *g.nodes[id])
	}
	if doc.Relationships == nil {
		doc.Relationships = []domain.ConceptEdge{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}

	tmp := g.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing graph: %w", err)
	}
	if err := os.Rename(tmp, g.path); err != nil {
		return fmt.Errorf("replacing graph: %w", err)
	}
	return nil
}

// mergeChunks returns the sorted set union of a and b.
func mergeChunks(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	merged := make([]string, 0, len(set))
	for id := range set {
		merged = append(merged, id)
	}
	sort.Strings(merged)
	return merged
}

func cloneNode(n *domain.ConceptNode) *domain.ConceptNode {
	c := *n
	if n.SourceChunks != nil {
		c.SourceChunks = append([]string(nil), n.SourceChunks...)
	}
	return &c
}
