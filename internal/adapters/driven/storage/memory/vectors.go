package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

type vectorEntry struct {
	record driven.VectorRecord
	vector []float32
}

// VectorIndex is an in-memory implementation of driven.VectorIndex using
// brute-force cosine distance.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]*vectorEntry
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]*vectorEntry),
	}
}

// Add inserts or replaces records.
func (v *VectorIndex) Add(_ context.Context, batch driven.VectorBatch) error {
	n := len(batch.IDs)
	if len(batch.Vectors) != n || len(batch.Contents) != n || len(batch.Metadata) != n {
		return fmt.Errorf("%w: %d ids, %d vectors, %d contents, %d metadata",
			domain.ErrInputMismatch, n, len(batch.Vectors), len(batch.Contents), len(batch.Metadata))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i, id := range batch.IDs {
		meta := make(map[string]any, len(batch.Metadata[i]))
		for k, val := range batch.Metadata[i] {
			meta[k] = val
		}
		v.entries[id] = &vectorEntry{
			record: driven.VectorRecord{ID: id, Content: batch.Contents[i], Metadata: meta},
			vector: append([]float32(nil), batch.Vectors[i]...),
		}
	}
	return nil
}

// Query returns the k records nearest to vector.
func (v *VectorIndex) Query(_ context.Context, vector []float32, k int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var hits []driven.VectorHit
	for _, e := range v.entries {
		if !matches(e.record.Metadata, filter) {
			continue
		}
		if len(e.vector) != len(vector) {
			return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
				domain.ErrInputMismatch, len(vector), len(e.vector))
		}
		hits = append(hits, driven.VectorHit{VectorRecord: e.record, Distance: cosineDistance(vector, e.vector)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns matching records ordered by book, chapter and start position.
func (v *VectorIndex) Get(_ context.Context, filter *driven.VectorFilter) ([]driven.VectorRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var records []driven.VectorRecord
	for _, e := range v.entries {
		if matches(e.record.Metadata, filter) {
			records = append(records, e.record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].Chunk(), records[j].Chunk()
		if a.BookSlug != b.BookSlug {
			return a.BookSlug < b.BookSlug
		}
		if a.ChapterNumber != b.ChapterNumber {
			return a.ChapterNumber < b.ChapterNumber
		}
		if a.StartPosition != b.StartPosition {
			return a.StartPosition < b.StartPosition
		}
		return a.ID < b.ID
	})
	return records, nil
}

// Delete removes records by id.
func (v *VectorIndex) Delete(_ context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range ids {
		delete(v.entries, id)
	}
	return nil
}

// Count returns the number of matching records.
func (v *VectorIndex) Count(_ context.Context, filter *driven.VectorFilter) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := 0
	for _, e := range v.entries {
		if matches(e.record.Metadata, filter) {
			n++
		}
	}
	return n, nil
}

// BookSlugs returns the distinct book slugs, sorted.
func (v *VectorIndex) BookSlugs(_ context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	seen := make(map[string]bool)
	var slugs []string
	for _, e := range v.entries {
		slug, _ := e.record.Metadata[domain.MetaBookSlug].(string)
		if slug != "" && !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// DeleteByBook removes a book's records.
func (v *VectorIndex) DeleteByBook(_ context.Context, bookSlug string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for id, e := range v.entries {
		if slug, _ := e.record.Metadata[domain.MetaBookSlug].(string); slug == bookSlug {
			delete(v.entries, id)
			n++
		}
	}
	return n, nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

func matches(meta map[string]any, filter *driven.VectorFilter) bool {
	if filter == nil {
		return true
	}
	for _, cond := range filter.Conditions {
		found := false
		for _, want := range cond.Values {
			if sameValue(meta[cond.Field], want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sameValue compares metadata values, treating all numeric types alike.
func sameValue(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
