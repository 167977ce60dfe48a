package driven

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// VectorIndex stores chunk vectors with their text and metadata and answers
// nearest-neighbour queries.
type VectorIndex interface {
	// Add inserts or replaces records. Fails with domain.ErrInputMismatch
	// when the ids, vectors, contents and metadata differ in length.
	Add(ctx context.Context, batch VectorBatch) error

	// Query returns the k nearest records to the vector, ascending by distance.
	Query(ctx context.Context, vector []float32, k int, filter *VectorFilter) ([]VectorHit, error)

	// Get returns every record matching the filter, ordered by start position.
	Get(ctx context.Context, filter *VectorFilter) ([]VectorRecord, error)

	// Delete removes records by id.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of records matching the filter (all when nil).
	Count(ctx context.Context, filter *VectorFilter) (int, error)

	// BookSlugs returns the distinct book slugs with indexed vectors, sorted.
	BookSlugs(ctx context.Context) ([]string, error)

	// DeleteByBook removes every record of a book and returns how many were removed.
	DeleteByBook(ctx context.Context, bookSlug string) (int, error)

	// Close releases resources.
	Close() error
}

// VectorBatch is a set of parallel slices to add to the index.
type VectorBatch struct {
	IDs      []string
	Vectors  [][]float32
	Contents []string
	Metadata []map[string]any
}

// VectorFilter restricts queries to records whose metadata matches.
// Conditions are ANDed together.
type VectorFilter struct {
	Conditions []FilterCondition
}

// FilterCondition matches a metadata field against one value (equality)
// or several (membership).
type FilterCondition struct {
	Field  string
	Values []any
}

// Where builds a filter with a single condition.
func Where(field string, values ...any) *VectorFilter {
	return &VectorFilter{Conditions: []FilterCondition{{Field: field, Values: values}}}
}

// And returns a copy of the filter with another condition added.
func (f *VectorFilter) And(field string, values ...any) *VectorFilter {
	out := &VectorFilter{}
	if f != nil {
		out.Conditions = append(out.Conditions, f.Conditions...)
	}
	out.Conditions = append(out.Conditions, FilterCondition{Field: field, Values: values})
	return out
}

// VectorRecord is a stored chunk.
type VectorRecord struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// VectorHit is a query result. Distance is 1 - cosine similarity, in [0,2].
type VectorHit struct {
	VectorRecord
	Distance float64
}

// Chunk rebuilds the domain chunk from the record's metadata.
func (r VectorRecord) Chunk() domain.Chunk {
	return domain.Chunk{
		ID:            r.ID,
		Content:       r.Content,
		BookSlug:      metaString(r.Metadata, domain.MetaBookSlug),
		ChapterNumber: metaInt(r.Metadata, domain.MetaChapterNumber),
		ChapterTitle:  metaString(r.Metadata, domain.MetaChapterTitle),
		StartPosition: metaInt(r.Metadata, domain.MetaStartPosition),
		EndPosition:   metaInt(r.Metadata, domain.MetaEndPosition),
	}
}

func metaString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// metaInt accepts the numeric types JSON and database drivers produce.
func metaInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
