package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/bookwise/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// VectorIndex implements driven.VectorIndex on SQLite.
// Queries are exact: every row matching the filter is scored by cosine distance.
type VectorIndex struct {
	db   *sql.DB
	path string
}

var _ driven.VectorIndex = (*VectorIndex)(nil)

// columns maps metadata keys stored in their own column. Other keys are
// filtered through json_extract on the metadata document.
var columns = map[string]string{
	domain.MetaBookSlug:      "book_slug",
	domain.MetaChapterNumber: "chapter_number",
	domain.MetaChapterTitle:  "chapter_title",
	domain.MetaStartPosition: "start_position",
	domain.MetaEndPosition:   "end_position",
	domain.MetaIngestID:      "ingest_id",
}

// NewVectorIndex opens dir/vectors.db.
func NewVectorIndex(dir string) (*VectorIndex, error) {
	db, path, err := openDatabase(dir, "vectors.db", migrations.Vectors())
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	return &VectorIndex{db: db, path: path}, nil
}

// Close closes the database connection.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

// Path returns the database file path.
func (v *VectorIndex) Path() string {
	return v.path
}

// Add upserts a batch of records in one transaction.
func (v *VectorIndex) Add(ctx context.Context, batch driven.VectorBatch) error {
	n := len(batch.IDs)
	if len(batch.Vectors) != n || len(batch.Contents) != n || len(batch.Metadata) != n {
		return fmt.Errorf("%w: %d ids, %d vectors, %d contents, %d metadata",
			domain.ErrInputMismatch, n, len(batch.Vectors), len(batch.Contents), len(batch.Metadata))
	}
	if n == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, book_slug, chapter_number, chapter_title, start_position,
			end_position, ingest_id, content, metadata, embedding, dimensions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_slug = excluded.book_slug,
			chapter_number = excluded.chapter_number,
			chapter_title = excluded.chapter_title,
			start_position = excluded.start_position,
			end_position = excluded.end_position,
			ingest_id = excluded.ingest_id,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, id := range batch.IDs {
		meta := batch.Metadata[i]
		metadataJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", id, err)
		}

		vec := batch.Vectors[i]
		if _, err := stmt.ExecContext(ctx, id,
			metaString(meta, domain.MetaBookSlug),
			metaInt(meta, domain.MetaChapterNumber),
			metaString(meta, domain.MetaChapterTitle),
			metaInt(meta, domain.MetaStartPosition),
			metaInt(meta, domain.MetaEndPosition),
			metaString(meta, domain.MetaIngestID),
			batch.Contents[i], string(metadataJSON),
			float32SliceToBytes(vec), len(vec)); err != nil {
			return fmt.Errorf("saving vector %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns the k nearest records by cosine distance, ties broken by id.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	rows, err := v.db.QueryContext(ctx,
		"SELECT id, content, metadata, book_slug, chapter_number, chapter_title, start_position, "+
			"end_position, ingest_id, embedding FROM vectors"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var blob []byte
		rec, err := scanRecord(rows, &blob)
		if err != nil {
			return nil, err
		}

		stored := bytesToFloat32Slice(blob)
		if len(stored) != len(vector) {
			return nil, fmt.Errorf("%w: query has %d dimensions but %s has %d",
				domain.ErrInputMismatch, len(vector), rec.ID, len(stored))
		}

		hits = append(hits, driven.VectorHit{VectorRecord: *rec, Distance: cosineDistance(vector, stored)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
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

// Get returns matching records in reading order.
func (v *VectorIndex) Get(ctx context.Context, filter *driven.VectorFilter) ([]driven.VectorRecord, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	rows, err := v.db.QueryContext(ctx,
		"SELECT id, content, metadata, book_slug, chapter_number, chapter_title, start_position, "+
			"end_position, ingest_id FROM vectors"+where+
			" ORDER BY book_slug, chapter_number, start_position, id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var records []driven.VectorRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanRecord(rows, nil)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return records, nil
}

// Delete removes records by id.
func (v *VectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM vectors WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("deleting vector %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Count returns the number of records matching the filter.
func (v *VectorIndex) Count(ctx context.Context, filter *driven.VectorFilter) (int, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}

	var count int
	if err := v.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}

// BookSlugs returns the distinct indexed book slugs, sorted.
func (v *VectorIndex) BookSlugs(ctx context.Context) ([]string, error) {
	rows, err := v.db.QueryContext(ctx, "SELECT DISTINCT book_slug FROM vectors ORDER BY book_slug")
	if err != nil {
		return nil, fmt.Errorf("querying book slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning book slug: %w", err)
		}
		slugs = append(slugs, slug)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating book slugs: %w", err)
	}
	return slugs, nil
}

// DeleteByBook removes every record of a book and returns the number removed.
func (v *VectorIndex) DeleteByBook(ctx context.Context, bookSlug string) (int, error) {
	result, err := v.db.ExecContext(ctx, "DELETE FROM vectors WHERE book_slug = ?", bookSlug)
	if err != nil {
		return 0, fmt.Errorf("deleting vectors: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting vectors: %w", err)
	}
	return int(n), nil
}

// ==================== Helper Functions ====================

// buildWhere turns a filter into a WHERE clause: equality for one value,
// IN for several. A condition with no values matches nothing.
func buildWhere(filter *driven.VectorFilter) (string, []any, error) {
	if filter == nil || len(filter.Conditions) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filter.Conditions))
	var args []any

	for _, cond := range filter.Conditions {
		if cond.Field == "" {
			return "", nil, fmt.Errorf("%w: filter field is required", domain.ErrInvalidInput)
		}

		expr, ok := columns[cond.Field]
		if !ok {
			expr = "json_extract(metadata, ?)"
			args = append(args, "$."+cond.Field)
		}

		switch len(cond.Values) {
		case 0:
			clauses = append(clauses, "0")
			if !ok {
				args = args[:len(args)-1]
			}
		case 1:
			clauses = append(clauses, expr+" = ?")
			args = append(args, cond.Values[0])
		default:
			clauses = append(clauses, expr+" IN ("+placeholders(len(cond.Values))+")")
			args = append(args, cond.Values...)
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// scanRecord reads a row into a record. When blob is non-nil the embedding
// column is scanned into it.
func scanRecord(rows *sql.Rows, blob *[]byte) (*driven.VectorRecord, error) {
	var rec driven.VectorRecord
	var metadataJSON, bookSlug, chapterTitle, ingestID string
	var chapterNumber, start, end int

	dest := []any{&rec.ID, &rec.Content, &metadataJSON, &bookSlug, &chapterNumber,
		&chapterTitle, &start, &end, &ingestID}
	if blob != nil {
		dest = append(dest, blob)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning vector: %w", err)
	}

	rec.Metadata = make(map[string]any)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for %s: %w", rec.ID, err)
		}
	}

	// Column values win over the JSON copy so integers keep their type.
	rec.Metadata[domain.MetaBookSlug] = bookSlug
	rec.Metadata[domain.MetaChapterNumber] = chapterNumber
	rec.Metadata[domain.MetaChapterTitle] = chapterTitle
	rec.Metadata[domain.MetaStartPosition] = start
	rec.Metadata[domain.MetaEndPosition] = end
	if ingestID != "" {
		rec.Metadata[domain.MetaIngestID] = ingestID
	}

	return &rec, nil
}

// cosineDistance returns 1 - cos(a, b), in [0, 2]. A zero vector is at distance 1.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func metaString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

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
