package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/bookwise/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// TopicRegistry implements driven.TopicRegistry on SQLite.
// Book and chunk counts are aggregated from topic_occurrences on every read.
type TopicRegistry struct {
	db   *sql.DB
	path string
}

var _ driven.TopicRegistry = (*TopicRegistry)(nil)

// NewTopicRegistry opens dir/topics.db.
func NewTopicRegistry(dir string) (*TopicRegistry, error) {
	db, path, err := openDatabase(dir, "topics.db", migrations.Topics())
	if err != nil {
		return nil, fmt.Errorf("topic registry: %w", err)
	}
	return &TopicRegistry{db: db, path: path}, nil
}

// Close closes the database connection.
func (r *TopicRegistry) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *TopicRegistry) Path() string {
	return r.path
}

// topicSelect joins each topic with its occurrence counts.
const topicSelect = `
	SELECT t.id, t.display_name, t.description, t.subject, t.related_topics,
		COUNT(DISTINCT o.book_slug), COUNT(o.id)
	FROM topics t
	LEFT JOIN topic_occurrences o ON o.topic_id = t.id
`

// AddTopic upserts a topic and returns it with counts.
func (r *TopicRegistry) AddTopic(ctx context.Context, topic domain.Topic) (*domain.Topic, error) {
	if topic.ID == "" {
		return nil, fmt.Errorf("%w: topic id is required", domain.ErrInvalidInput)
	}
	subject := topic.Subject
	if subject == "" {
		subject = domain.DefaultSubject
	}
	displayName := topic.DisplayName
	if displayName == "" {
		displayName = topic.ID
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO topics (id, display_name, description, subject, related_topics)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			description = COALESCE(NULLIF(excluded.description, ''), topics.description),
			subject = excluded.subject,
			related_topics = excluded.related_topics
	`, topic.ID, displayName, topic.Description, subject, strings.Join(topic.RelatedTopics, ","))
	if err != nil {
		return nil, fmt.Errorf("saving topic: %w", err)
	}

	return r.GetTopic(ctx, topic.ID)
}

// GetTopic returns a topic with counts, or nil when it does not exist.
func (r *TopicRegistry) GetTopic(ctx context.Context, id string) (*domain.Topic, error) {
	row := r.db.QueryRowContext(ctx, topicSelect+" WHERE t.id = ? GROUP BY t.id", id)

	topic, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning topic: %w", err)
	}
	return topic, nil
}

// AllTopics returns topics ordered by display name, optionally for one subject.
func (r *TopicRegistry) AllTopics(ctx context.Context, subject string) ([]domain.Topic, error) {
	if subject != "" {
		return r.queryTopics(ctx, topicSelect+" WHERE t.subject = ? GROUP BY t.id ORDER BY t.display_name", subject)
	}
	return r.queryTopics(ctx, topicSelect+" GROUP BY t.id ORDER BY t.display_name")
}

// AddOccurrence records a topic in a chunk, keeping the higher relevance on conflict.
func (r *TopicRegistry) AddOccurrence(ctx context.Context, occ domain.TopicOccurrence) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO topic_occurrences (topic_id, chunk_id, book_slug, relevance)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(topic_id, chunk_id) DO UPDATE SET
			relevance = MAX(topic_occurrences.relevance, excluded.relevance)
	`, occ.TopicID, occ.ChunkID, occ.BookSlug, occ.Relevance)
	if err != nil {
		return fmt.Errorf("saving occurrence: %w", err)
	}
	return nil
}

// TopicsForBook returns topics occurring in a book, ordered by display name.
func (r *TopicRegistry) TopicsForBook(ctx context.Context, slug string) ([]domain.Topic, error) {
	return r.queryTopics(ctx, topicSelect+`
		WHERE t.id IN (SELECT topic_id FROM topic_occurrences WHERE book_slug = ?)
		GROUP BY t.id ORDER BY t.display_name`, slug)
}

// ChunksForTopic returns chunk ids for a topic by relevance descending.
func (r *TopicRegistry) ChunksForTopic(ctx context.Context, topicID, bookSlug string, limit int) ([]domain.ChunkRelevance, error) {
	query := "SELECT chunk_id, relevance FROM topic_occurrences WHERE topic_id = ?"
	args := []any{topicID}
	if bookSlug != "" {
		query += " AND book_slug = ?"
		args = append(args, bookSlug)
	}
	query += " ORDER BY relevance DESC, chunk_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying occurrences: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ChunkRelevance //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.ChunkRelevance
		if err := rows.Scan(&c.ChunkID, &c.Relevance); err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating occurrences: %w", err)
	}
	return chunks, nil
}

// BooksForTopic returns the slugs of books a topic occurs in.
func (r *TopicRegistry) BooksForTopic(ctx context.Context, topicID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT book_slug FROM topic_occurrences
		WHERE topic_id = ? ORDER BY book_slug
	`, topicID)
	if err != nil {
		return nil, fmt.Errorf("querying books for topic: %w", err)
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

// SearchTopics matches the query case-insensitively against name, description and id.
func (r *TopicRegistry) SearchTopics(ctx context.Context, query string) ([]domain.Topic, error) {
	q := strings.ToLower(query)
	return r.queryTopics(ctx, topicSelect+`
		WHERE instr(lower(t.display_name), ?) > 0
			OR instr(lower(t.description), ?) > 0
			OR instr(lower(t.id), ?) > 0
		GROUP BY t.id ORDER BY t.display_name`, q, q, q)
}

// DeleteByBook removes a book's occurrences. Topics themselves are kept.
func (r *TopicRegistry) DeleteByBook(ctx context.Context, slug string) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM topic_occurrences WHERE book_slug = ?", slug)
	if err != nil {
		return 0, fmt.Errorf("deleting occurrences: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting occurrences: %w", err)
	}
	return int(n), nil
}

func (r *TopicRegistry) queryTopics(ctx context.Context, query string, args ...any) ([]domain.Topic, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic //nolint:prealloc // size unknown from query
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		topics = append(topics, *topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating topics: %w", err)
	}
	return topics, nil
}

func scanTopic(row rowScanner) (*domain.Topic, error) {
	var topic domain.Topic
	var related string
	if err := row.Scan(&topic.ID, &topic.DisplayName, &topic.Description, &topic.Subject,
		&related, &topic.BookCount, &topic.ChunkCount); err != nil {
		return nil, err
	}
	for _, id := range strings.Split(related, ",") {
		if id != "" {
			topic.RelatedTopics = append(topic.RelatedTopics, id)
		}
	}
	return &topic, nil
}
