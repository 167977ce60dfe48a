package driven

import (
	"context"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// TopicRegistry stores topics and where they occur.
// Topic counts are always computed from occurrences at read time.
type TopicRegistry interface {
	// AddTopic upserts a topic. The description is only replaced by a non-empty
	// value; related topics are replaced wholesale.
	AddTopic(ctx context.Context, topic domain.Topic) (*domain.Topic, error)

	// GetTopic returns the topic with counts, or nil if it does not exist.
	GetTopic(ctx context.Context, id string) (*domain.Topic, error)

	// AllTopics returns every topic, optionally limited to a subject, ordered by display name.
	AllTopics(ctx context.Context, subject string) ([]domain.Topic, error)

	// AddOccurrence records a topic in a chunk. Re-recording keeps the higher relevance.
	AddOccurrence(ctx context.Context, occ domain.TopicOccurrence) error

	// TopicsForBook returns the topics found in a book.
	TopicsForBook(ctx context.Context, slug string) ([]domain.Topic, error)

	// ChunksForTopic returns chunk ids for a topic, by relevance descending,
	// optionally limited to one book. A limit of 0 returns every chunk.
	ChunksForTopic(ctx context.Context, topicID, bookSlug string, limit int) ([]domain.ChunkRelevance, error)

	// BooksForTopic returns the slugs of books a topic occurs in.
	BooksForTopic(ctx context.Context, topicID string) ([]string, error)

	// SearchTopics matches the query case-insensitively against id, name and description.
	SearchTopics(ctx context.Context, query string) ([]domain.Topic, error)

	// DeleteByBook removes a book's occurrences, keeping the topics. Returns rows removed.
	DeleteByBook(ctx context.Context, slug string) (int, error)

	// Close releases resources.
	Close() error
}
