package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Ensure TopicRegistry implements the interface.
var _ driven.TopicRegistry = (*TopicRegistry)(nil)

type occurrenceKey struct {
	topicID string
	chunkID string
}

// TopicRegistry is an in-memory implementation of driven.TopicRegistry.
type TopicRegistry struct {
	mu          sync.RWMutex
	topics      map[string]domain.Topic
	occurrences map[occurrenceKey]domain.TopicOccurrence
}

// NewTopicRegistry creates a new in-memory topic registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics:      make(map[string]domain.Topic),
		occurrences: make(map[occurrenceKey]domain.TopicOccurrence),
	}
}

// AddTopic upserts a topic.
func (r *TopicRegistry) AddTopic(ctx context.Context, topic domain.Topic) (*domain.Topic, error) {
	if topic.ID == "" {
		return nil, fmt.Errorf("%w: topic id is required", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	if topic.Subject == "" {
		topic.Subject = domain.DefaultSubject
	}
	if topic.DisplayName == "" {
		topic.DisplayName = topic.ID
	}
	if existing, ok := r.topics[topic.ID]; ok && topic.Description == "" {
		topic.Description = existing.Description
	}
	topic.RelatedTopics = append([]string(nil), topic.RelatedTopics...)
	topic.BookCount, topic.ChunkCount = 0, 0
	r.topics[topic.ID] = topic
	r.mu.Unlock()

	return r.GetTopic(ctx, topic.ID)
}

// GetTopic returns the topic with counts, or nil.
func (r *TopicRegistry) GetTopic(_ context.Context, id string) (*domain.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topic, ok := r.topics[id]
	if !ok {
		return nil, nil
	}
	counted := r.withCounts(topic)
	return &counted, nil
}

// AllTopics returns every topic, optionally in one subject, by display name.
func (r *TopicRegistry) AllTopics(_ context.Context, subject string) ([]domain.Topic, error) {
	return r.filter(func(t domain.Topic) bool { return subject == "" || t.Subject == subject }), nil
}

// AddOccurrence records a topic in a chunk, keeping the higher relevance.
func (r *TopicRegistry) AddOccurrence(_ context.Context, occ domain.TopicOccurrence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := occurrenceKey{topicID: occ.TopicID, chunkID: occ.ChunkID}
	if existing, ok := r.occurrences[key]; ok && existing.Relevance > occ.Relevance {
		occ.Relevance = existing.Relevance
	}
	r.occurrences[key] = occ
	return nil
}

// TopicsForBook returns topics that occur in a book.
func (r *TopicRegistry) TopicsForBook(_ context.Context, slug string) ([]domain.Topic, error) {
	r.mu.RLock()
	inBook := make(map[string]bool)
	for _, occ := range r.occurrences {
		if occ.BookSlug == slug {
			inBook[occ.TopicID] = true
		}
	}
	r.mu.RUnlock()
	return r.filter(func(t domain.Topic) bool { return inBook[t.ID] }), nil
}

// ChunksForTopic returns chunk ids by relevance descending.
func (r *TopicRegistry) ChunksForTopic(_ context.Context, topicID, bookSlug string, limit int) ([]domain.ChunkRelevance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chunks []domain.ChunkRelevance
	for _, occ := range r.occurrences {
		if occ.TopicID != topicID || (bookSlug != "" && occ.BookSlug != bookSlug) {
			continue
		}
		chunks = append(chunks, domain.ChunkRelevance{ChunkID: occ.ChunkID, Relevance: occ.Relevance})
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Relevance != chunks[j].Relevance {
			return chunks[i].Relevance > chunks[j].Relevance
		}
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

// BooksForTopic returns the sorted slugs of books a topic occurs in.
func (r *TopicRegistry) BooksForTopic(_ context.Context, topicID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var slugs []string
	for _, occ := range r.occurrences {
		if occ.TopicID == topicID && !seen[occ.BookSlug] {
			seen[occ.BookSlug] = true
			slugs = append(slugs, occ.BookSlug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// SearchTopics matches id, display name and description case-insensitively.
func (r *TopicRegistry) SearchTopics(_ context.Context, query string) ([]domain.Topic, error) {
	q := strings.ToLower(query)
	return r.filter(func(t domain.Topic) bool {
		return strings.Contains(strings.ToLower(t.DisplayName), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.ID), q)
	}), nil
}

// DeleteByBook removes a book's occurrences.
func (r *TopicRegistry) DeleteByBook(_ context.Context, slug string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, occ := range r.occurrences {
		if occ.BookSlug == slug {
			delete(r.occurrences, key)
			n++
		}
	}
	return n, nil
}

// Close releases resources.
func (r *TopicRegistry) Close() error {
	return nil
}

func (r *TopicRegistry) filter(keep func(domain.Topic) bool) []domain.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var topics []domain.Topic
	for _, topic := range r.topics {
		if keep(topic) {
			topics = append(topics, r.withCounts(topic))
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].DisplayName != topics[j].DisplayName {
			return topics[i].DisplayName < topics[j].DisplayName
		}
		return topics[i].ID < topics[j].ID
	})
	return topics
}

// withCounts fills book and chunk counts from occurrences. Callers hold the lock.
func (r *TopicRegistry) withCounts(topic domain.Topic) domain.Topic {
	books := make(map[string]bool)
	chunks := 0
	for _, occ := range r.occurrences {
		if occ.TopicID == topic.ID {
			books[occ.BookSlug] = true
			chunks++
		}
	}
	topic.BookCount = len(books)
	topic.ChunkCount = chunks
	return topic
}
