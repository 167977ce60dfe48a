package domain

// Topic is a cross-book theme tracked in the topic registry.
// BookCount and ChunkCount are computed from occurrences on every read.
type Topic struct {
	// ID is the slug-form primary key.
	ID string `json:"id"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"display_name"`

	// Description is kept unless a later write supplies a non-empty one.
	Description string `json:"description,omitempty"`

	// Subject is the collection the topic belongs to.
	Subject string `json:"subject"`

	// RelatedTopics is an ordered list of topic ids, replaced on update.
	RelatedTopics []string `json:"related_topics,omitempty"`

	BookCount  int `json:"book_count"`
	ChunkCount int `json:"chunk_count"`
}

// TopicOccurrence links a topic to a chunk with a relevance score in [0,1].
// Re-recording an occurrence keeps the higher relevance.
type TopicOccurrence struct {
	TopicID   string  `json:"topic_id"`
	ChunkID   string  `json:"chunk_id"`
	BookSlug  string  `json:"book_slug"`
	Relevance float64 `json:"relevance"`
}

// ExtractedTopic is a keyword or phrase found by topic extraction.
type ExtractedTopic struct {
	ID          string
	DisplayName string
	Relevance   float64
	Count       int
}

// ChunkRelevance is one chunk a topic was found in.
type ChunkRelevance struct {
	ChunkID   string
	Relevance float64
}
