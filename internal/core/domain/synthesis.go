package domain

// SynthesizedAdvice is advice condensed from several search results.
type SynthesizedAdvice struct {
	Question  string   `json:"question"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Citations []string `json:"citations"`

	// SourceCount is the number of distinct books across all input results.
	SourceCount int `json:"source_count"`

	// ChunkCount is the number of input results.
	ChunkCount int `json:"chunk_count"`
}

// SourcePerspective is one book's take on a topic.
type SourcePerspective struct {
	BookTitle  string   `json:"book_title"`
	BookAuthor string   `json:"book_author"`
	BookSlug   string   `json:"book_slug"`
	KeyPoints  []string `json:"key_points"`
	Citations  []string `json:"citations"`
}

// SourceComparison compares what several books say about a topic.
type SourceComparison struct {
	Topic        string              `json:"topic"`
	Perspectives []SourcePerspective `json:"perspectives"`
	Agreements   []string            `json:"agreements"`
	Differences  []string            `json:"differences"`
	SourceCount  int                 `json:"source_count"`
}

// Synthesis defaults.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultMaxPointsPerSource  = 3
	DefaultMaxTotalPoints      = 10
)

// SynthesisSettings holds synthesizer tuning.
type SynthesisSettings struct {
	// SimilarityThreshold is the ratio above which two points count as duplicates.
	SimilarityThreshold float64

	// MaxPointsPerSource caps sentences taken from one result or book.
	MaxPointsPerSource int

	// MaxTotalPoints caps key points in a synthesized answer.
	MaxTotalPoints int
}

// DefaultSynthesisSettings returns the default synthesizer tuning.
func DefaultSynthesisSettings() SynthesisSettings {
	return SynthesisSettings{
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxPointsPerSource:  DefaultMaxPointsPerSource,
		MaxTotalPoints:      DefaultMaxTotalPoints,
	}
}
