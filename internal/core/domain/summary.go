package domain

// ChapterSummary is a generated summary of one chapter.
type ChapterSummary struct {
	BookSlug      string   `json:"book_slug"`
	ChapterNumber int      `json:"chapter_number"`
	ChapterTitle  string   `json:"chapter_title"`
	Summary       string   `json:"summary"`
	KeyPoints     []string `json:"key_points"`
	ChunkCount    int      `json:"chunk_count"`

	// Provider names the summariser that produced the summary.
	Provider string `json:"provider"`
}

// ChapterContent is the text handed to a chapter summariser.
type ChapterContent struct {
	BookSlug      string
	BookTitle     string
	ChapterNumber int
	ChapterTitle  string
	Content       string
	ChunkCount    int
}
