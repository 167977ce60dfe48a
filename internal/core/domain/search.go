package domain

import "fmt"

// SearchResult is a retrieved chunk enriched with book metadata.
// Score is exactly 1 - distance from the vector index.
type SearchResult struct {
	ChunkID       string  `json:"chunk_id"`
	Content       string  `json:"content"`
	BookSlug      string  `json:"book_slug"`
	BookTitle     string  `json:"book_title"`
	BookAuthor    string  `json:"book_author"`
	ChapterNumber int     `json:"chapter_number"`
	ChapterTitle  string  `json:"chapter_title"`
	StartPosition int     `json:"start_position"`
	EndPosition   int     `json:"end_position"`
	Score         float64 `json:"score"`
}

// Citation formats the result as a citation string.
func (r SearchResult) Citation() string {
	return fmt.Sprintf("[%s, Ch. %d: \"%s\"]", r.BookTitle, r.ChapterNumber, r.ChapterTitle)
}

// SearchOptions configures a semantic search.
type SearchOptions struct {
	// Limit is the maximum number of results (default 10).
	Limit int

	// BookSlugs restricts results to these books.
	BookSlugs []string

	// Subject restricts results to books filed under this subject.
	// Combined with BookSlugs as an intersection.
	Subject string
}

// UnknownAuthor is used when a result's book metadata is missing.
const UnknownAuthor = "Unknown"
