package domain

import "time"

// DefaultSubject is the subject assigned to books added without one.
const DefaultSubject = "general"

// BookRecord is an ingested book.
// Re-adding a slug overwrites title, author, subject and file path but keeps AddedAt.
type BookRecord struct {
	// Slug is the URL-friendly primary key.
	Slug string `json:"slug"`

	// Title is the book title.
	Title string `json:"title"`

	// Author is the book author.
	Author string `json:"author"`

	// Subject groups books into collections (e.g. "parenting").
	Subject string `json:"subject"`

	// FilePath is the source file the book was ingested from.
	FilePath string `json:"file_path"`

	// AddedAt is when the book was first added.
	AddedAt time.Time `json:"added_at"`

	// ChunkCount is the number of chunks produced by the last ingestion.
	ChunkCount int `json:"chunk_count"`
}

// ChapterRecord is a chapter of an ingested book.
// Chapters are unique per (BookSlug, Number) and are replaced wholesale on re-ingestion.
type ChapterRecord struct {
	ID            int64  `json:"id"`
	BookSlug      string `json:"book_slug"`
	Number        int    `json:"number"`
	Title         string `json:"title"`
	StartPosition int    `json:"start_position"`
	EndPosition   int    `json:"end_position"`
}

// SubjectSummary aggregates the books filed under one subject.
type SubjectSummary struct {
	Subject    string `json:"subject"`
	BookCount  int    `json:"book_count"`
	ChunkCount int    `json:"chunk_count"`
}

// ParsedBook is the content extracted from a book file before chunking.
type ParsedBook struct {
	Title    string
	Author   string
	Chapters []ParsedChapter
}

// ParsedChapter is one chapter of a ParsedBook.
// Positions are character offsets into the concatenated book text.
type ParsedChapter struct {
	Number        int
	Title         string
	Content       string
	StartPosition int
	EndPosition   int
}

// AddBookOptions configures ingestion of a single book file.
// Zero values fall back to the parsed metadata and the configured chunking defaults.
type AddBookOptions struct {
	Slug      string
	Title     string
	Author    string
	Subject   string
	ChunkSize int

	// ChunkOverlap overrides the configured overlap when set; zero is a valid overlap.
	ChunkOverlap *int

	ExtractTopics bool
}

// IngestResult reports what an ingestion produced.
type IngestResult struct {
	Book         BookRecord
	ChapterCount int
	ChunkCount   int
	TopicCount   int
}

// RemoveResult reports what removing a book deleted from each store.
type RemoveResult struct {
	Slug               string
	VectorsRemoved     int
	OccurrencesRemoved int
	ConceptsRemoved    int
}

// SubjectOverview is a subject with the books filed under it.
type SubjectOverview struct {
	SubjectSummary
	Books []BookRecord
}
