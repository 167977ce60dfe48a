package domain

import "fmt"

// Metadata keys stored alongside every chunk in the vector index.
const (
	MetaBookSlug      = "book_slug"
	MetaChapterNumber = "chapter_number"
	MetaChapterTitle  = "chapter_title"
	MetaStartPosition = "start_position"
	MetaEndPosition   = "end_position"
	MetaIngestID      = "ingest_id"
)

// Chunk is a retrievable passage of a chapter.
// Chunks are immutable once created and are only deleted in bulk by book slug.
type Chunk struct {
	// ID is {book_slug}-ch{chapter:03d}-{sequence:04d}.
	ID string `json:"id"`

	// Content is the stripped passage text.
	Content string `json:"content"`

	BookSlug      string `json:"book_slug"`
	ChapterNumber int    `json:"chapter_number"`
	ChapterTitle  string `json:"chapter_title"`

	// StartPosition and EndPosition are character offsets within the chapter.
	StartPosition int `json:"start_position"`
	EndPosition   int `json:"end_position"`
}

// ChunkID builds the deterministic chunk identifier.
func ChunkID(bookSlug string, chapterNumber, sequence int) string {
	return fmt.Sprintf("%s-ch%03d-%04d", bookSlug, chapterNumber, sequence)
}

// Metadata returns the chunk's storage metadata.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		MetaBookSlug:      c.BookSlug,
		MetaChapterNumber: c.ChapterNumber,
		MetaChapterTitle:  c.ChapterTitle,
		MetaStartPosition: c.StartPosition,
		MetaEndPosition:   c.EndPosition,
	}
}

// TextSpan is a raw chunk produced by the chunker: content plus the
// half-open character range [Start, End) it was cut from.
type TextSpan struct {
	Content string
	Start   int
	End     int
}
