package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	tests := []struct {
		slug     string
		chapter  int
		sequence int
		expected string
	}{
		{"good-inside", 1, 0, "good-inside-ch001-0000"},
		{"good-inside", 12, 345, "good-inside-ch012-0345"},
		{"b", 1000, 10000, "b-ch1000-10000"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChunkID(tt.slug, tt.chapter, tt.sequence))
		})
	}
}

func TestChunk_Metadata(t *testing.T) {
	chunk := Chunk{
		ID:            "book-ch002-0001",
		Content:       "text",
		BookSlug:      "book",
		ChapterNumber: 2,
		ChapterTitle:  "Second",
		StartPosition: 10,
		EndPosition:   20,
	}

	meta := chunk.Metadata()
	assert.Equal(t, "book", meta[MetaBookSlug])
	assert.Equal(t, 2, meta[MetaChapterNumber])
	assert.Equal(t, "Second", meta[MetaChapterTitle])
	assert.Equal(t, 10, meta[MetaStartPosition])
	assert.Equal(t, 20, meta[MetaEndPosition])
}

func TestSearchResult_Citation(t *testing.T) {
	result := SearchResult{BookTitle: "Good Inside", ChapterNumber: 3, ChapterTitle: "Repair"}
	assert.Equal(t, `[Good Inside, Ch. 3: "Repair"]`, result.Citation())
}

func TestValidationError_String(t *testing.T) {
	err := ValidationError{File: "metadata.yaml", Field: "slug", Message: "slug is required"}
	assert.Equal(t, "[metadata.yaml] slug: slug is required", err.String())
}
