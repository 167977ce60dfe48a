package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, 512, p.ChunkSize())
		assert.Equal(t, 50, p.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(20))
		assert.Equal(t, 100, p.ChunkSize())
		assert.Equal(t, 20, p.Overlap())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("overlap larger than size is kept", func(t *testing.T) {
		p := New(WithChunkSize(4), WithOverlap(10))
		assert.Equal(t, 10, p.Overlap())
	})
}

func TestChunk_Blank(t *testing.T) {
	p := New()
	assert.Empty(t, p.Chunk(""))
	assert.Empty(t, p.Chunk("   \n\n   "))
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	text := "This is a short sentence."
	spans := New(WithChunkSize(100)).Chunk(text)

	require.Len(t, spans, 1)
	assert.Equal(t, domain.TextSpan{Content: text, Start: 0, End: len(text)}, spans[0])
}

func TestChunk_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		size     int
		overlap  int
		expected []domain.TextSpan
	}{
		{
			name:    "sentence breaks",
			text:    "First sentence here. Second sentence here. Third sentence here. Fourth sentence here.",
			size:    50,
			overlap: 10,
			expected: []domain.TextSpan{
				{Content: "First sentence here. Second sentence here.", Start: 0, End: 43},
				{Content: "nce here. Third sentence here.", Start: 33, End: 64},
				{Content: "nce here. Fourth sentence here.", Start: 54, End: 85},
				{Content: "ence here.", Start: 75, End: 85},
			},
		},
		{
			name:    "paragraph breaks",
			text:    "First paragraph content here.\n\nSecond paragraph content here.\n\nThird paragraph.",
			size:    40,
			overlap: 5,
			expected: []domain.TextSpan{
				{Content: "First paragraph content here.", Start: 0, End: 31},
				{Content: "re.\n\nSecond paragraph content here.", Start: 26, End: 63},
				{Content: "re.\n\nThird paragraph.", Start: 58, End: 79},
				{Content: "raph.", Start: 74, End: 79},
			},
		},
		{
			name:    "overlap at least the chunk size forces progress",
			text:    "abcdefghij",
			size:    4,
			overlap: 10,
			expected: []domain.TextSpan{
				{Content: "abcd", Start: 0, End: 4},
				{Content: "efgh", Start: 4, End: 8},
				{Content: "ij", Start: 8, End: 10},
			},
		},
		{
			name:    "offsets count characters not bytes",
			text:    "Héllo wörld. Ünïcode text here. More text follows now.",
			size:    20,
			overlap: 5,
			expected: []domain.TextSpan{
				{Content: "Héllo wörld.", Start: 0, End: 13},
				{Content: "rld. Ünïcode text he", Start: 8, End: 28},
				{Content: "xt here. More text f", Start: 23, End: 43},
				{Content: "ext follows now.", Start: 38, End: 54},
				{Content: "now.", Start: 49, End: 54},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := New(WithChunkSize(tt.size), WithOverlap(tt.overlap)).Chunk(tt.text)
			assert.Equal(t, tt.expected, spans)
		})
	}
}

func TestChunk_NaiveCutWithoutBreaks(t *testing.T) {
	text := strings.Repeat("A", 100) + " " + strings.Repeat("B", 100) + " " + strings.Repeat("C", 100)
	spans := New(WithChunkSize(110), WithOverlap(20)).Chunk(text)

	starts := make([]int, 0, len(spans))
	for _, s := range spans {
		starts = append(starts, s.Start)
		assert.LessOrEqual(t, len([]rune(s.Content)), 110)
	}
	assert.Equal(t, []int{0, 90, 180, 270, 282}, starts)
}

func TestChunk_BlankWindowStepsBack(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		size     int
		overlap  int
		expected []domain.TextSpan
	}{
		{
			name:    "blank window revisits tail",
			text:    ". .\n  \na \n b  ",
			size:    3,
			overlap: 3,
			expected: []domain.TextSpan{
				{Content: ". .", Start: 0, End: 3},
				{Content: "a", Start: 6, End: 9},
				{Content: "b", Start: 9, End: 12},
				{Content: "b", Start: 11, End: 14},
			},
		},
		{
			name:     "overlap larger than blank prefix",
			text:     "     x",
			size:     2,
			overlap:  5,
			expected: []domain.TextSpan{{Content: "x", Start: 4, End: 6}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(WithChunkSize(tt.size), WithOverlap(tt.overlap)).Chunk(tt.text))
		})
	}
}

func TestChunk_TerminatesOnWhitespaceHeavyText(t *testing.T) {
	text := strings.Repeat(" ", 50) + "x" + strings.Repeat(" \n", 40) + "y" + strings.Repeat("\n\n ", 30)
	for _, cfg := range [][2]int{{5, 9}, {3, 3}, {8, 8}, {4, 20}} {
		spans := New(WithChunkSize(cfg[0]), WithOverlap(cfg[1])).Chunk(text)
		require.NotEmpty(t, spans, "size %d overlap %d", cfg[0], cfg[1])
		for i := 1; i < len(spans); i++ {
			assert.Greater(t, spans[i].Start, spans[i-1].Start)
		}
	}
}

// TestChunk_Properties checks round trip, non-empty content and overlap on varied input.
func TestChunk_Properties(t *testing.T) {
	text := strings.Repeat("Children need connection before correction. ", 20) +
		"\n\n" + strings.Repeat("Repair matters more than rupture! Do it often? Yes.\n", 15)

	for _, cfg := range [][2]int{{100, 20}, {64, 8}, {200, 0}, {50, 49}, {30, 100}} {
		runes := []rune(text)
		spans := New(WithChunkSize(cfg[0]), WithOverlap(cfg[1])).Chunk(text)
		require.NotEmpty(t, spans)

		for i, s := range spans {
			assert.NotEmpty(t, s.Content)
			assert.Equal(t, s.Content, strings.TrimSpace(string(runes[s.Start:s.End])))
			if i > 0 {
				assert.Greater(t, s.Start, spans[i-1].Start, "starts must strictly increase")
			}
		}
		assert.LessOrEqual(t, spans[len(spans)-1].End, len(runes))
	}
}

func TestChunkChapter(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	content := strings.Repeat("This is chapter content. ", 20)

	chunks := p.ChunkChapter(content, "my-book", 3, "Test Chapter")
	require.NotEmpty(t, chunks)

	ids := make(map[string]bool)
	for i, c := range chunks {
		assert.Equal(t, domain.ChunkID("my-book", 3, i), c.ID)
		assert.Equal(t, "my-book", c.BookSlug)
		assert.Equal(t, 3, c.ChapterNumber)
		assert.Equal(t, "Test Chapter", c.ChapterTitle)
		ids[c.ID] = true
	}
	assert.Len(t, ids, len(chunks))
	assert.Equal(t, "my-book-ch003-0000", chunks[0].ID)
}

func TestChunkChapter_Deterministic(t *testing.T) {
	p := New(WithChunkSize(50))
	content := strings.Repeat("Content ", 100)

	first := p.ChunkChapter(content, "book", 1, "Chapter")
	second := p.ChunkChapter(content, "book", 1, "Chapter")
	assert.Equal(t, first, second)
}

func TestChunkChapter_Empty(t *testing.T) {
	chunks := New().ChunkChapter("", "book", 1, "Empty")
	assert.Empty(t, chunks)
}
