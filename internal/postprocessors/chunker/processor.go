// Package chunker splits chapter text into overlapping, boundary-aware chunks.
package chunker

import (
	"strings"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

const paragraphBreak = "\n\n"

// sentenceBreaks are tried in order; the first one found past the window midpoint wins.
var sentenceBreaks = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// Processor splits text into chunks of roughly chunkSize characters.
// Sizes and offsets count characters (runes), not bytes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
// An overlap at or above the chunk size is allowed: forward progress is
// forced whenever the overlap would move the window backwards.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Chunk splits text into spans. Every span satisfies
// strings.TrimSpace(string(runes[Start:End])) == Content.
// Blank input yields no spans.
func (p *Processor) Chunk(text string) []domain.TextSpan {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	length := len(runes)
	half := p.chunkSize / 2

	var spans []domain.TextSpan
	// A step is fully determined by its start and the last recorded span start.
	type state struct{ start, last int }
	visited := make(map[state]bool)
	start := 0

	for start < length {
		visited[state{start, lastStart(spans)}] = true
		end := min(start+p.chunkSize, length)

		if end < length {
			if br := lastIndex(runes, paragraphBreak, start, end); br > start+half {
				end = br + len(paragraphBreak)
			} else {
				for _, punct := range sentenceBreaks {
					br := lastIndex(runes, punct, start, end)
					if br > start+half {
						end = br + len([]rune(punct))
						break
					}
				}
			}
		}

		if content := strings.TrimSpace(string(runes[start:end])); content != "" {
			spans = append(spans, domain.TextSpan{Content: content, Start: start, End: end})
		}

		next := end - p.overlap
		if len(spans) > 0 && next <= spans[len(spans)-1].Start {
			next = end
		}
		// Stepping back from a blank window is allowed unless it repeats a
		// step already taken, which would loop forever.
		if next <= start && (next < 0 || visited[state{next, lastStart(spans)}]) {
			next = end
		}
		start = next
	}

	return spans
}

// ChunkChapter chunks one chapter and assigns deterministic ids.
// Positions are offsets within the chapter.
func (p *Processor) ChunkChapter(content, bookSlug string, chapterNumber int, chapterTitle string) []domain.Chunk {
	spans := p.Chunk(content)
	chunks := make([]domain.Chunk, 0, len(spans))

	for i, span := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:            domain.ChunkID(bookSlug, chapterNumber, i),
			Content:       span.Content,
			BookSlug:      bookSlug,
			ChapterNumber: chapterNumber,
			ChapterTitle:  chapterTitle,
			StartPosition: span.Start,
			EndPosition:   span.End,
		})
	}

	return chunks
}

// lastStart returns the start of the last span, or -1 when there is none.
func lastStart(spans []domain.TextSpan) int {
	if len(spans) == 0 {
		return -1
	}
	return spans[len(spans)-1].Start
}

// lastIndex returns the rune index of the last occurrence of sub lying
// entirely within runes[from:to], or -1.
func lastIndex(runes []rune, sub string, from, to int) int {
	pattern := []rune(sub)
	for i := to - len(pattern); i >= from; i-- {
		if matchAt(runes, pattern, i) {
			return i
		}
	}
	return -1
}

func matchAt(runes, pattern []rune, at int) bool {
	for j, r := range pattern {
		if runes[at+j] != r {
			return false
		}
	}
	return true
}
