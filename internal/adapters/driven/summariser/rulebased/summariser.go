// Package rulebased summarises chapters without a language model by
// picking sentences out of the chapter text.
package rulebased

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Ensure Summariser implements the interface.
var _ driven.ChapterSummariser = (*Summariser)(nil)

// ProviderName is reported on every summary this package produces.
const ProviderName = string(domain.AIProviderRuleBased)

const (
	// minSentenceLen is the length a sentence must exceed before a
	// terminator ends it. Shorter runs absorb abbreviations like "Dr.".
	minSentenceLen = 30

	summarySentences = 5
	fallbackLen      = 500
	maxSummaryLen    = 1000

	maxKeyPoints   = 5
	minKeyPointLen = 50
	maxKeyPointLen = 200
)

// Summariser extracts the opening sentences as a summary and medium-length
// sentences as key points.
type Summariser struct{}

// New creates a rule-based summariser.
func New() *Summariser {
	return &Summariser{}
}

// Provider returns "rule-based".
func (s *Summariser) Provider() string {
	return ProviderName
}

// Summarise condenses the chapter content.
func (s *Summariser) Summarise(ctx context.Context, chapter domain.ChapterContent) (*domain.ChapterSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, keyPoints := Extract(chapter.Content)

	return &domain.ChapterSummary{
		BookSlug:      chapter.BookSlug,
		ChapterNumber: chapter.ChapterNumber,
		ChapterTitle:  chapter.ChapterTitle,
		Summary:       summary,
		KeyPoints:     keyPoints,
		ChunkCount:    chapter.ChunkCount,
		Provider:      ProviderName,
	}, nil
}

// Extract returns a summary and key points for content.
// The summary is the first five sentences, or the first 500 characters when
// no sentence was found, capped at 1000 characters.
func Extract(content string) (string, []string) {
	sentences := splitSentences(content)

	var summary string
	if len(sentences) > 0 {
		n := min(len(sentences), summarySentences)
		summary = strings.Join(sentences[:n], " ")
	} else {
		summary = truncateRunes(content, fallbackLen)
	}
	if utf8.RuneCountInString(summary) > maxSummaryLen {
		summary = truncateRunes(summary, maxSummaryLen-3) + "..."
	}

	keyPoints := make([]string, 0, maxKeyPoints)
	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)
		if n > minKeyPointLen && n < maxKeyPointLen {
			keyPoints = append(keyPoints, sentence)
			if len(keyPoints) == maxKeyPoints {
				break
			}
		}
	}

	return summary, keyPoints
}

// splitSentences cuts text after '.', '!' or '?' once the pending run is
// longer than minSentenceLen. Text after the last cut is dropped.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	length := 0

	for _, r := range text {
		current.WriteRune(r)
		length++
		if (r == '.' || r == '!' || r == '?') && length > minSentenceLen {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
			length = 0
		}
	}

	return sentences
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
