// Package llm summarises chapters by prompting a language model and parsing
// its SUMMARY / KEY POINTS answer.
package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Ensure Summariser implements the interface.
var _ driven.ChapterSummariser = (*Summariser)(nil)

// maxTokens bounds the answer; a summary plus five points fits comfortably.
const maxTokens = 2048

// defaultChapterPrompt is the fallback prompt when no PromptStore is configured.
const defaultChapterPrompt = `Summarize the following chapter from the book "%s". Provide:
1. A concise summary (2-3 paragraphs)
2. 3-5 key points or takeaways

Chapter: %s

Content:
%s

Format your response as:
SUMMARY:
[Your summary here]

KEY POINTS:
- [Point 1]
- [Point 2]
- [Point 3]`

// Summariser asks an LLM for chapter summaries.
type Summariser struct {
	llm         driven.LLMService
	provider    string
	promptStore driven.PromptStore
}

// New creates a summariser that reports provider on its summaries.
// promptStore may be nil, in which case the built-in prompt is used.
func New(llm driven.LLMService, provider domain.AIProvider, promptStore driven.PromptStore) *Summariser {
	return &Summariser{
		llm:         llm,
		provider:    provider.String(),
		promptStore: promptStore,
	}
}

// Provider returns the LLM provider name.
func (s *Summariser) Provider() string {
	return s.provider
}

// Summarise prompts the model with the chapter and parses its answer.
func (s *Summariser) Summarise(ctx context.Context, chapter domain.ChapterContent) (*domain.ChapterSummary, error) {
	template := s.loadPrompt(driven.PromptChapterSummary, defaultChapterPrompt)
	prompt := fmt.Sprintf(template, chapter.BookTitle, chapter.ChapterTitle, chapter.Content)

	response, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("%s summary: %w", s.provider, err)
	}

	summary, keyPoints := ParseResponse(response)

	return &domain.ChapterSummary{
		BookSlug:      chapter.BookSlug,
		ChapterNumber: chapter.ChapterNumber,
		ChapterTitle:  chapter.ChapterTitle,
		Summary:       summary,
		KeyPoints:     keyPoints,
		ChunkCount:    chapter.ChunkCount,
		Provider:      s.provider,
	}, nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *Summariser) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil || strings.Count(prompt, "%s") != 3 {
		return fallback
	}
	return prompt
}

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionKeyPoints
)

// ParseResponse splits a model answer into the summary paragraph and key points.
// Summary lines are joined with spaces. Key points may be "-", "*", "1." or "1)"
// bullets; an unbulleted line continues the previous point.
func ParseResponse(response string) (string, []string) {
	var summary string
	var keyPoints []string
	current := sectionNone

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "SUMMARY:"):
			current = sectionSummary
			if rest := strings.TrimSpace(line[len("SUMMARY:"):]); rest != "" {
				summary = rest
			}
		case strings.HasPrefix(upper, "KEY POINTS:"):
			current = sectionKeyPoints
		case line == "":
		case current == sectionSummary:
			if summary != "" {
				summary += " " + line
			} else {
				summary = line
			}
		case current == sectionKeyPoints:
			keyPoints = appendPoint(keyPoints, line)
		}
	}

	return summary, keyPoints
}

func appendPoint(points []string, line string) []string {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return append(points, line[2:])
	}
	if isNumbered(line) {
		if _, rest, ok := strings.Cut(line, " "); ok {
			return append(points, rest)
		}
		return append(points, line)
	}
	if len(points) > 0 {
		points[len(points)-1] += " " + line
		return points
	}
	return append(points, line)
}

// isNumbered matches "1. " or "1) " style markers in the first four bytes.
func isNumbered(line string) bool {
	if !unicode.IsDigit(rune(line[0])) {
		return false
	}
	head := line[:min(len(line), 4)]
	return strings.Contains(head, ". ") || strings.Contains(head, ") ")
}
