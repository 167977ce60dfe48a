package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// Canned summaries.
const (
	NoInformationSummary = "No relevant information found in the knowledge base."
	NoKeyPointsSummary   = "Found relevant passages but could not extract key points."
)

const (
	// minSentenceRun is the number of characters a sentence must exceed
	// before . ! or ? ends it. Guards against splitting on abbreviations.
	minSentenceRun = 20

	// relatedThreshold decides agreement between sources. It is looser than
	// the dedup threshold because independent phrasing rarely scores higher.
	relatedThreshold = 0.5

	summaryPoints    = 3
	maxSummaryLength = 500

	maxComparisonItems  = 5
	differencePoints    = 2
	comparisonQuoteRune = 100
)

// Synthesizer condenses ranked search results into citeable advice with
// sentence extraction and fuzzy deduplication. It uses no language model
// and is deterministic.
type Synthesizer struct {
	threshold          float64
	maxPointsPerSource int
	maxTotalPoints     int
}

// NewSynthesizer creates a synthesizer. Zero settings take the defaults.
func NewSynthesizer(settings domain.SynthesisSettings) *Synthesizer {
	s := &Synthesizer{
		threshold:          settings.SimilarityThreshold,
		maxPointsPerSource: settings.MaxPointsPerSource,
		maxTotalPoints:     settings.MaxTotalPoints,
	}
	if s.threshold <= 0 {
		s.threshold = domain.DefaultSimilarityThreshold
	}
	if s.maxPointsPerSource <= 0 {
		s.maxPointsPerSource = domain.DefaultMaxPointsPerSource
	}
	if s.maxTotalPoints <= 0 {
		s.maxTotalPoints = domain.DefaultMaxTotalPoints
	}
	return s
}

// Synthesize condenses results, in their given order, into one answer.
func (s *Synthesizer) Synthesize(question string, results []domain.SearchResult) *domain.SynthesizedAdvice {
	if len(results) == 0 {
		return &domain.SynthesizedAdvice{
			Question:  question,
			Summary:   NoInformationSummary,
			KeyPoints: []string{},
			Citations: []string{},
		}
	}

	points, citations := s.extractKeyPoints(results, s.maxTotalPoints)

	summary := NoKeyPointsSummary
	if len(points) > 0 {
		summary = truncateWithEllipsis(strings.Join(points[:min(summaryPoints, len(points))], " "), maxSummaryLength)
	}

	return &domain.SynthesizedAdvice{
		Question:    question,
		Summary:     summary,
		KeyPoints:   points,
		Citations:   citations,
		SourceCount: countSources(results),
		ChunkCount:  len(results),
	}
}

// SynthesizeBySource returns one perspective per book, in the order each
// book first appears in results.
func (s *Synthesizer) SynthesizeBySource(_ string, results []domain.SearchResult) []domain.SourcePerspective {
	var order []string
	groups := make(map[string][]domain.SearchResult)
	for _, r := range results {
		if _, ok := groups[r.BookSlug]; !ok {
			order = append(order, r.BookSlug)
		}
		groups[r.BookSlug] = append(groups[r.BookSlug], r)
	}

	perspectives := make([]domain.SourcePerspective, 0, len(order))
	for _, slug := range order {
		group := groups[slug]
		points, citations := s.extractKeyPoints(group, s.maxPointsPerSource)
		perspectives = append(perspectives, domain.SourcePerspective{
			BookTitle:  group[0].BookTitle,
			BookAuthor: group[0].BookAuthor,
			BookSlug:   slug,
			KeyPoints:  points,
			Citations:  citations,
		})
	}
	return perspectives
}

// CompareSources contrasts what each book says about a topic. With fewer
// than two books there is nothing to compare and agreements and differences
// are empty.
func (s *Synthesizer) CompareSources(topic string, results []domain.SearchResult) *domain.SourceComparison {
	perspectives := s.SynthesizeBySource(topic, results)
	cmp := &domain.SourceComparison{
		Topic:        topic,
		Perspectives: perspectives,
		Agreements:   []string{},
		Differences:  []string{},
		SourceCount:  len(perspectives),
	}
	if len(perspectives) < 2 {
		return cmp
	}

	var pooled []string
	for _, p := range perspectives {
		pooled = append(pooled, p.KeyPoints...)
	}
	for i, point := range pooled {
		for _, other := range pooled[i+1:] {
			if similarity(point, other) <= relatedThreshold {
				continue
			}
			agreement := fmt.Sprintf("Multiple sources emphasize: %s...", truncateRunes(point, comparisonQuoteRune))
			if !s.isDuplicate(agreement, cmp.Agreements) {
				cmp.Agreements = append(cmp.Agreements, agreement)
			}
		}
	}

	for _, p := range perspectives {
		for _, point := range p.KeyPoints[:min(differencePoints, len(p.KeyPoints))] {
			if !isUnique(point, p.BookSlug, perspectives) {
				continue
			}
			diff := fmt.Sprintf("%s uniquely emphasizes: %s...", p.BookTitle, truncateRunes(point, comparisonQuoteRune))
			if !s.isDuplicate(diff, cmp.Differences) {
				cmp.Differences = append(cmp.Differences, diff)
			}
		}
	}

	if len(cmp.Agreements) > maxComparisonItems {
		cmp.Agreements = cmp.Agreements[:maxComparisonItems]
	}
	if len(cmp.Differences) > maxComparisonItems {
		cmp.Differences = cmp.Differences[:maxComparisonItems]
	}
	return cmp
}

// extractKeyPoints takes the first maxPointsPerSource sentences of each
// result, skipping near-duplicates, until maxPoints are collected.
// A citation is recorded the first time its result contributes a point.
func (s *Synthesizer) extractKeyPoints(results []domain.SearchResult, maxPoints int) ([]string, []string) {
	points := []string{}
	citations := []string{}
	seen := make(map[string]bool)

	for _, r := range results {
		sentences := splitSentences(r.Content)
		for _, sentence := range sentences[:min(s.maxPointsPerSource, len(sentences))] {
			if len(points) >= maxPoints {
				break
			}
			if s.isDuplicate(sentence, points) {
				continue
			}
			points = append(points, sentence)

			citation := r.Citation()
			if !seen[citation] {
				seen[citation] = true
				citations = append(citations, citation)
			}
		}
		if len(points) >= maxPoints {
			break
		}
	}
	return points, citations
}

func (s *Synthesizer) isDuplicate(candidate string, existing []string) bool {
	for _, e := range existing {
		if similarity(candidate, e) > s.threshold {
			return true
		}
	}
	return false
}

// isUnique reports whether no other book has a point related to point.
func isUnique(point, slug string, perspectives []domain.SourcePerspective) bool {
	for _, other := range perspectives {
		if other.BookSlug == slug {
			continue
		}
		for _, otherPoint := range other.KeyPoints {
			if similarity(point, otherPoint) > relatedThreshold {
				return false
			}
		}
	}
	return true
}

// splitSentences breaks text after . ! or ? once more than minSentenceRun
// characters have accumulated. A trailing fragment longer than the minimum
// is kept as a final sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current []rune

	for _, r := range text {
		current = append(current, r)
		if (r == '.' || r == '!' || r == '?') && len(current) > minSentenceRun {
			if sentence := strings.TrimSpace(string(current)); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current = current[:0]
		}
	}

	if sentence := strings.TrimSpace(string(current)); len([]rune(sentence)) > minSentenceRun {
		sentences = append(sentences, sentence)
	}
	return sentences
}

// similarity is the case-insensitive character sequence match ratio of a
// and b, in [0,1].
func similarity(a, b string) float64 {
	return difflib.NewMatcher(runeStrings(a), runeStrings(b)).Ratio()
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(unicode.ToLower(r)))
	}
	return out
}

func countSources(results []domain.SearchResult) int {
	slugs := make(map[string]struct{}, len(results))
	for _, r := range results {
		slugs[r.BookSlug] = struct{}{}
	}
	return len(slugs)
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// truncateWithEllipsis shortens s to at most n characters, ending in "...".
func truncateWithEllipsis(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return truncateRunes(s, n-3) + "..."
}
