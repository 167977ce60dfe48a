package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// Topic extractor defaults.
const (
	DefaultMinWordLength  = 3
	DefaultMinOccurrences = 2
	DefaultMaxTopics      = 10
)

// Relevance is count / (total words * factor), capped at 1.
// Bigrams use a smaller factor so they score higher than single words.
const (
	wordRelevanceFactor   = 0.1
	bigramRelevanceFactor = 0.05
)

var wordPattern = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:-[a-z0-9]+)*\b`)

// TopicExtractor finds recurring keywords and two-word phrases in text.
type TopicExtractor struct {
	minWordLength  int
	minOccurrences int
	maxTopics      int
	stopWords      map[string]struct{}
}

// TopicExtractorOption configures a TopicExtractor.
type TopicExtractorOption func(*TopicExtractor)

// WithMinWordLength sets the shortest word considered.
func WithMinWordLength(n int) TopicExtractorOption {
	return func(e *TopicExtractor) {
		if n > 0 {
			e.minWordLength = n
		}
	}
}

// WithMinOccurrences sets how often a word or phrase must appear.
func WithMinOccurrences(n int) TopicExtractorOption {
	return func(e *TopicExtractor) {
		if n > 0 {
			e.minOccurrences = n
		}
	}
}

// WithMaxTopics caps the topics returned per text.
func WithMaxTopics(n int) TopicExtractorOption {
	return func(e *TopicExtractor) {
		if n > 0 {
			e.maxTopics = n
		}
	}
}

// WithStopWords adds words to ignore.
func WithStopWords(words ...string) TopicExtractorOption {
	return func(e *TopicExtractor) {
		for _, w := range words {
			e.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// NewTopicExtractor creates a topic extractor.
func NewTopicExtractor(opts ...TopicExtractorOption) *TopicExtractor {
	e := &TopicExtractor{
		minWordLength:  DefaultMinWordLength,
		minOccurrences: DefaultMinOccurrences,
		maxTopics:      DefaultMaxTopics,
		stopWords:      make(map[string]struct{}, len(stopWords)),
	}
	for _, w := range stopWords {
		e.stopWords[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the most relevant topics in text, by relevance descending.
func (e *TopicExtractor) Extract(text string) []domain.ExtractedTopic {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	wordCounts := make(map[string]int)
	total := 0
	for _, w := range words {
		if len([]rune(w)) < e.minWordLength || e.isStopWord(w) {
			continue
		}
		wordCounts[w]++
		total++
	}
	if total == 0 {
		total = 1
	}

	bigramCounts := make(map[string]int)
	for i := 0; i+1 < len(words); i++ {
		if e.isStopWord(words[i]) || e.isStopWord(words[i+1]) {
			continue
		}
		bigramCounts[words[i]+" "+words[i+1]]++
	}

	scores := make(map[string]domain.ExtractedTopic)
	addTopics := func(counts map[string]int, factor float64) {
		for phrase, count := range counts {
			if count < e.minOccurrences {
				continue
			}
			relevance := min(float64(count)/(float64(total)*factor), 1.0)
			id := Slugify(phrase)
			scores[id] = domain.ExtractedTopic{
				ID:          id,
				DisplayName: titleCase(phrase),
				Relevance:   relevance,
				Count:       count,
			}
		}
	}
	addTopics(wordCounts, wordRelevanceFactor)
	addTopics(bigramCounts, bigramRelevanceFactor)

	topics := make([]domain.ExtractedTopic, 0, len(scores))
	for _, t := range scores {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Relevance != topics[j].Relevance {
			return topics[i].Relevance > topics[j].Relevance
		}
		return topics[i].ID < topics[j].ID
	})

	if len(topics) > e.maxTopics {
		topics = topics[:e.maxTopics]
	}
	return topics
}

// ExtractFromChunks runs Extract on every chunk and groups the hits by topic id.
// Chunks keep their input order within each topic.
func (e *TopicExtractor) ExtractFromChunks(chunks []domain.Chunk) map[string][]domain.ChunkRelevance {
	found := make(map[string][]domain.ChunkRelevance)
	for _, c := range chunks {
		for _, topic := range e.Extract(c.Content) {
			found[topic.ID] = append(found[topic.ID], domain.ChunkRelevance{
				ChunkID:   c.ID,
				Relevance: topic.Relevance,
			})
		}
	}
	return found
}

func (e *TopicExtractor) isStopWord(w string) bool {
	_, ok := e.stopWords[w]
	return ok
}

// stopWords are common English words and book furniture never worth a topic.
var stopWords = []string{
	"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
	"be", "have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "may", "might", "must", "shall", "can", "need",
	"dare", "ought", "used", "that", "this", "these", "those", "which",
	"who", "whom", "whose", "what", "where", "when", "why", "how",
	"all", "each", "every", "both", "few", "more", "most", "other",
	"some", "such", "no", "nor", "not", "only", "own", "same", "so",
	"than", "too", "very", "just", "also", "now", "then", "here",
	"there", "if", "because", "while", "although", "though", "after",
	"before", "until", "unless", "since", "during", "about", "into",
	"through", "between", "under", "above", "up", "down", "out", "off",
	"over", "again", "further", "once", "always", "never", "sometimes",
	"often", "usually", "really", "quite", "rather", "almost", "already",
	"still", "even", "back", "well", "much", "many", "any", "another",
	"like", "get", "got", "go", "going", "make", "made", "say", "said",
	"see", "seen", "come", "came", "take", "took", "know", "knew",
	"think", "thought", "want", "wanted", "give", "gave", "tell", "told",
	"find", "found", "feel", "felt", "try", "tried", "leave", "left",
	"put", "keep", "kept", "let", "begin", "began", "seem", "seemed",
	"help", "helped", "show", "showed", "hear", "heard", "play", "played",
	"run", "ran", "move", "moved", "live", "lived", "believe", "believed",
	"hold", "held", "bring", "brought", "happen", "happened", "write",
	"wrote", "provide", "provided", "sit", "sat", "stand", "stood",
	"lose", "lost", "pay", "paid", "meet", "met", "include", "included",
	"continue", "continued", "set", "learn", "learned", "change", "changed",
	"lead", "led", "understand", "understood", "watch", "watched",
	"follow", "followed", "stop", "stopped", "create", "created",
	"speak", "spoke", "read", "allow", "allowed", "add", "added",
	"spend", "spent", "grow", "grew", "open", "opened", "walk", "walked",
	"win", "won", "offer", "offered", "remember", "remembered",
	"love", "loved", "consider", "considered", "appear", "appeared",
	"buy", "bought", "wait", "waited", "serve", "served", "die", "died",
	"send", "sent", "expect", "expected", "build", "built", "stay", "stayed",
	"fall", "fell", "cut", "reach", "reached", "kill", "killed",
	"remain", "remained", "suggest", "suggested", "raise", "raised",
	"pass", "passed", "sell", "sold", "require", "required", "report",
	"reported", "decide", "decided", "pull", "pulled", "its", "it",
	"you", "your", "yours", "he", "him", "his", "she", "her", "hers",
	"we", "us", "our", "ours", "they", "them", "their", "theirs",
	"i", "me", "my", "mine", "myself", "yourself", "himself", "herself",
	"itself", "ourselves", "themselves", "one", "two", "three", "first",
	"second", "new", "old", "good", "bad", "great", "little", "big",
	"small", "long", "short", "high", "low", "young", "right",
	"important", "different", "large", "next", "early", "late", "possible",
	"able", "sure", "free", "clear", "full", "kind", "nice", "whole",
	"special", "real", "best", "better", "hard", "last", "main", "others",
	"however", "therefore", "thus", "hence", "meanwhile", "instead",
	"don", "doesn", "didn", "wouldn", "couldn", "shouldn",
	"isn", "aren", "wasn", "weren", "hasn", "haven", "hadn", "ll", "ve",
	"re", "s", "t", "d", "m", "chapter", "book", "page", "section",
}
