package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/services"
)

func sampleSearchResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			ChunkID: "atomic-habits_1_0", BookSlug: "atomic-habits", BookTitle: "Atomic Habits",
			ChapterNumber: 1, ChapterTitle: "The Surprising Power", Content: "Habits compound over time.", Score: 0.912,
		},
	}
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_Flags(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)

	assert.NotNil(t, searchCmd.Flags().Lookup("json"))
	assert.Equal(t, "S", searchCmd.Flags().Lookup("subject").Shorthand)
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.results = sampleSearchResults()

	out, err := execute(t, "", "search", "habits", "-n", "3", "-s", "atomic-habits", "-S", "productivity")

	require.NoError(t, err)
	assert.Equal(t, "habits", ts.search.gotQuery)
	assert.Equal(t, domain.SearchOptions{Limit: 3, BookSlugs: []string{"atomic-habits"}, Subject: "productivity"}, ts.search.gotOpts)
	assert.Contains(t, out, "Searching: habits")
	assert.Contains(t, out, "Subject: productivity")
	assert.Contains(t, out, `1. [Atomic Habits, Ch. 1: "The Surprising Power"]`)
	assert.Contains(t, out, "Score: 0.912")
	assert.Contains(t, out, "Habits compound over time.")
}

func TestSearchCmd_NoResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "search", "nothing")

	require.NoError(t, err)
	assert.Nil(t, ts.search.gotOpts.BookSlugs)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.results = sampleSearchResults()

	out, err := execute(t, "", "search", "habits", "--json")

	require.NoError(t, err)
	var decoded []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "atomic-habits_1_0", decoded[0].ChunkID)
}

func TestSearchCmd_JSONEmptyIsArray(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "search", "habits", "--json")

	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestSearchCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.err = domain.ErrEmbeddingUnavailable

	_, err := execute(t, "", "search", "habits")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSearchCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	_, err := execute(t, "", "search", "habits")

	assert.EqualError(t, err, "search service not configured")
}

func TestAdviseCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.advice.advice = &domain.SynthesizedAdvice{
		Question: "how to focus", Summary: "Block time.", KeyPoints: []string{"Schedule deep work"},
		SourceCount: 1, ChunkCount: 2,
	}

	out, err := execute(t, "", "advise", "how to focus")

	require.NoError(t, err)
	assert.Equal(t, services.DefaultAdviceLimit, ts.advice.gotOpts.Limit)
	assert.Contains(t, out, "Question: how to focus")
	assert.Contains(t, out, "Schedule deep work")
}

func TestAdviseCmd_BySource(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.advice.perspectives = []domain.SourcePerspective{
		{BookTitle: "Deep Work", BookAuthor: "Cal Newport", KeyPoints: []string{"Embrace boredom"}},
	}

	out, err := execute(t, "", "advise", "focus", "--by-source", "-n", "4")

	require.NoError(t, err)
	assert.Equal(t, 4, ts.advice.gotOpts.Limit)
	assert.Contains(t, out, "Deep Work by Cal Newport:")
}

func TestAdviseCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.advice.err = errors.New("boom")

	_, err := execute(t, "", "advise", "x")

	assert.EqualError(t, err, "advice failed: boom")
}

func TestCompareCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.advice.comparison = &domain.SourceComparison{
		Topic: "habits", SourceCount: 2,
		Perspectives: []domain.SourcePerspective{
			{BookTitle: "Atomic Habits", BookAuthor: "James Clear", KeyPoints: []string{"Make it obvious"}},
			{BookTitle: "The Power of Habit", BookAuthor: "Charles Duhigg", KeyPoints: []string{"Cue routine reward"}},
		},
	}

	out, err := execute(t, "", "compare", "habits", "-s", "atomic-habits", "-s", "power-of-habit")

	require.NoError(t, err)
	assert.Equal(t, []string{"atomic-habits", "power-of-habit"}, ts.advice.gotOpts.BookSlugs)
	assert.Equal(t, services.DefaultCompareLimit, ts.advice.gotOpts.Limit)
	assert.Contains(t, out, "Topic: habits")
	assert.Contains(t, out, "Comparing 2 source(s):")
}

func TestCompareCmd_NoPassages(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.advice.comparison = &domain.SourceComparison{Topic: "tides"}

	out, err := execute(t, "", "compare", "tides")

	require.NoError(t, err)
	assert.Contains(t, out, "No passages found about 'tides'.")
	assert.Empty(t, ts.advice.gotOpts.BookSlugs)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab...", truncateRunes("abcdef", 2))
	assert.Equal(t, "日本...", truncateRunes("日本語です", 2))
}

func TestBookFilter(t *testing.T) {
	assert.Nil(t, bookFilter(""))
	assert.Equal(t, []string{"a"}, bookFilter("a"))
}
