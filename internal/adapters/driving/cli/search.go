package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/services"
)

// excerptRunes is how much of a passage the result list shows.
const excerptRunes = 300

var searchOpts struct {
	limit   int
	source  string
	subject string
	json    bool
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the library",
	Long: `Semantic search across every indexed book. Results are ranked by how close
their meaning is to the query and cite the book and chapter they come from.`,
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runSearch,
}

var adviseOpts struct {
	limit    int
	source   string
	subject  string
	bySource bool
}

var adviseCmd = &cobra.Command{
	Use:   "advise <question>",
	Short: "Answer a question from the library",
	Long: `Search for passages relevant to a question and condense them into key points
with citations. Use --by-source to see each book's answer separately.`,
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runAdvise,
}

var compareOpts struct {
	limit   int
	subject string
	sources []string
}

var compareCmd = &cobra.Command{
	Use:         "compare <topic>",
	Short:       "Compare what different books say about a topic",
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runCompare,
}

func init() {
	searchCmd.Flags().IntVarP(&searchOpts.limit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchOpts.source, "source", "s", "", "only search this book slug")
	searchCmd.Flags().StringVarP(&searchOpts.subject, "subject", "S", "", "only search this subject")
	searchCmd.Flags().BoolVar(&searchOpts.json, "json", false, "output results as JSON")

	adviseCmd.Flags().IntVarP(&adviseOpts.limit, "limit", "n", services.DefaultAdviceLimit, "passages to synthesize")
	adviseCmd.Flags().StringVarP(&adviseOpts.source, "source", "s", "", "only use this book slug")
	adviseCmd.Flags().StringVarP(&adviseOpts.subject, "subject", "S", "", "only use this subject")
	adviseCmd.Flags().BoolVar(&adviseOpts.bySource, "by-source", false, "answer separately for each book")

	compareCmd.Flags().IntVarP(&compareOpts.limit, "limit", "n", services.DefaultCompareLimit, "passages to compare")
	compareCmd.Flags().StringVarP(&compareOpts.subject, "subject", "S", "", "only compare books in this subject")
	compareCmd.Flags().StringSliceVarP(&compareOpts.sources, "source", "s", nil, "book slugs to compare (repeatable)")

	rootCmd.AddCommand(searchCmd, adviseCmd, compareCmd)
}

// bookFilter turns an optional slug flag into a search filter.
func bookFilter(slug string) []string {
	if slug == "" {
		return nil
	}
	return []string{slug}
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit:     searchOpts.limit,
		BookSlugs: bookFilter(searchOpts.source),
		Subject:   searchOpts.subject,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchOpts.json {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, query, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, query string, results []domain.SearchResult) error {
	cmd.Printf("Searching: %s\n", query)
	if searchOpts.subject != "" {
		cmd.Printf("Subject: %s\n", searchOpts.subject)
	}
	cmd.Println()

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i := range results {
		r := &results[i]
		cmd.Printf("%d. %s\n", i+1, r.Citation())
		cmd.Printf("   Score: %.3f\n", r.Score)
		cmd.Printf("   %s\n\n", truncateRunes(r.Content, excerptRunes))
	}
	return nil
}

func runAdvise(cmd *cobra.Command, args []string) error {
	question := args[0]

	if adviceService == nil {
		return errors.New("advice service not configured")
	}

	opts := domain.SearchOptions{
		Limit:     adviseOpts.limit,
		BookSlugs: bookFilter(adviseOpts.source),
		Subject:   adviseOpts.subject,
	}

	if adviseOpts.bySource {
		perspectives, err := adviceService.AdviseBySource(cmd.Context(), question, opts)
		if err != nil {
			return fmt.Errorf("advice failed: %w", err)
		}
		cmd.Println(services.FormatPerspectives(question, perspectives))
		return nil
	}

	advice, err := adviceService.Advise(cmd.Context(), question, opts)
	if err != nil {
		return fmt.Errorf("advice failed: %w", err)
	}
	cmd.Println(services.FormatAdvice(advice))
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	topic := args[0]

	if adviceService == nil {
		return errors.New("advice service not configured")
	}

	cmp, err := adviceService.Compare(cmd.Context(), topic, domain.SearchOptions{
		Limit:     compareOpts.limit,
		BookSlugs: compareOpts.sources,
		Subject:   compareOpts.subject,
	})
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if cmp.SourceCount == 0 {
		cmd.Printf("No passages found about '%s'.\n", topic)
		return nil
	}
	cmd.Println(services.FormatComparison(cmp))
	return nil
}

// truncateRunes shortens s to n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
