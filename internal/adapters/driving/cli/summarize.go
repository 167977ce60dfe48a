package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwise/internal/core/domain"
	"github.com/custodia-labs/bookwise/internal/core/services"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <slug> <chapter>",
	Short: "Summarize a chapter of a book",
	Long: `Summarize one chapter from its indexed passages. The summary provider is
configured with 'bookwise settings llm'; without a language model a rule-based
summary is produced.`,
	Args:        cobra.ExactArgs(2),
	Annotations: needsLibrary,
	RunE:        runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if summaryService == nil {
		return errors.New("summary service not configured")
	}

	slug := args[0]
	chapter, err := strconv.Atoi(args[1])
	if err != nil || chapter < 1 {
		return fmt.Errorf("invalid chapter number: %s", args[1])
	}

	cmd.Printf("Summarizing chapter %d of %s...\n\n", chapter, slug)
	summary, err := summaryService.SummariseChapter(cmd.Context(), slug, chapter)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("chapter %d of '%s' not found", chapter, slug)
	}
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	cmd.Println(services.FormatChapterSummary(summary))
	return nil
}
