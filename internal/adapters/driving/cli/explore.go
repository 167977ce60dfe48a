package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// conceptListLimit caps how many concepts the unfiltered listing prints.
const conceptListLimit = 20

var errExploreNotConfigured = errors.New("explore service not configured")

var topicsOpts struct {
	subject string
	book    string
	search  string
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics found across books",
	Long: `List the topics registered for the library. Topics are extracted when books
are added with --extract-topics and when curated content is imported.`,
	Annotations: needsLibrary,
	RunE:        runTopics,
}

var conceptsOpts struct {
	book         string
	related      string
	relationship string
	depth        int
}

var conceptsCmd = &cobra.Command{
	Use:   "concepts [query]",
	Short: "List or search concepts in the knowledge graph",
	Long: `Without arguments, list concepts in the knowledge graph. Give a query to
search concept names, --book to list one book's concepts, or --related to walk
the graph from a concept.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: needsLibrary,
	RunE:        runConcepts,
}

func init() {
	topicsCmd.Flags().StringVarP(&topicsOpts.subject, "subject", "S", "", "only topics in this subject")
	topicsCmd.Flags().StringVarP(&topicsOpts.book, "book", "b", "", "only topics found in this book slug")
	topicsCmd.Flags().StringVar(&topicsOpts.search, "search", "", "find topics whose name contains this text")

	conceptsCmd.Flags().StringVarP(&conceptsOpts.book, "book", "b", "", "only concepts from this book slug")
	conceptsCmd.Flags().StringVarP(&conceptsOpts.related, "related", "r", "", "show concepts related to this concept id")
	conceptsCmd.Flags().StringVar(&conceptsOpts.relationship, "relationship", "", "only follow this relationship type")
	conceptsCmd.Flags().IntVar(&conceptsOpts.depth, "depth", 1, "hops to walk with --related")

	rootCmd.AddCommand(topicsCmd, conceptsCmd)
}

func runTopics(cmd *cobra.Command, _ []string) error {
	if exploreService == nil {
		return errExploreNotConfigured
	}
	ctx := cmd.Context()

	var (
		topics []domain.Topic
		title  string
		err    error
	)
	switch {
	case topicsOpts.search != "":
		topics, err = exploreService.SearchTopics(ctx, topicsOpts.search)
		title = fmt.Sprintf("Topics matching '%s'", topicsOpts.search)
	case topicsOpts.book != "":
		topics, err = exploreService.Topics(ctx, "", topicsOpts.book)
		title = fmt.Sprintf("Topics in '%s'", topicsOpts.book)
	case topicsOpts.subject != "":
		topics, err = exploreService.Topics(ctx, topicsOpts.subject, "")
		title = fmt.Sprintf("Topics in '%s'", topicsOpts.subject)
	default:
		topics, err = exploreService.Topics(ctx, "", "")
		title = "All Topics"
	}
	if err != nil {
		return fmt.Errorf("failed to list topics: %w", err)
	}

	if len(topics) == 0 {
		cmd.Println("No topics found.")
		cmd.Println("Topics are extracted when you add books with --extract-topics.")
		return nil
	}

	cmd.Printf("%s:\n\n", title)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOPIC\tID\tSUBJECT\tBOOKS\tCHUNKS")
	for i := range topics {
		t := &topics[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", t.DisplayName, t.ID, t.Subject, t.BookCount, t.ChunkCount)
	}
	return w.Flush()
}

func runConcepts(cmd *cobra.Command, args []string) error {
	if exploreService == nil {
		return errExploreNotConfigured
	}
	ctx := cmd.Context()

	stats, err := exploreService.GraphStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read graph: %w", err)
	}
	if stats.Concepts == 0 {
		cmd.Println("No concepts in the knowledge graph.")
		cmd.Println("Concepts are added by 'bookwise curate import'.")
		return nil
	}

	switch {
	case conceptsOpts.related != "":
		return printRelatedConcepts(cmd)
	case len(args) == 1:
		concepts, err := exploreService.SearchConcepts(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to search concepts: %w", err)
		}
		if len(concepts) == 0 {
			cmd.Printf("No concepts matching '%s'.\n", args[0])
			return nil
		}
		cmd.Printf("Concepts matching '%s':\n\n", args[0])
		printConcepts(cmd, concepts)
	case conceptsOpts.book != "":
		concepts, err := exploreService.Concepts(ctx, conceptsOpts.book)
		if err != nil {
			return fmt.Errorf("failed to list concepts: %w", err)
		}
		if len(concepts) == 0 {
			cmd.Printf("No concepts found for book '%s'.\n", conceptsOpts.book)
			return nil
		}
		cmd.Printf("Concepts from '%s':\n\n", conceptsOpts.book)
		printConcepts(cmd, concepts)
	default:
		concepts, err := exploreService.Concepts(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to list concepts: %w", err)
		}
		cmd.Printf("Knowledge Graph: %d concepts, %d relationships\n\n", stats.Concepts, stats.Relationships)
		shown := concepts
		if len(shown) > conceptListLimit {
			shown = shown[:conceptListLimit]
		}
		printConcepts(cmd, shown)
		if len(concepts) > conceptListLimit {
			cmd.Printf("\n...and %d more. Pass a query to search.\n", len(concepts)-conceptListLimit)
		}
	}
	return nil
}

func printRelatedConcepts(cmd *cobra.Command) error {
	ctx := cmd.Context()

	var relationship domain.Relationship
	if conceptsOpts.relationship != "" {
		parsed, err := domain.ParseRelationship(conceptsOpts.relationship)
		if err != nil {
			return err
		}
		relationship = parsed
	}

	concept, err := exploreService.Concept(ctx, conceptsOpts.related)
	if err != nil {
		return fmt.Errorf("failed to get concept: %w", err)
	}
	if concept == nil {
		return fmt.Errorf("concept '%s' not found", conceptsOpts.related)
	}

	related, err := exploreService.RelatedConcepts(ctx, concept.ID, relationship, conceptsOpts.depth)
	if err != nil {
		return fmt.Errorf("failed to walk graph: %w", err)
	}

	cmd.Printf("Concepts related to '%s':\n\n", concept.DisplayName)
	if len(related) == 0 {
		cmd.Println("No related concepts found.")
		return nil
	}
	for i := range related {
		cmd.Printf("  %s (%s)\n", related[i].Concept.DisplayName, related[i].Label)
		if related[i].Concept.Description != "" {
			cmd.Printf("    %s\n", related[i].Concept.Description)
		}
	}
	return nil
}

func printConcepts(cmd *cobra.Command, concepts []domain.ConceptNode) {
	for i := range concepts {
		c := &concepts[i]
		cmd.Printf("  %s [%s]\n", c.DisplayName, c.ID)
		if c.Description != "" {
			cmd.Printf("    %s\n", c.Description)
		}
		if c.SourceBook != "" {
			cmd.Printf("    Source: %s\n", c.SourceBook)
		}
	}
}
