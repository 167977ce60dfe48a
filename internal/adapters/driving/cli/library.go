package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwise/internal/core/domain"
)

// errLibraryNotConfigured is returned when a command runs without an opened library.
var errLibraryNotConfigured = errors.New("library service not configured")

var addOpts struct {
	slug          string
	subject       string
	title         string
	author        string
	chunkSize     int
	chunkOverlap  int
	extractTopics bool
	yes           bool
}

var addCmd = &cobra.Command{
	Use:   "add <file.epub>",
	Short: "Add a book to the library",
	Long: `Parse an EPUB file, split its chapters into overlapping chunks, embed them
and record the book. Adding a slug that already exists replaces its content.

Title and author are read from the book unless given. Without --yes you are
asked for the slug and subject; press Enter to accept the defaults.`,
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runAdd,
}

var removeForce bool

var removeCmd = &cobra.Command{
	Use:         "remove <slug>",
	Short:       "Remove a book from the library",
	Args:        cobra.ExactArgs(1),
	Annotations: needsLibrary,
	RunE:        runRemove,
}

var listSubject string

var listCmd = &cobra.Command{
	Use:         "list",
	Short:       "List books in the library",
	Annotations: needsLibrary,
	RunE:        runList,
}

var buildSource string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild indexes from the original book files",
	Long: `Re-ingest books from the files they were added from, keeping their slug,
title, author and subject. Use --source to rebuild a single book.`,
	Annotations: needsLibrary,
	RunE:        runBuild,
}

var subjectsCmd = &cobra.Command{
	Use:         "subjects",
	Short:       "List subjects with book and chunk counts",
	Annotations: needsLibrary,
	RunE:        runSubjects,
}

func init() {
	addCmd.Flags().StringVarP(&addOpts.slug, "slug", "s", "", "URL-friendly identifier (default: from title)")
	addCmd.Flags().StringVarP(&addOpts.subject, "subject", "S", "", "subject to file the book under (default: general)")
	addCmd.Flags().StringVarP(&addOpts.title, "title", "t", "", "book title (default: from the book)")
	addCmd.Flags().StringVarP(&addOpts.author, "author", "a", "", "author name (default: from the book)")
	addCmd.Flags().IntVar(&addOpts.chunkSize, "chunk-size", domain.DefaultChunkSize, "chunk size in characters")
	addCmd.Flags().IntVar(&addOpts.chunkOverlap, "chunk-overlap", domain.DefaultChunkOverlap,
		"overlap between chunks, 0 for none (default: configured overlap)")
	addCmd.Flags().BoolVarP(&addOpts.extractTopics, "extract-topics", "T", false, "extract topics from the content")
	addCmd.Flags().BoolVarP(&addOpts.yes, "yes", "y", false, "skip prompts and accept defaults")

	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "skip confirmation")
	listCmd.Flags().StringVarP(&listSubject, "subject", "S", "", "only books in this subject")
	buildCmd.Flags().StringVarP(&buildSource, "source", "s", "", "rebuild only this book slug")

	rootCmd.AddCommand(addCmd, removeCmd, listCmd, buildCmd, subjectsCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errLibraryNotConfigured
	}

	opts := domain.AddBookOptions{
		Slug:          addOpts.slug,
		Title:         addOpts.title,
		Author:        addOpts.author,
		Subject:       addOpts.subject,
		ChunkSize:     addOpts.chunkSize,
		ExtractTopics: addOpts.extractTopics,
	}
	if cmd.Flags().Changed("chunk-overlap") {
		overlap := addOpts.chunkOverlap
		opts.ChunkOverlap = &overlap
	}

	if !addOpts.yes {
		reader := bufio.NewReader(cmd.InOrStdin())
		if opts.Slug == "" {
			cmd.Print("Slug [from title]: ")
			opts.Slug = readLine(reader)
		}
		if opts.Subject == "" {
			cmd.Printf("Subject [%s]: ", domain.DefaultSubject)
			opts.Subject = readLine(reader)
		}
	}

	cmd.Println("Adding book...")
	result, err := libraryService.AddBook(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to add book: %w", err)
	}

	cmd.Printf("\n%s by %s\n", result.Book.Title, result.Book.Author)
	cmd.Printf("  Slug: %s\n", result.Book.Slug)
	cmd.Printf("  Subject: %s\n", result.Book.Subject)
	cmd.Printf("  Chapters: %d\n", result.ChapterCount)
	cmd.Printf("  Chunks: %d\n", result.ChunkCount)
	if opts.ExtractTopics {
		cmd.Printf("  Topics extracted: %d\n", result.TopicCount)
	}
	cmd.Printf("\nSuccessfully added: %s\n", result.Book.Title)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errLibraryNotConfigured
	}
	slug := args[0]

	book, err := libraryService.GetBook(cmd.Context(), slug)
	if err != nil {
		return fmt.Errorf("failed to get book: %w", err)
	}
	if book == nil {
		return fmt.Errorf("book not found: %s", slug)
	}

	if !removeForce {
		cmd.Printf("About to remove: %s by %s\n", book.Title, book.Author)
		cmd.Printf("This will delete %d chunks\n", book.ChunkCount)
		cmd.Print("Are you sure? [y/N]: ")
		if !confirmed(cmd.InOrStdin()) {
			cmd.Println("Cancelled")
			return nil
		}
	}

	result, err := libraryService.RemoveBook(cmd.Context(), slug)
	if err != nil {
		return fmt.Errorf("failed to remove book: %w", err)
	}

	cmd.Printf("Removed: %s (%d chunks deleted)\n", book.Title, result.VectorsRemoved)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errLibraryNotConfigured
	}

	books, err := libraryService.ListBooks(cmd.Context(), listSubject)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if len(books) == 0 {
		if listSubject != "" {
			cmd.Printf("No books in subject '%s'.\n", listSubject)
		} else {
			cmd.Println("No books in the library.")
		}
		cmd.Println("Use 'bookwise add <file.epub>' to add a book.")
		return nil
	}

	if listSubject != "" {
		cmd.Printf("Books in '%s':\n\n", listSubject)
	} else {
		cmd.Println("Books in Library:")
		cmd.Println()
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tTITLE\tAUTHOR\tSUBJECT\tCHUNKS\tADDED")
	for i := range books {
		b := &books[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			b.Slug, b.Title, b.Author, b.Subject, b.ChunkCount, b.AddedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errLibraryNotConfigured
	}

	if buildSource != "" {
		cmd.Printf("Rebuilding index for: %s\n", buildSource)
	} else {
		cmd.Println("Rebuilding all indexes")
	}

	results, err := libraryService.Rebuild(cmd.Context(), buildSource)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No books to rebuild.")
		return nil
	}
	for i := range results {
		cmd.Printf("  %s: %d chapters, %d chunks\n",
			results[i].Book.Slug, results[i].ChapterCount, results[i].ChunkCount)
	}
	cmd.Printf("Rebuilt %d book(s)\n", len(results))
	return nil
}

func runSubjects(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errLibraryNotConfigured
	}

	subjects, err := libraryService.Subjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}

	if len(subjects) == 0 {
		cmd.Println("No subjects found.")
		return nil
	}

	cmd.Println("Subjects:")
	cmd.Println()
	for _, s := range subjects {
		cmd.Printf("  %s - %d book(s), %d chunks\n", s.Subject, s.BookCount, s.ChunkCount)
	}
	return nil
}

// confirmed reads a yes/no answer; anything but y or yes is no.
func confirmed(in io.Reader) bool {
	answer := strings.ToLower(readLine(bufio.NewReader(in)))
	return answer == "y" || answer == "yes"
}
