// Package cli provides the bookwise command line interface built on cobra.
// Commands talk to the core only through driving ports injected by main.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwise/internal/core/ports/driving"
	"github.com/custodia-labs/bookwise/internal/logger"
)

// version is set by main from build flags.
var version = "dev"

// annotationLibrary marks commands that need the library stores opened.
const annotationLibrary = "bookwise/library"

// needsLibrary is the annotation set for commands that read or write the library.
var needsLibrary = map[string]string{annotationLibrary: "true"}

// Services holds the driving ports backed by an opened library.
type Services struct {
	Library  driving.LibraryService
	Search   driving.SearchService
	Advice   driving.AdviceService
	Curation driving.CurationService
	Explore  driving.ExploreService
	Summary  driving.SummaryService

	// Warnings are non-fatal issues found while building the services.
	Warnings []string

	// Close releases the stores. May be nil.
	Close func() error
}

// Bootstrap opens the library under storageRoot, or under the configured
// root when storageRoot is empty, and builds every service once.
type Bootstrap func(ctx context.Context, storageRoot string) (*Services, error)

var (
	libraryService  driving.LibraryService
	searchService   driving.SearchService
	adviceService   driving.AdviceService
	curationService driving.CurationService
	exploreService  driving.ExploreService
	summaryService  driving.SummaryService
	settingsService driving.SettingsService

	bootstrap     Bootstrap
	closeServices func() error
)

// Global flags.
var (
	verbose     bool
	storageRoot string
)

var rootCmd = &cobra.Command{
	Use:   "bookwise",
	Short: "A searchable knowledge base built from your books",
	Long: `bookwise turns EPUB books into a local knowledge base.

Add books, then search them semantically, ask for advice synthesized across
books, compare what different authors say, and browse the topics and concepts
they share. The same library can be served to AI assistants over MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareCommand,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic output to stderr")
	rootCmd.PersistentFlags().StringVar(&storageRoot, "storage", "", "library storage root for this invocation")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service. Settings never need the library opened.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetBootstrap sets how library-backed services are built.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects library-backed services directly.
func SetServices(s *Services) {
	libraryService = s.Library
	searchService = s.Search
	adviceService = s.Advice
	curationService = s.Curation
	exploreService = s.Explore
	summaryService = s.Summary
	closeServices = s.Close
}

// Execute runs the root command and releases any opened stores.
func Execute() error {
	err := rootCmd.Execute()
	if closeServices != nil {
		if closeErr := closeServices(); closeErr != nil && err == nil {
			err = closeErr
		}
		closeServices = nil
	}
	return err
}

// prepareCommand applies global flags and opens the library for commands that need it.
func prepareCommand(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationLibrary] != "true" || bootstrap == nil || libraryService != nil {
		return nil
	}

	services, err := bootstrap(cmd.Context(), storageRoot)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	SetServices(services)

	for _, warning := range services.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
	}
	return nil
}
