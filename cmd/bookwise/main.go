// Command bookwise builds a searchable knowledge base from EPUB books.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/bookwise/internal/adapters/driven/ai"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/curation/yamlfile"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/epub"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/graph/jsonfile"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/bookwise/internal/adapters/driven/summariser/rulebased"
	"github.com/custodia-labs/bookwise/internal/adapters/driving/cli"
	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
	"github.com/custodia-labs/bookwise/internal/core/services"
	"github.com/custodia-labs/bookwise/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	configDir, err := file.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("locating home directory: %w", err)
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settingsService.SetDefaultStoragePath(filepath.Join(configDir, "library"))

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetBootstrap(func(ctx context.Context, storageRoot string) (*cli.Services, error) {
		return openLibrary(ctx, settingsService, prompts, storageRoot)
	})

	return cli.Execute()
}

// openLibrary opens the stores under the storage root and wires every service.
// An unusable embedding provider is reported as a warning so that listing,
// removal and browsing keep working.
func openLibrary(
	_ context.Context, settingsService *services.SettingsService, prompts driven.PromptStore, storageRoot string,
) (*cli.Services, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if storageRoot != "" {
		settings.Storage.Path = storageRoot
	}
	logger.Debug("library root: %s", settings.Storage.Path)

	store, err := sqlite.NewStore(settings.Storage.Path)
	if err != nil {
		return nil, err
	}
	graph, err := jsonfile.New(filepath.Join(store.Root(), "graph"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var (
		embedder   driven.EmbeddingService
		summariser driven.ChapterSummariser = rulebased.New()
		warnings   []string
		aiServices *ai.InitResult
	)
	aiServices, err = ai.Init(settings, prompts)
	if err != nil {
		warnings = append(warnings, err.Error())
	} else {
		embedder = aiServices.Embedding
		summariser = aiServices.Summariser
		warnings = append(warnings, aiServices.Warnings...)
	}

	metadata := store.MetadataStore()
	vectors := store.VectorIndex()
	topics := store.TopicRegistry()

	search := services.NewSearchService(embedder, vectors, metadata)

	return &cli.Services{
		Library:  services.NewLibraryService(metadata, vectors, topics, graph, embedder, epub.NewParser(), settings.Chunking),
		Search:   search,
		Advice:   services.NewAdviceService(search, settings.Synthesis),
		Curation: services.NewCurationService(yamlfile.NewRepository(), topics, graph),
		Explore:  services.NewExploreService(metadata, topics, graph),
		Summary:  services.NewSummaryService(vectors, metadata, summariser),
		Warnings: warnings,
		Close: func() error {
			if aiServices != nil {
				aiServices.Close()
			}
			return store.Close()
		},
	}, nil
}
