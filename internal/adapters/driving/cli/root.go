// Package cli provides the command-line interface for the archive
// backfill and search tooling.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/pagefill/internal/adapters/driven/config/file"
	"github.com/archivist-labs/pagefill/internal/adapters/driven/embedding/edge"
	"github.com/archivist-labs/pagefill/internal/adapters/driven/embedding/ollama"
	"github.com/archivist-labs/pagefill/internal/adapters/driven/ocr/tesseract"
	"github.com/archivist-labs/pagefill/internal/adapters/driven/snapshot"
	"github.com/archivist-labs/pagefill/internal/adapters/driven/storage/sqlite"
	"github.com/archivist-labs/pagefill/internal/adapters/driven/storage/supabase"
	"github.com/archivist-labs/pagefill/internal/core/ports/driven"
	"github.com/archivist-labs/pagefill/internal/core/services"
	"github.com/archivist-labs/pagefill/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services wired during initialization, shared by all commands.
var (
	configStore    *file.ConfigStore
	pageStore      driven.PageStore
	searchGateway  driven.SearchGateway
	embedder       driven.EmbeddingService
	backfiller     *services.Backfiller
	searchService  *services.SearchService
	pageService    *services.PageService
	catalogService *services.CatalogService
	localStore     *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "pagefill",
	Short: "Backfill and search tooling for scanned archive pages",
	Long: `Pagefill computes missing derived data (OCR text, embedding vectors)
for scanned archive pages and exposes hybrid search over the result.

The page table is the sole source of truth: a killed run loses nothing
and the next run re-discovers unfinished rows from the table state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.pagefill)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices builds the adapter stack from configuration. The live
// Supabase store is used when a project URL is configured; otherwise
// everything runs against the local SQLite archive.
func initServices() error {
	var err error
	configStore, err = file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if url := configStore.GetString("supabase.url"); url != "" {
		store, err := supabase.NewStore(supabase.Config{
			URL: url,
			Key: configStore.GetString("supabase.key"),
		})
		if err != nil {
			return fmt.Errorf("creating supabase store: %w", err)
		}
		pageStore = store
		searchGateway = store

		catalogService = services.NewCatalogService(snapshotSource(), store)
	} else {
		store, err := sqlite.NewStore(configStore.GetString("sqlite.data_dir"))
		if err != nil {
			return fmt.Errorf("creating sqlite store: %w", err)
		}
		localStore = store
		pageStore = store
		searchGateway = store

		catalogService = services.NewCatalogService(snapshotSource(), store)
	}

	embedder = buildEmbedder()
	ocrEngine := tesseract.NewEngine(tesseract.Config{
		Language: configStore.GetString("ocr.language"),
	})

	backfiller = services.NewBackfiller(pageStore, ocrEngine, embedder, services.BackfillConfig{
		ErrorBatchSize: configStore.GetInt("backfill.error_batch_size"),
		PollInterval:   time.Duration(configStore.GetInt("backfill.poll_interval_seconds")) * time.Second,
	})
	searchService = services.NewSearchService(searchGateway, embedder)
	pageService = services.NewPageService(pageStore)

	return nil
}

// buildEmbedder selects the embedding provider. The remote edge
// function is preferred when Supabase is configured so CLI queries use
// the same model that indexed the pages.
func buildEmbedder() driven.EmbeddingService {
	provider := configStore.GetString("embeddings.provider")
	if provider == "" {
		if configStore.GetString("supabase.url") != "" {
			provider = "edge"
		} else {
			provider = "ollama"
		}
	}

	switch provider {
	case "edge":
		return edge.NewEmbeddingService(edge.Config{
			BaseURL:    configStore.GetString("supabase.url"),
			Key:        configStore.GetString("supabase.key"),
			Model:      configStore.GetString("embeddings.model"),
			Dimensions: configStore.GetInt("embeddings.dimensions"),
		})
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    configStore.GetString("ollama.base_url"),
			Model:      configStore.GetString("embeddings.model"),
			Dimensions: configStore.GetInt("embeddings.dimensions"),
		})
	}
}

func snapshotSource() driven.CatalogSource {
	dir := configStore.GetString("snapshot.dir")
	if dir == "" {
		return nil
	}
	return snapshot.NewSource(dir)
}
