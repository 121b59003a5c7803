// Package cli wires the cobra command surface for docqa.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/lessonforge/docqa/internal/adapters/driven/config/file"
	"github.com/lessonforge/docqa/internal/adapters/driven/generate/ollama"
	"github.com/lessonforge/docqa/internal/adapters/driven/storage/memory"
	"github.com/lessonforge/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/lessonforge/docqa/internal/chunker"
	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/core/ports/driven"
	"github.com/lessonforge/docqa/internal/core/services"
	"github.com/lessonforge/docqa/internal/logger"
	"github.com/lessonforge/docqa/internal/search"
)

var (
	flagVerbose   bool
	flagDataDir   string
	flagConfig    string
	flagInMemory  bool
	flagOllamaURL string
	flagModel     string

	cfg           domain.Config
	docStore      driven.DocumentStore
	generator     driven.Generator
	ingestService *services.IngestService
	queryService  *services.QueryService
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document question-answering over locally indexed documents",
	Long: `docqa ingests documents, splits them into retrievable passages,
and answers questions by ranking passages with BM25 and assembling a
token-budgeted context for a downstream language model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		var err error
		cfg, err = configfile.Load(flagConfig)
		if err != nil {
			return err
		}

		// The backend is an explicit choice, never inferred from the
		// environment.
		if flagInMemory {
			docStore = memory.NewDocumentStore(cfg.MaxDocuments)
		} else {
			docStore, err = sqlite.NewStore(flagDataDir, cfg.MaxDocuments)
			if err != nil {
				return fmt.Errorf("opening document store: %w", err)
			}
		}

		// Answer generation stays optional: without a configured
		// backend, ask prints the assembled context instead.
		if flagOllamaURL != "" {
			generator = ollama.NewGenerator(ollama.Config{BaseURL: flagOllamaURL, Model: flagModel})
		}

		engine := search.NewEngine(cfg)
		ingestService = services.NewIngestService(docStore, chunker.New(cfg), engine, nil, cfg)
		queryService = services.NewQueryService(docStore, engine, generator)
		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if docStore != nil {
			return docStore.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose pipeline logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.docqa/data)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a TOML configuration file")
	rootCmd.PersistentFlags().BoolVar(&flagInMemory, "memory", false, "use the volatile in-memory store")
	rootCmd.PersistentFlags().StringVar(&flagOllamaURL, "ollama-url", "", "Ollama base URL for answer generation (empty: disabled)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "generation model name (default llama3.2)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
