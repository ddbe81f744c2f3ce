package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"labkb/config"
	"labkb/internal/adapter/cache"
	"labkb/internal/adapter/chunker"
	"labkb/internal/adapter/docstore"
	"labkb/internal/adapter/embedding"
	"labkb/internal/adapter/llm"
	"labkb/internal/adapter/retriever"
	"labkb/internal/adapter/vectorindex"
	"labkb/internal/port"
	"labkb/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "labkb",
	Short: "Lab knowledge base - store notes and answer questions over them",
	Long: `labkb is a personal knowledge-base tool. It stores technical summaries
and meeting notes, retrieves the most relevant passages for a question using
hybrid vector and keyword search, and generates grounded answers through an
OpenAI-compatible language model.

Example usage:
  labkb add note.md                  # Store a document
  labkb import ./notes               # Bulk-import a directory
  labkb search -q "docker deploy"    # Find relevant passages
  labkb ask -q "how do we deploy?"   # Get a generated answer`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = newLogger(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./labkb.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "knowledge base directory (default is current directory)")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}

// openStore opens the bolt-backed knowledge base under the root directory.
func openStore() (*docstore.BoltStore, error) {
	if err := config.EnsureDataDir(rootDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := docstore.NewBoltStore(cfg.StorePath(rootDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return st, nil
}

// newEmbedder builds the configured embedding provider. A disabled or
// unavailable provider yields nil; retrieval then degrades to keyword
// search.
func newEmbedder() port.Embedder {
	if !cfg.Embedding.Enabled {
		return nil
	}

	e := cfg.Embedding
	var (
		emb port.Embedder
		err error
	)
	switch e.Provider {
	case "mock":
		emb = embedding.NewMockEmbedder(e.Dimension)
	case "ollama":
		emb, err = embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.BatchSize)
	case "jina":
		emb, err = embedding.NewJinaEmbedder(e.APIKeyEnv, e.Model, e.BatchSize)
	default:
		if e.BaseURL != "" {
			emb, err = embedding.NewCompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, e.BatchSize)
		} else {
			emb, err = embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BatchSize)
		}
	}
	if err != nil {
		logger.Warn("embedding provider unavailable, using keyword search only", zap.Error(err))
		return nil
	}
	return emb
}

// newIndexManager wires the lazily-built semantic index over the store.
func newIndexManager(st *docstore.BoltStore) *vectorindex.Manager {
	return vectorindex.NewManager(
		st,
		st,
		chunker.NewTextChunker(cfg.Chunking.MaxSize, cfg.Chunking.Overlap),
		newEmbedder(),
		cfg.Retrieve.MinSimilarity,
		logger,
	)
}

func newHybridRetriever(manager *vectorindex.Manager, st *docstore.BoltStore) *retriever.HybridRetriever {
	return retriever.NewHybridRetriever(
		manager,
		st,
		cfg.Retrieve.TitleWeight,
		cfg.Retrieve.ContentWeight,
		logger,
	)
}

// newAnswerUseCase wires the full question-answering pipeline.
func newAnswerUseCase(st *docstore.BoltStore) *usecase.AnswerUseCase {
	manager := newIndexManager(st)
	hybrid := newHybridRetriever(manager, st)

	providers := make(map[string]llm.Provider, len(cfg.Generation.Providers))
	for name, p := range cfg.Generation.Providers {
		providers[name] = llm.Provider{
			BaseURL:   p.BaseURL,
			Model:     p.Model,
			APIKeyEnv: p.APIKeyEnv,
		}
	}
	client := llm.NewClient(providers, llm.Options{
		MaxRetries:     cfg.Generation.MaxRetries,
		ConnectTimeout: cfg.Generation.ConnectTimeout,
		ReadTimeout:    cfg.Generation.ReadTimeout,
		RequestsPerMin: cfg.Generation.RequestsPerMin,
	}, logger)

	return usecase.NewAnswerUseCase(
		hybrid,
		manager,
		st,
		chunker.NewTextChunker(cfg.Chunking.MaxSize, cfg.Chunking.Overlap),
		client,
		cache.NewQueryCache(cfg.Cache.MaxEntries),
		cfg.Retrieve.TopK,
		logger,
	)
}

// newIngestUseCase wires document lifecycle operations.
func newIngestUseCase(st *docstore.BoltStore) *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(st, newIndexManager(st), logger)
}
