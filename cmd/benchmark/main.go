package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"labkb/config"
	"labkb/internal/adapter/chunker"
	"labkb/internal/adapter/docstore"
	"labkb/internal/adapter/embedding"
	"labkb/internal/adapter/retriever"
	"labkb/internal/adapter/vectorindex"
	"labkb/internal/port"
)

// Retrieval quality probe: runs one query through the hybrid retriever and
// prints per-result similarity with a rough rating, so embedding models and
// thresholds can be compared against a real knowledge base.
func main() {
	kbDir := flag.String("dir", ".", "Knowledge base directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./kb -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, vector memo)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Hybrid merge (vector hits vs keyword hits)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*kbDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := docstore.NewBoltStore(cfg.StorePath(*kbDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening knowledge base: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	count, _ := st.Count()
	if count == 0 {
		fmt.Fprintln(os.Stderr, "Knowledge base is empty - run 'labkb add' or 'labkb import' first")
		os.Exit(1)
	}

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	manager := vectorindex.NewManager(
		st,
		st,
		chunker.NewTextChunker(cfg.Chunking.MaxSize, cfg.Chunking.Overlap),
		embedder,
		cfg.Retrieve.MinSimilarity,
		logger,
	)
	hybrid := retriever.NewHybridRetriever(manager, st,
		cfg.Retrieve.TitleWeight, cfg.Retrieve.ContentWeight, logger)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Printf("Threshold: %.2f\n\n", cfg.Retrieve.MinSimilarity)

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := hybrid.Retrieve(*query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results above the similarity threshold.")
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := strings.ReplaceAll(r.Content, "\n", " ")
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		totalScore += r.Similarity

		rating := "LOW"
		if r.Similarity > 0.7 {
			rating = "HIGH"
		} else if r.Similarity > 0.5 {
			rating = "GOOD"
		} else if r.Similarity > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s (%s, %s)\n", i+1, rating, r.Similarity, r.Title, r.DocID, r.Method)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Similarity)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need a better embedding model or threshold")
	}
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	if !cfg.Embedding.Enabled {
		return nil, fmt.Errorf("embeddings not enabled in config")
	}

	e := cfg.Embedding
	switch e.Provider {
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.BatchSize)
	case "jina":
		return embedding.NewJinaEmbedder(e.APIKeyEnv, e.Model, e.BatchSize)
	case "openai":
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BatchSize)
	default:
		if e.BaseURL == "" {
			return nil, fmt.Errorf("unsupported provider: %s", e.Provider)
		}
		return embedding.NewCompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, e.BatchSize)
	}
}
