package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/bryn/sage/internal/models"
	cfgPkg "github.com/bryn/sage/pkg/config"
	"github.com/bryn/sage/pkg/llm"
	"github.com/bryn/sage/pkg/loader"
	"github.com/bryn/sage/pkg/processor"
	"github.com/bryn/sage/pkg/store"
)

type Config struct {
	BaseURL    string
	DBUrl      string
	Model      string
	EmbedModel string
	TableName  string
	VectorDim  int
	BatchSize  int
	ChunkSize  int
	DocsURL    string
	Question   string
	Streaming  bool
	Keep       bool
}

func main() {
	config := parseFlags()

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.BaseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&config.DBUrl, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&config.Model, "model", "mistral", "LLM model for the grounded answer")
	flag.StringVar(&config.EmbedModel, "embed-model", "nomic-embed-text:latest", "Embedding model to use")
	flag.StringVar(&config.TableName, "table", "demo_documents", "PostgreSQL table name")
	flag.IntVar(&config.VectorDim, "vector-dim", 768, "Vector dimension")
	flag.IntVar(&config.BatchSize, "batch-size", 100, "Batch size for database operations")
	flag.IntVar(&config.ChunkSize, "chunk-size", 1000, "Size of text chunks")
	flag.StringVar(&config.DocsURL, "url", "", "Optional URL to load and index before the walkthrough")
	flag.StringVar(&config.Question, "question", "How do goroutines communicate with each other?", "Question for the grounded answer step")
	flag.BoolVar(&config.Streaming, "stream", false, "Stream the grounded answer")
	flag.BoolVar(&config.Keep, "keep", false, "Skip the final reset so documents survive the demo")
	flag.Parse()

	// Load config file if specified
	if cfg, err := cfgPkg.LoadConfig(configPath); err == nil {
		if config.BaseURL == "" {
			config.BaseURL = cfg.Embedder.BaseURL
		}
		if config.DBUrl == "" {
			config.DBUrl = cfg.Database.URL
		}
		if !config.Streaming {
			config.Streaming = cfg.UI.Streaming
		}
		if cfg.UI.Theme == "plain" {
			color.NoColor = true
		}
	}

	return config
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(config Config) error {
	ctx := context.Background()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.EmbedModel,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: config.DBUrl,
		TableName:  config.TableName,
		VectorDim:  config.VectorDim,
	}, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}
	defer vectorStore.Close()

	// Optionally index a URL first
	if config.DocsURL != "" {
		if err := indexURL(ctx, config, vectorStore); err != nil {
			return err
		}
	}

	// 1. Add documents
	docs := []models.Document{
		{
			ID:      "go-concurrency",
			Content: "Goroutines are lightweight threads managed by the Go runtime. Channels let goroutines communicate safely.",
			Metadata: map[string]interface{}{
				"topic":    "concurrency",
				"language": "go",
			},
		},
		{
			ID:      "go-errors",
			Content: "Errors in Go are values. Functions return an error as their last result and callers check it explicitly.",
			Metadata: map[string]interface{}{
				"topic":    "errors",
				"language": "go",
			},
		},
		{
			ID:      "py-asyncio",
			Content: "Python's asyncio provides an event loop for cooperative multitasking with async and await.",
			Metadata: map[string]interface{}{
				"topic":    "concurrency",
				"language": "python",
			},
		},
	}

	if err := vectorStore.Add(ctx, docs); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	color.Green("✓ Added %d documents", len(docs))

	count, err := vectorStore.Count(ctx)
	if err != nil {
		return err
	}
	color.Blue("Store now holds %d documents", count)

	// 2. Get by id
	doc, err := vectorStore.Get(ctx, "go-errors")
	if err != nil {
		return fmt.Errorf("failed to get document: %v", err)
	}
	color.Green("✓ Got %q: %s", doc.ID, doc.Content)

	// 3. Update
	doc.Content = "Errors in Go are values. Wrap them with fmt.Errorf and %w so callers can inspect the chain with errors.Is."
	doc.Metadata["revised"] = true
	if err := vectorStore.Update(ctx, doc); err != nil {
		return fmt.Errorf("failed to update document: %v", err)
	}
	color.Green("✓ Updated %q", doc.ID)

	// 4. Similarity search
	results, err := vectorStore.Search(ctx, config.Question, 2)
	if err != nil {
		return fmt.Errorf("search failed: %v", err)
	}
	color.Cyan("\nSearch results:")
	printResults(results)

	// 5. Grounded answer over the search results
	if err := answer(ctx, config, results); err != nil {
		return err
	}

	// 6. Filtered search
	filtered, err := vectorStore.SearchWithFilters(ctx, "concurrency model", 5,
		map[string]interface{}{"language": "python"})
	if err != nil {
		return fmt.Errorf("filtered search failed: %v", err)
	}
	color.Cyan("\nFiltered search results (language=python):")
	printResults(filtered)

	// 7. Delete
	if err := vectorStore.Delete(ctx, "py-asyncio"); err != nil {
		return fmt.Errorf("failed to delete document: %v", err)
	}
	color.Green("\n✓ Deleted %q", "py-asyncio")

	// 8. Reset
	if config.Keep {
		color.Blue("Skipping reset (-keep)")
		return nil
	}

	if err := vectorStore.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %v", err)
	}
	count, err = vectorStore.Count(ctx)
	if err != nil {
		return err
	}
	color.Green("✓ Reset store, %d documents remain", count)

	return nil
}

// answer asks the chat engine the demo question, grounded in the search
// results that were just printed.
func answer(ctx context.Context, config Config, results []models.ScoredDocument) error {
	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.Model,
		BaseURL:     config.BaseURL,
		Temperature: 0.7,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	color.Green("\nYou: %s", config.Question)

	if config.Streaming {
		stream, err := chatEngine.ChatStream(ctx, config.Question, results)
		if err != nil {
			return fmt.Errorf("chat failed: %v", err)
		}

		assistantPrompt("Assistant: ")
		for chunk := range stream {
			fmt.Print(chunk)
		}
		fmt.Print("\n")
		return nil
	}

	response, err := chatEngine.Chat(ctx, config.Question, results)
	if err != nil {
		return fmt.Errorf("chat failed: %v", err)
	}
	assistantPrompt("Assistant: %s\n", response)

	return nil
}

func indexURL(ctx context.Context, config Config, vectorStore *store.VectorStore) error {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	color.Blue("\nLoading %s", config.DocsURL)

	l := loader.New()
	docs, err := l.Load(ctx, config.DocsURL)
	if err != nil {
		return fmt.Errorf("failed to load URL: %v", err)
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize: config.ChunkSize,
	})
	chunks := proc.SplitAll(docs)
	color.Green("✓ Split into %d chunks", len(chunks))

	bar := getProgressBar(len(chunks), "Storing in vector database")
	for i := 0; i < len(chunks); i += config.BatchSize {
		end := i + config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := vectorStore.Add(ctx, chunks[i:end]); err != nil {
			return fmt.Errorf("failed to store batch: %v", err)
		}
		bar.Add(end - i)
	}
	bar.Finish()
	color.Green("\n✓ URL indexed")

	return nil
}

func printResults(results []models.ScoredDocument) {
	if len(results) == 0 {
		fmt.Println("  (no matches)")
		return
	}
	for _, r := range results {
		fmt.Printf("  %.3f %s: %s\n", r.Score, r.ID, r.Content)
	}
}
