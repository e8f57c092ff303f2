package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryn/sage/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	SystemTemplate  string
	ContextTemplate string
	BaseURL         string // Ollama server URL
}

// ChatEngine is an engine that uses an LLM to generate chat responses
// grounded in retrieved documents.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	// Validate and set default values for config fields if necessary
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature <= 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a helpful assistant with access to the following documentation. Answer questions based on this context."
	}
	if config.ContextTemplate == "" {
		config.ContextTemplate = "\nRelevant documents:\n%s\n\nQuestion: %s"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// Chat generates a response based on the query and context documents.
func (ce *ChatEngine) Chat(ctx context.Context, query string, docs []models.ScoredDocument) (string, error) {
	content := ce.buildMessages(query, docs)

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature))
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Content + ce.formatSources(docs), nil
}

// ChatStream generates a stream of response chunks for the query and
// context documents. The channel is closed when generation completes.
func (ce *ChatEngine) ChatStream(ctx context.Context, query string, docs []models.ScoredDocument) (<-chan string, error) {
	content := ce.buildMessages(query, docs)

	resultChan := make(chan string)

	go func() {
		defer close(resultChan)

		_, err := ce.llm.GenerateContent(ctx, content,
			llms.WithMaxTokens(ce.config.MaxTokens),
			llms.WithTemperature(ce.config.Temperature),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case resultChan <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}))
		if err != nil {
			resultChan <- fmt.Sprintf("Error: %v", err)
			return
		}

		if sources := ce.formatSources(docs); sources != "" {
			resultChan <- sources
		}
	}()

	return resultChan, nil
}

func (ce *ChatEngine) buildMessages(query string, docs []models.ScoredDocument) []llms.MessageContent {
	var contextBuilder strings.Builder
	for _, doc := range docs {
		contextBuilder.WriteString(fmt.Sprintf("Source: %s\n%s\n\n", sourceOf(doc.Document), doc.Content))
	}

	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf(ce.config.ContextTemplate, contextBuilder.String(), query)),
	}
}

// formatSources formats the unique document sources for citation.
func (ce *ChatEngine) formatSources(docs []models.ScoredDocument) string {
	var sources []string
	seen := make(map[string]bool)

	for _, doc := range docs {
		src := sourceOf(doc.Document)
		if src != "" && !seen[src] {
			sources = append(sources, src)
			seen[src] = true
		}
	}

	if len(sources) == 0 {
		return ""
	}

	return fmt.Sprintf("\nSources:\n%s", strings.Join(sources, "\n"))
}

func sourceOf(doc models.Document) string {
	if src, ok := doc.Metadata["source"].(string); ok {
		return src
	}
	return doc.ID
}
