package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bryn/sage/internal/models"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/tools"
)

// AgentConfig represents the configuration for a tool-calling agent.
type AgentConfig struct {
	Model         string
	BaseURL       string // Ollama server URL
	MaxIterations int
}

// Agent wraps a ReAct-style agent executor. The reasoning loop and tool
// dispatch are owned by langchaingo; this type adds history tracking so
// callers can inspect past runs.
type Agent struct {
	config   AgentConfig
	executor *agents.Executor

	mu      sync.Mutex
	history []models.Exchange
}

// NewWithConfig creates an agent with the given tools registered.
func NewWithConfig(config AgentConfig, toolset ...tools.Tool) (*Agent, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.MaxIterations == 0 {
		config.MaxIterations = 5
	}
	if len(toolset) == 0 {
		return nil, fmt.Errorf("at least one tool is required")
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	executor, err := agents.Initialize(llm, toolset,
		agents.ZeroShotReactDescription,
		agents.WithMaxIterations(config.MaxIterations))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent executor: %w", err)
	}

	return &Agent{
		config:   config,
		executor: executor,
	}, nil
}

// Run executes one agent turn and records the exchange.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("input cannot be empty")
	}

	output, err := chains.Run(ctx, a.executor, input)
	if err != nil {
		return "", fmt.Errorf("agent run failed: %w", err)
	}

	a.mu.Lock()
	a.history = append(a.history, models.Exchange{
		Input:  input,
		Output: output,
		At:     time.Now(),
	})
	a.mu.Unlock()

	return output, nil
}

// History returns a copy of all recorded exchanges, oldest first.
func (a *Agent) History() []models.Exchange {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := make([]models.Exchange, len(a.history))
	copy(history, a.history)
	return history
}

// ClearHistory discards all recorded exchanges.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}
