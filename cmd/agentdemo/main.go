package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/tmc/langchaingo/tools"

	"github.com/bryn/sage/pkg/agent"
	cfgPkg "github.com/bryn/sage/pkg/config"
)

type Config struct {
	BaseURL       string
	Model         string
	MaxIterations int
	Interactive   bool
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
	flag.StringVar(&config.Model, "model", "mistral", "LLM model to use")
	flag.IntVar(&config.MaxIterations, "max-iterations", 5, "Maximum agent reasoning iterations")
	flag.BoolVar(&config.Interactive, "interactive", false, "Chat with the agent instead of running the scripted demo")
	flag.Parse()

	// Load config file if specified
	if cfg, err := cfgPkg.LoadConfig(configPath); err == nil {
		if config.BaseURL == "" {
			config.BaseURL = cfg.LLM.BaseURL
		}
		if flag.Lookup("model").Value.String() == "mistral" {
			config.Model = cfg.LLM.Model
		}
		if flag.Lookup("max-iterations").Value.String() == "5" {
			config.MaxIterations = cfg.Agent.MaxIterations
		}
		if cfg.UI.Theme == "plain" {
			color.NoColor = true
		}
	}

	return config
}

func run(config Config) error {
	toolset := []tools.Tool{
		agent.Calculator{},
		agent.Clock{},
		agent.WordCount{},
	}

	a, err := agent.NewWithConfig(agent.AgentConfig{
		Model:         config.Model,
		BaseURL:       config.BaseURL,
		MaxIterations: config.MaxIterations,
	}, toolset...)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %v", err)
	}

	color.Cyan("\nTool-calling agent with %d tools registered", len(toolset))
	for _, t := range toolset {
		color.Blue("  - %s", t.Name())
	}

	if config.Interactive {
		return interactive(a)
	}

	return scripted(a)
}

// scripted runs three example prompts and then dumps the recorded history,
// one exchange per run.
func scripted(a *agent.Agent) error {
	prompts := []string{
		"What is 127 * 49?",
		"How many words are in the sentence 'the quick brown fox jumps over the lazy dog'?",
		"What time is it right now in Europe/Berlin?",
	}

	ctx := context.Background()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for _, prompt := range prompts {
		color.Green("\nYou: %s", prompt)

		answer, err := a.Run(ctx, prompt)
		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("Agent: %s\n", answer)
	}

	color.Cyan("\nChat history (%d exchanges):", len(a.History()))
	for i, ex := range a.History() {
		fmt.Printf("%d. [%s] %s -> %s\n",
			i+1, ex.At.Format("15:04:05"), ex.Input, ex.Output)
	}

	return nil
}

func interactive(a *agent.Agent) error {
	color.Cyan("\nChat with the agent (type 'exit' to quit, 'history' to inspect past runs)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "exit":
			return nil
		case "history":
			for i, ex := range a.History() {
				fmt.Printf("%d. [%s] %s -> %s\n",
					i+1, ex.At.Format("15:04:05"), ex.Input, ex.Output)
			}
			continue
		case "":
			continue
		}

		answer, err := a.Run(context.Background(), query)
		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("Agent: %s\n", answer)
	}

	return nil
}
