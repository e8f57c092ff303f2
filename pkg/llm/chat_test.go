package llm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryn/sage/internal/models"
	"github.com/bryn/sage/pkg/llm"
)

func TestNewWithConfig(t *testing.T) {
	config := llm.ChatConfig{
		Model:           "testmodel",
		Temperature:     0.5,
		MaxTokens:       1000,
		SystemTemplate:  "Test system template",
		ContextTemplate: "Context: %s Question: %s",
		BaseURL:         "http://localhost:1234",
	}
	engine, err := llm.NewWithConfig(config)
	assert.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestNewWithConfigRejectsBadTemperature(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Temperature: 1.5})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{Temperature: -0.1})
	assert.Error(t, err)
}

func TestNewWithConfigRejectsNegativeMaxTokens(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Temperature: 0.5, MaxTokens: -1})
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	// This test requires a running Ollama server with the configured model.
	if testing.Short() {
		t.Skip("skipping chat test in short mode")
	}

	engine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       "mistral",
		Temperature: 0.5,
		MaxTokens:   200,
	})
	require.NoError(t, err)

	docs := []models.ScoredDocument{
		{
			Document: models.Document{
				ID:      "doc123",
				Content: "This is the content of the test document.",
				Metadata: map[string]interface{}{
					"source": "https://example.com/document123",
				},
			},
			Score: 0.9,
		},
	}

	response, err := engine.Chat(context.Background(), "What does the document say?", docs)
	if err != nil {
		t.Skipf("ollama not reachable: %v", err)
	}
	assert.NotEmpty(t, response)
	assert.Contains(t, response, "Sources:\nhttps://example.com/document123")
}

func TestChatStreamReportsErrors(t *testing.T) {
	// Nothing listens on port 1, so generation fails immediately and the
	// stream must carry the error before closing.
	engine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       "mistral",
		Temperature: 0.5,
		BaseURL:     "http://127.0.0.1:1",
	})
	require.NoError(t, err)

	stream, err := engine.ChatStream(context.Background(), "hello", nil)
	require.NoError(t, err)

	var chunks []string
	for chunk := range stream {
		chunks = append(chunks, chunk)
	}

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(chunks[0], "Error:"))
}
