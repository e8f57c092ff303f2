package processor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryn/sage/internal/models"
	"github.com/bryn/sage/pkg/processor"
)

func TestSplit(t *testing.T) {
	config := processor.ProcessorConfig{
		ChunkSize:      80,
		ChunkOverlap:   10,
		MinChunkLength: 20,
	}
	p := processor.NewWithConfig(config)

	doc := models.Document{
		ID: "doc1",
		Content: "This is the first sentence of the document. Here comes a second sentence with more words. " +
			"A third sentence keeps the text going. And a fourth one rounds it out nicely.",
		Metadata: map[string]interface{}{
			"source": "test",
		},
	}

	chunks := p.Split(doc)
	require.NotEmpty(t, chunks)
	assert.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, "doc1", chunk.Metadata["parent"])
		assert.Equal(t, i, chunk.Metadata["chunk_index"])
		assert.Equal(t, "test", chunk.Metadata["source"])
		assert.True(t, strings.HasPrefix(chunk.ID, "doc1_"))
		assert.NotEmpty(t, chunk.Content)
	}
}

func TestSplitGeneratesParentID(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      1000,
		MinChunkLength: 1,
	})

	chunks := p.Split(models.Document{
		Content: "A single short sentence that fits in one chunk.",
	})
	require.Len(t, chunks, 1)
	assert.NotEmpty(t, chunks[0].ID)
	assert.NotEmpty(t, chunks[0].Metadata["parent"])
}

func TestSplitCollapsesWhitespace(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      1000,
		MinChunkLength: 1,
	})

	chunks := p.Split(models.Document{
		ID:      "ws",
		Content: "Spaced    out\n\ntext   here.",
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Spaced out text here.", chunks[0].Content)
}

func TestSplitAll(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      1000,
		MinChunkLength: 1,
	})

	docs := []models.Document{
		{ID: "a", Content: "First document body."},
		{ID: "b", Content: "Second document body."},
	}

	chunks := p.SplitAll(docs)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a_0", chunks[0].ID)
	assert.Equal(t, "b_0", chunks[1].ID)
}

func TestSplitEmptyDocument(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	chunks := p.Split(models.Document{ID: "empty", Content: ""})
	assert.Empty(t, chunks)
}
