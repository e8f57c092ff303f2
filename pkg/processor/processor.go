package processor

import (
	"fmt"
	"strings"

	"github.com/bryn/sage/internal/models"
	"github.com/google/uuid"
)

type ProcessorConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	MinChunkLength int
}

// Processor splits documents into chunk documents small enough to embed.
type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 100
	}

	return Processor{
		config: config,
	}
}

// Split breaks a document into chunk documents. Each chunk carries the
// parent id and its index in the chunk sequence in its metadata.
func (p *Processor) Split(doc models.Document) []models.Document {
	parentID := doc.ID
	if parentID == "" {
		parentID = uuid.NewString()
	}

	cleaned := p.cleanText(doc.Content)
	chunks := p.splitIntoChunks(cleaned)

	documents := make([]models.Document, 0, len(chunks))
	for i, chunk := range chunks {
		metadata := map[string]interface{}{
			"parent":      parentID,
			"chunk_index": i,
		}
		for k, v := range doc.Metadata {
			metadata[k] = v
		}

		documents = append(documents, models.Document{
			ID:       fmt.Sprintf("%s_%d", parentID, i),
			Content:  chunk,
			Metadata: metadata,
		})
	}

	return documents
}

// SplitAll splits every document and returns the concatenated chunks.
func (p *Processor) SplitAll(docs []models.Document) []models.Document {
	var all []models.Document
	for _, doc := range docs {
		all = append(all, p.Split(doc)...)
	}
	return all
}

func (p *Processor) cleanText(text string) string {
	// Collapse whitespace runs into single spaces
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(text)
}

func (p *Processor) splitIntoChunks(text string) []string {
	var chunks []string

	// Split by sentences first
	sentences := p.splitIntoSentences(text)

	currentChunk := strings.Builder{}

	for _, sentence := range sentences {
		// If adding this sentence would exceed chunk size
		if currentChunk.Len()+len(sentence) > p.config.ChunkSize {
			// Save current chunk if it meets minimum length
			if currentChunk.Len() >= p.config.MinChunkLength {
				chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
			}

			// Start new chunk with overlap
			if p.config.ChunkOverlap > 0 && currentChunk.Len() > p.config.ChunkOverlap {
				// Get the last few characters for overlap
				text := currentChunk.String()
				lastPart := text[len(text)-p.config.ChunkOverlap:]
				currentChunk.Reset()
				currentChunk.WriteString(lastPart)
			} else {
				currentChunk.Reset()
			}
		}

		currentChunk.WriteString(sentence)
		currentChunk.WriteString(" ")
	}

	// Add the last chunk if it meets minimum length
	if currentChunk.Len() >= p.config.MinChunkLength {
		chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
	}

	return chunks
}

func (p *Processor) splitIntoSentences(text string) []string {
	sentenceEnders := []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}
	var sentences []string

	current := strings.Builder{}

	for i := 0; i < len(text); i++ {
		current.WriteByte(text[i])

		// Check for sentence endings
		for _, ender := range sentenceEnders {
			if strings.HasSuffix(current.String(), ender) {
				sentences = append(sentences, strings.TrimSpace(current.String()))
				current.Reset()
				break
			}
		}
	}

	// Add any remaining text
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}
