package types

import (
	"context"

	"github.com/bryn/sage/internal/models"
)

// Core interfaces
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Add(ctx context.Context, docs []models.Document) error
	Get(ctx context.Context, id string) (models.Document, error)
	Update(ctx context.Context, doc models.Document) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]models.ScoredDocument, error)
	SearchWithFilters(ctx context.Context, query string, limit int, filters map[string]interface{}) ([]models.ScoredDocument, error)
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
	Close()
}

type Splitter interface {
	Split(doc models.Document) []models.Document
}

type Loader interface {
	Load(ctx context.Context, url string) ([]models.Document, error)
}
