package store

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/bryn/sage/internal/models"
	"github.com/bryn/sage/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNotFound is returned when no document exists for the given id.
var ErrNotFound = errors.New("document not found")

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	SearchLimit int
}

// VectorStore persists documents and their embeddings in Postgres with
// the pgvector extension. Embedding happens through the injected embedder
// so callers never handle raw vectors.
type VectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
}

func NewWithConfig(config VectorStoreConfig, embedder types.Embedder) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // Default for nomic-embed-text
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	// Create documents table if it doesn't exist
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	// Create vector index
	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Add embeds and upserts the given documents in a single transaction.
// Documents without an id get a generated one.
func (vs *VectorStore) Add(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = sanitizeUTF8(doc.Content)
	}

	embeddings, err := vs.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`,
		vs.config.TableName)

	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}

		_, err = tx.Exec(ctx, stmt,
			id,
			texts[i],
			pgvector.NewVector(embeddings[i]),
			doc.Metadata,
		)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %v", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Get fetches a single document by id.
func (vs *VectorStore) Get(ctx context.Context, id string) (models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, content, metadata
		FROM %s
		WHERE id = $1`,
		vs.config.TableName)

	var doc models.Document
	err := vs.pool.QueryRow(ctx, query, id).Scan(&doc.ID, &doc.Content, &doc.Metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, ErrNotFound
		}
		return models.Document{}, fmt.Errorf("failed to get document: %v", err)
	}

	// Documents stored without metadata scan back as a nil map; hand
	// callers one they can write into.
	if doc.Metadata == nil {
		doc.Metadata = map[string]interface{}{}
	}

	return doc, nil
}

// Update re-embeds the document content and rewrites content and metadata.
func (vs *VectorStore) Update(ctx context.Context, doc models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	content := sanitizeUTF8(doc.Content)
	embedding, err := vs.embedder.EmbedQuery(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	stmt := fmt.Sprintf(`
		UPDATE %s
		SET content = $2, embedding = $3, metadata = $4
		WHERE id = $1`,
		vs.config.TableName)

	tag, err := vs.pool.Exec(ctx, stmt, doc.ID, content,
		pgvector.NewVector(embedding), doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to update document: %v", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a document by id.
func (vs *VectorStore) Delete(ctx context.Context, id string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = $1", vs.config.TableName)

	tag, err := vs.pool.Exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %v", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Search embeds the query and returns the closest documents by cosine
// distance. Score is 1 - distance, so higher is more similar.
func (vs *VectorStore) Search(ctx context.Context, query string, limit int) ([]models.ScoredDocument, error) {
	return vs.SearchWithFilters(ctx, query, limit, nil)
}

// SearchWithFilters is Search restricted to documents whose metadata
// contains all the given key/value pairs.
func (vs *VectorStore) SearchWithFilters(ctx context.Context, query string, limit int, filters map[string]interface{}) ([]models.ScoredDocument, error) {
	if limit <= 0 {
		limit = vs.config.SearchLimit
	}

	embedding, err := vs.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	stmt := fmt.Sprintf(`
		SELECT id, content, metadata, (1 - (embedding <=> $1))::float4 AS score
		FROM %s`,
		vs.config.TableName)

	args := []interface{}{pgvector.NewVector(embedding)}
	if len(filters) > 0 {
		stmt += " WHERE metadata @> $2"
		args = append(args, filters)
	}
	stmt += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT %d", limit)

	rows, err := vs.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %v", err)
	}
	defer rows.Close()

	var docs []models.ScoredDocument
	for rows.Next() {
		var doc models.ScoredDocument
		err := rows.Scan(&doc.ID, &doc.Content, &doc.Metadata, &doc.Score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Count returns the number of stored documents.
func (vs *VectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	stmt := fmt.Sprintf("SELECT count(*) FROM %s", vs.config.TableName)
	if err := vs.pool.QueryRow(ctx, stmt).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %v", err)
	}
	return count, nil
}

// Reset removes all documents. The table and index stay in place.
func (vs *VectorStore) Reset(ctx context.Context) error {
	stmt := fmt.Sprintf("TRUNCATE %s", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to reset store: %v", err)
	}
	return nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
