package store_test

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryn/sage/internal/models"
	"github.com/bryn/sage/pkg/store"
)

// fakeEmbedder produces deterministic vectors so the tests only depend
// on Postgres, not on a running Ollama server. Identical texts map to
// identical vectors.
type fakeEmbedder struct {
	dim int
}

func (f fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = f.vector(text)
	}
	return embeddings, nil
}

func (f fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vector(text), nil
}

func (f fakeEmbedder) vector(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	v := make([]float32, f.dim)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%1000)/1000 - 0.5
	}
	return v
}

func newTestStore(t *testing.T) *store.VectorStore {
	t.Helper()

	connString := os.Getenv("SAGE_TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("SAGE_TEST_DATABASE_URL not set, skipping store tests")
	}

	s, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: connString,
		TableName:  "test_documents",
		VectorDim:  64,
	}, fakeEmbedder{dim: 64})
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Reset(context.Background())
		s.Close()
	})

	require.NoError(t, s.Reset(context.Background()))
	return s
}

func seedDocs() []models.Document {
	return []models.Document{
		{
			ID:      "doc-go",
			Content: "Goroutines and channels make concurrency manageable.",
			Metadata: map[string]interface{}{
				"language": "go",
				"topic":    "concurrency",
			},
		},
		{
			ID:      "doc-py",
			Content: "The asyncio event loop drives coroutines.",
			Metadata: map[string]interface{}{
				"language": "python",
				"topic":    "concurrency",
			},
		},
		{
			Content: "Errors are values and should be checked explicitly.",
			Metadata: map[string]interface{}{
				"language": "go",
				"topic":    "errors",
			},
		},
	}
}

func TestAddAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, seedDocs()))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	doc, err := s.Get(ctx, "doc-go")
	require.NoError(t, err)
	assert.Equal(t, "Goroutines and channels make concurrency manageable.", doc.Content)
	assert.Equal(t, "go", doc.Metadata["language"])
}

func TestGetNilMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []models.Document{
		{ID: "bare", Content: "A document stored without any metadata."},
	}))

	doc, err := s.Get(ctx, "bare")
	require.NoError(t, err)
	require.NotNil(t, doc.Metadata)

	// Callers write into the returned map, e.g. before an Update.
	doc.Metadata["revised"] = true
	require.NoError(t, s.Update(ctx, doc))

	doc, err = s.Get(ctx, "bare")
	require.NoError(t, err)
	assert.Equal(t, true, doc.Metadata["revised"])
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, seedDocs()))
	require.NoError(t, s.Add(ctx, []models.Document{
		{ID: "doc-go", Content: "Rewritten content.", Metadata: map[string]interface{}{"language": "go"}},
	}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	doc, err := s.Get(ctx, "doc-go")
	require.NoError(t, err)
	assert.Equal(t, "Rewritten content.", doc.Content)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, seedDocs()))

	err := s.Update(ctx, models.Document{
		ID:      "doc-py",
		Content: "Updated asyncio notes.",
		Metadata: map[string]interface{}{
			"language": "python",
			"revised":  true,
		},
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "doc-py")
	require.NoError(t, err)
	assert.Equal(t, "Updated asyncio notes.", doc.Content)
	assert.Equal(t, true, doc.Metadata["revised"])
}

func TestUpdateMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), models.Document{ID: "nope", Content: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Update(context.Background(), models.Document{Content: "no id"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, seedDocs()))
	require.NoError(t, s.Delete(ctx, "doc-py"))

	_, err := s.Get(ctx, "doc-py")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Delete(ctx, "doc-py")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, seedDocs()))

	// The fake embedder is deterministic, so searching with a stored
	// document's exact text must rank that document first.
	results, err := s.Search(ctx, "Goroutines and channels make concurrency manageable.", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-go", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
}

func TestSearchWithFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, seedDocs()))

	results, err := s.SearchWithFilters(ctx, "concurrency", 5,
		map[string]interface{}{"language": "python"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-py", results[0].ID)

	results, err = s.SearchWithFilters(ctx, "concurrency", 5,
		map[string]interface{}{"language": "rust"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, seedDocs()))
	require.NoError(t, s.Reset(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
