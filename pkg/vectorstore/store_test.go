package vectorstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/apperrors"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/llm"
)

// testEmbedder assigns fixed vectors by keyword so similarity ordering in
// tests is known in advance.
func testEmbedder() *llm.MockClient {
	mock := llm.NewMockClient()
	mock.CreateEmbeddingFunc = func(_ context.Context, input string) ([]float32, error) {
		switch {
		case strings.Contains(input, "users"):
			return []float32{1, 0, 0}, nil
		case strings.Contains(input, "orders"):
			return []float32{0, 1, 0}, nil
		default:
			return []float32{0, 0, 1}, nil
		}
	}
	return mock
}

func testDocs() []Document {
	return []Document{
		{Source: "users", Content: "Table: users"},
		{Source: "orders", Content: "Table: orders"},
		{Source: "products", Content: "Table: products"},
	}
}

func newTestStore(t *testing.T, embedder llm.Embedder) *Store {
	t.Helper()
	return NewStore(embedder, NewSplitter(1000, 200), t.TempDir(), zap.NewNop())
}

func TestStore_SearchBeforeBuild(t *testing.T) {
	store := newTestStore(t, testEmbedder())

	_, err := store.Search(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotBuilt)
}

func TestStore_SearchBuildsLazilyThroughLoader(t *testing.T) {
	store := newTestStore(t, testEmbedder())
	loaderCalls := 0
	store.SetDocumentLoader(func(context.Context) ([]Document, error) {
		loaderCalls++
		return testDocs(), nil
	})

	results, err := store.Search(context.Background(), "orders last month", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Table: orders", results[0].Content)
	assert.Equal(t, 1, loaderCalls)

	// The built index serves later searches without reloading.
	_, err = store.Search(context.Background(), "users", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, loaderCalls)
}

func TestStore_SearchSurfacesLoaderFailure(t *testing.T) {
	store := newTestStore(t, testEmbedder())
	store.SetDocumentLoader(func(context.Context) ([]Document, error) {
		return nil, errors.New("database unreachable")
	})

	_, err := store.Search(context.Background(), "anything", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unreachable")
}

func TestStore_BuildAndSearch(t *testing.T) {
	store := newTestStore(t, testEmbedder())

	require.NoError(t, store.Build(context.Background(), testDocs(), false))
	assert.Equal(t, 3, store.Count())

	results, err := store.Search(context.Background(), "orders last month", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Table: orders", results[0].Content)
}

func TestStore_SearchTieBreakIsDeterministic(t *testing.T) {
	mock := llm.NewMockClient()
	// Every chunk and query embeds identically, so all similarities tie and
	// ordering must fall back to chunk position.
	mock.CreateEmbeddingFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{1, 1, 1}, nil
	}
	store := newTestStore(t, mock)

	require.NoError(t, store.Build(context.Background(), testDocs(), false))

	results, err := store.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].Position, results[1].Position, results[2].Position})
}

func TestStore_SearchKLargerThanIndex(t *testing.T) {
	store := newTestStore(t, testEmbedder())
	require.NoError(t, store.Build(context.Background(), testDocs(), false))

	results, err := store.Search(context.Background(), "users", 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestStore_GetContext(t *testing.T) {
	store := newTestStore(t, testEmbedder())
	require.NoError(t, store.Build(context.Background(), testDocs(), false))

	contextText, err := store.GetContext(context.Background(), "how many users", 2)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(contextText, "Relevant Database Schema Information:"))
	assert.Contains(t, contextText, "Table: users")
	assert.Contains(t, contextText, "\n\n---\n\n")
}

func TestStore_BuildLoadsPersistedIndex(t *testing.T) {
	dir := t.TempDir()
	embedder := testEmbedder()
	store := NewStore(embedder, NewSplitter(1000, 200), dir, zap.NewNop())
	require.NoError(t, store.Build(context.Background(), testDocs(), false))

	// A second store over the same directory must load the persisted index
	// without spending any embedding calls.
	failing := llm.NewMockClient()
	failing.CreateEmbeddingsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, errors.New("embedding should not be called")
	}
	reloaded := NewStore(failing, NewSplitter(1000, 200), dir, zap.NewNop())
	require.NoError(t, reloaded.Build(context.Background(), testDocs(), false))

	assert.Equal(t, 3, reloaded.Count())
	assert.Equal(t, 0, failing.CreateEmbeddingsCalls)

	// Loaded chunks still serve searches.
	failing.CreateEmbeddingFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{0, 1, 0}, nil
	}
	results, err := reloaded.Search(context.Background(), "orders", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Table: orders", results[0].Content)
}

func TestStore_ForceRebuildReembeds(t *testing.T) {
	dir := t.TempDir()
	embedder := testEmbedder()
	store := NewStore(embedder, NewSplitter(1000, 200), dir, zap.NewNop())
	require.NoError(t, store.Build(context.Background(), testDocs(), false))

	second := testEmbedder()
	rebuilt := NewStore(second, NewSplitter(1000, 200), dir, zap.NewNop())
	require.NoError(t, rebuilt.Build(context.Background(), testDocs(), true))

	assert.Equal(t, 1, second.CreateEmbeddingsCalls)
}

func TestStore_BuildRejectsEmptyDocumentSet(t *testing.T) {
	store := newTestStore(t, testEmbedder())
	assert.Error(t, store.Build(context.Background(), nil, true))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 0.0001)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 0.0001)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
