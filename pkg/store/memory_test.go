package store_test

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"github.com/ragbuilder/modelservice/pkg/store"
)

// wordEmbedder is a deterministic bag-of-words embedder: shared words produce
// similar vectors, which is enough to rank exact matches first.
type wordEmbedder struct{ dim int }

func (e wordEmbedder) embed(text string) []float32 {
	v := make([]float32, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[int(h.Sum32())%e.dim]++
	}
	return v
}

func (e wordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e wordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newMemory() *store.Memory {
	return store.NewMemory(wordEmbedder{dim: 64})
}

func TestUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newMemory()

	ids, err := s.Upsert(ctx, []schema.Document{
		{PageContent: "the quarterly revenue report for the finance team"},
		{PageContent: "a recipe for sourdough bread with rye flour"},
	}, "u1")
	require.NoError(t, err)
	require.Len(t, ids, 2)

	docs, err := s.SimilaritySearch(ctx, "quarterly revenue report", 1, "u1", nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].PageContent, "revenue")
}

func TestUpsert_EmptyNoOp(t *testing.T) {
	s := newMemory()
	ids, err := s.Upsert(context.Background(), nil, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUpsert_RequiresNamespace(t *testing.T) {
	s := newMemory()
	_, err := s.Upsert(context.Background(), []schema.Document{{PageContent: "x"}}, "")
	assert.ErrorIs(t, err, store.ErrMissingNamespace)
}

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	s := newMemory()

	_, err := s.Upsert(ctx, []schema.Document{{PageContent: "tenant a secret document"}}, "a")
	require.NoError(t, err)
	_, err = s.Upsert(ctx, []schema.Document{{PageContent: "tenant b grocery list"}}, "b")
	require.NoError(t, err)

	docs, err := s.SimilaritySearch(ctx, "tenant a secret document", 10, "b", nil)
	require.NoError(t, err)
	for _, doc := range docs {
		assert.NotContains(t, doc.PageContent, "secret")
	}
}

func TestSimilaritySearch_FilterAndK(t *testing.T) {
	ctx := context.Background()
	s := newMemory()

	var docs []schema.Document
	for i := 0; i < 10; i++ {
		docs = append(docs, schema.Document{
			PageContent: fmt.Sprintf("shared vocabulary document number %d", i),
			Metadata:    map[string]any{"is_summary": i%2 == 0},
		})
	}
	_, err := s.Upsert(ctx, docs, "u1")
	require.NoError(t, err)

	results, err := s.SimilaritySearch(ctx, "shared vocabulary document", 3,
		"u1", map[string]any{"is_summary": true})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, doc := range results {
		assert.Equal(t, true, doc.Metadata["is_summary"])
	}
}

func TestDelete_Validation(t *testing.T) {
	s := newMemory()
	ctx := context.Background()

	err := s.Delete(ctx, store.DeleteRequest{Namespace: "u1"})
	assert.ErrorIs(t, err, store.ErrInvalidDeleteRequest)

	err = s.Delete(ctx, store.DeleteRequest{
		Namespace: "u1",
		DeleteAll: true,
		IDs:       []string{"x"},
	})
	assert.ErrorIs(t, err, store.ErrInvalidDeleteRequest)

	err = s.Delete(ctx, store.DeleteRequest{DeleteAll: true})
	assert.ErrorIs(t, err, store.ErrMissingNamespace)
}

func TestDelete_ByIDs(t *testing.T) {
	ctx := context.Background()
	s := newMemory()

	ids, err := s.Upsert(ctx, []schema.Document{
		{PageContent: "keep this one"},
		{PageContent: "drop this one"},
	}, "u1")
	require.NoError(t, err)

	err = s.Delete(ctx, store.DeleteRequest{Namespace: "u1", IDs: ids[1:]})
	require.NoError(t, err)

	docs, err := s.SimilaritySearch(ctx, "this one", 10, "u1", nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "keep this one", docs[0].PageContent)
}

func TestDelete_ByFilterEmulation(t *testing.T) {
	ctx := context.Background()
	s := newMemory()

	var docs []schema.Document
	for i := 0; i < 10; i++ {
		fileID := "keep"
		if i < 3 {
			fileID = "drop"
		}
		docs = append(docs, schema.Document{
			PageContent: fmt.Sprintf("common words document %d", i),
			Metadata:    map[string]any{"file_id": fileID},
		})
	}
	_, err := s.Upsert(ctx, docs, "u1")
	require.NoError(t, err)

	err = s.Delete(ctx, store.DeleteRequest{
		Namespace: "u1",
		Filter:    map[string]any{"file_id": "drop"},
	})
	require.NoError(t, err)

	remaining, err := s.SimilaritySearch(ctx, "common words document", 20, "u1", nil)
	require.NoError(t, err)
	require.Len(t, remaining, 7)
	for _, doc := range remaining {
		assert.Equal(t, "keep", doc.Metadata["file_id"])
	}
}

func TestDelete_ByFilterNoMatchesNoOp(t *testing.T) {
	ctx := context.Background()
	s := newMemory()

	_, err := s.Upsert(ctx, []schema.Document{{PageContent: "a document"}}, "u1")
	require.NoError(t, err)

	err = s.Delete(ctx, store.DeleteRequest{
		Namespace: "u1",
		Filter:    map[string]any{"file_id": "absent"},
	})
	require.NoError(t, err)

	docs, err := s.SimilaritySearch(ctx, "a document", 10, "u1", nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDelete_All(t *testing.T) {
	ctx := context.Background()
	s := newMemory()

	_, err := s.Upsert(ctx, []schema.Document{
		{PageContent: "one"}, {PageContent: "two"},
	}, "u1")
	require.NoError(t, err)

	err = s.Delete(ctx, store.DeleteRequest{Namespace: "u1", DeleteAll: true})
	require.NoError(t, err)

	docs, err := s.SimilaritySearch(ctx, "one two", 10, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
