package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
)

type memoryRecord struct {
	id     string
	doc    schema.Document
	vector []float32
}

// Memory is an in-process Store using brute-force cosine similarity. It
// backs tests and local development; the delete-by-filter path runs the same
// bounded scan emulation as the hosted backends so both behave alike.
type Memory struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	records  map[string][]memoryRecord // keyed by namespace
}

// NewMemory creates an empty in-memory store.
func NewMemory(embedder embeddings.Embedder) *Memory {
	return &Memory{
		embedder: embedder,
		records:  make(map[string][]memoryRecord),
	}
}

// Upsert embeds and stores documents under the namespace.
func (m *Memory) Upsert(ctx context.Context, docs []schema.Document, namespace string) ([]string, error) {
	if namespace == "" {
		return nil, ErrMissingNamespace
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.NewString()
		m.records[namespace] = append(m.records[namespace], memoryRecord{
			id:     ids[i],
			doc:    doc,
			vector: vectors[i],
		})
	}
	return ids, nil
}

// SimilaritySearch returns up to k filter-matching documents in the
// namespace, ranked by cosine similarity.
func (m *Memory) SimilaritySearch(ctx context.Context, query string, k int, namespace string, filter map[string]any) ([]schema.Document, error) {
	if namespace == "" {
		return nil, ErrMissingNamespace
	}
	if k <= 0 {
		k = 5
	}

	vector, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		doc   schema.Document
		score float32
	}
	var matches []scored
	for _, rec := range m.records[namespace] {
		if !matchesFilter(rec.doc.Metadata, filter) {
			continue
		}
		matches = append(matches, scored{doc: rec.doc, score: cosine(rec.vector, vector)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	docs := make([]schema.Document, 0, len(matches))
	for _, match := range matches {
		doc := match.doc
		doc.Score = match.score
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes vectors by ids, by filter, or all in the namespace. Filter
// deletes collect at most FilterScanCeiling matches before removing them in
// DeleteBatchSize batches.
func (m *Memory) Delete(ctx context.Context, req DeleteRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case req.DeleteAll:
		delete(m.records, req.Namespace)
		return nil

	case len(req.IDs) > 0:
		m.removeIDs(req.Namespace, req.IDs)
		return nil

	default:
		var ids []string
		for _, rec := range m.records[req.Namespace] {
			if matchesFilter(rec.doc.Metadata, req.Filter) {
				ids = append(ids, rec.id)
				if len(ids) == FilterScanCeiling {
					break
				}
			}
		}
		for start := 0; start < len(ids); start += DeleteBatchSize {
			end := start + DeleteBatchSize
			if end > len(ids) {
				end = len(ids)
			}
			m.removeIDs(req.Namespace, ids[start:end])
		}
		return nil
	}
}

func (m *Memory) removeIDs(namespace string, ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := m.records[namespace][:0]
	for _, rec := range m.records[namespace] {
		if _, ok := drop[rec.id]; !ok {
			kept = append(kept, rec)
		}
	}
	m.records[namespace] = kept
}

func matchesFilter(metadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
