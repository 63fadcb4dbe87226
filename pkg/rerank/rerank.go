// Package rerank reorders an initial retrieval candidate set against the
// query using a dedicated relevance model.
package rerank

import (
	"context"

	"github.com/tmc/langchaingo/schema"
)

// Reranker reorders documents by relevance to the query and returns the top
// topN of them, best first. The reranker-assigned order is authoritative;
// there is no secondary sort key.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []schema.Document, topN int) ([]schema.Document, error)
}
