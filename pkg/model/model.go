// Package model defines the contract every retrieval strategy satisfies and
// the four concrete strategies: plain similarity retrieval, reranked
// retrieval, and the two summary-indexing agent variants. Strategies are
// constructed through the factory in this package and are immutable after
// construction; reconfiguring means constructing a new instance.
package model

import (
	"context"

	"github.com/tmc/langchaingo/schema"
)

// IndexOptions scopes an Index call. Metadata is the system-assigned
// provenance (project id, file id) applied to every document; Namespace is
// the tenant key all writes go under.
type IndexOptions struct {
	Metadata  map[string]any
	Namespace string
}

// InvokeOptions scopes an Invoke call.
type InvokeOptions struct {
	Filters   map[string]any
	Namespace string
}

// DeindexRequest selects vectors to remove. Exactly one of IDs, DeleteAll,
// or Filter must be set.
type DeindexRequest struct {
	IDs       []string
	DeleteAll bool
	Filter    map[string]any
	Namespace string
}

// Indexer writes documents into the vector store.
type Indexer interface {
	// Index cleans, chunks (and for summary-indexing strategies summarizes)
	// the documents and upserts the results under the namespace. It returns
	// the generated vector ids. An empty document list is a no-op.
	Index(ctx context.Context, docs []schema.Document, opts IndexOptions) ([]string, error)
}

// Retriever answers queries from the vector store.
type Retriever interface {
	// Invoke returns documents ranked best-first, bounded by the strategy's
	// configured result count. Each call re-executes retrieval.
	Invoke(ctx context.Context, query string, opts InvokeOptions) ([]schema.Document, error)
}

// Deindexer removes documents from the vector store.
type Deindexer interface {
	Deindex(ctx context.Context, req DeindexRequest) error
}

// Model is the full strategy contract.
type Model interface {
	Indexer
	Retriever
	Deindexer

	// InstanceID returns the strategy's stable external identifier.
	InstanceID() string
}
