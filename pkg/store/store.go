// Package store provides a uniform adapter over an external vector database:
// namespace-scoped upsert, similarity search with metadata filters, and
// deletion by ids, by filter, or of a whole namespace.
package store

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/schema"
)

const (
	// FilterScanCeiling bounds the candidate scan used to emulate
	// delete-by-filter on backends without native support. Filters matching
	// more vectors than this require repeated Delete calls or DeleteAll.
	FilterScanCeiling = 1000

	// DeleteBatchSize is the maximum number of ids per delete request, kept
	// under backend payload limits.
	DeleteBatchSize = 1000
)

var (
	// ErrInvalidDeleteRequest signals that a delete carried none or several
	// of ids, delete-all, and filter.
	ErrInvalidDeleteRequest = errors.New("exactly one of ids, delete all, or filter must be provided")

	// ErrMissingNamespace signals a namespace-scoped operation without a
	// namespace. Tenant isolation depends on every call carrying one.
	ErrMissingNamespace = errors.New("namespace is required")
)

// DeleteRequest selects vectors to remove from a namespace. Exactly one of
// IDs, DeleteAll, or Filter must be set.
type DeleteRequest struct {
	IDs       []string
	DeleteAll bool
	Filter    map[string]any
	Namespace string
}

// Validate checks the exactly-one-selector contract and the namespace.
func (r DeleteRequest) Validate() error {
	if r.Namespace == "" {
		return ErrMissingNamespace
	}
	selectors := 0
	if len(r.IDs) > 0 {
		selectors++
	}
	if r.DeleteAll {
		selectors++
	}
	if len(r.Filter) > 0 {
		selectors++
	}
	if selectors != 1 {
		return ErrInvalidDeleteRequest
	}
	return nil
}

// Store is the vector store contract the strategies are built against.
//
// Delete by filter is best-effort on backends without native filter deletes:
// it scans at most FilterScanCeiling matches and removes those. Zero matches
// is a no-op, not an error.
type Store interface {
	// Upsert embeds and stores documents under a namespace, returning one
	// generated id per document.
	Upsert(ctx context.Context, docs []schema.Document, namespace string) ([]string, error)

	// SimilaritySearch returns up to k documents ranked best match first,
	// scoped to the namespace and restricted to vectors whose metadata
	// contains every filter entry.
	SimilaritySearch(ctx context.Context, query string, k int, namespace string, filter map[string]any) ([]schema.Document, error)

	// Delete removes the selected vectors from the request's namespace.
	Delete(ctx context.Context, req DeleteRequest) error
}
