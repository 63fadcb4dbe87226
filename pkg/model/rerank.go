package model

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/pkg/rerank"
)

// RerankConfig configures the rerank strategy.
type RerankConfig struct {
	VanillaConfig

	// KRetrieve is the size of the candidate set pulled from the store.
	KRetrieve int
	// KRerank is the number of candidates kept after reranking.
	KRerank int
}

// Rerank indexes like the vanilla strategy but retrieves in two passes: a
// wide similarity search followed by a relevance-model rerank of the
// candidates.
type Rerank struct {
	*Vanilla

	config   RerankConfig
	reranker rerank.Reranker
}

func newRerank(config RerankConfig, vanilla *Vanilla, reranker rerank.Reranker) *Rerank {
	if config.KRetrieve == 0 {
		config.KRetrieve = 35
	}
	if config.KRerank == 0 {
		config.KRerank = 5
	}
	return &Rerank{
		Vanilla:  vanilla,
		config:   config,
		reranker: reranker,
	}
}

// Invoke retrieves KRetrieve candidates and reranks them down to KRerank.
// When the candidate set is already within KRerank the reranked order still
// applies.
func (r *Rerank) Invoke(ctx context.Context, query string, opts InvokeOptions) ([]schema.Document, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidArgument)
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidArgument)
	}

	candidates, err := r.store.SimilaritySearch(ctx, query, r.config.KRetrieve, opts.Namespace, opts.Filters)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	reranked, err := r.reranker.Rerank(ctx, query, candidates, r.config.KRerank)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	r.logger.Debug("reranked candidates",
		zap.String("instance_id", r.InstanceID()),
		zap.Int("retrieved", len(candidates)),
		zap.Int("kept", len(reranked)))
	return reranked, nil
}
