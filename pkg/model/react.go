package model

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/pkg/agent"
)

// ReactConfig configures the react strategy.
type ReactConfig struct {
	RouterConfig

	// MaxSteps bounds the agent controller loop.
	MaxSteps int
}

// React indexes like the router strategy but answers queries by running a
// tool-using agent loop over both representations. The agent may consult
// chunks and summaries any number of times within its step budget; the
// documents it retrieved along the way are the result.
type React struct {
	*Router

	config ReactConfig
}

func newReact(config ReactConfig, router *Router) *React {
	if config.MaxSteps == 0 {
		config.MaxSteps = agent.DefaultMaxSteps
	}
	return &React{Router: router, config: config}
}

// Invoke runs the agent loop and returns every document its retrieval tools
// touched, in first-retrieval order. An exhausted step budget surfaces as
// agent.ErrBudgetExceeded.
func (r *React) Invoke(ctx context.Context, query string, opts InvokeOptions) ([]schema.Document, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidArgument)
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidArgument)
	}

	collector := agent.NewCollector()
	tools := []agent.Tool{
		agent.NewRetriever("Chunk Retriever", r.prompts.ChunkRetriever,
			r.retrieverFor(opts, false), collector),
		agent.NewRetriever("Summary Retriever", r.prompts.SummaryRetriever,
			r.retrieverFor(opts, true), collector),
	}

	exec := agent.NewExecutor(r.llm, tools, r.prompts.React,
		agent.ExecutorConfig{MaxSteps: r.config.MaxSteps}, r.logger)

	result, err := exec.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	// The synthesized answer is informational; the contract returns documents.
	r.logger.Debug("agent answered",
		zap.String("instance_id", r.InstanceID()),
		zap.Int("steps", result.Steps),
		zap.Int("documents", len(collector.Documents())),
		zap.String("answer", result.Answer))
	return collector.Documents(), nil
}

func (r *React) retrieverFor(opts InvokeOptions, summaries bool) agent.RetrieverFunc {
	filter := mergeFilters(opts.Filters, map[string]any{"is_summary": summaries})
	return func(ctx context.Context, query string) ([]schema.Document, error) {
		return r.store.SimilaritySearch(ctx, query, r.config.K, opts.Namespace, filter)
	}
}
