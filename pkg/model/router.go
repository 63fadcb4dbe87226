package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/pkg/pipeline"
	"github.com/ragbuilder/modelservice/pkg/prompt"
	"github.com/ragbuilder/modelservice/pkg/summarize"
)

// RouterConfig configures the summary-indexing strategies.
type RouterConfig struct {
	VanillaConfig

	// SummaryChunkSize and SummaryChunkOverlap size the map-reduce splitter of
	// the summarizer. They are far larger than retrieval chunks on purpose.
	SummaryChunkSize    int
	SummaryChunkOverlap int
	// TokenLimit is the summarization model's context budget.
	TokenLimit int
	// SummarizeModel names the summarization model, used to pick a tokenizer.
	SummarizeModel string
}

// Router indexes two parallel representations of every document, fine-grained
// chunks and whole-document summaries, and at query time asks the routing
// model once which representation fits the query, then searches only that
// one.
type Router struct {
	*Vanilla

	config     RouterConfig
	summarizer *summarize.Summarizer
	llm        llms.Model
	prompts    *prompt.Set
}

func newRouter(config RouterConfig, vanilla *Vanilla, summarizer *summarize.Summarizer, routeLLM llms.Model, prompts *prompt.Set) *Router {
	return &Router{
		Vanilla:    vanilla,
		config:     config,
		summarizer: summarizer,
		llm:        routeLLM,
		prompts:    prompts,
	}
}

// Index writes both representations. The chunk stream and the summary stream
// run to completion independently; if either fails the whole call fails, with
// both failures reported when both streams fail.
func (r *Router) Index(ctx context.Context, docs []schema.Document, opts IndexOptions) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidArgument)
	}

	inputs := make([]any, len(docs))
	for i, doc := range docs {
		inputs[i] = prepareDocument(doc, opts.Metadata)
	}

	chunkBatches, chunkErr := r.invoker.Invoke(ctx, r.indexPipeline(opts.Namespace), inputs)
	summaryBatches, summaryErr := r.invoker.Invoke(ctx, r.summaryPipeline(opts.Namespace), inputs)
	if err := errors.Join(chunkErr, summaryErr); err != nil {
		return nil, err
	}

	ids := collectIDs(chunkBatches)
	summaryIDs := collectIDs(summaryBatches)
	r.logger.Info("indexed documents with summaries",
		zap.String("instance_id", r.InstanceID()),
		zap.String("namespace", opts.Namespace),
		zap.Int("documents", len(docs)),
		zap.Int("chunk_vectors", len(ids)),
		zap.Int("summary_vectors", len(summaryIDs)))
	return append(ids, summaryIDs...), nil
}

// Invoke asks the routing model whether the query wants detail or overview,
// then searches the chosen representation only.
func (r *Router) Invoke(ctx context.Context, query string, opts InvokeOptions) ([]schema.Document, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidArgument)
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidArgument)
	}

	summaries, err := r.route(ctx, query)
	if err != nil {
		return nil, err
	}

	filter := mergeFilters(opts.Filters, map[string]any{"is_summary": summaries})
	return r.store.SimilaritySearch(ctx, query, r.config.K, opts.Namespace, filter)
}

// route runs the single routing decision. The decision defaults to chunks
// when the model's answer names neither representation.
func (r *Router) route(ctx context.Context, query string) (summaries bool, err error) {
	formatted, err := r.prompts.Router.Format(map[string]any{"query": query})
	if err != nil {
		return false, fmt.Errorf("format router prompt: %w", err)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, r.llm, formatted, llms.WithTemperature(0))
	if err != nil {
		return false, fmt.Errorf("route query: %w", err)
	}

	summaries = strings.Contains(strings.ToLower(out), "summar")
	r.logger.Debug("routed query",
		zap.String("instance_id", r.InstanceID()),
		zap.Bool("summaries", summaries))
	return summaries, nil
}

// summaryPipeline cleans, summarizes, and upserts one document as a single
// summary vector.
func (r *Router) summaryPipeline(namespace string) *pipeline.Pipeline {
	meta := pipeline.Meta{
		InstanceID: r.InstanceID(),
		UserID:     namespace,
		Method:     "index",
	}
	summarizeStage := pipeline.StageOf("summarize",
		func(ctx context.Context, doc schema.Document) ([]schema.Document, error) {
			summary, err := r.summarizer.Summarize(ctx, doc)
			if err != nil {
				return nil, err
			}
			return []schema.Document{summary}, nil
		})
	return pipeline.New("index-summaries", meta, r.logger,
		cleanStage(),
		summarizeStage,
		upsertStage(r.store, namespace),
	)
}
