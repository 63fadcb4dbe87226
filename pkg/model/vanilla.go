package model

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/pkg/batch"
	"github.com/ragbuilder/modelservice/pkg/pipeline"
	"github.com/ragbuilder/modelservice/pkg/processor"
	"github.com/ragbuilder/modelservice/pkg/store"
)

// VanillaConfig configures the vanilla strategy.
type VanillaConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// K is the number of documents Invoke returns.
	K int
}

// Vanilla is the baseline strategy: clean, chunk, embed, and retrieve by
// similarity alone.
type Vanilla struct {
	id      string
	config  VanillaConfig
	store   store.Store
	chunker processor.Chunker
	invoker *batch.Invoker
	logger  *zap.Logger

	deindexer
}

// newVanilla builds the shared index-and-search core. The id is the instance
// identifier of the concrete strategy wrapping it, so log lines attribute
// work to the right strategy.
func newVanilla(id string, config VanillaConfig, st store.Store, invoker *batch.Invoker, logger *zap.Logger) *Vanilla {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1500
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 50
	}
	if config.K == 0 {
		config.K = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vanilla{
		id:     id,
		config: config,
		store:  st,
		chunker: processor.NewChunker(processor.ChunkerConfig{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
		invoker:   invoker,
		logger:    logger,
		deindexer: deindexer{store: st, logger: logger},
	}
}

func (v *Vanilla) InstanceID() string { return v.id }

// Index runs every document through clean, chunk, and upsert, returning the
// generated vector ids across all documents.
func (v *Vanilla) Index(ctx context.Context, docs []schema.Document, opts IndexOptions) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidArgument)
	}

	p := v.indexPipeline(opts.Namespace)
	inputs := make([]any, len(docs))
	for i, doc := range docs {
		inputs[i] = prepareDocument(doc, opts.Metadata)
	}

	batches, err := v.invoker.Invoke(ctx, p, inputs)
	if err != nil {
		return nil, err
	}

	ids := collectIDs(batches)
	v.logger.Info("indexed documents",
		zap.String("instance_id", v.InstanceID()),
		zap.String("namespace", opts.Namespace),
		zap.Int("documents", len(docs)),
		zap.Int("vectors", len(ids)))
	return ids, nil
}

// Invoke retrieves the top K chunks for the query.
func (v *Vanilla) Invoke(ctx context.Context, query string, opts InvokeOptions) ([]schema.Document, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidArgument)
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidArgument)
	}
	return v.store.SimilaritySearch(ctx, query, v.config.K, opts.Namespace, opts.Filters)
}

func (v *Vanilla) indexPipeline(namespace string) *pipeline.Pipeline {
	meta := pipeline.Meta{
		InstanceID: v.InstanceID(),
		UserID:     namespace,
		Method:     "index",
	}
	return pipeline.New("index", meta, v.logger,
		cleanStage(),
		chunkStage(v.chunker),
		upsertStage(v.store, namespace),
	)
}

// cleanStage normalizes raw document text before chunking.
func cleanStage() pipeline.Stage {
	return pipeline.StageOf("clean",
		func(_ context.Context, doc schema.Document) (schema.Document, error) {
			return processor.RemoveNewlines(doc), nil
		})
}

// chunkStage splits one document into retrieval chunks, each tagged as a
// non-summary so summary-indexing strategies can scope searches.
func chunkStage(chunker processor.Chunker) pipeline.Stage {
	return pipeline.StageOf("chunk",
		func(_ context.Context, doc schema.Document) ([]schema.Document, error) {
			chunks, err := chunker.Split(doc)
			if err != nil {
				return nil, err
			}
			for i := range chunks {
				chunks[i].Metadata["is_summary"] = false
			}
			return chunks, nil
		})
}

func upsertStage(st store.Store, namespace string) pipeline.Stage {
	return pipeline.StageOf("upsert",
		func(ctx context.Context, chunks []schema.Document) ([]string, error) {
			return st.Upsert(ctx, chunks, namespace)
		})
}

func prepareDocument(doc schema.Document, callMetadata map[string]any) schema.Document {
	return prepareDocuments([]schema.Document{doc}, callMetadata)[0]
}

// collectIDs flattens batched pipeline outputs into one id list.
func collectIDs(batches [][]any) []string {
	var ids []string
	for _, results := range batches {
		for _, result := range results {
			ids = append(ids, result.([]string)...)
		}
	}
	return ids
}
