// Package summarize produces condensed summary documents for coarse-grained
// retrieval. Small documents are summarized in a single call (stuff path);
// documents exceeding the model's context budget are split into large
// chunks, each chunk summarized independently, and the chunk summaries
// merged and summarized again (map-reduce path).
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/pkg/batch"
	"github.com/ragbuilder/modelservice/pkg/pipeline"
	"github.com/ragbuilder/modelservice/pkg/processor"
	"github.com/ragbuilder/modelservice/pkg/prompt"
)

// TokenCounter estimates the token count of a text for the target model.
type TokenCounter func(text string) (int, error)

// Config configures a Summarizer.
type Config struct {
	// Model is the summarization model name, used to pick the tokenizer.
	Model string
	// TokenLimit is the model's context budget in tokens. Documents at or
	// under the limit take the stuff path, larger ones map-reduce.
	TokenLimit int
	// ChunkSize and ChunkOverlap size the map-path splitter. These are
	// deliberately much larger than retrieval chunks: each chunk should fill
	// most of the summarization model's context window.
	ChunkSize    int
	ChunkOverlap int
	// Tokens overrides the tiktoken-based token counter, mainly for tests.
	Tokens TokenCounter
}

// Summarizer routes documents through the stuff or map-reduce path.
type Summarizer struct {
	llm     llms.Model
	config  Config
	chunker processor.Chunker
	prompts *prompt.Set
	invoker *batch.Invoker
	logger  *zap.Logger
}

// New creates a Summarizer, applying defaults for unset config values. A
// token limit too small for the configured chunk size (with a ~4000-token
// buffer, at roughly 4 characters per token) risks the model truncating
// mid-chunk, so it is flagged at construction.
func New(model llms.Model, config Config, prompts *prompt.Set, invoker *batch.Invoker, logger *zap.Logger) *Summarizer {
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo-16k"
	}
	if config.TokenLimit == 0 {
		config.TokenLimit = 16000
	}
	if config.ChunkSize == 0 {
		config.ChunkSize = 40000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 2000
	}
	if config.Tokens == nil {
		config.Tokens = tiktokenCounter(config.Model)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if config.TokenLimit*4 < config.ChunkSize+4000 {
		logger.Warn("token limit is close to the summary chunk size, "+
			"summarization may truncate mid-chunk; decrease the chunk size",
			zap.Int("token_limit", config.TokenLimit),
			zap.Int("chunk_size", config.ChunkSize))
	}

	return &Summarizer{
		llm:    model,
		config: config,
		chunker: processor.NewChunker(processor.ChunkerConfig{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
		prompts: prompts,
		invoker: invoker,
		logger:  logger,
	}
}

// Summarize condenses a cleaned document into a single summary document
// tagged is_summary=true, with the source metadata carried over.
func (s *Summarizer) Summarize(ctx context.Context, doc schema.Document) (schema.Document, error) {
	tokens, err := s.config.Tokens(doc.PageContent)
	if err != nil {
		return schema.Document{}, fmt.Errorf("count tokens: %w", err)
	}

	var summary string
	if tokens <= s.config.TokenLimit {
		summary, err = s.stuff(ctx, doc.PageContent, s.prompts.Summarize)
	} else {
		s.logger.Debug("document exceeds token limit, using map-reduce",
			zap.Int("tokens", tokens),
			zap.Int("token_limit", s.config.TokenLimit))
		summary, err = s.mapReduce(ctx, doc)
	}
	if err != nil {
		return schema.Document{}, err
	}

	return summaryDocument(summary, doc), nil
}

// stuff runs a single summarization call over the full text.
func (s *Summarizer) stuff(ctx context.Context, text string, tpl prompts.PromptTemplate) (string, error) {
	formatted, err := tpl.Format(map[string]any{"context": text})
	if err != nil {
		return "", fmt.Errorf("format summarize prompt: %w", err)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, s.llm, formatted, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// mapReduce splits the document into summary-sized chunks, batch-summarizes
// each with the short-form prompt, then summarizes the joined chunk
// summaries with the long-form prompt.
func (s *Summarizer) mapReduce(ctx context.Context, doc schema.Document) (string, error) {
	chunks, err := s.chunker.Split(doc)
	if err != nil {
		return "", err
	}

	mapStage := pipeline.StageOf("summarize-chunk",
		func(ctx context.Context, chunk schema.Document) (string, error) {
			return s.stuff(ctx, chunk.PageContent, s.prompts.SummarizeShort)
		})
	mapPipeline := pipeline.New("map", pipeline.Meta{Method: "summarize"}, s.logger, mapStage)

	inputs := make([]any, len(chunks))
	for i, chunk := range chunks {
		inputs[i] = chunk
	}

	batches, err := s.invoker.Invoke(ctx, mapPipeline, inputs)
	if err != nil {
		return "", fmt.Errorf("map chunks: %w", err)
	}

	var parts []string
	for _, results := range batches {
		for _, result := range results {
			parts = append(parts, result.(string))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("map chunks: no chunk summaries produced")
	}

	return s.stuff(ctx, strings.Join(parts, " "), s.prompts.Summarize)
}

func summaryDocument(summary string, source schema.Document) schema.Document {
	metadata := make(map[string]any, len(source.Metadata)+1)
	for k, v := range source.Metadata {
		metadata[k] = v
	}
	metadata["is_summary"] = true
	return schema.Document{PageContent: summary, Metadata: metadata}
}

// tiktokenCounter builds the default token counter for a model, falling back
// to the cl100k_base encoding for models tiktoken does not know.
func tiktokenCounter(model string) TokenCounter {
	return func(text string) (int, error) {
		enc, err := tiktoken.EncodingForModel(model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return 0, fmt.Errorf("load tokenizer: %w", err)
			}
		}
		return len(enc.Encode(text, nil, nil)), nil
	}
}
