// Package llm constructs the completion and embedding clients the strategies
// depend on. Construction fails fast when the provider credential is absent,
// so a misconfigured deployment surfaces at strategy build time rather than
// on the first call.
package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config represents the configuration for the provider clients.
type Config struct {
	// Model is the completion model name.
	Model string
	// EmbeddingModel is the embedding model name.
	EmbeddingModel string
	// BaseURL overrides the provider endpoint, for proxies and compatible
	// self-hosted servers.
	BaseURL string
	// Token overrides the OPENAI_API_KEY environment variable.
	Token string
}

// NewModel creates a completion client for the configured model.
func NewModel(config Config) (*openai.LLM, error) {
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo-16k"
	}

	opts := []openai.Option{openai.WithModel(config.Model)}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	if config.Token != "" {
		opts = append(opts, openai.WithToken(config.Token))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return model, nil
}

// NewEmbedder creates an embeddings client for the configured embedding
// model.
func NewEmbedder(config Config) (embeddings.Embedder, error) {
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-ada-002"
	}

	opts := []openai.Option{openai.WithEmbeddingModel(config.EmbeddingModel)}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	if config.Token != "" {
		opts = append(opts, openai.WithToken(config.Token))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return embedder, nil
}
