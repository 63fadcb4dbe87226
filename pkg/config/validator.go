package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.TokenLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.token_limit",
			Message: "token_limit must be positive",
		})
	}

	if c.LLM.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid provider base URL",
			})
		}
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.ParseRequestURI(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Processor config
	if c.Processor.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Processor.SummaryChunkOverlap < 0 || c.Processor.SummaryChunkOverlap >= c.Processor.SummaryChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.summary_chunk_overlap",
			Message: "summary_chunk_overlap must be non-negative and less than summary_chunk_size",
		})
	}

	// Validate Retrieval config
	if c.Retrieval.K < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.k",
			Message: "k must be positive",
		})
	}

	if c.Retrieval.KRerank > c.Retrieval.KRetrieve {
		errors = append(errors, ValidationError{
			Field:   "retrieval.k_rerank",
			Message: "k_rerank must not exceed k_retrieve",
		})
	}

	if c.Retrieval.MaxAgentSteps < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.max_agent_steps",
			Message: "max_agent_steps must be positive",
		})
	}

	// Validate Batch config
	if c.Batch.UserTier < 1 {
		errors = append(errors, ValidationError{
			Field:   "batch.user_tier",
			Message: "user_tier must be positive",
		})
	}

	if c.Batch.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "batch.max_retries",
			Message: "max_retries must be non-negative",
		})
	}

	return errors
}
