// Package config loads the service configuration from a yaml file merged
// with environment overrides, and validates the result before any strategy
// is constructed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the completion and embedding clients.
type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	// TokenLimit is the completion model's context budget in tokens.
	TokenLimit int `yaml:"token_limit"`
}

// DatabaseConfig configures the pgvector-backed store.
type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
	VectorDim int    `yaml:"vector_dim"`
}

// ProcessorConfig sizes the retrieval and summarization splitters.
type ProcessorConfig struct {
	ChunkSize           int `yaml:"chunk_size"`
	ChunkOverlap        int `yaml:"chunk_overlap"`
	SummaryChunkSize    int `yaml:"summary_chunk_size"`
	SummaryChunkOverlap int `yaml:"summary_chunk_overlap"`
}

// RetrievalConfig sizes the query paths.
type RetrievalConfig struct {
	K         int `yaml:"k"`
	KRetrieve int `yaml:"k_retrieve"`
	KRerank   int `yaml:"k_rerank"`
	// MaxAgentSteps bounds the agent controller loop.
	MaxAgentSteps int `yaml:"max_agent_steps"`
}

// BatchConfig paces index runs against provider rate limits.
type BatchConfig struct {
	UserTier   int `yaml:"user_tier"`
	MaxRetries int `yaml:"max_retries"`
}

// RerankConfig configures the rerank provider.
type RerankConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Env selects the encoder: "production" emits JSON, anything else the
	// development console format.
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
	Processor ProcessorConfig `yaml:"processor"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Batch     BatchConfig     `yaml:"batch"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Logging   LoggingConfig   `yaml:"logging"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/modelservice/config.yaml"),
			"/etc/modelservice/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-3.5-turbo-16k"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "text-embedding-ada-002"
	}
	if config.LLM.TokenLimit == 0 {
		config.LLM.TokenLimit = 16000
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "documents"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 1536
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1500
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 50
	}
	if config.Processor.SummaryChunkSize == 0 {
		config.Processor.SummaryChunkSize = 40000
	}
	if config.Processor.SummaryChunkOverlap == 0 {
		config.Processor.SummaryChunkOverlap = 2000
	}

	if config.Retrieval.K == 0 {
		config.Retrieval.K = 5
	}
	if config.Retrieval.KRetrieve == 0 {
		config.Retrieval.KRetrieve = 35
	}
	if config.Retrieval.KRerank == 0 {
		config.Retrieval.KRerank = 5
	}
	if config.Retrieval.MaxAgentSteps == 0 {
		config.Retrieval.MaxAgentSteps = 8
	}

	if config.Batch.UserTier == 0 {
		config.Batch.UserTier = 1
	}
	if config.Batch.MaxRetries == 0 {
		config.Batch.MaxRetries = 5
	}

	if config.Rerank.Model == "" {
		config.Rerank.Model = "rerank-english-v3.0"
	}

	if config.Logging.Env == "" {
		config.Logging.Env = "development"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.Logging.Env = env
	}
}
