package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tmc/langchaingo/schema"
)

// CohereConfig configures a Cohere rerank client.
type CohereConfig struct {
	// APIKey overrides the COHERE_API_KEY environment variable.
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Cohere is a minimal REST client to the Cohere rerank endpoint.
type Cohere struct {
	config CohereConfig
	client *http.Client
}

// NewCohere creates a Cohere reranker. The API key must be available at
// construction time.
func NewCohere(config CohereConfig) (*Cohere, error) {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("COHERE_API_KEY")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing API key, set COHERE_API_KEY")
	}
	if config.Model == "" {
		config.Model = "rerank-english-v3.0"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.cohere.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Cohere{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores every document against the query and returns the topN best,
// in the order the model assigned.
func (c *Cohere) Rerank(ctx context.Context, query string, docs []schema.Document, topN int) ([]schema.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     c.config.Model,
		Query:     query,
		Documents: texts,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("encode rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rerank request failed with status %d: %s", resp.StatusCode, body)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	ranked := make([]schema.Document, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		if result.Index < 0 || result.Index >= len(docs) {
			return nil, fmt.Errorf("rerank response references document %d of %d", result.Index, len(docs))
		}
		doc := docs[result.Index]
		doc.Score = float32(result.RelevanceScore)
		ranked = append(ranked, doc)
	}
	return ranked, nil
}
