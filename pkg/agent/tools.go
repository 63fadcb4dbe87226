package agent

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

// RetrieverFunc runs a scoped similarity search for the tool's index.
type RetrieverFunc func(ctx context.Context, query string) ([]schema.Document, error)

// Collector gathers every document the agent's tools retrieve during one
// run, in first-retrieval order and deduplicated by content, so the caller
// gets documents back even though the controller converses in text.
type Collector struct {
	seen map[string]struct{}
	docs []schema.Document
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Add records documents not seen before in this run.
func (c *Collector) Add(docs []schema.Document) {
	for _, doc := range docs {
		if _, ok := c.seen[doc.PageContent]; ok {
			continue
		}
		c.seen[doc.PageContent] = struct{}{}
		c.docs = append(c.docs, doc)
	}
}

// Documents returns the collected documents.
func (c *Collector) Documents() []schema.Document {
	return c.docs
}

// Retriever adapts a scoped similarity search into a Tool. Retrieved
// documents are rendered as the observation text and recorded in the
// collector.
type Retriever struct {
	name        string
	description string
	retrieve    RetrieverFunc
	collector   *Collector
}

// NewRetriever creates a retriever tool.
func NewRetriever(name, description string, retrieve RetrieverFunc, collector *Collector) *Retriever {
	return &Retriever{
		name:        name,
		description: description,
		retrieve:    retrieve,
		collector:   collector,
	}
}

func (r *Retriever) Name() string        { return r.name }
func (r *Retriever) Description() string { return r.description }

// Call runs the search and returns the retrieved passages separated by blank
// lines. No matches yield an explicit observation rather than empty text.
func (r *Retriever) Call(ctx context.Context, input string) (string, error) {
	docs, err := r.retrieve(ctx, input)
	if err != nil {
		return "", err
	}
	r.collector.Add(docs)

	if len(docs) == 0 {
		return "no matching documents found", nil
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, "\n\n"), nil
}
