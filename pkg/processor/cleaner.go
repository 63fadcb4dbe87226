package processor

import (
	"strings"

	"github.com/tmc/langchaingo/schema"
)

// RemoveNewlines normalizes a document's content by replacing newlines with
// spaces and collapsing runs of whitespace. It runs ahead of chunking and
// summarization so that chunk boundaries and token estimates are computed
// over clean text. The input document is not mutated.
func RemoveNewlines(doc schema.Document) schema.Document {
	content := strings.ReplaceAll(doc.PageContent, "\n", " ")
	content = strings.Join(strings.Fields(content), " ")

	return schema.Document{
		PageContent: content,
		Metadata:    copyMetadata(doc.Metadata),
		Score:       doc.Score,
	}
}

func copyMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
