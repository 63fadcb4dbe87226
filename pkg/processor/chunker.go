// Package processor prepares documents for indexing: cleaning the raw text
// and splitting it into bounded-size, overlapping chunks for retrieval.
package processor

import (
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// ChunkerConfig configures a Chunker.
type ChunkerConfig struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int
	// ChunkOverlap is the number of characters shared between consecutive
	// chunks so context is not lost at boundaries.
	ChunkOverlap int
}

// Chunker splits documents into retrieval-sized chunks using a recursive
// character splitter. Splitting is deterministic: identical input and
// configuration produce identical chunk boundaries.
type Chunker struct {
	config   ChunkerConfig
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates a Chunker, applying defaults for unset config values.
func NewChunker(config ChunkerConfig) Chunker {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1500
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 50
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(config.ChunkSize),
		textsplitter.WithChunkOverlap(config.ChunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
	)

	return Chunker{
		config:   config,
		splitter: splitter,
	}
}

// Split splits a document into chunks of at most ChunkSize characters. Every
// chunk receives its own copy of the parent document's metadata so it stays
// traceable to the source file. A document at or under ChunkSize comes back
// as a single chunk.
func (c Chunker) Split(doc schema.Document) ([]schema.Document, error) {
	parts, err := c.splitter.SplitText(doc.PageContent)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}

	chunks := make([]schema.Document, 0, len(parts))
	for _, part := range parts {
		chunks = append(chunks, schema.Document{
			PageContent: part,
			Metadata:    copyMetadata(doc.Metadata),
		})
	}
	return chunks, nil
}

// SplitAll splits a batch of documents, preserving document order.
func (c Chunker) SplitAll(docs []schema.Document) ([]schema.Document, error) {
	var chunks []schema.Document
	for _, doc := range docs {
		split, err := c.Split(doc)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, split...)
	}
	return chunks, nil
}
