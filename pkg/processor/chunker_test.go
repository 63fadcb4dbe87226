package processor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"github.com/ragbuilder/modelservice/pkg/processor"
)

func TestSplit_SmallDocumentSingleChunk(t *testing.T) {
	c := processor.NewChunker(processor.ChunkerConfig{ChunkSize: 1500, ChunkOverlap: 50})

	content := strings.Repeat("five hundred characters of text. ", 16)[:500]
	doc := schema.Document{
		PageContent: content,
		Metadata:    map[string]any{"file_id": "f1"},
	}

	chunks, err := c.Split(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].PageContent)
}

func TestSplit_BoundedSize(t *testing.T) {
	c := processor.NewChunker(processor.ChunkerConfig{ChunkSize: 100, ChunkOverlap: 20})

	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("this is a sentence about retrieval. ")
	}

	chunks, err := c.Split(schema.Document{PageContent: b.String()})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.PageContent), 100)
	}
}

func TestSplit_MetadataInheritedPerChunk(t *testing.T) {
	c := processor.NewChunker(processor.ChunkerConfig{ChunkSize: 80, ChunkOverlap: 10})

	doc := schema.Document{
		PageContent: strings.Repeat("some words to split over several chunks. ", 10),
		Metadata:    map[string]any{"project_id": "p1", "title": "Report"},
	}

	chunks, err := c.Split(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.Equal(t, "p1", chunk.Metadata["project_id"])
		assert.Equal(t, "Report", chunk.Metadata["title"])
	}

	// Copies, not shared maps.
	chunks[0].Metadata["title"] = "changed"
	assert.Equal(t, "Report", chunks[1].Metadata["title"])
	assert.Equal(t, "Report", doc.Metadata["title"])
}

func TestSplit_Deterministic(t *testing.T) {
	c := processor.NewChunker(processor.ChunkerConfig{ChunkSize: 120, ChunkOverlap: 30})
	doc := schema.Document{
		PageContent: strings.Repeat("deterministic chunk boundaries are required. ", 12),
	}

	first, err := c.Split(doc)
	require.NoError(t, err)
	second, err := c.Split(doc)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].PageContent, second[i].PageContent)
	}
}

func TestSplit_OverlapSharesBoundaryContext(t *testing.T) {
	c := processor.NewChunker(processor.ChunkerConfig{ChunkSize: 100, ChunkOverlap: 40})

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("alpha beta gamma delta epsilon zeta. ")
	}

	chunks, err := c.Split(schema.Document{PageContent: b.String()})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 0; i < len(chunks)-1; i++ {
		head := chunks[i+1].PageContent
		if len(head) > 40 {
			head = head[:40]
		}
		// The start of each chunk repeats context from the tail of the
		// previous one.
		assert.Contains(t, chunks[i].PageContent, strings.Fields(head)[0])
	}
}

func TestSplitAll_PreservesOrder(t *testing.T) {
	c := processor.NewChunker(processor.ChunkerConfig{ChunkSize: 1500, ChunkOverlap: 50})

	docs := []schema.Document{
		{PageContent: "first document", Metadata: map[string]any{"file_id": "a"}},
		{PageContent: "second document", Metadata: map[string]any{"file_id": "b"}},
	}

	chunks, err := c.SplitAll(docs)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Metadata["file_id"])
	assert.Equal(t, "b", chunks[1].Metadata["file_id"])
}

func TestRemoveNewlines(t *testing.T) {
	doc := schema.Document{
		PageContent: "line one\nline two\n\nline three",
		Metadata:    map[string]any{"file_id": "f1"},
	}

	clean := processor.RemoveNewlines(doc)
	assert.Equal(t, "line one line two line three", clean.PageContent)
	assert.Equal(t, "f1", clean.Metadata["file_id"])

	// Original document is untouched.
	assert.Contains(t, doc.PageContent, "\n")

	clean.Metadata["file_id"] = "other"
	assert.Equal(t, "f1", doc.Metadata["file_id"])
}
