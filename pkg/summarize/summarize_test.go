package summarize_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ragbuilder/modelservice/pkg/batch"
	"github.com/ragbuilder/modelservice/pkg/prompt"
	"github.com/ragbuilder/modelservice/pkg/summarize"
)

// fakeLLM replays canned responses and records every prompt it receives.
type fakeLLM struct {
	responses []string
	prompts   []string
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	var b strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				b.WriteString(text.Text)
			}
		}
	}
	f.prompts = append(f.prompts, b.String())

	response := "summary"
	if len(f.responses) > 0 {
		response = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: response}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func charTokens(text string) (int, error) { return len(text), nil }

func testInvoker() *batch.Invoker {
	return batch.NewInvoker(batch.InvokerConfig{
		BatchPause: time.Microsecond,
		RetryDelay: time.Microsecond,
	}, nil)
}

func testPrompts(t *testing.T) *prompt.Set {
	t.Helper()
	set, err := prompt.Load()
	require.NoError(t, err)
	return set
}

func TestSummarize_StuffPathAtLimit(t *testing.T) {
	llm := &fakeLLM{responses: []string{"short summary"}}
	s := summarize.New(llm, summarize.Config{
		TokenLimit: 10,
		ChunkSize:  40000,
		Tokens:     charTokens,
	}, testPrompts(t), testInvoker(), nil)

	// Exactly at the limit takes the stuff path.
	doc := schema.Document{
		PageContent: strings.Repeat("a", 10),
		Metadata:    map[string]any{"file_id": "f1"},
	}
	out, err := s.Summarize(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "about 300 words")
	assert.Equal(t, "short summary", out.PageContent)
	assert.Equal(t, true, out.Metadata["is_summary"])
	assert.Equal(t, "f1", out.Metadata["file_id"])
}

func TestSummarize_MapReduceJustOverLimit(t *testing.T) {
	llm := &fakeLLM{}
	s := summarize.New(llm, summarize.Config{
		TokenLimit: 10,
		ChunkSize:  40000,
		Tokens:     charTokens,
	}, testPrompts(t), testInvoker(), nil)

	doc := schema.Document{PageContent: strings.Repeat("a", 11)}
	_, err := s.Summarize(context.Background(), doc)
	require.NoError(t, err)

	// One map call (short prompt) over the single chunk, then the reduce
	// call with the long-form prompt.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "max 200 words")
	assert.Contains(t, llm.prompts[1], "about 300 words")
}

func TestSummarize_MapReduceJoinsChunkSummaries(t *testing.T) {
	llm := &fakeLLM{responses: []string{"part-one", "part-two", "final"}}
	s := summarize.New(llm, summarize.Config{
		TokenLimit:   10,
		ChunkSize:    60,
		ChunkOverlap: 10,
		Tokens:       charTokens,
	}, testPrompts(t), testInvoker(), nil)

	doc := schema.Document{
		PageContent: strings.Repeat("many words flowing onward. ", 8),
		Metadata:    map[string]any{"project_id": "p1"},
	}
	out, err := s.Summarize(context.Background(), doc)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(llm.prompts), 3)
	reducePrompt := llm.prompts[len(llm.prompts)-1]
	assert.Contains(t, reducePrompt, "part-one part-two")
	assert.Equal(t, "final", out.PageContent)
	assert.Equal(t, true, out.Metadata["is_summary"])
	assert.Equal(t, "p1", out.Metadata["project_id"])
}

func TestSummarize_SourceMetadataNotMutated(t *testing.T) {
	llm := &fakeLLM{}
	s := summarize.New(llm, summarize.Config{
		TokenLimit: 100,
		Tokens:     charTokens,
	}, testPrompts(t), testInvoker(), nil)

	doc := schema.Document{
		PageContent: "small document",
		Metadata:    map[string]any{"file_id": "f1"},
	}
	_, err := s.Summarize(context.Background(), doc)
	require.NoError(t, err)

	_, tagged := doc.Metadata["is_summary"]
	assert.False(t, tagged)
}

func TestNew_WarnsOnUnderProvisionedTokenLimit(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	summarize.New(&fakeLLM{}, summarize.Config{
		TokenLimit: 1000, // 1000*4 < 40000+4000
		ChunkSize:  40000,
		Tokens:     charTokens,
	}, testPrompts(t), testInvoker(), logger)

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "chunk size")
}
