// Package prompt holds the static prompt templates used by the indexing and
// retrieval strategies. Templates are embedded at build time; a Set is loaded
// once during strategy construction and carried as part of its configuration.
package prompt

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

//go:embed templates
var templates embed.FS

// Set is the collection of prompt templates a strategy needs. It is immutable
// after Load.
type Set struct {
	// Summarize is the long-form (about 300 words) summarization prompt used
	// on the stuff and reduce paths.
	Summarize prompts.PromptTemplate
	// SummarizeShort is the short-form (max 200 words) prompt used on the map
	// path, once per chunk.
	SummarizeShort prompts.PromptTemplate
	// React drives the react-style agent loop.
	React prompts.PromptTemplate
	// Router drives the single routing decision of the router strategy.
	Router prompts.PromptTemplate

	// ChunkRetriever and SummaryRetriever describe the two retrieval tools to
	// the agent controller.
	ChunkRetriever   string
	SummaryRetriever string
}

// Load reads the embedded templates into a Set.
func Load() (*Set, error) {
	summarize, err := load("templates/summarize.md", []string{"context"})
	if err != nil {
		return nil, err
	}
	summarizeShort, err := load("templates/summarize_short.md", []string{"context"})
	if err != nil {
		return nil, err
	}
	react, err := load("templates/react.md",
		[]string{"tools", "tool_names", "input", "agent_scratchpad"})
	if err != nil {
		return nil, err
	}
	router, err := load("templates/router.md", []string{"query"})
	if err != nil {
		return nil, err
	}
	chunkDescr, err := read("templates/descriptions/chunk_retriever.md")
	if err != nil {
		return nil, err
	}
	summaryDescr, err := read("templates/descriptions/summary_retriever.md")
	if err != nil {
		return nil, err
	}

	return &Set{
		Summarize:        summarize,
		SummarizeShort:   summarizeShort,
		React:            react,
		Router:           router,
		ChunkRetriever:   chunkDescr,
		SummaryRetriever: summaryDescr,
	}, nil
}

// FromFile loads a prompt template from a file on disk, for deployments that
// override the embedded defaults.
func FromFile(path string, inputVariables []string) (prompts.PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return prompts.PromptTemplate{}, fmt.Errorf("read prompt %s: %w", path, err)
	}
	return prompts.NewPromptTemplate(strings.TrimRight(string(data), "\n"), inputVariables), nil
}

func load(name string, inputVariables []string) (prompts.PromptTemplate, error) {
	text, err := read(name)
	if err != nil {
		return prompts.PromptTemplate{}, err
	}
	return prompts.NewPromptTemplate(text, inputVariables), nil
}

func read(name string) (string, error) {
	data, err := templates.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read embedded prompt %s: %w", name, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
