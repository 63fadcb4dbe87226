package model

import (
	"fmt"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/pkg/batch"
	"github.com/ragbuilder/modelservice/pkg/llm"
	"github.com/ragbuilder/modelservice/pkg/prompt"
	"github.com/ragbuilder/modelservice/pkg/rerank"
	"github.com/ragbuilder/modelservice/pkg/store"
	"github.com/ragbuilder/modelservice/pkg/summarize"
)

// Stable external strategy identifiers. These appear in client requests and
// stored records and must never change.
const (
	InstanceVanilla = "RAG-vanilla-v1"
	InstanceRerank  = "RAG-rerank-v1-ch"
	InstanceRouter  = "ABM-router-v1-si"
	InstanceReact   = "ABM-react-v1-si"
)

// Kind selects a strategy implementation.
type Kind int

const (
	KindVanilla Kind = iota
	KindRerank
	KindRouter
	KindReact
)

// InstanceID returns the external identifier for the kind.
func (k Kind) InstanceID() string {
	switch k {
	case KindVanilla:
		return InstanceVanilla
	case KindRerank:
		return InstanceRerank
	case KindRouter:
		return InstanceRouter
	case KindReact:
		return InstanceReact
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// ParseKind resolves an external identifier to its Kind.
func ParseKind(id string) (Kind, error) {
	switch id {
	case InstanceVanilla:
		return KindVanilla, nil
	case InstanceRerank:
		return KindRerank, nil
	case InstanceRouter:
		return KindRouter, nil
	case InstanceReact:
		return KindReact, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
}

// Config carries every strategy setting. Each strategy reads the fields it
// needs and ignores the rest; zero values fall back to the strategy defaults.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	K            int

	KRetrieve int
	KRerank   int

	SummaryChunkSize    int
	SummaryChunkOverlap int
	TokenLimit          int
	SummarizeModel      string

	MaxSteps int

	// UserTier drives the batch sizing of index runs.
	UserTier int
	// BatchPause overrides the pause between index batches.
	BatchPause time.Duration
}

// Deps are the collaborators a strategy is assembled from. Store is
// mandatory. Nil LLM, reranker, or prompt fields are built from the
// environment, which is where the credential checks bite.
type Deps struct {
	Store store.Store

	// IndexLLM powers summarization; InvokeLLM powers routing and the agent
	// loop. They may be the same model.
	IndexLLM  llms.Model
	InvokeLLM llms.Model

	Reranker rerank.Reranker
	Prompts  *prompt.Set
	Logger   *zap.Logger

	// TokenCounter overrides the summarizer's tokenizer, mainly for tests.
	TokenCounter summarize.TokenCounter
}

// New assembles a strategy. Missing credentials fail here, at construction,
// not on the first call.
func New(kind Kind, config Config, deps Deps) (Model, error) {
	if err := checkEnvironment(); err != nil {
		return nil, err
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrConfiguration)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Prompts == nil {
		set, err := prompt.Load()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
		}
		deps.Prompts = set
	}

	invoker := batch.NewInvoker(batch.InvokerConfig{
		UserTier:   config.UserTier,
		BatchPause: config.BatchPause,
	}, deps.Logger)
	vanillaConfig := VanillaConfig{
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
		K:            config.K,
	}

	switch kind {
	case KindVanilla:
		return newVanilla(InstanceVanilla, vanillaConfig, deps.Store, invoker, deps.Logger), nil

	case KindRerank:
		reranker := deps.Reranker
		if reranker == nil {
			var err error
			reranker, err = rerank.NewCohere(rerank.CohereConfig{})
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
			}
		}
		vanilla := newVanilla(InstanceRerank, vanillaConfig, deps.Store, invoker, deps.Logger)
		return newRerank(RerankConfig{
			VanillaConfig: vanillaConfig,
			KRetrieve:     config.KRetrieve,
			KRerank:       config.KRerank,
		}, vanilla, reranker), nil

	case KindRouter, KindReact:
		indexLLM, invokeLLM, err := resolveLLMs(deps)
		if err != nil {
			return nil, err
		}

		routerConfig := RouterConfig{
			VanillaConfig:       vanillaConfig,
			SummaryChunkSize:    config.SummaryChunkSize,
			SummaryChunkOverlap: config.SummaryChunkOverlap,
			TokenLimit:          config.TokenLimit,
			SummarizeModel:      config.SummarizeModel,
		}
		summarizer := summarize.New(indexLLM, summarize.Config{
			Model:        config.SummarizeModel,
			TokenLimit:   config.TokenLimit,
			ChunkSize:    config.SummaryChunkSize,
			ChunkOverlap: config.SummaryChunkOverlap,
			Tokens:       deps.TokenCounter,
		}, deps.Prompts, invoker, deps.Logger)

		vanilla := newVanilla(kind.InstanceID(), vanillaConfig, deps.Store, invoker, deps.Logger)
		router := newRouter(routerConfig, vanilla, summarizer, invokeLLM, deps.Prompts)
		if kind == KindRouter {
			return router, nil
		}
		return newReact(ReactConfig{
			RouterConfig: routerConfig,
			MaxSteps:     config.MaxSteps,
		}, router), nil
	}

	return nil, fmt.Errorf("%w: kind %d", ErrUnknownStrategy, int(kind))
}

// NewFromID assembles the strategy named by an external identifier.
func NewFromID(id string, config Config, deps Deps) (Model, error) {
	kind, err := ParseKind(id)
	if err != nil {
		return nil, err
	}
	return New(kind, config, deps)
}

func resolveLLMs(deps Deps) (indexLLM, invokeLLM llms.Model, err error) {
	indexLLM = deps.IndexLLM
	invokeLLM = deps.InvokeLLM
	if indexLLM == nil {
		indexLLM, err = llm.NewModel(llm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
		}
	}
	if invokeLLM == nil {
		invokeLLM = indexLLM
	}
	return indexLLM, invokeLLM, nil
}

// checkEnvironment verifies the credentials every strategy depends on.
func checkEnvironment() error {
	for _, key := range []string{"OPENAI_API_KEY", "LANGCHAIN_API_KEY"} {
		if os.Getenv(key) == "" {
			return fmt.Errorf("%w: %s is not set", ErrConfiguration, key)
		}
	}
	return nil
}
