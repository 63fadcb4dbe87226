package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ragbuilder/modelservice/internal/logger"
	"github.com/ragbuilder/modelservice/pkg/config"
	"github.com/ragbuilder/modelservice/pkg/llm"
	"github.com/ragbuilder/modelservice/pkg/model"
	"github.com/ragbuilder/modelservice/pkg/store"
)

type rootOptions struct {
	configPath string
	strategy   string
	namespace  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ragctl",
		Short:         "Index, query, and deindex documents through retrieval strategies",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.strategy, "strategy", model.InstanceVanilla,
		fmt.Sprintf("strategy id (%s)", strings.Join([]string{
			model.InstanceVanilla, model.InstanceRerank, model.InstanceRouter, model.InstanceReact,
		}, ", ")))
	cmd.PersistentFlags().StringVar(&opts.namespace, "namespace", "", "tenant namespace (required)")

	cmd.AddCommand(
		newIndexCommand(opts),
		newQueryCommand(opts),
		newDeindexCommand(opts),
	)
	return cmd
}

// app bundles everything a subcommand needs, built once per invocation.
type app struct {
	config *config.Config
	logger *zap.Logger
	model  model.Model
	store  *store.PGVector
}

func (o *rootOptions) buildApp(ctx context.Context) (*app, error) {
	if o.namespace == "" {
		return nil, fmt.Errorf("--namespace is required")
	}

	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	zl, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewEmbedder(llm.Config{
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		BaseURL:        cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	st, err := store.NewPGVector(ctx, store.PGVectorConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
	}, embedder)
	if err != nil {
		return nil, err
	}

	m, err := model.NewFromID(o.strategy, model.Config{
		ChunkSize:           cfg.Processor.ChunkSize,
		ChunkOverlap:        cfg.Processor.ChunkOverlap,
		K:                   cfg.Retrieval.K,
		KRetrieve:           cfg.Retrieval.KRetrieve,
		KRerank:             cfg.Retrieval.KRerank,
		SummaryChunkSize:    cfg.Processor.SummaryChunkSize,
		SummaryChunkOverlap: cfg.Processor.SummaryChunkOverlap,
		TokenLimit:          cfg.LLM.TokenLimit,
		SummarizeModel:      cfg.LLM.Model,
		MaxSteps:            cfg.Retrieval.MaxAgentSteps,
		UserTier:            cfg.Batch.UserTier,
	}, model.Deps{
		Store:  st,
		Logger: zl,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{config: cfg, logger: zl, model: m, store: st}, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}
