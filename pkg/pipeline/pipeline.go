// Package pipeline provides a small staged runner for composing indexing and
// retrieval flows. A pipeline is an ordered list of named stages executed in
// sequence; each stage receives the previous stage's output. Pipelines are
// built fresh per call and hold no cross-call state.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Stage is a single step in a pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context, input any) (any, error)
}

// StageOf adapts a typed function into a Stage. The stage fails if the value
// flowing through the pipeline is not assignable to I.
func StageOf[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) Stage {
	return Stage{
		Name: name,
		Run: func(ctx context.Context, input any) (any, error) {
			typed, ok := input.(I)
			if !ok {
				return nil, fmt.Errorf("stage %s: unexpected input type %T", name, input)
			}
			return fn(ctx, typed)
		},
	}
}

// Meta carries the call metadata attached to every pipeline execution for
// logging and tracing: which strategy ran, on whose behalf, and through which
// contract method.
type Meta struct {
	InstanceID string
	UserID     string
	Method     string
}

// Fields renders the metadata as zap fields.
func (m Meta) Fields() []zap.Field {
	return []zap.Field{
		zap.String("instance_id", m.InstanceID),
		zap.String("user_id", m.UserID),
		zap.String("method", m.Method),
	}
}

// Pipeline executes its stages in order.
type Pipeline struct {
	name   string
	meta   Meta
	stages []Stage
	logger *zap.Logger
}

// New creates a pipeline. A nil logger disables logging.
func New(name string, meta Meta, logger *zap.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		name:   name,
		meta:   meta,
		stages: stages,
		logger: logger.With(meta.Fields()...),
	}
}

// Invoke runs a single input through all stages and returns the final output.
func (p *Pipeline) Invoke(ctx context.Context, input any) (any, error) {
	value := input
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Run(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", p.name, stage.Name, err)
		}
		value = out
	}
	p.logger.Debug("pipeline complete", zap.String("pipeline", p.name))
	return value, nil
}

// Batch runs every input through the pipeline in order. The first failure
// aborts the batch; partial-failure tolerance is the batch invoker's job,
// not the pipeline's.
func (p *Pipeline) Batch(ctx context.Context, inputs []any) ([]any, error) {
	results := make([]any, 0, len(inputs))
	for i, input := range inputs {
		out, err := p.Invoke(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		results = append(results, out)
	}
	return results, nil
}
