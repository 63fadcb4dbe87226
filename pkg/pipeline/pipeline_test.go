package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbuilder/modelservice/pkg/pipeline"
)

func TestInvoke_RunsStagesInOrder(t *testing.T) {
	p := pipeline.New("test", pipeline.Meta{InstanceID: "RAG-vanilla-v1"}, nil,
		pipeline.StageOf("upper", func(_ context.Context, s string) (string, error) {
			return strings.ToUpper(s), nil
		}),
		pipeline.StageOf("exclaim", func(_ context.Context, s string) (string, error) {
			return s + "!", nil
		}),
	)

	out, err := p.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO!", out)
}

func TestInvoke_StageErrorNamesStage(t *testing.T) {
	boom := errors.New("boom")
	p := pipeline.New("index", pipeline.Meta{}, nil,
		pipeline.StageOf("clean", func(_ context.Context, s string) (string, error) {
			return s, nil
		}),
		pipeline.StageOf("upsert", func(_ context.Context, _ string) (string, error) {
			return "", boom
		}),
	)

	_, err := p.Invoke(context.Background(), "doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "index/upsert")
}

func TestInvoke_TypeMismatch(t *testing.T) {
	p := pipeline.New("test", pipeline.Meta{}, nil,
		pipeline.StageOf("wants-int", func(_ context.Context, n int) (int, error) {
			return n + 1, nil
		}),
	)

	_, err := p.Invoke(context.Background(), "not an int")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected input type")
}

func TestInvoke_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.New("test", pipeline.Meta{}, nil,
		pipeline.StageOf("noop", func(_ context.Context, s string) (string, error) {
			return s, nil
		}),
	)

	_, err := p.Invoke(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatch(t *testing.T) {
	p := pipeline.New("test", pipeline.Meta{}, nil,
		pipeline.StageOf("double", func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		}),
	)

	out, err := p.Batch(context.Background(), []any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4, 6}, out)
}

func TestBatch_FirstFailureAborts(t *testing.T) {
	p := pipeline.New("test", pipeline.Meta{}, nil,
		pipeline.StageOf("pick", func(_ context.Context, n int) (int, error) {
			if n == 2 {
				return 0, errors.New("bad input")
			}
			return n, nil
		}),
	)

	_, err := p.Batch(context.Background(), []any{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input 1")
}
