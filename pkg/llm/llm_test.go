package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbuilder/modelservice/pkg/llm"
)

func TestNewModel_FailsWithoutCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := llm.NewModel(llm.Config{Model: "gpt-4"})
	assert.Error(t, err)
}

func TestNewModel_WithToken(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	model, err := llm.NewModel(llm.Config{Model: "gpt-4", Token: "test-token"})
	require.NoError(t, err)
	assert.NotNil(t, model)
}

func TestNewEmbedder_FailsWithoutCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := llm.NewEmbedder(llm.Config{})
	assert.Error(t, err)
}

func TestNewEmbedder_WithToken(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	embedder, err := llm.NewEmbedder(llm.Config{Token: "test-token"})
	require.NoError(t, err)
	assert.NotNil(t, embedder)
}
