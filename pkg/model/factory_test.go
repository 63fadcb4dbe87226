package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbuilder/modelservice/pkg/model"
)

func TestParseKind_RoundTrip(t *testing.T) {
	ids := []string{
		"RAG-vanilla-v1",
		"RAG-rerank-v1-ch",
		"ABM-router-v1-si",
		"ABM-react-v1-si",
	}
	for _, id := range ids {
		kind, err := model.ParseKind(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, kind.InstanceID())
	}
}

func TestParseKind_Unknown(t *testing.T) {
	_, err := model.ParseKind("RAG-vanilla-v2")
	assert.ErrorIs(t, err, model.ErrUnknownStrategy)
}

func TestNew_MissingProviderCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LANGCHAIN_API_KEY", "test-key")

	_, err := model.New(model.KindVanilla, model.Config{}, newTestDeps())
	require.ErrorIs(t, err, model.ErrConfiguration)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestNew_MissingTracingCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("LANGCHAIN_API_KEY", "")

	_, err := model.New(model.KindVanilla, model.Config{}, newTestDeps())
	require.ErrorIs(t, err, model.ErrConfiguration)
	assert.Contains(t, err.Error(), "LANGCHAIN_API_KEY")
}

func TestNew_RequiresStore(t *testing.T) {
	setCredentials(t)

	_, err := model.New(model.KindVanilla, model.Config{}, model.Deps{})
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestNew_RerankRequiresRerankerCredential(t *testing.T) {
	setCredentials(t)
	t.Setenv("COHERE_API_KEY", "")

	_, err := model.New(model.KindRerank, model.Config{}, newTestDeps())
	require.ErrorIs(t, err, model.ErrConfiguration)
	assert.Contains(t, err.Error(), "COHERE_API_KEY")
}

func TestNewFromID(t *testing.T) {
	setCredentials(t)

	m, err := model.NewFromID("RAG-vanilla-v1", model.Config{}, newTestDeps())
	require.NoError(t, err)
	assert.Equal(t, "RAG-vanilla-v1", m.InstanceID())

	_, err = model.NewFromID("not-a-strategy", model.Config{}, newTestDeps())
	assert.ErrorIs(t, err, model.ErrUnknownStrategy)
}

func TestNew_UnknownKind(t *testing.T) {
	setCredentials(t)

	_, err := model.New(model.Kind(42), model.Config{}, newTestDeps())
	assert.ErrorIs(t, err, model.ErrUnknownStrategy)
}
