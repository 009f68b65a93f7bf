package aimodel_test

import (
	"testing"

	"github.com/germanamz/kata/pkg/aimodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := aimodel.ParseKind("openai")
	require.NoError(t, err)
	assert.Equal(t, aimodel.OpenAI, k)

	k, err = aimodel.ParseKind("litellm")
	require.NoError(t, err)
	assert.Equal(t, aimodel.LiteLLM, k)

	for _, bad := range []string{"", "invalid", "OpenAI", " openai"} {
		_, err := aimodel.ParseKind(bad)
		ice := requireInvalid(t, err, aimodel.ReasonUnsupportedKind)
		assert.Equal(t, "MODEL_TYPE", ice.Variable)
	}
}

func TestKind_RoundTrip(t *testing.T) {
	for _, k := range aimodel.Kinds {
		assert.True(t, k.Valid())

		text, err := k.MarshalText()
		require.NoError(t, err)

		var got aimodel.Kind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}
}

func TestKind_Zero(t *testing.T) {
	var k aimodel.Kind

	assert.False(t, k.Valid())
	assert.Equal(t, "unknown", k.String())

	_, err := k.MarshalText()
	assert.ErrorIs(t, err, aimodel.ErrInvalidConfiguration)
}
