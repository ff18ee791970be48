package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ForModel_Prefixes(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		modelID string
		want    string
	}{
		{"anthropic.claude-v2", "anthropic"},
		{"anthropic.claude-3-5-sonnet-20241022-v2:0", "anthropic"},
		{"amazon.titan-text-express-v1", "amazon"},
		{"deepseek.r1-v1:0", "deepseek"},
		{"mistral.mistral-7b-instruct-v0:2", "mistral"},
	}
	for _, tc := range cases {
		t.Run(tc.modelID, func(t *testing.T) {
			adapter, err := r.ForModel(tc.modelID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, adapter.Name())
		})
	}
}

func TestRegistry_ForModel_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.ForModel("cohere.command-text-v14")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestRegistry_ForModel_ExactPrefixNotSubstring(t *testing.T) {
	r := NewRegistry()

	// Substring matching would wrongly accept these.
	_, err := r.ForModel("notanthropic.model-v1")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = r.ForModel("my-anthropic-proxy.v1")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestRegistry_ForModel_NoDot(t *testing.T) {
	r := NewRegistry()

	// A bare prefix with no model segment still resolves deterministically.
	adapter, err := r.ForModel("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", adapter.Name())
}
