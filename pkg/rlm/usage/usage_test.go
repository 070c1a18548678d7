package usage

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlatShape(t *testing.T) {
	u, err := Normalize(map[string]any{
		"prompt_tokens":     float64(120),
		"completion_tokens": float64(30),
		"total_tokens":      float64(150),
		"prompt_tokens_details": map[string]any{
			"cached_tokens": float64(100),
		},
		"completion_tokens_details": map[string]any{
			"reasoning_tokens": float64(12),
		},
		"cost": 0.0042,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(120), u.PromptTokens)
	assert.Equal(t, int64(30), u.CompletionTokens)
	assert.Equal(t, int64(150), u.TotalTokens)
	assert.Equal(t, int64(100), u.CachedTokens)
	assert.Equal(t, int64(12), u.ReasoningTokens)
	assert.InDelta(t, 0.0042, u.Cost, 1e-9)
}

func TestNormalizeNestedShape(t *testing.T) {
	u, err := Normalize(map[string]any{
		"usageMetadata": map[string]any{
			"promptTokenCount":     float64(80),
			"candidatesTokenCount": float64(20),
			"totalTokenCount":      float64(100),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(80), u.PromptTokens)
	assert.Equal(t, int64(20), u.CompletionTokens)
	assert.Equal(t, int64(100), u.TotalTokens)
}

func TestNormalizeTotalFallsBack(t *testing.T) {
	u, err := Normalize(map[string]any{
		"prompt_tokens":     float64(10),
		"completion_tokens": float64(5),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), u.TotalTokens)
}

func TestNormalizeCoercesBadNumbers(t *testing.T) {
	u, err := Normalize(map[string]any{
		"prompt_tokens":     float64(-7),
		"completion_tokens": math.NaN(),
		"total_tokens":      "lots",
		"cost":              math.Inf(1),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), u.PromptTokens)
	assert.Equal(t, int64(0), u.CompletionTokens)
	assert.Equal(t, int64(0), u.TotalTokens)
	assert.Equal(t, float64(0), u.Cost)
}

func TestNormalizeNonObject(t *testing.T) {
	_, err := Normalize("not an object")
	assert.ErrorIs(t, err, ErrInvalidUsage)

	_, err = Normalize(nil)
	assert.ErrorIs(t, err, ErrInvalidUsage)
}

func TestNormalizeRawJSON(t *testing.T) {
	u, err := Normalize(json.RawMessage(`{"prompt_tokens": 3, "completion_tokens": 4}`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.PromptTokens)
	assert.Equal(t, int64(7), u.TotalTokens)
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize(map[string]any{
		"prompt_tokens":     float64(42),
		"completion_tokens": float64(8),
	})
	require.NoError(t, err)

	second, err := Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
