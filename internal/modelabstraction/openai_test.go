package modelabstraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseParams_UsesMaxTokensForStandardModel(t *testing.T) {
	a := &OpenAIAdapter{model: "gpt-4o"}
	params := a.baseParams(nil, map[string]interface{}{"maxTokens": 512})
	assert.True(t, params.MaxTokens.Valid())
	assert.False(t, params.MaxCompletionTokens.Valid())
	assert.Equal(t, int64(512), params.MaxTokens.Value)
}

func TestBaseParams_UsesMaxCompletionTokensForReasoningModel(t *testing.T) {
	a := &OpenAIAdapter{model: "o3-mini"}
	params := a.baseParams(nil, map[string]interface{}{"maxTokens": 512})
	assert.True(t, params.MaxCompletionTokens.Valid())
	assert.False(t, params.MaxTokens.Valid())
}

func TestBaseParams_SetsTemperatureAndTopP(t *testing.T) {
	a := &OpenAIAdapter{model: "gpt-4o"}
	params := a.baseParams(nil, map[string]interface{}{"temperature": 0.2, "topP": 0.8})
	assert.Equal(t, 0.2, params.Temperature.Value)
	assert.Equal(t, 0.8, params.TopP.Value)
}

func TestBaseParams_NoLLMParamsLeavesFieldsUnset(t *testing.T) {
	a := &OpenAIAdapter{model: "gpt-4o"}
	params := a.baseParams(nil, nil)
	assert.False(t, params.MaxTokens.Valid())
	assert.False(t, params.Temperature.Valid())
	assert.False(t, params.TopP.Valid())
}

func TestAsInt64(t *testing.T) {
	v, ok := asInt64(42)
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	v, ok = asInt64(float64(42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	_, ok = asInt64("nope")
	assert.False(t, ok)
}

func TestAsFloat64(t *testing.T) {
	v, ok := asFloat64(0.5)
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	v, ok = asFloat64(2)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = asFloat64("nope")
	assert.False(t, ok)
}

func TestExtractLogprobs_NilCompletion(t *testing.T) {
	assert.Nil(t, extractLogprobs(nil))
}
