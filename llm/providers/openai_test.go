package providers

import (
	"testing"

	"github.com/andinanews/pipeline/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_BuildRequestBody(t *testing.T) {
	o := &OpenAI{}
	body, err := o.BuildRequestBody("gpt-4o", []llm.Message{{Role: "user", Content: "hi"}}, nil, 512)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"model":"gpt-4o"`)
	assert.Contains(t, string(body), `"max_tokens":512`)
}

func TestOpenAI_ParseResponse(t *testing.T) {
	o := &OpenAI{}
	body := []byte(`{
		"model": "gpt-4o",
		"choices": [{"message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
	}`)
	resp, err := o.ParseResponse(body, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestOpenAI_ParseResponse_NoChoicesIsError(t *testing.T) {
	o := &OpenAI{}
	_, err := o.ParseResponse([]byte(`{"model": "gpt-4o", "choices": []}`), "gpt-4o")
	require.Error(t, err)
}

func TestOpenAI_RegisteredByName(t *testing.T) {
	p, err := llm.GetProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}
