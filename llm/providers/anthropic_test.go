package providers

import (
	"testing"

	"github.com/andinanews/pipeline/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropic_BuildRequestBody(t *testing.T) {
	a := &Anthropic{}
	temp := 0.2
	body, err := a.BuildRequestBody("claude-3-opus", []llm.Message{{Role: "user", Content: "hi"}}, &temp, 1024)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"model":"claude-3-opus"`)
	assert.Contains(t, string(body), `"max_tokens":1024`)
}

func TestAnthropic_BuildRequestBody_DefaultsMaxTokens(t *testing.T) {
	a := &Anthropic{}
	body, err := a.BuildRequestBody("claude-3-opus", []llm.Message{{Role: "user", Content: "hi"}}, nil, 0)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"max_tokens":4096`)
}

func TestAnthropic_ParseResponse(t *testing.T) {
	a := &Anthropic{}
	body := []byte(`{
		"content": [{"type": "text", "text": "hello "}, {"type": "text", "text": "world"}],
		"model": "claude-3-opus",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`)
	resp, err := a.ParseResponse(body, "claude-3-opus")
	require.NoError(t, err)
	assert.Equal(t, "hello world", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestAnthropic_BuildURL_DefaultsWhenEmpty(t *testing.T) {
	a := &Anthropic{}
	assert.Equal(t, "https://api.anthropic.com/v1/messages", a.BuildURL(""))
	assert.Equal(t, "https://custom.example/v1/messages", a.BuildURL("https://custom.example/v1/messages"))
}

func TestAnthropic_RegisteredByName(t *testing.T) {
	p, err := llm.GetProvider("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}
