package providers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/andinanews/pipeline/llm"
)

func init() {
	llm.RegisterProvider(&Ollama{})
}

// Ollama adapts Client calls to a local Ollama instance, used as a
// last-resort fallback endpoint when remote providers are unavailable.
type Ollama struct{}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) BuildURL(endpoint string) string {
	if endpoint == "" {
		return "http://localhost:11434/api/chat"
	}
	return endpoint
}

func (o *Ollama) SetHeaders(req *http.Request) {}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

func (o *Ollama) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	msgs := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	var opts map[string]any
	if temperature != nil {
		opts = map[string]any{"temperature": *temperature}
	}
	return json.Marshal(ollamaRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
		Options:  opts,
	})
}

type ollamaResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (o *Ollama) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: unmarshal response: %w", err)
	}
	if resp.Model == "" {
		resp.Model = model
	}
	finish := "stop"
	if !resp.Done {
		finish = "incomplete"
	}
	return &llm.Response{
		Content:      resp.Message.Content,
		Model:        resp.Model,
		FinishReason: finish,
	}, nil
}
