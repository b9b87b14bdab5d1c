// Package llm provides a provider-agnostic LLM client with retry,
// timeout, and circuit-breaker support, as specified for the external
// LLM adapter.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andinanews/pipeline/errs"
	"github.com/andinanews/pipeline/internal/breaker"
	"github.com/andinanews/pipeline/internal/retry"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request defines an LLM completion request.
type Request struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   int
	// Phase identifies the calling phase, used only for logging/metrics.
	Phase string
}

// TokenUsage reports token consumption for a completion call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the LLM completion result.
type Response struct {
	Content      string
	Model        string
	Usage        TokenUsage
	FinishReason string
}

// Client is a provider-agnostic LLM client enforcing timeout, bounded
// retry with exponential backoff, and a circuit breaker.
type Client struct {
	provider   Provider
	endpoint   string
	model      string
	httpClient *http.Client
	retryPolicy retry.Policy
	breaker    *breaker.Breaker
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(cl *Client) { cl.retryPolicy = p }
}

func WithBreakerConfig(cfg breaker.Config) ClientOption {
	return func(cl *Client) { cl.breaker = breaker.New(cfg) }
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = logger }
}

// DefaultRetryPolicy returns the spec's LLM retry defaults: max 2
// retries (3 attempts), 1s initial backoff, x2 multiplier, 60s cap.
func DefaultRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:       3,
		BackoffBase:       1 * time.Second,
		BackoffMultiplier: 2,
		MaxBackoff:        60 * time.Second,
	}
}

// NewClient creates a new LLM client talking to the given provider and
// endpoint/model.
func NewClient(provider Provider, endpoint, model string, opts ...ClientOption) *Client {
	c := &Client{
		provider:    provider,
		endpoint:    endpoint,
		model:       model,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		retryPolicy: DefaultRetryPolicy(),
		breaker:     breaker.New(breaker.DefaultConfig()),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BreakerState exposes the underlying breaker state for health checks and
// the circuit_breaker_state gauge.
func (c *Client) BreakerState() breaker.State { return c.breaker.State() }

// BreakerOpenSince reports how long the breaker has been continuously
// OPEN (zero if not OPEN), for the "breaker OPEN > 60s" alert rule.
func (c *Client) BreakerOpenSince() time.Duration { return c.breaker.OpenSince() }

// Complete sends a completion request, honoring the circuit breaker and
// retry policy. On exhaustion it returns an *errs.LLMUnavailable.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, errs.NewProcessingError(req.Phase, fmt.Errorf("at least one message is required"))
	}

	if !c.breaker.Allow() {
		return nil, errs.NewLLMUnavailable(0, 0, false, fmt.Errorf("circuit breaker open"))
	}

	var resp *Response
	var lastStatus int
	var timedOut bool

	attempts, err := retry.Do(ctx, c.retryPolicy, classify, func() error {
		r, status, callErr := c.doRequest(ctx, req)
		lastStatus = status
		if callErr != nil {
			if retry.IsCancelled(callErr) {
				timedOut = true
			}
			return callErr
		}
		resp = r
		return nil
	})

	if err != nil {
		c.breaker.Failure()
		c.logger.Warn("llm call failed", "phase", req.Phase, "attempts", attempts, "error", err)
		return nil, errs.NewLLMUnavailable(attempts-1, lastStatus, timedOut, err)
	}

	c.breaker.Success()
	return resp, nil
}

// doRequest executes a single HTTP request to the LLM endpoint and
// classifies the resulting error, returning the HTTP status code (0 if
// the request never reached the server) for diagnostics.
func (c *Client) doRequest(ctx context.Context, req Request) (*Response, int, error) {
	url := c.provider.BuildURL(c.endpoint)

	body, err := c.provider.BuildRequestBody(c.model, req.Messages, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, 0, newFatalError(fmt.Errorf("build request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, newFatalError(fmt.Errorf("create http request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.provider.SetHeaders(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, newTransientError(fmt.Errorf("http request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, httpResp.StatusCode, newTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, httpResp.StatusCode, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	resp, err := c.provider.ParseResponse(respBody, c.model)
	if err != nil {
		return nil, httpResp.StatusCode, newFatalError(fmt.Errorf("parse response: %w", err))
	}
	return resp, httpResp.StatusCode, nil
}

// classifyHTTPError determines if an HTTP error is transient or fatal,
// per the retry policy in the spec: rate-limit and 5xx are retryable,
// 4xx other than 429 are not.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}
	err := fmt.Errorf("llm api error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return newTransientError(err)
	case statusCode >= 500:
		return newTransientError(err)
	default:
		return newFatalError(err)
	}
}

// ExtractJSONObject pulls a JSON object out of a raw LLM completion,
// handling markdown code fences and common formatting artifacts, then
// unmarshals it into v. Returns a *errs.ProcessingError wrapping the
// cause on failure.
func ExtractJSONObject(phase, content string, v any) error {
	raw := ExtractJSON(content)
	if raw == "" {
		return errs.NewProcessingError(phase, fmt.Errorf("no JSON object found in response"))
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return errs.NewProcessingError(phase, fmt.Errorf("unmarshal json: %w", err))
	}
	return nil
}
