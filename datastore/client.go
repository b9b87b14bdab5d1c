// Package datastore adapts the pipeline to the external review/storage
// service, over JSON HTTP RPCs bounded by a connection pool, retry
// policy, and circuit breaker — mirroring the shape of the llm package's
// adapter but fronting the datastore service instead of an LLM provider.
package datastore

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
	"golang.org/x/sync/semaphore"
)

const maxResponseSize = 5 * 1024 * 1024 // 5MB

// FindSimilarEntityRequest asks the datastore for an existing entity
// (person, organization, or place) whose name is similar enough to
// reuse instead of inserting a duplicate.
type FindSimilarEntityRequest struct {
	EntityType string  `json:"entity_type"`
	Name       string  `json:"name"`
	Threshold  float64 `json:"threshold"`
}

// FindSimilarEntityResponse reports the best match, if any.
type FindSimilarEntityResponse struct {
	Found      bool    `json:"found"`
	EntityID   string  `json:"entity_id,omitempty"`
	MatchedName string `json:"matched_name,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// InsertWholeFragmentRequest is the shaped persistence payload for one
// fully processed fragment.
type InsertWholeFragmentRequest struct {
	FragmentID string         `json:"fragment_id"`
	RequestID  string         `json:"request_id"`
	Payload    map[string]any `json:"payload"`
}

// InsertWholeFragmentResponse reports what was actually written.
type InsertWholeFragmentResponse struct {
	OK             bool           `json:"ok"`
	InsertedCounts map[string]int `json:"inserted_counts"`
}

// Client is a bounded, breaker-protected HTTP RPC client for the
// external datastore service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryPolicy retry.Policy
	breaker     *breaker.Breaker
	pool        *semaphore.Weighted
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.httpClient = c } }
func WithRetryPolicy(p retry.Policy) Option { return func(cl *Client) { cl.retryPolicy = p } }
func WithBreakerConfig(cfg breaker.Config) Option {
	return func(cl *Client) { cl.breaker = breaker.New(cfg) }
}
func WithLogger(l *slog.Logger) Option { return func(cl *Client) { cl.logger = l } }

// DefaultRetryPolicy returns the spec's datastore retry defaults: max 2
// retries, 500ms initial backoff, x2 multiplier, 10s cap.
func DefaultRetryPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BackoffBase: 500 * time.Millisecond, BackoffMultiplier: 2, MaxBackoff: 10 * time.Second}
}

// NewClient creates a datastore client bounded to maxConnections
// concurrent in-flight RPCs.
func NewClient(baseURL string, maxConnections int64, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		retryPolicy: DefaultRetryPolicy(),
		breaker:     breaker.New(breaker.DefaultConfig()),
		pool:        semaphore.NewWeighted(maxConnections),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() breaker.State { return c.breaker.State() }

// BreakerOpenSince reports how long the breaker has been continuously OPEN.
func (c *Client) BreakerOpenSince() time.Duration { return c.breaker.OpenSince() }

// FindSimilarEntity looks up a normalization candidate for an entity name.
func (c *Client) FindSimilarEntity(ctx context.Context, req FindSimilarEntityRequest) (*FindSimilarEntityResponse, error) {
	var resp FindSimilarEntityResponse
	if err := c.call(ctx, "find_similar_entity", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InsertWholeFragment persists a fully processed fragment's extraction
// results in one RPC.
func (c *Client) InsertWholeFragment(ctx context.Context, req InsertWholeFragmentRequest) (*InsertWholeFragmentResponse, error) {
	var resp InsertWholeFragmentResponse
	if err := c.call(ctx, "insert_whole_fragment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// call performs a single RPC by name, acquiring a pool slot, running
// the shared retry policy through the breaker, and decoding the JSON
// response into out.
func (c *Client) call(ctx context.Context, rpcName string, body, out any) error {
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, 200*time.Millisecond)
	acqErr := c.pool.Acquire(acquireCtx, 1)
	cancelAcquire()
	if acqErr != nil {
		return errs.NewPoolExhaustedError(rpcName)
	}
	defer c.pool.Release(1)

	if !c.breaker.Allow() {
		return errs.NewDatastoreRPCError(rpcName, true, fmt.Errorf("circuit breaker open"))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return errs.NewDatastoreRPCError(rpcName, false, fmt.Errorf("marshal request: %w", err))
	}

	var respBody []byte
	_, doErr := retry.Do(ctx, c.retryPolicy, classifyRPCError, func() error {
		b, callErr := c.doRequest(ctx, rpcName, payload)
		if callErr != nil {
			return callErr
		}
		respBody = b
		return nil
	})

	if doErr != nil {
		c.breaker.Failure()
		isConn := isConnectionError(doErr)
		c.logger.Warn("datastore rpc failed", "rpc", rpcName, "error", doErr)
		return errs.NewDatastoreRPCError(rpcName, isConn, doErr)
	}

	c.breaker.Success()
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errs.NewDatastoreRPCError(rpcName, false, fmt.Errorf("unmarshal response: %w", err))
		}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rpcName string, payload []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, rpcName)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, newFatalRPCError(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newTransientRPCError(fmt.Errorf("connection error: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, newTransientRPCError(fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		bodyStr := string(body)
		if len(bodyStr) > 200 {
			bodyStr = bodyStr[:200] + "..."
		}
		err := fmt.Errorf("datastore rpc %q returned status %d: %s", rpcName, httpResp.StatusCode, bodyStr)
		if httpResp.StatusCode >= 500 {
			return nil, newTransientRPCError(err)
		}
		return nil, newFatalRPCError(err)
	}

	return body, nil
}
