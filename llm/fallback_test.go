package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andinanews/pipeline/internal/breaker"
	"github.com/andinanews/pipeline/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackChain_FirstClientSucceeds(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer primary.Close()

	c1 := NewClient(stubProvider{}, primary.URL, "primary-model", WithRetryPolicy(fastPolicy()))
	chain := NewFallbackChain(c1)

	resp, err := chain.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestFallbackChain_FallsBackWhenPrimaryFails(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer primary.Close()
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer secondary.Close()

	c1 := NewClient(stubProvider{}, primary.URL, "primary-model", WithRetryPolicy(fastPolicy()))
	c2 := NewClient(stubProvider{}, secondary.URL, "secondary-model", WithRetryPolicy(fastPolicy()))
	chain := NewFallbackChain(c1, c2)

	resp, err := chain.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestFallbackChain_SkipsOpenBreakerClients(t *testing.T) {
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer secondary.Close()

	c1 := NewClient(stubProvider{}, "http://127.0.0.1:1", "primary-model",
		WithRetryPolicy(retry.Policy{MaxAttempts: 1, BackoffBase: time.Millisecond, BackoffMultiplier: 1, MaxBackoff: time.Millisecond}),
		WithBreakerConfig(breaker.Config{FailureThreshold: 1, OpenDuration: time.Minute}),
	)
	// Force the breaker open with one failed call.
	_, _ = c1.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Equal(t, breaker.Open, c1.BreakerState())

	c2 := NewClient(stubProvider{}, secondary.URL, "secondary-model", WithRetryPolicy(fastPolicy()))
	chain := NewFallbackChain(c1, c2)

	resp, err := chain.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestFallbackChain_AllOpenReturnsUnavailable(t *testing.T) {
	c1 := NewClient(stubProvider{}, "http://127.0.0.1:1", "primary-model",
		WithRetryPolicy(retry.Policy{MaxAttempts: 1, BackoffBase: time.Millisecond, BackoffMultiplier: 1, MaxBackoff: time.Millisecond}),
		WithBreakerConfig(breaker.Config{FailureThreshold: 1, OpenDuration: time.Minute}),
	)
	_, _ = c1.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Equal(t, breaker.Open, c1.BreakerState())

	chain := NewFallbackChain(c1)
	_, err := chain.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
}
