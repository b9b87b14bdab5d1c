package llm

import (
	"context"
	"fmt"

	"github.com/andinanews/pipeline/errs"
	"github.com/andinanews/pipeline/internal/breaker"
)

// FallbackChain tries a sequence of Clients in order — e.g. a primary
// provider/model followed by cheaper or alternate ones — skipping any
// whose breaker is already OPEN, mirroring the teacher's endpoint
// fallback chain in its LLM client.
type FallbackChain struct {
	clients []*Client
}

// NewFallbackChain builds a chain tried in the given order. At least
// one client is required.
func NewFallbackChain(clients ...*Client) *FallbackChain {
	return &FallbackChain{clients: clients}
}

// Complete tries each client in order, returning the first success. If
// every client fails or has its breaker OPEN, it returns the last
// error wrapped as *errs.LLMUnavailable.
func (f *FallbackChain) Complete(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	triedAny := false

	for _, c := range f.clients {
		if c.BreakerState() == breaker.Open {
			continue
		}
		triedAny = true
		resp, err := c.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if _, ok := errs.AsValidationError(err); ok {
			return nil, err
		}
	}

	if !triedAny {
		return nil, errs.NewLLMUnavailable(0, 0, false, fmt.Errorf("all fallback endpoints have their circuit breaker open"))
	}
	return nil, lastErr
}

// BreakerState reports Closed if any client in the chain is usable,
// Open only when every client's breaker is OPEN — mirroring the
// skip-if-open logic Complete itself uses.
func (f *FallbackChain) BreakerState() breaker.State {
	for _, c := range f.clients {
		if c.BreakerState() != breaker.Open {
			return breaker.Closed
		}
	}
	return breaker.Open
}
