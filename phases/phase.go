// Package phases implements the four-stage extraction pipeline: triage,
// element extraction, quote/data extraction, and entity normalization.
// Each phase calls out to an LLM through the shared llm.Client/
// FallbackChain and degrades to a deterministic fallback instead of
// failing the whole fragment when the LLM is unavailable or returns
// something unusable.
package phases

import (
	"context"
	"time"

	"github.com/andinanews/pipeline/llm"
)

// Name identifies a phase for logging, metrics, and support codes.
type Name string

const (
	Triage        Name = "triage"
	Elements      Name = "elements"
	QuotesData    Name = "quotes_data"
	Normalization Name = "normalization"
)

// Outcome is a generic Ok | Fallback result shape: a phase either
// completed using the LLM, or fell back to a deterministic degraded
// result. The RunX functions in this package do not return it; each
// returns its domain phase result, which carries the same FallbackUsed,
// Warning and Duration fields.
type Outcome[T any] struct {
	Result       T
	FallbackUsed bool
	Warning      string
	Duration     time.Duration
}

// ok wraps a successful LLM-backed result.
func ok[T any](result T, duration time.Duration) Outcome[T] {
	return Outcome[T]{Result: result, FallbackUsed: false, Duration: duration}
}

// fallback wraps a degraded result produced without (or despite) the LLM.
func fallback[T any](result T, warning string, duration time.Duration) Outcome[T] {
	return Outcome[T]{Result: result, FallbackUsed: true, Warning: warning, Duration: duration}
}

// Completer is the subset of *llm.Client/*llm.FallbackChain each phase
// needs, so phases can be tested against a stub without standing up a
// real HTTP server.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}
