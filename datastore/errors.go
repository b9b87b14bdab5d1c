package datastore

import (
	"net"

	"github.com/andinanews/pipeline/internal/retry"
)

// transientRPCError and fatalRPCError classify a single HTTP call the
// way llm.transientError/fatalError do, kept local to this package so
// the datastore adapter's classification stays independent of the LLM
// adapter's.
type transientRPCError struct{ cause error }

func newTransientRPCError(cause error) *transientRPCError { return &transientRPCError{cause: cause} }
func (e *transientRPCError) Error() string                 { return e.cause.Error() }
func (e *transientRPCError) Unwrap() error                  { return e.cause }

type fatalRPCError struct{ cause error }

func newFatalRPCError(cause error) *fatalRPCError { return &fatalRPCError{cause: cause} }
func (e *fatalRPCError) Error() string             { return e.cause.Error() }
func (e *fatalRPCError) Unwrap() error              { return e.cause }

func classifyRPCError(err error) retry.Classification {
	if _, ok := err.(*fatalRPCError); ok {
		return retry.Fatal
	}
	return retry.Retryable
}

// isConnectionError reports whether err stems from a network-level
// connection failure rather than an RPC-level rejection, used to set
// DatastoreRPCError.IsConnectionError for the dashboard breakdown.
func isConnectionError(err error) bool {
	var netErr net.Error
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok {
			netErr = ne
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return netErr != nil
}
