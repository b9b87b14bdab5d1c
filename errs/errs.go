// Package errs defines the pipeline's error taxonomy: typed errors for
// each kind named in the spec, each wrapping an underlying cause so
// errors.As/errors.Is work through the wrapper, following the pattern the
// teacher's llm package used for its Transient/Fatal error wrappers.
package errs

import (
	"errors"
	"fmt"

	"github.com/andinanews/pipeline/internal/idgen"
)

// ValidationError reports that input failed schema/field validation.
// Never retried; surfaced as HTTP 400/422.
type ValidationError struct {
	Fields []FieldError
}

// FieldError names one failing field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Fields))
}

// LLMUnavailable is raised once an LLM adapter call exhausts retries or
// finds the circuit breaker OPEN.
type LLMUnavailable struct {
	RetryCount  int
	LastStatus  int
	TimedOut    bool
	cause       error
}

func NewLLMUnavailable(retryCount, lastStatus int, timedOut bool, cause error) *LLMUnavailable {
	return &LLMUnavailable{RetryCount: retryCount, LastStatus: lastStatus, TimedOut: timedOut, cause: cause}
}

func (e *LLMUnavailable) Error() string {
	return fmt.Sprintf("llm unavailable after %d retries (status=%d timeout=%v): %v", e.RetryCount, e.LastStatus, e.TimedOut, e.cause)
}

func (e *LLMUnavailable) Unwrap() error { return e.cause }

// DatastoreRPCError is raised by the datastore adapter.
type DatastoreRPCError struct {
	RPCName           string
	IsConnectionError bool
	PoolExhausted     bool
	cause             error
}

func NewDatastoreRPCError(rpcName string, isConnectionError bool, cause error) *DatastoreRPCError {
	return &DatastoreRPCError{RPCName: rpcName, IsConnectionError: isConnectionError, cause: cause}
}

func NewPoolExhaustedError(rpcName string) *DatastoreRPCError {
	return &DatastoreRPCError{RPCName: rpcName, IsConnectionError: true, PoolExhausted: true, cause: errors.New("connection pool exhausted")}
}

func (e *DatastoreRPCError) Error() string {
	return fmt.Sprintf("datastore rpc %q failed (connection=%v pool_exhausted=%v): %v", e.RPCName, e.IsConnectionError, e.PoolExhausted, e.cause)
}

func (e *DatastoreRPCError) Unwrap() error { return e.cause }

// ProcessingError is a phase-internal failure (e.g. malformed JSON from
// the LLM). It always carries the phase name that produced it.
type ProcessingError struct {
	Phase string
	cause error
}

func NewProcessingError(phase string, cause error) *ProcessingError {
	return &ProcessingError{Phase: phase, cause: cause}
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("phase %s processing error: %v", e.Phase, e.cause)
}

func (e *ProcessingError) Unwrap() error { return e.cause }

// ServiceUnavailable reports a service that cannot take requests right
// now. The LLM and datastore adapters do not return it: an OPEN breaker
// is reported as LLMUnavailable or DatastoreRPCError, and an exhausted
// pool as DatastoreRPCError with PoolExhausted set.
type ServiceUnavailable struct {
	Service    string
	RetryAfter int // seconds
}

func (e *ServiceUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable, retry after %ds", e.Service, e.RetryAfter)
}

// CancelledError wraps a deadline or shutdown cancellation.
type CancelledError struct {
	cause error
}

func NewCancelledError(cause error) *CancelledError {
	return &CancelledError{cause: cause}
}

func (e *CancelledError) Error() string { return fmt.Sprintf("cancelled: %v", e.cause) }
func (e *CancelledError) Unwrap() error { return e.cause }

// SupportCode mints an ERR_PIPE_<PHASE>_<ULID> code for a surfaced error.
func SupportCode(phase string) string {
	return idgen.SupportCode(phase)
}

// As* helpers mirror the teacher's IsTransient/IsFatal convenience
// functions for the new taxonomy.

func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

func AsLLMUnavailable(err error) (*LLMUnavailable, bool) {
	var v *LLMUnavailable
	ok := errors.As(err, &v)
	return v, ok
}

func AsDatastoreRPCError(err error) (*DatastoreRPCError, bool) {
	var v *DatastoreRPCError
	ok := errors.As(err, &v)
	return v, ok
}

func AsServiceUnavailable(err error) (*ServiceUnavailable, bool) {
	var v *ServiceUnavailable
	ok := errors.As(err, &v)
	return v, ok
}
