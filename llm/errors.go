package llm

import "github.com/andinanews/pipeline/internal/retry"

// transientError marks an error as worth retrying; fatalError marks one
// that should abort the retry loop immediately. These are local to the
// HTTP call classification step inside doRequest — retry.Do's Classifier
// inspects them via classify below.
type transientError struct{ cause error }

func newTransientError(cause error) *transientError { return &transientError{cause: cause} }
func (e *transientError) Error() string              { return e.cause.Error() }
func (e *transientError) Unwrap() error               { return e.cause }

type fatalError struct{ cause error }

func newFatalError(cause error) *fatalError { return &fatalError{cause: cause} }
func (e *fatalError) Error() string          { return e.cause.Error() }
func (e *fatalError) Unwrap() error           { return e.cause }

// classify is the retry.Classifier used by Client.Complete.
func classify(err error) retry.Classification {
	if _, ok := err.(*fatalError); ok {
		return retry.Fatal
	}
	return retry.Retryable
}
