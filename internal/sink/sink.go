package sink

import (
	"context"
	"errors"

	"github.com/rzbill/dispatchq/internal/dispatch"
	"github.com/rzbill/dispatchq/internal/message"
)

// Sink delivers dispatched messages to their destination.
type Sink interface {
	// Deliver pushes one message to the destination. A nil return reports
	// success. Transient failures should be wrapped with Retryable.
	Deliver(ctx context.Context, msg *message.Message) error
	Close() error
}

// retryableError marks a delivery failure as transient.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable wraps err so Classify reports a retryable outcome.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err carries the Retryable marker.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Classify maps a delivery result onto a completion outcome. Deadline
// expiry counts as retryable: the destination may simply have been slow.
func Classify(err error) dispatch.Outcome {
	switch {
	case err == nil:
		return dispatch.OutcomeSuccess
	case IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		return dispatch.OutcomeRetryableError
	default:
		return dispatch.OutcomeError
	}
}
