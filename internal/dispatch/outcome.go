package dispatch

import "fmt"

// Outcome is the terminal classification delivered exactly once per
// accepted message.
type Outcome int

const (
	// OutcomeSuccess: the processor reported successful delivery.
	OutcomeSuccess Outcome = iota
	// OutcomeError: the processor reported a permanent failure, or the
	// queue dropped the item after an internal structural failure.
	OutcomeError
	// OutcomeRetryableError: the processor reported a transient failure.
	// The queue never retries on its own; re-adding is the caller's call.
	OutcomeRetryableError
	// OutcomeTimeout: the item exceeded its enqueue or processing budget.
	OutcomeTimeout
	// OutcomeCancelled: the item was drained by RemoveAll or Close.
	OutcomeCancelled
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	case OutcomeRetryableError:
		return "retryable_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseOutcome converts a wire name back into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "success":
		return OutcomeSuccess, nil
	case "error":
		return OutcomeError, nil
	case "retryable_error":
		return OutcomeRetryableError, nil
	case "timeout":
		return OutcomeTimeout, nil
	case "cancelled":
		return OutcomeCancelled, nil
	default:
		return OutcomeError, fmt.Errorf("unknown outcome %q", s)
	}
}
