package dispatch

import "errors"

var (
	// ErrInvalidArgument reports a missing or malformed required
	// parameter. No state is mutated when it is returned.
	ErrInvalidArgument = errors.New("dispatch: invalid argument")

	// ErrClock reports that the clock collaborator returned its
	// unavailable sentinel while a timestamp was needed.
	ErrClock = errors.New("dispatch: clock unavailable")

	// ErrClosed reports an operation on a closed queue.
	ErrClosed = errors.New("dispatch: queue closed")
)
