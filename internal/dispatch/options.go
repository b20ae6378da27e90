package dispatch

import (
	"fmt"
	"time"

	"github.com/rzbill/dispatchq/pkg/options"
)

// Fixed option names for the two timeout thresholds.
const (
	OptionMaxEnqueuedTime   = "max_enqueued_time_secs"
	OptionMaxProcessingTime = "max_processing_time_secs"
)

// RetrieveOptions snapshots the two thresholds into an option set that
// can later be fed into another Queue of the same message type. Values
// round-trip exactly.
func (q *Queue[M]) RetrieveOptions() (*options.Set, error) {
	set, err := options.New(nil, nil, applyOption[M])
	if err != nil {
		return nil, err
	}
	if err := set.Add(OptionMaxEnqueuedTime, q.maxEnqueuedTime); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", OptionMaxEnqueuedTime, err)
	}
	if err := set.Add(OptionMaxProcessingTime, q.maxProcessingTime); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", OptionMaxProcessingTime, err)
	}
	return set, nil
}

// SetOption applies one named option. It is the restore half of
// RetrieveOptions and also serves the options API endpoint.
func (q *Queue[M]) SetOption(name string, value any) error {
	d, ok := value.(time.Duration)
	if !ok {
		return fmt.Errorf("option %s wants a duration, got %T: %w", name, value, ErrInvalidArgument)
	}
	switch name {
	case OptionMaxEnqueuedTime:
		q.SetMaxEnqueuedTime(d)
	case OptionMaxProcessingTime:
		q.SetMaxProcessingTime(d)
	default:
		return fmt.Errorf("unknown option %q: %w", name, ErrInvalidArgument)
	}
	return nil
}

func applyOption[M comparable](target any, name string, value any) error {
	q, ok := target.(*Queue[M])
	if !ok {
		return fmt.Errorf("option target is %T, not a dispatch queue", target)
	}
	return q.SetOption(name, value)
}
