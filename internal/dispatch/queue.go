package dispatch

import (
	"fmt"
	"time"

	"github.com/rzbill/dispatchq/pkg/log"
	"github.com/rzbill/dispatchq/pkg/olist"
)

// CompletionFunc receives the terminal outcome for one message. It is
// both the upstream completion callback's signature and the signature of
// the reconciliation hook handed to processors.
type CompletionFunc[M comparable] func(message M, outcome Outcome, reason error)

// ProcessFunc is the external processing function. It must eventually
// invoke done exactly once for the message, or the item will only ever be
// reclaimed by the timeout sweep.
type ProcessFunc[M comparable] func(message M, done CompletionFunc[M])

// Config carries the collaborators a Queue is built from.
type Config[M comparable] struct {
	// OnProcess is invoked once per message as it leaves pending.
	// Required.
	OnProcess ProcessFunc[M]

	// OnComplete is invoked exactly once per accepted message when it
	// leaves in_progress, whatever the reason. Optional.
	OnComplete CompletionFunc[M]

	// Clock defaults to SystemClock.
	Clock Clock

	// Logger defaults to a no-op logger.
	Logger log.Logger
}

// item is the record wrapping one in-flight message handle.
type item[M comparable] struct {
	message         M
	enqueuedAt      time.Time
	processingStart time.Time // zero while pending
}

// Queue is the two-list dispatch queue. See the package documentation
// for the lifecycle and the threading contract.
type Queue[M comparable] struct {
	pending    *olist.List[*item[M]]
	inProgress *olist.List[*item[M]]

	maxEnqueuedTime   time.Duration
	maxProcessingTime time.Duration

	onProcess  ProcessFunc[M]
	onComplete CompletionFunc[M]
	clock      Clock
	logger     log.Logger

	closed bool
}

// New constructs a Queue. Both timeout thresholds start at zero, meaning
// no enforcement until configured.
func New[M comparable](cfg Config[M]) (*Queue[M], error) {
	if cfg.OnProcess == nil {
		return nil, fmt.Errorf("process callback required: %w", ErrInvalidArgument)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Queue[M]{
		pending:    olist.New[*item[M]](),
		inProgress: olist.New[*item[M]](),
		onProcess:  cfg.OnProcess,
		onComplete: cfg.OnComplete,
		clock:      clock,
		logger:     logger.WithComponent("dispatch"),
	}, nil
}

// Add accepts a message for dispatch, stamping its enqueue time. The
// caller must not conclude anything about the message until its
// completion callback fires.
func (q *Queue[M]) Add(message M) error {
	var zero M
	if message == zero {
		return fmt.Errorf("message required: %w", ErrInvalidArgument)
	}
	if q.closed {
		return ErrClosed
	}
	now := q.clock.Now()
	if now.IsZero() {
		return fmt.Errorf("stamping enqueue time: %w", ErrClock)
	}
	q.pending.Append(&item[M]{message: message, enqueuedAt: now})
	return nil
}

// DoWork runs one tick: the timeout sweep, then the dispatch of every
// currently pending message. It never blocks.
func (q *Queue[M]) DoWork() {
	q.sweepTimeouts()
	q.dispatchPending()
}

// Complete reconciles a processor's report with the queue. It locates
// the in_progress item holding message, removes it and fires the
// upstream completion callback. Reports for untracked messages (double
// reports, or reports arriving after a timeout eviction) are dropped
// with a diagnostic log, which is what keeps the completion callback
// single-fire.
func (q *Queue[M]) Complete(message M, outcome Outcome, reason error) {
	n := q.inProgress.Find(func(it *item[M]) bool { return it.message == message })
	if n == nil {
		q.logger.Debug("completion report for untracked message ignored",
			log.Str("outcome", outcome.String()))
		return
	}
	it := n.Value()
	if err := q.inProgress.Remove(n); err != nil {
		q.logger.Error("failed removing completed item", log.Err(err))
		return
	}
	q.deliver(it, outcome, reason)
}

// RemoveAll drains the queue, firing the cancelled outcome for every
// tracked item: in_progress first, then pending.
func (q *Queue[M]) RemoveAll() {
	q.drain(q.inProgress)
	q.drain(q.pending)
}

// Close drains the queue and rejects further Adds. Outstanding items
// receive the cancelled outcome, so the exactly-once completion
// guarantee holds across shutdown.
func (q *Queue[M]) Close() {
	if q.closed {
		return
	}
	q.RemoveAll()
	q.closed = true
}

// SetMaxEnqueuedTime bounds total queue residency, measured from the
// enqueue stamp. Zero or negative disables the bound.
func (q *Queue[M]) SetMaxEnqueuedTime(d time.Duration) { q.maxEnqueuedTime = d }

// SetMaxProcessingTime bounds time in the processor's hands, measured
// from the processing-start stamp. Zero or negative disables the bound.
func (q *Queue[M]) SetMaxProcessingTime(d time.Duration) { q.maxProcessingTime = d }

// MaxEnqueuedTime returns the configured residency bound.
func (q *Queue[M]) MaxEnqueuedTime() time.Duration { return q.maxEnqueuedTime }

// MaxProcessingTime returns the configured processing bound.
func (q *Queue[M]) MaxProcessingTime() time.Duration { return q.maxProcessingTime }

// PendingLen returns the number of messages not yet dispatched.
func (q *Queue[M]) PendingLen() int { return q.pending.Len() }

// InProgressLen returns the number of messages with the processor.
func (q *Queue[M]) InProgressLen() int { return q.inProgress.Len() }

// IsEmpty reports whether no message is tracked in either list.
func (q *Queue[M]) IsEmpty() bool { return q.pending.Len() == 0 && q.inProgress.Len() == 0 }

// OldestPendingAge returns the age of the head pending item. The second
// return is false when pending is empty or the clock is unavailable.
func (q *Queue[M]) OldestPendingAge() (time.Duration, bool) {
	n := q.pending.Head()
	if n == nil {
		return 0, false
	}
	now := q.clock.Now()
	if now.IsZero() {
		return 0, false
	}
	return now.Sub(n.Value().enqueuedAt), true
}

// OldestProcessingAge returns the processing age of the head in_progress
// item. The second return is false when in_progress is empty or the
// clock is unavailable.
func (q *Queue[M]) OldestProcessingAge() (time.Duration, bool) {
	n := q.inProgress.Head()
	if n == nil {
		return 0, false
	}
	now := q.clock.Now()
	if now.IsZero() {
		return 0, false
	}
	return now.Sub(n.Value().processingStart), true
}

// deliver is the single exit path for items: every outcome, from normal
// completion to timeout eviction to drain, passes through here exactly
// once per item.
func (q *Queue[M]) deliver(it *item[M], outcome Outcome, reason error) {
	q.logger.Debug("message completed",
		log.Str("outcome", outcome.String()),
		log.Dur("enqueued_age", q.ageSince(it.enqueuedAt)))
	if q.onComplete != nil {
		q.onComplete(it.message, outcome, reason)
	}
}

func (q *Queue[M]) ageSince(t time.Time) time.Duration {
	now := q.clock.Now()
	if now.IsZero() || t.IsZero() {
		return 0
	}
	return now.Sub(t)
}

func (q *Queue[M]) drain(l *olist.List[*item[M]]) {
	for {
		n := l.Head()
		if n == nil {
			return
		}
		it := n.Value()
		if err := l.Remove(n); err != nil {
			q.logger.Error("failed removing item during drain", log.Err(err))
			l.Clear()
			return
		}
		q.deliver(it, OutcomeCancelled, nil)
	}
}
