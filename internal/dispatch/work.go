package dispatch

import (
	"time"

	"github.com/rzbill/dispatchq/pkg/log"
	"github.com/rzbill/dispatchq/pkg/olist"
)

// sweepTimeouts evicts every item over budget, oldest first:
//
//  1. pending, by enqueue age
//  2. in_progress, by enqueue age (an item can exceed its residency
//     budget while the processor holds it)
//  3. in_progress, by processing age
//
// A clock failure aborts the whole sweep for this tick; nothing is
// evicted and the next tick retries.
func (q *Queue[M]) sweepTimeouts() {
	if q.maxEnqueuedTime <= 0 && q.maxProcessingTime <= 0 {
		return
	}
	now := q.clock.Now()
	if now.IsZero() {
		q.logger.Warn("timeout sweep skipped", log.Str("reason", "clock unavailable"))
		return
	}
	if q.maxEnqueuedTime > 0 {
		q.evictAged(q.pending, q.maxEnqueuedTime, func(it *item[M]) time.Duration {
			return now.Sub(it.enqueuedAt)
		})
		q.evictAged(q.inProgress, q.maxEnqueuedTime, func(it *item[M]) time.Duration {
			return now.Sub(it.enqueuedAt)
		})
	}
	if q.maxProcessingTime > 0 {
		q.evictAged(q.inProgress, q.maxProcessingTime, func(it *item[M]) time.Duration {
			return now.Sub(it.processingStart)
		})
	}
}

// evictAged walks l from the head, completing items whose age meets the
// budget as timeouts. Both stamps are assigned in insertion order, so the
// first item inside its budget ends the walk.
func (q *Queue[M]) evictAged(l *olist.List[*item[M]], budget time.Duration, age func(*item[M]) time.Duration) {
	for n := l.Head(); n != nil; {
		next := n.Next()
		it := n.Value()
		if age(it) < budget {
			break
		}
		if err := l.Remove(n); err != nil {
			q.logger.Error("failed removing timed-out item", log.Err(err))
			break
		}
		q.deliver(it, OutcomeTimeout, nil)
		n = next
	}
}

// dispatchPending drains pending: each item is stamped with its
// processing-start time, moved to in_progress and handed to the process
// callback together with the Complete hook.
//
// Failure handling keeps forward progress: a structural failure removing
// the head completes that item as an error and stops the loop (a broken
// list must not spin); a failure stamping the item completes it as an
// error and moves on to the rest.
func (q *Queue[M]) dispatchPending() {
	for {
		n := q.pending.Head()
		if n == nil {
			return
		}
		it := n.Value()
		if err := q.pending.Remove(n); err != nil {
			q.logger.Error("failed removing head of pending", log.Err(err))
			q.deliver(it, OutcomeError, err)
			return
		}
		now := q.clock.Now()
		if now.IsZero() {
			q.logger.Error("failed stamping processing start", log.Err(ErrClock))
			q.deliver(it, OutcomeError, ErrClock)
			continue
		}
		it.processingStart = now
		q.inProgress.Append(it)
		q.onProcess(it.message, q.Complete)
	}
}
