package runtime

import (
	"context"
	"time"

	"github.com/rzbill/dispatchq/internal/archive"
	"github.com/rzbill/dispatchq/internal/dispatch"
	"github.com/rzbill/dispatchq/internal/events"
	"github.com/rzbill/dispatchq/internal/message"
)

// Stats is a point-in-time view of the node.
type Stats struct {
	Pending            int               `json:"pending"`
	InProgress         int               `json:"inProgress"`
	Enqueued           uint64            `json:"enqueued"`
	Completions        map[string]uint64 `json:"completions"`
	OldestPendingMs    int64             `json:"oldestPendingMs"`
	OldestProcessingMs int64             `json:"oldestProcessingMs"`
	Watchers           int               `json:"watchers"`
	Archive            archive.Stats     `json:"archive"`
}

// QueueOptions reports the two timeout thresholds in seconds. Zero means
// the threshold is disabled.
type QueueOptions struct {
	MaxEnqueuedTimeSecs   float64 `json:"maxEnqueuedTimeSecs"`
	MaxProcessingTimeSecs float64 `json:"maxProcessingTimeSecs"`
}

// Enqueue accepts one message for dispatch and returns its handle.
func (r *Runtime) Enqueue(topic string, body []byte, headers map[string]string) (*message.Message, error) {
	msg := message.New(topic, body, headers)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.queue.Add(msg); err != nil {
		return nil, err
	}
	r.enqueued++
	return msg, nil
}

// Complete reports a processing result back to the queue. Reports for
// messages the queue no longer tracks are dropped there.
func (r *Runtime) Complete(msg *message.Message, outcome dispatch.Outcome, reason error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue.Complete(msg, outcome, reason)
}

// Drain removes every tracked message, completing each with the
// cancelled outcome: in-flight ones first, then pending ones.
func (r *Runtime) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue.RemoveAll()
}

// Stats snapshots queue depths, counters and archive totals.
func (r *Runtime) Stats(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Stats{}, errRuntimeClosed
	}
	st := Stats{
		Pending:     r.queue.PendingLen(),
		InProgress:  r.queue.InProgressLen(),
		Enqueued:    r.enqueued,
		Completions: make(map[string]uint64, len(r.completedByOutcome)),
	}
	for k, v := range r.completedByOutcome {
		st.Completions[k] = v
	}
	if age, ok := r.queue.OldestPendingAge(); ok {
		st.OldestPendingMs = age.Milliseconds()
	}
	if age, ok := r.queue.OldestProcessingAge(); ok {
		st.OldestProcessingMs = age.Milliseconds()
	}
	r.mu.Unlock()

	st.Watchers = r.hub.SubscriberCount()
	as, err := r.arch.Stats(ctx)
	if err != nil {
		return st, err
	}
	st.Archive = as
	return st, nil
}

// QueueOptions snapshots the queue's timeout thresholds.
func (r *Runtime) QueueOptions() (QueueOptions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, err := r.queue.RetrieveOptions()
	if err != nil {
		return QueueOptions{}, err
	}
	defer set.Destroy()

	var out QueueOptions
	if v, ok := set.Get(dispatch.OptionMaxEnqueuedTime); ok {
		if d, isDur := v.(time.Duration); isDur {
			out.MaxEnqueuedTimeSecs = d.Seconds()
		}
	}
	if v, ok := set.Get(dispatch.OptionMaxProcessingTime); ok {
		if d, isDur := v.(time.Duration); isDur {
			out.MaxProcessingTimeSecs = d.Seconds()
		}
	}
	return out, nil
}

// SetQueueOption applies one named threshold, in seconds. Zero disables
// the threshold.
func (r *Runtime) SetQueueOption(name string, seconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.SetOption(name, time.Duration(seconds*float64(time.Second)))
}

// RecentCompletions returns up to limit archived completions, newest
// first.
func (r *Runtime) RecentCompletions(ctx context.Context, limit int) ([]archive.Entry, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, errRuntimeClosed
	}
	return r.arch.Recent(ctx, limit)
}

// Events subscribes a watcher to live completion events. filterExpr may
// be empty or a CEL expression over id, topic, outcome, reason, attempt
// and now_ms.
func (r *Runtime) Events(filterExpr string) (*events.Subscription, error) {
	return r.hub.Subscribe(filterExpr)
}
