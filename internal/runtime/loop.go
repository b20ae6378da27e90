package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/dispatchq/internal/archive"
	"github.com/rzbill/dispatchq/internal/dispatch"
	"github.com/rzbill/dispatchq/internal/events"
	"github.com/rzbill/dispatchq/internal/message"
	"github.com/rzbill/dispatchq/internal/sink"
	"github.com/rzbill/dispatchq/pkg/log"
)

var (
	errSinkBusy      = errors.New("sink workers saturated")
	errRuntimeClosed = errors.New("runtime closed")
)

// completionRecord is the snapshot carried from the queue's completion
// hook to the archive/event goroutine.
type completionRecord struct {
	msgID   string
	topic   string
	outcome dispatch.Outcome
	reason  string
	attempt int
	at      time.Time
}

// tickLoop drives the queue: one DoWork per tick until shutdown.
func (r *Runtime) tickLoop(interval time.Duration) {
	defer r.tickWG.Done()
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			r.queue.DoWork()
			r.mu.Unlock()
		}
	}
}

// process hands a dispatched message to the sink workers. It runs inside
// DoWork with the runtime mutex held, so it must not block: when every
// worker is busy and the feed is full, the message completes retryable
// and the redelivery policy decides its fate.
func (r *Runtime) process(msg *message.Message, done dispatch.CompletionFunc[*message.Message]) {
	select {
	case r.deliveries <- msg:
	default:
		done(msg, dispatch.OutcomeRetryableError, errSinkBusy)
	}
}

// onQueueComplete is the queue's completion hook. It runs with the
// runtime mutex held: redeliveries go straight to the queue, everything
// else leaves through the completions channel.
func (r *Runtime) onQueueComplete(msg *message.Message, outcome dispatch.Outcome, reason error) {
	r.completedByOutcome[outcome.String()]++

	rec := completionRecord{
		msgID:   msg.ID.String(),
		topic:   msg.Topic,
		outcome: outcome,
		attempt: msg.Attempt,
		at:      time.Now(),
	}
	if reason != nil {
		rec.reason = reason.Error()
	}
	select {
	case r.completions <- rec:
	default:
		r.logger.Warn("completion record dropped, archive feed saturated",
			log.Str("id", rec.msgID), log.Str("outcome", rec.outcome.String()))
	}

	if outcome == dispatch.OutcomeRetryableError && !r.closed && msg.Attempt < r.cfg.Queue.MaxDeliveryAttempts {
		msg.Attempt++
		if err := r.queue.Add(msg); err != nil {
			msg.Attempt--
			r.logger.Warn("redelivery rejected", log.Str("id", rec.msgID), log.Err(err))
			return
		}
		r.logger.Debug("redelivery scheduled",
			log.Str("id", rec.msgID), log.Int("attempt", msg.Attempt))
	}
}

// deliveryWorker drains the delivery feed and reports each result back
// to the queue.
func (r *Runtime) deliveryWorker() {
	defer r.workerWG.Done()
	for msg := range r.deliveries {
		err := r.deliver(msg)
		r.Complete(msg, sink.Classify(err), err)
	}
}

func (r *Runtime) deliver(msg *message.Message) error {
	ctx := r.baseCtx
	if budget := r.cfg.Queue.MaxProcessingTime(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}
	return r.sink.Deliver(ctx, msg)
}

// completionLoop archives completion records and fans them out to
// watchers. It drains whatever is buffered before exiting on shutdown.
func (r *Runtime) completionLoop() {
	defer r.archiveWG.Done()
	for rec := range r.completions {
		entry := archive.Entry{
			MessageID:   rec.msgID,
			Topic:       rec.topic,
			Outcome:     rec.outcome.String(),
			Reason:      rec.reason,
			Attempt:     rec.attempt,
			CompletedAt: rec.at,
		}
		if err := r.arch.Append(context.Background(), entry); err != nil {
			r.logger.Warn("archive append failed", log.Str("id", rec.msgID), log.Err(err))
		}
		r.hub.Publish(events.Event{
			MessageID: rec.msgID,
			Topic:     rec.topic,
			Outcome:   rec.outcome.String(),
			Reason:    rec.reason,
			Attempt:   rec.attempt,
			At:        rec.at,
		})
	}
}
