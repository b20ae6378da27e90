// Package dispatch implements the bounded-concurrency message dispatch
// queue at the heart of DispatchQ.
//
// A Queue accepts opaque message handles, hands each to an external
// processing function exactly once, tracks how long every message has
// waited and how long it has been processing, and guarantees that the
// upstream completion callback fires exactly once per accepted message
// with one of five terminal outcomes: success, error, retryable_error,
// timeout, cancelled.
//
// # Lifecycle
//
//	Add         → pending (enqueue time stamped)
//	DoWork      → sweep timeouts, then move pending → in_progress and
//	              invoke the process callback per message
//	Complete    → reconcile a processor report with its in_progress item
//	              and fire the upstream completion callback
//	RemoveAll   → cancel everything still tracked, in_progress first
//
// Two lists back the state machine. Both preserve insertion order, and
// both stamps (enqueue time, processing start) are assigned monotonically
// at insertion, so the head of each list is always the oldest item under
// either measure. The timeout sweep exploits this: each pass walks from
// the head and stops at the first item still inside its budget.
//
// # Timeouts
//
// Two thresholds, both disabled at zero:
//
//   - max enqueued time: bounds total residency, measured from enqueue.
//     Applied to pending and to in_progress, since an item can exceed its
//     enqueue budget while the processor holds it.
//   - max processing time: bounds time since the processor received the
//     message. Applied to in_progress only.
//
// Items over budget are completed with the timeout outcome through the
// same path as every other completion.
//
// # Threading
//
// The queue performs no internal locking. Add, DoWork, Complete,
// RemoveAll, Close and the option accessors must be serialized onto one
// logical thread of control by the caller; the runtime does so with a
// single mutex. Complete is the only entry point designed to be handed to
// foreign code (processors call it when they finish, possibly from
// another call stack), and it still requires that external
// serialization.
//
// # Ownership
//
// The queue stores message handles for bookkeeping only. Lifetime of the
// underlying message stays with the producer; a handle is forgotten the
// moment its completion is dispatched.
package dispatch
