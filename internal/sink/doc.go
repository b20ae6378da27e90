// Package sink defines where dispatched messages go. A Sink delivers one
// message at a time; the runtime owns the worker pool that calls it.
//
// Three implementations are provided: an in-process handler sink, a
// RabbitMQ publisher, and a Redis list pusher. Transient failures are
// wrapped with Retryable so the runtime can schedule redelivery; Classify
// maps a delivery result onto a completion outcome.
package sink
