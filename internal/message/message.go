// Package message defines the unit of work carried through DispatchQ.
//
// The dispatch core treats messages as opaque handles; everything here is
// payload for sinks, the archive and the event feed. Identity inside the
// queue is the *Message pointer, so one accepted message is one handle
// for its whole lifecycle.
package message

import (
	"github.com/google/uuid"
)

// Message is one unit of work. Body bytes are opaque to DispatchQ.
type Message struct {
	ID      uuid.UUID         `json:"id"`
	Topic   string            `json:"topic"`
	Body    []byte            `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Attempt counts delivery attempts, starting at 1. The runtime bumps
	// it when a retryable completion is re-enqueued.
	Attempt int `json:"attempt"`
}

// New mints a message with a fresh id and the first attempt number.
func New(topic string, body []byte, headers map[string]string) *Message {
	return &Message{
		ID:      uuid.New(),
		Topic:   topic,
		Body:    body,
		Headers: headers,
		Attempt: 1,
	}
}
