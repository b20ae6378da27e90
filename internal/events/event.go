package events

import "time"

// Event is one completion notification.
type Event struct {
	MessageID string    `json:"messageId"`
	Topic     string    `json:"topic,omitempty"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Attempt   int       `json:"attempt"`
	At        time.Time `json:"at"`
}
