// Package events fans completion notifications out to live watchers.
// Subscribers receive events over a buffered channel and may attach a CEL
// expression to select the completions they care about. Publish never
// blocks: a subscriber that falls behind loses events and the loss is
// counted on its subscription.
package events
