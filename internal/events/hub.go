package events

import (
	"errors"
	"sync"

	"github.com/rzbill/dispatchq/pkg/log"
)

const subscriberBuffer = 64

// ErrHubClosed is returned by Subscribe after the hub shut down.
var ErrHubClosed = errors.New("events: hub closed")

// Hub fans completion events out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	logger log.Logger
}

// Subscription is one watcher's feed. Read events from C; Cancel when done.
type Subscription struct {
	hub     *Hub
	ch      chan Event
	filter  Filter
	dropped int64
}

// NewHub creates an empty hub.
func NewHub(logger log.Logger) *Hub {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		logger: logger.WithComponent("events"),
	}
}

// Subscribe registers a watcher. filterExpr may be empty to receive
// every event.
func (h *Hub) Subscribe(filterExpr string) (*Subscription, error) {
	f, err := NewFilter(filterExpr)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	s := &Subscription{hub: h, ch: make(chan Event, subscriberBuffer), filter: f}
	h.subs[s] = struct{}{}
	return s, nil
}

// Publish delivers e to every matching subscriber without blocking.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.filter.Eval(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			s.dropped++
		}
	}
}

// SubscriberCount reports how many watchers are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches every subscriber and closes their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
		delete(h.subs, s)
	}
}

// C is the subscriber's event feed. It is closed on Cancel or hub Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
	if s.dropped > 0 {
		h.logger.Debug("Watcher detached after dropping events", log.Int64("dropped", s.dropped))
	}
}

// Dropped reports how many events this subscriber lost to backpressure.
func (s *Subscription) Dropped() int64 {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.dropped
}
