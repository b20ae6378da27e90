package dispatch

import (
	"errors"
	"testing"
	"time"
)

func TestDispatchOrderIsFIFO(t *testing.T) {
	h := newHarness(t)
	a := h.add("a")
	b := h.add("b")
	c := h.add("c")

	h.q.DoWork()

	if len(h.handed) != 3 {
		t.Fatalf("handed=%d, want 3", len(h.handed))
	}
	for i, want := range []*testMsg{a, b, c} {
		if h.handed[i].msg != want {
			t.Fatalf("dispatch order[%d]: got %s want %s", i, h.handed[i].msg.id, want.id)
		}
	}
	if h.q.PendingLen() != 0 || h.q.InProgressLen() != 3 {
		t.Fatalf("pending=%d in_progress=%d", h.q.PendingLen(), h.q.InProgressLen())
	}
}

func TestNoTimeoutsWhenUnconfigured(t *testing.T) {
	h := newHarness(t)
	h.add("a")
	h.q.DoWork()

	h.clock.advance(24 * time.Hour)
	h.q.DoWork()

	if len(h.completions) != 0 {
		t.Fatalf("unconfigured thresholds evicted: %+v", h.completions)
	}
	if h.q.InProgressLen() != 1 {
		t.Fatalf("item lost without timeout configured")
	}
}

func TestEnqueueTimeoutEvictsOldestPendingFirst(t *testing.T) {
	h := newHarness(t)
	h.q.SetMaxEnqueuedTime(5 * time.Second)

	a := h.add("a")
	h.clock.advance(2 * time.Second)
	b := h.add("b")
	h.clock.advance(3 * time.Second) // a is 5s old, b is 3s old

	h.q.DoWork()

	// a evicted at exactly its budget; b survived the sweep and was
	// dispatched by the same tick
	h.expectOneCompletion(a, OutcomeTimeout)
	if len(h.handed) != 1 || h.handed[0].msg != b {
		t.Fatalf("younger message not dispatched: %+v", h.handed)
	}
	if len(h.completionsFor(b)) != 0 {
		t.Fatalf("younger message evicted early")
	}
}

func TestEnqueueTimeoutCoversInProgress(t *testing.T) {
	h := newHarness(t)
	h.q.SetMaxEnqueuedTime(5 * time.Second)

	m := h.add("a")
	h.clock.advance(time.Second)
	h.q.DoWork() // dispatched at t=1

	h.clock.advance(5 * time.Second) // enqueue age 6s, still in_progress
	h.q.DoWork()

	h.expectOneCompletion(m, OutcomeTimeout)
	if !h.q.IsEmpty() {
		t.Fatalf("evicted item still tracked")
	}

	// the processor's eventual report lands after eviction: no-op
	h.handed[0].done(m, OutcomeSuccess, nil)
	if len(h.completions) != 1 {
		t.Fatalf("late report fired a second completion")
	}
}

func TestResidencyTimeoutFiresOnceThenGoesQuiet(t *testing.T) {
	h := newHarness(t)
	h.q.SetMaxEnqueuedTime(5 * time.Second)

	m := h.add("a") // t=0
	h.clock.advance(time.Second)
	h.q.DoWork() // t=1: dispatched
	if len(h.handed) != 1 {
		t.Fatalf("not dispatched at t=1")
	}

	h.clock.advance(5 * time.Second)
	h.q.DoWork() // t=6: timeout fires
	h.expectOneCompletion(m, OutcomeTimeout)

	h.clock.advance(4 * time.Second)
	h.q.DoWork() // t=10: nothing further
	if len(h.completions) != 1 {
		t.Fatalf("extra completions after eviction: %+v", h.completions)
	}
}

func TestProcessingTimeoutEvictsByProcessingAge(t *testing.T) {
	h := newHarness(t)
	h.q.SetMaxProcessingTime(3 * time.Second)

	a := h.add("a")
	h.q.DoWork() // a starts processing at t=0

	h.clock.advance(time.Second)
	b := h.add("b")
	h.q.DoWork() // b starts processing at t=1

	h.clock.advance(2 * time.Second) // a at 3s, b at 2s
	h.q.DoWork()
	h.expectOneCompletion(a, OutcomeTimeout)
	if len(h.completionsFor(b)) != 0 {
		t.Fatalf("younger in_progress item evicted early")
	}

	h.clock.advance(time.Second) // b at 3s
	h.q.DoWork()
	h.expectOneCompletion(b, OutcomeTimeout)
}

func TestPendingItemsAgeWhileWaiting(t *testing.T) {
	// processing threshold alone never touches pending items
	h := newHarness(t)
	h.q.SetMaxProcessingTime(time.Second)

	h.add("a")
	h.clock.advance(time.Hour)
	// sweep first, then dispatch: the old pending item survives the
	// sweep because only the processing budget is set
	h.q.DoWork()

	if len(h.completions) != 0 {
		t.Fatalf("pending item evicted by processing budget")
	}
	if len(h.handed) != 1 {
		t.Fatalf("pending item not dispatched")
	}
}

func TestClockFailureSkipsSweepThatTick(t *testing.T) {
	h := newHarness(t)
	h.q.SetMaxEnqueuedTime(time.Second)

	m := h.add("a")
	h.q.DoWork()
	h.clock.advance(time.Minute)

	h.clock.fail = true
	h.q.DoWork()
	if len(h.completions) != 0 {
		t.Fatalf("sweep ran with a failed clock")
	}
	if h.q.InProgressLen() != 1 {
		t.Fatalf("item lost during failed sweep")
	}

	h.clock.fail = false
	h.q.DoWork()
	h.expectOneCompletion(m, OutcomeTimeout)
}

func TestClockFailureDuringDispatchDropsWithError(t *testing.T) {
	h := newHarness(t)
	a := h.add("a")
	b := h.add("b")

	h.clock.fail = true
	h.q.DoWork()

	// both items fail the processing-start stamp and are dropped with
	// an error outcome; the loop keeps going past the first failure
	if len(h.handed) != 0 {
		t.Fatalf("unstamped items dispatched")
	}
	for _, m := range []*testMsg{a, b} {
		recs := h.completionsFor(m)
		if len(recs) != 1 || recs[0].outcome != OutcomeError {
			t.Fatalf("message %s: %+v", m.id, recs)
		}
		if !errors.Is(recs[0].reason, ErrClock) {
			t.Fatalf("message %s reason: %v", m.id, recs[0].reason)
		}
	}
	if !h.q.IsEmpty() {
		t.Fatalf("dropped items still tracked")
	}
}

func TestSynchronousProcessorCompletion(t *testing.T) {
	// a processor may report from inside the process callback itself
	clock := &fakeClock{now: time.Unix(1_000_000, 0)}
	var completions []completionRec
	q, err := New(Config[*testMsg]{
		OnProcess: func(m *testMsg, done CompletionFunc[*testMsg]) {
			done(m, OutcomeSuccess, nil)
		},
		OnComplete: func(m *testMsg, outcome Outcome, reason error) {
			completions = append(completions, completionRec{m, outcome, reason})
		},
		Clock: clock,
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}

	a := &testMsg{id: "a"}
	b := &testMsg{id: "b"}
	if err := q.Add(a); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := q.Add(b); err != nil {
		t.Fatalf("add: %v", err)
	}
	q.DoWork()

	if len(completions) != 2 || completions[0].msg != a || completions[1].msg != b {
		t.Fatalf("synchronous completions: %+v", completions)
	}
	if !q.IsEmpty() {
		t.Fatalf("queue not empty after synchronous completions")
	}
}
