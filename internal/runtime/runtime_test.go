package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/dispatchq/internal/config"
	"github.com/rzbill/dispatchq/internal/dispatch"
	"github.com/rzbill/dispatchq/internal/message"
	"github.com/rzbill/dispatchq/internal/sink"
	pebblestore "github.com/rzbill/dispatchq/internal/storage/pebble"
)

type fakeSink struct {
	mu        sync.Mutex
	delivered []*message.Message
	script    []error
	err       error
	release   chan struct{} // when non-nil, Deliver blocks until closed
}

func (s *fakeSink) Deliver(ctx context.Context, msg *message.Message) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, msg)
	if len(s.script) > 0 {
		err := s.script[0]
		s.script = s.script[1:]
		return err
	}
	return s.err
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func testConfig() cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.Queue.TickMs = 5
	return cfg
}

func openTestRuntime(t *testing.T, cfg cfgpkg.Config, s sink.Sink) *Runtime {
	t.Helper()
	rt, err := Open(Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
		Config:  cfg,
		Sink:    s,
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func completionCount(t *testing.T, rt *Runtime) map[string]int {
	t.Helper()
	entries, err := rt.RecentCompletions(context.Background(), 100)
	if err != nil {
		t.Fatalf("recent completions: %v", err)
	}
	m := map[string]int{}
	for _, e := range entries {
		m[e.Outcome]++
	}
	return m
}

func TestOpenCloseHealth(t *testing.T) {
	rt := openTestRuntime(t, testConfig(), &fakeSink{})
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err == nil {
		t.Fatalf("expected health failure after close")
	}
}

func TestEnqueueDeliversAndArchives(t *testing.T) {
	fs := &fakeSink{}
	rt := openTestRuntime(t, testConfig(), fs)

	msg, err := rt.Enqueue("orders", []byte(`{"n":1}`), map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "archived success", func() bool {
		return completionCount(t, rt)["success"] == 1
	})

	entries, err := rt.RecentCompletions(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	e := entries[0]
	if e.MessageID != msg.ID.String() || e.Topic != "orders" || e.Attempt != 1 {
		t.Fatalf("entry: %+v", e)
	}
	if fs.calls() != 1 {
		t.Fatalf("sink calls: %d", fs.calls())
	}

	st, err := rt.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Enqueued != 1 || st.Pending != 0 || st.InProgress != 0 {
		t.Fatalf("stats: %+v", st)
	}
	if st.Completions["success"] != 1 {
		t.Fatalf("completion counters: %+v", st.Completions)
	}
	if st.Archive.Entries != 1 {
		t.Fatalf("archive stats: %+v", st.Archive)
	}
}

func TestRetryableErrorIsRedelivered(t *testing.T) {
	fs := &fakeSink{script: []error{sink.Retryable(errors.New("broker hiccup")), nil}}
	rt := openTestRuntime(t, testConfig(), fs)

	if _, err := rt.Enqueue("orders", nil, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "redelivery to succeed", func() bool {
		c := completionCount(t, rt)
		return c["retryable_error"] == 1 && c["success"] == 1
	})

	entries, err := rt.RecentCompletions(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if entries[0].Outcome != "success" || entries[0].Attempt != 2 {
		t.Fatalf("terminal entry: %+v", entries[0])
	}
	if entries[1].Outcome != "retryable_error" || entries[1].Attempt != 1 {
		t.Fatalf("intermediate entry: %+v", entries[1])
	}
	if fs.calls() != 2 {
		t.Fatalf("sink calls: %d", fs.calls())
	}
}

func TestTerminalErrorIsNotRetried(t *testing.T) {
	fs := &fakeSink{err: errors.New("bad destination")}
	rt := openTestRuntime(t, testConfig(), fs)

	if _, err := rt.Enqueue("orders", nil, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "terminal error", func() bool {
		return completionCount(t, rt)["error"] == 1
	})
	time.Sleep(50 * time.Millisecond)
	if got := completionCount(t, rt)["error"]; got != 1 {
		t.Fatalf("error completions: %d", got)
	}
	if fs.calls() != 1 {
		t.Fatalf("sink calls: %d", fs.calls())
	}
}

func TestRetryExhaustion(t *testing.T) {
	fs := &fakeSink{err: sink.Retryable(errors.New("still down"))}
	cfg := testConfig()
	cfg.Queue.MaxDeliveryAttempts = 2
	rt := openTestRuntime(t, cfg, fs)

	if _, err := rt.Enqueue("orders", nil, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "both attempts", func() bool {
		return completionCount(t, rt)["retryable_error"] == 2
	})
	time.Sleep(50 * time.Millisecond)
	if got := completionCount(t, rt)["retryable_error"]; got != 2 {
		t.Fatalf("retryable completions: %d", got)
	}
	if fs.calls() != 2 {
		t.Fatalf("sink calls: %d", fs.calls())
	}
}

func TestDrainCancelsTrackedMessages(t *testing.T) {
	release := make(chan struct{})
	fs := &fakeSink{release: release}
	rt := openTestRuntime(t, testConfig(), fs)

	for _, topic := range []string{"a", "b"} {
		if _, err := rt.Enqueue(topic, nil, nil); err != nil {
			t.Fatalf("enqueue %s: %v", topic, err)
		}
	}
	waitFor(t, "both messages in flight", func() bool {
		st, err := rt.Stats(context.Background())
		return err == nil && st.InProgress == 2
	})

	rt.Drain()
	waitFor(t, "cancelled completions", func() bool {
		return completionCount(t, rt)["cancelled"] == 2
	})

	// late worker reports after the drain must not produce extra records
	close(release)
	time.Sleep(50 * time.Millisecond)
	c := completionCount(t, rt)
	if c["cancelled"] != 2 || len(c) != 1 {
		t.Fatalf("completions after release: %+v", c)
	}
}

func TestSaturatedWorkersCompleteRetryable(t *testing.T) {
	release := make(chan struct{})
	fs := &fakeSink{release: release}
	cfg := testConfig()
	cfg.Sink.Workers = 1
	cfg.Sink.Buffer = 1
	rt := openTestRuntime(t, cfg, fs)

	// first fills the worker, second fills the buffer, third finds no room
	for _, topic := range []string{"a", "b", "c"} {
		if _, err := rt.Enqueue(topic, nil, nil); err != nil {
			t.Fatalf("enqueue %s: %v", topic, err)
		}
	}

	waitFor(t, "third message to exhaust its attempts", func() bool {
		return completionCount(t, rt)["retryable_error"] == 3
	})
	entries, err := rt.RecentCompletions(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	for _, e := range entries {
		if e.Topic != "c" {
			t.Fatalf("unexpected completion before release: %+v", e)
		}
	}

	close(release)
	waitFor(t, "blocked messages to deliver", func() bool {
		return completionCount(t, rt)["success"] == 2
	})
}

func TestWatchFiltersEvents(t *testing.T) {
	fs := &fakeSink{}
	rt := openTestRuntime(t, testConfig(), fs)

	if _, err := rt.Events(`outcome ==`); err == nil {
		t.Fatalf("expected filter compile error")
	}

	sub, err := rt.Events(`outcome == "success"`)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer sub.Cancel()

	msg, err := rt.Enqueue("orders", nil, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case e := <-sub.C():
		if e.MessageID != msg.ID.String() || e.Outcome != "success" {
			t.Fatalf("event: %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestQueueOptionsRoundTrip(t *testing.T) {
	rt := openTestRuntime(t, testConfig(), &fakeSink{})

	if err := rt.SetQueueOption(dispatch.OptionMaxEnqueuedTime, 7.5); err != nil {
		t.Fatalf("set enqueued: %v", err)
	}
	if err := rt.SetQueueOption(dispatch.OptionMaxProcessingTime, 13); err != nil {
		t.Fatalf("set processing: %v", err)
	}
	opts, err := rt.QueueOptions()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.MaxEnqueuedTimeSecs != 7.5 || opts.MaxProcessingTimeSecs != 13 {
		t.Fatalf("options: %+v", opts)
	}
	if err := rt.SetQueueOption("bogus", 1); err == nil {
		t.Fatalf("expected error for unknown option")
	}
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	rt := openTestRuntime(t, testConfig(), &fakeSink{})
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := rt.Enqueue("orders", nil, nil); !errors.Is(err, dispatch.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
