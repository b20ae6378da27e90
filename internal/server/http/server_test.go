package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	cfgpkg "github.com/rzbill/dispatchq/internal/config"
	"github.com/rzbill/dispatchq/internal/events"
	"github.com/rzbill/dispatchq/internal/runtime"
	pebblestore "github.com/rzbill/dispatchq/internal/storage/pebble"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Queue.TickMs = 5
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever, Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return New(rt, nil)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	var resp statusLike
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status field: %q", resp.Status)
	}
}

type statusLike struct {
	Status   string `json:"status"`
	UptimeMs int64  `json:"uptimeMs"`
}

func TestEnqueueHandler(t *testing.T) {
	s := newTestServer(t)
	body := `{"topic":"orders","body":"aGVsbG8="}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID    string `json:"id"`
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" || resp.Topic != "orders" {
		t.Fatalf("resp: %+v", resp)
	}

	// The inproc sink accepts everything, so a success completion
	// should land in the archive shortly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		cw := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(cw, httptest.NewRequest(http.MethodGet, "/v1/completions", nil))
		var out struct {
			Completions []struct {
				MessageID string `json:"messageId"`
				Outcome   string `json:"outcome"`
			} `json:"completions"`
		}
		if err := json.NewDecoder(cw.Body).Decode(&out); err != nil {
			t.Fatalf("decode completions: %v", err)
		}
		found := false
		for _, c := range out.Completions {
			if c.MessageID == resp.ID && c.Outcome == "success" {
				found = true
			}
		}
		if found {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no success completion for %s", resp.ID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEnqueueRejectsBadJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestEnqueueMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	s := newTestServer(t)
	body := `{"topic":"orders","body":"eA=="}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("enqueue status: %d", w.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		sw := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(sw, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
		if sw.Code != 200 {
			t.Fatalf("stats status: %d", sw.Code)
		}
		var st struct {
			Enqueued    uint64            `json:"enqueued"`
			Completions map[string]uint64 `json:"completions"`
		}
		if err := json.NewDecoder(sw.Body).Decode(&st); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if st.Enqueued == 1 && st.Completions["success"] == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("stats never settled: %+v", st)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDrainHandler(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/drain", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestOptionsRoundTrip(t *testing.T) {
	s := newTestServer(t)
	body := `{"maxEnqueuedTimeSecs":7.5,"maxProcessingTimeSecs":13}`
	req := httptest.NewRequest(http.MethodPut, "/v1/options", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("put status: %d body: %s", w.Code, w.Body.String())
	}

	gw := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(gw, httptest.NewRequest(http.MethodGet, "/v1/options", nil))
	if gw.Code != 200 {
		t.Fatalf("get status: %d", gw.Code)
	}
	var opts struct {
		MaxEnqueuedTimeSecs   float64 `json:"maxEnqueuedTimeSecs"`
		MaxProcessingTimeSecs float64 `json:"maxProcessingTimeSecs"`
	}
	if err := json.NewDecoder(gw.Body).Decode(&opts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if opts.MaxEnqueuedTimeSecs != 7.5 || opts.MaxProcessingTimeSecs != 13 {
		t.Fatalf("options: %+v", opts)
	}
}

func TestOptionsRejectsNegative(t *testing.T) {
	s := newTestServer(t)
	body := `{"maxEnqueuedTimeSecs":-1,"maxProcessingTimeSecs":5}`
	req := httptest.NewRequest(http.MethodPut, "/v1/options", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestWatchRejectsBadFilter(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/events?filter="+strings.ReplaceAll(`outcome ==`, " ", "%20"), nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestWatchStreamsEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	body := `{"topic":"orders","body":"aGVsbG8="}`
	resp, err := http.Post(srv.URL+"/v1/messages", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var enq struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&enq); err != nil {
		t.Fatalf("decode enqueue: %v", err)
	}
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e events.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if e.MessageID != enq.ID || e.Outcome != "success" {
		t.Fatalf("event: %+v", e)
	}
}
