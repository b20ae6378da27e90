package log

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"os"
	"strings"
	"testing"
	"time"
)

func newCaptureLogger(level Level, formatter Formatter) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewWriterOutput(&buf)),
	)
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"Error":   ErrorLevel,
		"fatal":   FatalLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q): got %v want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newCaptureLogger(WarnLevel, &JSONFormatter{})
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("visible")
	l.Error("visible")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
}

func TestJSONFormatterFields(t *testing.T) {
	l, buf := newCaptureLogger(DebugLevel, &JSONFormatter{})
	l.Info("queue tick", Int("pending", 3), Str("queue", "main"))

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["msg"] != "queue tick" {
		t.Fatalf("msg: %v", obj["msg"])
	}
	if obj["level"] != "INFO" {
		t.Fatalf("level: %v", obj["level"])
	}
	if obj["pending"] != float64(3) {
		t.Fatalf("pending: %v", obj["pending"])
	}
	if obj["queue"] != "main" {
		t.Fatalf("queue: %v", obj["queue"])
	}
	if _, ok := obj["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}

func TestTextFormatter(t *testing.T) {
	f := &TextFormatter{}
	entry := &Entry{
		Level:     WarnLevel,
		Message:   "sweep skipped",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Fields:    Fields{"component": "dispatch", "reason": "clock"},
	}
	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	line := string(out)
	for _, want := range []string{"WARN", "[dispatch]", "sweep skipped", "reason=clock", "2026-01-02T03:04:05.000Z"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestWithMergesAndShares(t *testing.T) {
	l, buf := newCaptureLogger(DebugLevel, &JSONFormatter{})
	child := l.With(Component("runtime"), Str("sink", "inproc"))
	child.Info("started", Int("workers", 2))

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if obj["component"] != "runtime" || obj["sink"] != "inproc" || obj["workers"] != float64(2) {
		t.Fatalf("merged fields: %v", obj)
	}

	// level cell is shared: raising it on the child silences the parent
	buf.Reset()
	child.SetLevel(ErrorLevel)
	l.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("parent not silenced: %q", buf.String())
	}
	if l.GetLevel() != ErrorLevel {
		t.Fatalf("level not shared")
	}
}

func TestErrField(t *testing.T) {
	if f := Err(nil); f.Value != "<nil>" {
		t.Fatalf("nil error field: %v", f.Value)
	}
}

func TestApplyConfig(t *testing.T) {
	l, err := ApplyConfig(&Config{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if l.GetLevel() != DebugLevel {
		t.Fatalf("level not applied")
	}
	if _, ok := l.(*BaseLogger).formatter.(*JSONFormatter); !ok {
		t.Fatalf("json format not applied")
	}

	l, err = ApplyConfig(nil)
	if err != nil {
		t.Fatalf("apply defaults: %v", err)
	}
	if l.GetLevel() != InfoLevel {
		t.Fatalf("default level: %v", l.GetLevel())
	}
	if _, ok := l.(*BaseLogger).formatter.(*TextFormatter); !ok {
		t.Fatalf("default format not text")
	}

	if _, err := ApplyConfig(&Config{Level: "loud"}); err == nil {
		t.Fatalf("expected bad level error")
	}
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected bad format error")
	}
}

func TestRedirectStdLog(t *testing.T) {
	l, buf := newCaptureLogger(DebugLevel, &JSONFormatter{})
	RedirectStdLog(l)
	t.Cleanup(func() {
		stdlog.SetOutput(os.Stderr)
		stdlog.SetFlags(stdlog.LstdFlags)
	})

	stdlog.Println("pebble: compaction done")
	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["msg"] != "pebble: compaction done" {
		t.Fatalf("msg: %v", obj["msg"])
	}
	if obj["component"] != "stdlog" {
		t.Fatalf("component: %v", obj["component"])
	}
}
