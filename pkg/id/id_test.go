package id

import (
	"testing"
	"time"
)

func pinClock(t *testing.T, ms *int64) {
	t.Helper()
	old := nowMs
	nowMs = func() int64 { return *ms }
	t.Cleanup(func() { nowMs = old })
}

func TestSameMillisecondOrdering(t *testing.T) {
	ms := int64(1000)
	pinClock(t, &ms)

	g := NewGenerator()
	a := g.Next()
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b: %s vs %s", a, b)
	}
}

func TestClockRegressionStaysMonotonic(t *testing.T) {
	ms := int64(1000)
	pinClock(t, &ms)

	g := NewGenerator()
	a := g.Next()
	ms = 900
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected b > a despite clock regression")
	}
}

func TestTimeRecoversTimestamp(t *testing.T) {
	ms := int64(1724400000123)
	pinClock(t, &ms)

	g := NewGenerator()
	got := g.Next().Time()
	want := time.UnixMilli(ms)
	if !got.Equal(want) {
		t.Fatalf("Time: got %v want %v", got, want)
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	ms := int64(5000)
	pinClock(t, &ms)

	g := NewGenerator()
	orig := g.Next()
	parsed, err := Parse(orig.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Compare(orig) != 0 {
		t.Fatalf("round trip: %s != %s", parsed, orig)
	}

	if _, err := Parse("zz"); err == nil {
		t.Fatalf("expected parse error for non-hex")
	}
	if _, err := FromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestFromTimeBoundsGeneratedIDs(t *testing.T) {
	ms := int64(2000)
	pinClock(t, &ms)

	g := NewGenerator()
	early := g.Next()
	bound := FromTime(time.UnixMilli(3000))
	ms = 3000
	late := g.Next()

	if early.Compare(bound) >= 0 {
		t.Fatalf("id at ms=2000 should sort below bound at ms=3000")
	}
	if late.Compare(bound) < 0 {
		t.Fatalf("id at ms=3000 should sort at or above bound")
	}
}

func TestBytesIsACopy(t *testing.T) {
	ms := int64(7000)
	pinClock(t, &ms)

	g := NewGenerator()
	orig := g.Next()
	b := orig.Bytes()
	b[0] = 0xFF
	if orig[0] == 0xFF {
		t.Fatalf("Bytes aliases internal storage")
	}
}
