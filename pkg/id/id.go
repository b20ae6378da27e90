package id

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Size is the encoded length of an ID in bytes.
const Size = 16

// ID is a sortable identifier: [8 bytes ms_timestamp][8 bytes sequence],
// big-endian.
type ID [Size]byte

// Bytes returns a copy of the raw 16-byte representation.
func (i ID) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, i[:])
	return b
}

// String returns the lower-case hex encoding.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// Time returns the embedded millisecond timestamp.
func (i ID) Time() time.Time {
	ms := int64(binary.BigEndian.Uint64(i[0:8]))
	return time.UnixMilli(ms)
}

// Compare orders IDs byte-wise: -1, 0 or 1.
func (i ID) Compare(other ID) int {
	for idx := 0; idx < Size; idx++ {
		if i[idx] < other[idx] {
			return -1
		}
		if i[idx] > other[idx] {
			return 1
		}
	}
	return 0
}

// FromTime builds the smallest ID carrying t's millisecond timestamp.
// Useful as an exclusive upper bound when scanning by age.
func FromTime(t time.Time) ID {
	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(t.UnixMilli()))
	return out
}

// FromBytes decodes a 16-byte key back into an ID.
func FromBytes(b []byte) (ID, error) {
	var out ID
	if len(b) != Size {
		return out, fmt.Errorf("id: need %d bytes, got %d", Size, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Parse decodes the hex form produced by String.
func Parse(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("id: %w", err)
	}
	return FromBytes(b)
}

// Generator mints process-monotonic IDs.
type Generator struct {
	mu     sync.Mutex
	lastMs int64
	seq    uint64
}

// NewGenerator creates a Generator.
func NewGenerator() *Generator { return &Generator{} }

// nowMs is replaced in tests.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns a new ID, strictly greater than every ID this Generator
// has returned before, even across clock regressions.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := nowMs()
	if ms <= g.lastMs {
		ms = g.lastMs
		g.seq++
	} else {
		g.seq = 0
	}
	g.lastMs = ms

	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(ms))
	binary.BigEndian.PutUint64(out[8:16], g.seq)
	return out
}
