// Package id provides 128-bit, lexicographically sortable identifiers
// used as archive keys.
//
// # Format
//
// An ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Byte-wise comparison therefore preserves chronological order, and IDs
// minted within the same millisecond stay strictly increasing by
// sequence. The embedded timestamp is recoverable with Time, which is how
// retention trims decide whether a key is older than the cutoff without
// reading its value.
//
// # Monotonicity
//
// A Generator never goes backwards: if the system clock regresses it pins
// to the last observed millisecond and keeps incrementing the sequence.
package id
