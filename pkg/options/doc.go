// Package options implements a small named-option snapshot set.
//
// A Set captures a component's tunable values under fixed string keys so
// they can be carried across component rebuilds: the component adds each
// value to a Set, and the Set is later fed into a fresh instance, which
// receives every entry through the apply callback in insertion order.
//
// Clone and destroy hooks exist for values with ownership semantics;
// plain scalar values round-trip unchanged, bit for bit.
package options
