// Package olist provides a generic insertion-ordered singly linked list.
//
// The list preserves strict append order, which callers rely on when they
// keep time-stamped records: the head is always the oldest entry. Traversal
// stays valid while the current node is removed, as long as the next node
// is fetched before the removal:
//
//	for n := l.Head(); n != nil; {
//		next := n.Next()
//		if expired(n.Value()) {
//			_ = l.Remove(n)
//		}
//		n = next
//	}
//
// Remove reports an error for nodes that are not linked into the list, so
// structural misuse (double removal, foreign nodes) is detectable instead
// of silently corrupting the chain.
package olist
