package olist

import "errors"

// ErrNotLinked is returned by Remove when the node is not currently part
// of the list (already removed, or belonging to a different list).
var ErrNotLinked = errors.New("olist: node not linked")

// Node is a single list entry. Nodes are created by Append and stay valid
// as handles after removal, but a removed node's Next always returns nil.
type Node[T any] struct {
	value  T
	next   *Node[T]
	linked bool
}

// Value returns the value stored in the node.
func (n *Node[T]) Value() T { return n.value }

// Next returns the following node, or nil at the tail or after removal.
func (n *Node[T]) Next() *Node[T] { return n.next }

// List is an insertion-ordered singly linked list. The zero value is not
// usable; construct with New.
type List[T any] struct {
	head *Node[T]
	tail *Node[T]
	size int
}

// New constructs an empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// Len returns the number of linked nodes.
func (l *List[T]) Len() int { return l.size }

// Head returns the oldest node, or nil when the list is empty.
func (l *List[T]) Head() *Node[T] { return l.head }

// Append adds v at the tail and returns its node.
func (l *List[T]) Append(v T) *Node[T] {
	n := &Node[T]{value: v, linked: true}
	if l.tail == nil {
		l.head = n
	} else {
		l.tail.next = n
	}
	l.tail = n
	l.size++
	return n
}

// Remove unlinks n from the list. The removed node's Next is cleared; a
// traversal that fetched Next before calling Remove continues unaffected.
func (l *List[T]) Remove(n *Node[T]) error {
	if n == nil || !n.linked {
		return ErrNotLinked
	}
	var prev *Node[T]
	for cur := l.head; cur != nil; cur = cur.next {
		if cur == n {
			if prev == nil {
				l.head = n.next
			} else {
				prev.next = n.next
			}
			if l.tail == n {
				l.tail = prev
			}
			n.next = nil
			n.linked = false
			l.size--
			return nil
		}
		prev = cur
	}
	return ErrNotLinked
}

// Find returns the first node whose value satisfies pred, or nil.
func (l *List[T]) Find(pred func(T) bool) *Node[T] {
	for cur := l.head; cur != nil; cur = cur.next {
		if pred(cur.value) {
			return cur
		}
	}
	return nil
}

// Clear unlinks every node, leaving the list empty.
func (l *List[T]) Clear() {
	for cur := l.head; cur != nil; {
		next := cur.next
		cur.next = nil
		cur.linked = false
		cur = next
	}
	l.head = nil
	l.tail = nil
	l.size = 0
}
