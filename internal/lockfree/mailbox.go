// SPDX-License-Identifier: EPL-2.0

// Package lockfree holds the hand-off structures shared between control
// goroutines and the goroutine that pulls audio.
package lockfree

import "sync/atomic"

// Node carries one item. Allocate it with NewNode where allocating is fine
// and hand it to PushNode where it is not.
type Node[T any] struct {
	v    T
	next *Node[T]
}

func NewNode[T any](v T) *Node[T] { return &Node[T]{v: v} }

// Mailbox is a multi-producer, single-consumer queue. Push never blocks and
// Drain takes everything posted so far with a single atomic swap.
// The zero value is ready to use.
type Mailbox[T any] struct {
	head atomic.Pointer[Node[T]]
	size atomic.Int64
}

func (m *Mailbox[T]) Push(v T) { m.PushNode(NewNode(v)) }

// PushNode posts n without allocating. n must not be in any mailbox.
func (m *Mailbox[T]) PushNode(n *Node[T]) {
	for {
		old := m.head.Load()
		n.next = old
		if m.head.CompareAndSwap(old, n) {
			m.size.Add(1)
			return
		}
	}
}

// Drain calls fn for every pending item in push order.
func (m *Mailbox[T]) Drain(fn func(T)) {
	n := m.head.Swap(nil)
	if n == nil {
		return
	}

	// The stack holds newest first.
	var rev *Node[T]
	for n != nil {
		next := n.next
		n.next = rev
		rev = n
		n = next
	}
	for rev != nil {
		cur := rev
		rev = rev.next
		cur.next = nil
		m.size.Add(-1)
		fn(cur.v)
	}
}

// Len is a snapshot and may be stale by the time it returns.
func (m *Mailbox[T]) Len() int { return int(m.size.Load()) }
