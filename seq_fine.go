package ordcon

import (
	"context"
	"sync/atomic"
)

// FineSequence is a doubly-linked sequence with per-node locking: every
// mutator takes only the locks of the nodes it touches, in strict
// left-to-right order, instead of a single container-wide lock. Erased
// nodes with no live iterator are handed off to a background reclaimer
// instead of being dropped on the spot, matching the shape of
// List_fine_graining.hpp's push_back/insert/erase retry loops and its
// FreeList worker.
type FineSequence[V any] struct {
	head *seqNode[V]
	tail *seqNode[V]
	size atomic.Int64

	reclaim *reclaimer[V]
}

// NewFineSequence constructs an empty sequence. The background reclaimer is
// not started until Start is called, mirroring the teacher's explicit
// lifecycle for its own background workers.
func NewFineSequence[V any](cfg *ReclaimConfig) *FineSequence[V] {
	head := &seqNode[V]{state: seqBegin}
	tail := &seqNode[V]{state: seqEnd}
	head.next = tail
	tail.prev = head
	return &FineSequence[V]{head: head, tail: tail, reclaim: newReclaimer[V](cfg)}
}

// Start begins the background free-list drain. ctx bounds its lifetime in
// addition to an explicit Stop call.
func (s *FineSequence[V]) Start(ctx context.Context) {
	s.reclaim.Start(ctx)
}

// Stop halts the background free-list drain and waits for it to exit.
func (s *FineSequence[V]) Stop() {
	s.reclaim.Stop()
}

// Len returns the number of values currently held.
func (s *FineSequence[V]) Len() int {
	return int(s.size.Load())
}

// PushFront inserts value as the new first element.
func (s *FineSequence[V]) PushFront(value V) {
	s.head.mu.Lock()
	defer s.head.mu.Unlock()

	right := s.head.next
	right.mu.Lock()
	defer right.mu.Unlock()

	n := &seqNode[V]{value: value, state: seqValid, prev: s.head, next: right}
	s.head.next = n
	right.prev = n
	s.size.Add(1)
}

// PushBack inserts value as the new last element.
func (s *FineSequence[V]) PushBack(value V) {
	for {
		s.tail.mu.RLock()
		left := s.tail.prev
		s.tail.mu.RUnlock()

		left.mu.Lock()
		s.tail.mu.Lock()

		if left.next == s.tail && s.tail.prev == left {
			n := &seqNode[V]{value: value, state: seqValid, prev: left, next: s.tail}
			left.next = n
			s.tail.prev = n
			s.size.Add(1)

			s.tail.mu.Unlock()
			left.mu.Unlock()
			return
		}

		s.tail.mu.Unlock()
		left.mu.Unlock()
	}
}

// Insert splices value immediately after the node it points at. An iterator
// at End appends (PushBack); one on a REMOVED node is a no-op.
func (s *FineSequence[V]) Insert(it *SeqIterator[V], value V) {
	left := it.node

	switch left.state {
	case seqEnd:
		s.PushBack(value)
		return
	case seqBegin:
		s.PushFront(value)
		return
	}

	left.mu.Lock()
	defer left.mu.Unlock()
	if left.state == seqRemoved {
		return
	}

	right := left.next
	right.mu.Lock()
	defer right.mu.Unlock()

	n := &seqNode[V]{value: value, state: seqValid, prev: left, next: right}
	left.next = n
	right.prev = n
	s.size.Add(1)
}

// Find returns an iterator at the first node equal to value under eq, or at
// End if none matches. Each node's read lock is held only long enough for
// the single comparison, per List_fine_graining.hpp's find.
func (s *FineSequence[V]) Find(value V, eq func(V, V) bool) *SeqIterator[V] {
	cur := s.head.next
	for cur != s.tail {
		cur.mu.RLock()
		match := eq(cur.value, value)
		cur.mu.RUnlock()
		if match {
			cur.iterRefs.Add(1)
			return &SeqIterator[V]{seq: s, node: cur}
		}
		cur = cur.next
	}
	s.tail.iterRefs.Add(1)
	return &SeqIterator[V]{seq: s, node: s.tail}
}

// Erase removes the node it points at, if still live, retrying under
// contention exactly as List_fine_graining.hpp's erase does: snapshot the
// neighbors under the node's own lock, then re-lock left/node/right in
// order and re-validate before splicing.
func (s *FineSequence[V]) Erase(it *SeqIterator[V]) {
	node := it.node

	for {
		node.mu.RLock()
		state := node.state
		left := node.prev
		right := node.next
		node.mu.RUnlock()

		if state != seqValid {
			return
		}

		left.mu.Lock()
		node.mu.Lock()
		right.mu.Lock()

		if left.next == node && right.prev == node {
			left.next = right
			right.prev = left
			s.size.Add(-1)

			if node.iterRefs.Load() > 0 {
				node.state = seqRemoved
				right.mu.Unlock()
				node.mu.Unlock()
				left.mu.Unlock()
			} else {
				right.mu.Unlock()
				node.mu.Unlock()
				left.mu.Unlock()
				s.reclaim.enqueue(node)
			}
			return
		}

		right.mu.Unlock()
		node.mu.Unlock()
		left.mu.Unlock()
	}
}

// Begin returns an iterator at the current first element, or End if empty.
func (s *FineSequence[V]) Begin() *SeqIterator[V] {
	s.head.mu.RLock()
	defer s.head.mu.RUnlock()
	s.head.next.iterRefs.Add(1)
	return &SeqIterator[V]{seq: s, node: s.head.next}
}

// End returns the terminal sentinel iterator.
func (s *FineSequence[V]) End() *SeqIterator[V] {
	s.tail.mu.RLock()
	defer s.tail.mu.RUnlock()
	s.tail.iterRefs.Add(1)
	return &SeqIterator[V]{seq: s, node: s.tail}
}

func (s *FineSequence[V]) nextOf(n *seqNode[V]) *seqNode[V] {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.next
}

func (s *FineSequence[V]) prevOf(n *seqNode[V]) *seqNode[V] {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.prev
}

// release drops a pin; if it was the last one on a REMOVED node, the node
// is handed to the background reclaimer instead of being freed inline,
// matching the iterator-triggered destroy() calls in
// List_fine_graining.hpp.
func (s *FineSequence[V]) release(n *seqNode[V]) {
	if n.iterRefs.Add(-1) == 0 && n.state == seqRemoved {
		s.reclaim.enqueue(n)
	}
}
