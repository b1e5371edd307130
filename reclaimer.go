package ordcon

import (
	"context"
	"sync/atomic"
	"time"
)

// freeList is a lock-free, multi-producer single-consumer stack of nodes
// awaiting reclamation. Producers (Erase calls, iterator releases) push
// under contention; the reclaimer goroutine is the sole consumer and drains
// the whole chain at once. Grounded on List_fine_graining.hpp's FreeList,
// whose push is the same compare-exchange retry loop.
type freeList[V any] struct {
	head atomic.Pointer[seqNode[V]]
}

func (fl *freeList[V]) push(n *seqNode[V]) {
	for {
		old := fl.head.Load()
		n.freeNext.Store(old)
		if fl.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// drain atomically detaches and returns the entire current chain.
func (fl *freeList[V]) drain() *seqNode[V] {
	return fl.head.Swap(nil)
}

// pushChain prepends a full head..tail chain back onto the list in one CAS,
// used when the reclaimer pulls more nodes out of the list than its batch
// size can process in one pass and needs to put the remainder back.
func (fl *freeList[V]) pushChain(head, tail *seqNode[V]) {
	if head == nil {
		return
	}
	for {
		old := fl.head.Load()
		tail.freeNext.Store(old)
		if fl.head.CompareAndSwap(old, head) {
			return
		}
	}
}

// pendingEntry is a free-list node the reclaimer has seen once and is now
// waiting out a grace period for, before treating it as safe to finalize.
type pendingEntry[V any] struct {
	node     *seqNode[V]
	markedAt time.Time
}

// reclaimer runs FineSequence's background two-pass drain: pass one moves
// freshly queued nodes into a pending set and stamps them with the current
// time; pass two, once a node's grace period has elapsed, finalizes it.
// Mirrors the teacher's context.CancelFunc-driven background goroutine
// (conctable.go's handleReduce, circbuff.go's reduce loop).
type reclaimer[V any] struct {
	cfg     *ReclaimConfig
	list    *freeList[V]
	pending []*pendingEntry[V]

	cancel context.CancelFunc
	done   chan struct{}
}

func newReclaimer[V any](cfg *ReclaimConfig) *reclaimer[V] {
	if cfg == nil {
		cfg = DefaultReclaimConfig()
	}
	return &reclaimer[V]{cfg: cfg, list: &freeList[V]{}}
}

func (r *reclaimer[V]) enqueue(n *seqNode[V]) {
	r.list.push(n)
}

// Start launches the background drain loop. Calling Start twice without an
// intervening Stop leaks the first goroutine, matching the teacher's own
// single-shot background worker lifecycle.
func (r *reclaimer[V]) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx)
}

// Stop cancels the drain loop and waits for it to exit.
func (r *reclaimer[V]) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}

func (r *reclaimer[V]) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.drainInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drainOnce()
		}
	}
}

// drainOnce runs one pass-one/pass-two cycle; run calls it on every tick.
func (r *reclaimer[V]) drainOnce() {
	r.absorb()
	r.finalizeExpired()
}

// absorb is pass one: detach the current free-list chain and inspect up to
// BatchSize of its entries. An inspected entry whose iterRefs is still zero
// joins the pending set, marked with the time it was first observed; one
// that has been pinned again is dropped from the free-list (release queues
// it again when its last pin drops). Any overflow beyond BatchSize is pushed
// back onto the list for the next tick rather than dropped.
func (r *reclaimer[V]) absorb() {
	head := r.list.drain()
	now := time.Now()

	var overflowHead, overflowTail *seqNode[V]
	taken := 0
	for n := head; n != nil; {
		next := n.freeNext.Load()
		if taken < r.cfg.BatchSize {
			if n.iterRefs.Load() == 0 {
				r.pending = append(r.pending, &pendingEntry[V]{node: n, markedAt: now})
			}
			taken++
		} else {
			if overflowHead == nil {
				overflowHead = n
			}
			overflowTail = n
		}
		n = next
	}
	r.list.pushChain(overflowHead, overflowTail)
}

// finalizeExpired is pass two: any pending entry whose grace period has
// elapsed is safe to finalize, since every reader that could have been
// mid-traversal through it when it was queued has had at least that long to
// move off.
func (r *reclaimer[V]) finalizeExpired() {
	cutoff := time.Now().Add(-r.cfg.graceInterval())
	survivors := r.pending[:0]
	for _, e := range r.pending {
		if e.markedAt.After(cutoff) {
			survivors = append(survivors, e)
			continue
		}
		r.finalize(e.node)
	}
	r.pending = survivors
}

// finalize marks a node reclaimed. In a garbage-collected runtime this is
// bookkeeping for observability and tests, not a real free: the node
// becomes eligible for collection the moment nothing reaches it, which
// happened back when Erase unlinked it (see DESIGN.md).
func (r *reclaimer[V]) finalize(n *seqNode[V]) {
	n.reclaimed.Store(true)
}
