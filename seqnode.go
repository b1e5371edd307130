package ordcon

import (
	"sync"
	"sync/atomic"
)

// seqState tags the role of a sequence node, mirroring treeState but for
// the doubly-linked sequence containers.
type seqState uint8

const (
	seqValid seqState = iota
	seqBegin
	seqEnd
	seqRemoved
)

// seqNode is the storage cell shared by CoarseSequence and FineSequence.
// mu is only taken by FineSequence (CoarseSequence serializes through the
// container-wide lock instead); it is always present so both variants share
// one node type and one free-list shape, matching how List_fine_graining.hpp
// and List_medium_graining.hpp both build on the same node layout as the
// coarse original.
type seqNode[V any] struct {
	value V

	prev *seqNode[V]
	next *seqNode[V]

	state seqState
	mu    sync.RWMutex

	iterRefs atomic.Int32

	// reclaimed flags that the node has been processed by the reclaimer's
	// pass 2 (test observability only, see reclaimer.go).
	reclaimed atomic.Bool

	// freeNext links nodes queued on the reclaimer's free-list; owned
	// exclusively by the free-list's atomic push/pop, never by prev/next.
	freeNext atomic.Pointer[seqNode[V]]
}
