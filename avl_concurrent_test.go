package ordcon

import (
	"context"
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestAVLMapConcurrentInsertErase exercises spec's 8-thread insert/random-
// erase scenario: disjoint key ranges per worker for insert, then a second
// wave erasing half of what each worker inserted, fanned out and joined
// with an errgroup the way hanwen-go-fuse drives its parallel lookup test.
func TestAVLMapConcurrentInsertErase(t *testing.T) {
	av := NewAVLMap[int, int]()
	const workers = 8
	const perWorker = 200

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			base := w * perWorker
			for i := 0; i < perWorker; i++ {
				av.Insert(base+i, base+i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent insert: %v", err)
	}
	if av.Size() != workers*perWorker {
		t.Fatalf("Size() after insert = %d, want %d", av.Size(), workers*perWorker)
	}

	g, _ = errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			base := w * perWorker
			for i := 0; i < perWorker; i += 2 {
				av.Erase(base + i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent erase: %v", err)
	}

	if av.Size() != workers*perWorker/2 {
		t.Fatalf("Size() after erase = %d, want %d", av.Size(), workers*perWorker/2)
	}

	prev := -1
	for it := av.Begin(); it.Valid(); it.Next() {
		k, err := it.Key()
		if err != nil {
			t.Fatalf("Key(): %v", err)
		}
		if k <= prev {
			t.Fatalf("traversal not monotonic: %d after %d", k, prev)
		}
		if k%2 == 0 {
			t.Fatalf("found erased key %d still present", k)
		}
		prev = k
	}
}

// TestAVLMapIteratorStableUnderConcurrentErase pins an iterator on a node
// and erases it from another goroutine, checking the read side never
// observes a torn or wrong key.
func TestAVLMapIteratorStableUnderConcurrentErase(t *testing.T) {
	av := NewAVLMap[int, int]()
	for i := 0; i < 100; i++ {
		av.Insert(i, i)
	}

	it := av.Begin()
	defer it.Close()
	for i := 0; i < 50; i++ {
		it.Next()
	}
	k, err := it.Key()
	if err != nil || k != 50 {
		t.Fatalf("iterator setup: key=%d err=%v, want 50", k, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		av.Erase(50)
	}()
	<-done

	if k2, err := it.Key(); err != nil || k2 != 50 {
		t.Fatalf("Key() after concurrent erase = %d err=%v, want 50", k2, err)
	}
}
