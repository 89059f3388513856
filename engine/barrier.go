package engine

import "sync"

// Barrier is a reusable multi-party rendezvous: once n parties have
// called Wait, every one of them is released simultaneously and the
// barrier resets for its next use. It is the only synchronization
// primitive the step engine needs: no reusable cyclic barrier exists
// among the available third-party dependencies (golang.org/x/sync offers
// errgroup/semaphore, neither a cyclic rendezvous), so this is the
// standard sync.Cond-based cyclic-barrier idiom.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	waiting    int
	generation uint64
}

// NewBarrier returns a Barrier that releases its parties once exactly
// parties goroutines have called Wait.
func NewBarrier(parties int) *Barrier {
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until parties goroutines have called Wait on this
// generation, then releases all of them and starts the next generation.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++

	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}

	for gen == b.generation {
		b.cond.Wait()
	}
}
