//go:build unix

// Package arena implements a fixed-capacity, reset-per-step bump allocator.
// A handle, once returned by Alloc, stays valid until the next Reset; Reset
// itself is O(1) and runs no destructors on the discarded slots. Backing
// memory is obtained from an anonymous mmap region so the OS pages it in
// lazily, the way original_source/src/main.c's own arena_init does with
// mmap(..., MAP_ANON, ...), rather than committing gigabytes up front.
package arena

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/orrery-sim/barnes-hut/simerr"
)

// Handle is a compact, stable identifier for one slot in an Arena. It
// remains valid until the arena's next Reset.
type Handle uint32

// NoHandle is the sentinel handle distinct from any legal slot.
const NoHandle Handle = ^Handle(0)

// Arena is a bump allocator over a fixed number of fixed-size slots of
// type T, backed by a single anonymous memory mapping.
type Arena[T any] struct {
	mem   []byte
	slots []T
	curr  int
}

// Init reserves an anonymous memory mapping sized to hold
// capacityBytes/sizeof(T) slots and returns a ready-to-use Arena.
func Init[T any](capacityBytes int) (*Arena[T], error) {
	var zero T
	slotSize := int(unsafe.Sizeof(zero))
	if slotSize == 0 || capacityBytes < slotSize {
		return nil, fmt.Errorf("arena: capacity %d too small for slot size %d: %w", capacityBytes, slotSize, simerr.ErrOutOfMemory)
	}

	mem, err := unix.Mmap(-1, 0, capacityBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w: %w", capacityBytes, err, simerr.ErrOutOfMemory)
	}

	numSlots := len(mem) / slotSize
	slots := unsafe.Slice((*T)(unsafe.Pointer(&mem[0])), numSlots)

	return &Arena[T]{mem: mem, slots: slots}, nil
}

// Close releases the backing mapping. The arena must not be used
// afterward.
func (a *Arena[T]) Close() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	a.slots = nil
	return err
}

// Reset rewinds the bump cursor to zero. Every handle previously returned
// by Alloc becomes semantically invalid; no diagnostic is raised on reuse.
func (a *Arena[T]) Reset() {
	a.curr = 0
}

// Alloc returns the next slot's handle and advances the cursor by one
// slot, or reports simerr.ErrOutOfMemory if the arena is exhausted.
func (a *Arena[T]) Alloc() (Handle, error) {
	if a.curr >= len(a.slots) {
		return NoHandle, fmt.Errorf("arena: exhausted after %d slots: %w", len(a.slots), simerr.ErrOutOfMemory)
	}
	h := Handle(a.curr)
	a.curr++
	return h, nil
}

// Get resolves a handle to its backing storage. Behavior on a handle
// invalidated by a prior Reset is unspecified: callers must never mix
// handles across resets.
func (a *Arena[T]) Get(h Handle) *T {
	return &a.slots[h]
}

// Len returns the number of slots allocated since the last Reset.
func (a *Arena[T]) Len() int {
	return a.curr
}

// Cap returns the total slot capacity of the arena.
func (a *Arena[T]) Cap() int {
	return len(a.slots)
}
