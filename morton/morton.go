// Package morton permutes a particle array into Z-curve (Morton) order to
// improve cache locality during tree traversal. It is a pure optimization:
// the simulation's tree is rebuilt from scratch every step, so reordering
// particle indices changes nothing about correctness, only which
// particles tend to be adjacent in memory (and therefore in traversal
// order) at once.
package morton

import (
	"sort"

	"github.com/orrery-sim/barnes-hut/vec3"
)

// Code computes the 64-bit Morton number for a position, interleaving the
// low 21 bits of each integer-truncated coordinate. Negative coordinates,
// truncated via an unsigned conversion, are tolerated as a known locality
// approximation rather than a correctness concern: the tree is rebuilt
// every step regardless of particle order.
func Code(pos vec3.Vec3) uint64 {
	x := spread(uint32(int64(pos.X)))
	y := spread(uint32(int64(pos.Y)))
	z := spread(uint32(int64(pos.Z)))
	return x | (y << 1) | (z << 2)
}

// spread interleaves the low 21 bits of v with two zero bits between each,
// the standard "magic bits" expansion used to build 3-axis Morton codes.
func spread(v uint32) uint64 {
	x := uint64(v) & 0x1fffff // low 21 bits
	x = (x | x<<32) & 0x1f00000000ffff
	x = (x | x<<16) & 0x1f0000ff0000ff
	x = (x | x<<8) & 0x100f00f00f00f00f
	x = (x | x<<4) & 0x10c30c30c30c30c3
	x = (x | x<<2) & 0x1249249249249249
	return x
}

// keyed pairs a particle's original index with its precomputed Morton
// code, so the sort comparator never has to recompute it mid-sort.
type keyed struct {
	code uint64
	idx  int
}

// Sort reorders particles in place into ascending Morton order. Equal
// Morton codes compare equal under sort.SliceStable, so particles that
// land in the same cell keep their relative order — the permutation is
// deterministic for a given input order.
func Sort(particles []vec3.Particle) {
	n := len(particles)
	if n < 2 {
		return
	}

	keys := make([]keyed, n)
	for i, p := range particles {
		keys[i] = keyed{code: Code(p.Pos), idx: i}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].code < keys[j].code
	})

	sorted := make([]vec3.Particle, n)
	for i, k := range keys {
		sorted[i] = particles[k.idx]
	}
	copy(particles, sorted)
}
