// Package octree builds a Barnes–Hut octree over a particle array, each
// step, from scratch, and evaluates the opening-angle-approximated
// gravitational force for a single particle against it. The tree is
// allocated from a bump arena: nodes are never freed individually, only
// invalidated wholesale by the next build's arena reset.
package octree

import (
	"fmt"
	"math"

	"github.com/orrery-sim/barnes-hut/arena"
	"github.com/orrery-sim/barnes-hut/vec3"
)

// G is the gravitational constant used by gforce.
const G = 6.6726e-11

// DMin floors the distance used in gforce, preventing singular forces
// between near-coincident particles.
const DMin = 2.0

// Octant is one node of the tree: a bounding cube, an aggregate
// mass-weighted center, and up to eight children. It is a leaf iff
// Bodies == 1.
type Octant struct {
	Center   vec3.PointMass
	X, Y, Z  float64
	Len      float64
	Bodies   int
	Children [8]arena.Handle
}

// IsLeaf reports whether o aggregates exactly one body.
func (o *Octant) IsLeaf() bool {
	return o.Bodies == 1
}

func newLeaf(center vec3.PointMass, x, y, z, length float64) Octant {
	o := Octant{Center: center, X: x, Y: y, Z: z, Len: length, Bodies: 1}
	for i := range o.Children {
		o.Children[i] = arena.NoHandle
	}
	return o
}

// Tree is a handle to a built octree's root, paired with the arena the
// root (and every descendant) was allocated from.
type Tree struct {
	root arena.Handle
	mem  *arena.Arena[Octant]
}

// Build resets mem and constructs a fresh octree over particles, rooted
// at a cube of half-width radius centered on the origin. particles must
// be non-empty. On arena exhaustion, the partially built tree is
// discarded and an error wrapping simerr.ErrOutOfMemory is returned.
func Build(mem *arena.Arena[Octant], particles []vec3.Particle, radius float64) (*Tree, error) {
	if len(particles) == 0 {
		return nil, fmt.Errorf("octree: build requires at least one particle")
	}

	mem.Reset()

	root, err := mem.Alloc()
	if err != nil {
		return nil, fmt.Errorf("octree: allocating root: %w", err)
	}
	*mem.Get(root) = newLeaf(particles[0].PointMass, -radius, -radius, -radius, 2*radius)

	for i := 1; i < len(particles); i++ {
		if err := insert(mem, root, particles[i].PointMass); err != nil {
			return nil, fmt.Errorf("octree: inserting particle %d: %w", i, err)
		}
	}

	updateCenters(mem, root)

	return &Tree{root: root, mem: mem}, nil
}

// NodeCount returns the number of octants allocated for this tree, for
// diagnostic/verbose reporting.
func (t *Tree) NodeCount() int {
	return t.mem.Len()
}

// Root returns the tree's root octant.
func (t *Tree) Root() *Octant {
	return t.mem.Get(t.root)
}

// insert adds particle p into the subtree rooted at handle h.
func insert(mem *arena.Arena[Octant], h arena.Handle, p vec3.PointMass) error {
	n := mem.Get(h)

	if n.IsLeaf() {
		halfResolved := math.Abs(n.Len/2) <= vec3.Epsilon
		if n.Center.Pos.ApproxEqual(p.Pos) || halfResolved {
			// Absorption: geometric resolution exhausted, or the particle
			// coincides with the one already held here. The node stays a
			// leaf (Bodies is not incremented) and simply gains mass.
			n.Center.Mass += p.Mass
			return nil
		}

		// Promote to internal: re-insert the existing center as a child
		// before inserting p.
		existing := n.Center
		if err := insertChild(mem, h, existing); err != nil {
			return err
		}
	}

	n.Bodies++
	n.Center.Mass += p.Mass
	return insertChild(mem, h, p)
}

// insertChild routes p into the correct child octant of h, allocating a
// fresh leaf if that slot is empty.
func insertChild(mem *arena.Arena[Octant], h arena.Handle, p vec3.PointMass) error {
	n := mem.Get(h)
	half := n.Len / 2

	midX, midY, midZ := n.X+half, n.Y+half, n.Z+half

	idx := 0
	cx, cy, cz := n.X, n.Y, n.Z
	if p.Pos.X >= midX {
		idx |= 1
		cx = midX
	}
	if p.Pos.Y > midY {
		idx |= 2
		cy = midY
	}
	if p.Pos.Z > midZ {
		idx |= 4
		cz = midZ
	}

	if child := n.Children[idx]; child != arena.NoHandle {
		return insert(mem, child, p)
	}

	child, err := mem.Alloc()
	if err != nil {
		return err
	}
	*mem.Get(child) = newLeaf(p, cx, cy, cz, half)
	mem.Get(h).Children[idx] = child
	return nil
}

// updateCenters recomputes every internal node's mass-weighted centroid,
// bottom-up, and returns the subtree's mass-weighted position sum
// (pos * mass) for its caller to fold in.
func updateCenters(mem *arena.Arena[Octant], h arena.Handle) vec3.Vec3 {
	n := mem.Get(h)
	if n.IsLeaf() {
		return n.Center.Pos.Scale(n.Center.Mass)
	}

	var sum vec3.Vec3
	for _, child := range n.Children {
		if child != arena.NoHandle {
			sum = sum.Add(updateCenters(mem, child))
		}
	}

	if n.Center.Mass != 0 {
		n.Center.Pos = sum.Scale(1 / n.Center.Mass)
	}
	return sum
}

// ForceOn evaluates the Barnes–Hut approximated gravitational force
// exerted on particle p by the tree, using opening-angle threshold theta.
func (t *Tree) ForceOn(p vec3.Particle, theta float64) vec3.Vec3 {
	return forceAccumulate(t.mem, t.root, p, theta)
}

func forceAccumulate(mem *arena.Arena[Octant], h arena.Handle, p vec3.Particle, theta float64) vec3.Vec3 {
	n := mem.Get(h)

	if n.IsLeaf() {
		if !n.Center.Pos.ApproxEqual(p.Pos) {
			return gforce(p.PointMass, n.Center)
		}
		return vec3.Vec3{}
	}

	d := p.Pos.Dist(n.Center.Pos)
	if n.Len/d < theta {
		return gforce(p.PointMass, n.Center)
	}

	var total vec3.Vec3
	for _, child := range n.Children {
		if child != arena.NoHandle {
			total = total.Add(forceAccumulate(mem, child, p, theta))
		}
	}
	return total
}

// gforce returns the gravitational force p1 exerts on p0.
func gforce(p0, p1 vec3.PointMass) vec3.Vec3 {
	if p0.Pos.ApproxEqual(p1.Pos) {
		return vec3.Vec3{}
	}

	delta := p1.Pos.Sub(p0.Pos)
	d := delta.Len()
	if d < DMin {
		d = DMin
	}

	return delta.Scale(G * p0.Mass * p1.Mass / (d * d * d))
}
