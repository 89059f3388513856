package octree

import (
	"math"
	"testing"
	"unsafe"

	"github.com/orrery-sim/barnes-hut/arena"
	"github.com/orrery-sim/barnes-hut/vec3"
)

func newTestArena(t *testing.T, capacity int) *arena.Arena[Octant] {
	t.Helper()
	a, err := arena.Init[Octant](capacity)
	if err != nil {
		t.Fatalf("arena.Init: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func particle(x, y, z, mass float64) vec3.Particle {
	return vec3.Particle{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: x, Y: y, Z: z}, Mass: mass}}
}

func TestBuildSingleParticle(t *testing.T) {
	a := newTestArena(t, 1<<16)
	particles := []vec3.Particle{particle(1, 2, 3, 5)}

	tree, err := Build(a, particles, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	root := tree.Root()
	if !root.IsLeaf() {
		t.Errorf("expected single-particle tree to be a leaf")
	}
	if root.Center.Mass != 5 {
		t.Errorf("root mass: got %v, want 5", root.Center.Mass)
	}
	if !root.Center.Pos.ApproxEqual(particles[0].Pos) {
		t.Errorf("root center: got %+v, want %+v", root.Center.Pos, particles[0].Pos)
	}
}

// TestMassConservation checks property 2: the root's aggregate mass after
// update equals the sum of input masses.
func TestMassConservation(t *testing.T) {
	a := newTestArena(t, 1<<20)
	particles := []vec3.Particle{
		particle(1, 1, 1, 2),
		particle(-1, 1, 1, 3),
		particle(1, -1, 1, 4),
		particle(1, 1, -1, 5),
		particle(-1, -1, -1, 6),
	}

	tree, err := Build(a, particles, 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var want float64
	for _, p := range particles {
		want += p.Mass
	}

	if got := tree.Root().Center.Mass; math.Abs(got-want) > 1e-9 {
		t.Errorf("root mass: got %v, want %v", got, want)
	}
}

// TestContainment checks property 4: every particle lies within the root
// cube.
func TestContainment(t *testing.T) {
	a := newTestArena(t, 1<<20)
	radius := 50.0
	particles := []vec3.Particle{
		particle(49, 49, 49, 1),
		particle(-49, -49, -49, 1),
		particle(0, 0, 0, 1),
	}

	tree, err := Build(a, particles, radius)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	root := tree.Root()
	for _, p := range particles {
		if p.Pos.X < root.X || p.Pos.X > root.X+root.Len ||
			p.Pos.Y < root.Y || p.Pos.Y > root.Y+root.Len ||
			p.Pos.Z < root.Z || p.Pos.Z > root.Z+root.Len {
			t.Errorf("particle %+v not contained in root cube (%v,%v,%v len %v)", p, root.X, root.Y, root.Z, root.Len)
		}
	}
}

// TestCoincidentAbsorption checks property/scenario E3: two particles at
// the exact same position are absorbed into a single leaf.
func TestCoincidentAbsorption(t *testing.T) {
	a := newTestArena(t, 1<<16)
	particles := []vec3.Particle{
		particle(0, 0, 0, 3),
		particle(0, 0, 0, 4),
	}

	tree, err := Build(a, particles, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	root := tree.Root()
	if !root.IsLeaf() {
		t.Errorf("expected coincident particles to collapse into one leaf")
	}
	if root.Bodies != 1 {
		t.Errorf("expected Bodies == 1 after absorption, got %d", root.Bodies)
	}
	if math.Abs(root.Center.Mass-7) > 1e-9 {
		t.Errorf("expected absorbed mass 7, got %v", root.Center.Mass)
	}
}

// TestThetaZeroMatchesDirectSum checks property 5 / scenario E4: with
// theta == 0 every evaluation falls through to leaves, matching an
// independently computed N^2 direct sum.
func TestThetaZeroMatchesDirectSum(t *testing.T) {
	a := newTestArena(t, 1<<20)
	var particles []vec3.Particle
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				particles = append(particles, particle(float64(i)*10, float64(j)*10, float64(k)*10, 1e8))
			}
		}
	}

	tree, err := Build(a, particles, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, p := range particles {
		got := tree.ForceOn(p, 0)
		want := directSumForce(p, particles)

		if relErr(got, want) > 1e-5 {
			t.Errorf("particle %+v: got force %+v, want %+v (rel err too large)", p.Pos, got, want)
		}
	}
}

func directSumForce(p vec3.Particle, all []vec3.Particle) vec3.Vec3 {
	var total vec3.Vec3
	for _, q := range all {
		total = total.Add(gforce(p.PointMass, q.PointMass))
	}
	return total
}

func relErr(got, want vec3.Vec3) float64 {
	denom := want.Len()
	if denom < 1e-30 {
		return got.Sub(want).Len()
	}
	return got.Sub(want).Len() / denom
}

// TestArenaResetIdempotence checks property 7: rebuilding the same
// distribution twice with the same radius yields identical aggregate
// masses and centers at the root.
func TestArenaResetIdempotence(t *testing.T) {
	a := newTestArena(t, 1<<20)
	particles := []vec3.Particle{
		particle(1, 2, 3, 2),
		particle(-4, 5, -6, 3),
		particle(7, -8, 9, 4),
	}

	tree1, err := Build(a, particles, 20)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	root1 := *tree1.Root()

	tree2, err := Build(a, particles, 20)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	root2 := *tree2.Root()

	if root1.Bodies != root2.Bodies {
		t.Errorf("Bodies differ across rebuilds: %d vs %d", root1.Bodies, root2.Bodies)
	}
	if math.Abs(root1.Center.Mass-root2.Center.Mass) > 1e-9 {
		t.Errorf("Mass differs across rebuilds: %v vs %v", root1.Center.Mass, root2.Center.Mass)
	}
	if !root1.Center.Pos.ApproxEqual(root2.Center.Pos) {
		t.Errorf("Center differs across rebuilds: %+v vs %+v", root1.Center.Pos, root2.Center.Pos)
	}
}

func TestArenaExhaustionSurfacesError(t *testing.T) {
	// Enough room for the root only: a second, non-coincident particle
	// forces a second allocation and must fail.
	a := newTestArena(t, int(unsafe.Sizeof(Octant{})))
	particles := []vec3.Particle{
		particle(0, 0, 0, 1),
		particle(5, 5, 5, 1),
	}

	if _, err := Build(a, particles, 100); err == nil {
		t.Fatal("expected Build to fail on arena exhaustion")
	}
}
