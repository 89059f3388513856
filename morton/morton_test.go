package morton

import (
	"sort"
	"testing"

	"github.com/orrery-sim/barnes-hut/vec3"
)

func TestCodeInterleavesLowBits(t *testing.T) {
	// All coordinates zero must produce code zero.
	if got := Code(vec3.Vec3{X: 0, Y: 0, Z: 0}); got != 0 {
		t.Errorf("Code(0,0,0) = %d, want 0", got)
	}

	// x=1 sets only bit 0.
	if got := Code(vec3.Vec3{X: 1, Y: 0, Z: 0}); got != 1 {
		t.Errorf("Code(1,0,0) = %d, want 1", got)
	}
	// y=1 sets only bit 1.
	if got := Code(vec3.Vec3{X: 0, Y: 1, Z: 0}); got != 2 {
		t.Errorf("Code(0,1,0) = %d, want 2", got)
	}
	// z=1 sets only bit 2.
	if got := Code(vec3.Vec3{X: 0, Y: 0, Z: 1}); got != 4 {
		t.Errorf("Code(0,0,1) = %d, want 4", got)
	}
}

func TestSortOrdersByCode(t *testing.T) {
	particles := []vec3.Particle{
		{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: 3, Y: 0, Z: 0}}},
		{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: 0, Y: 0, Z: 0}}},
		{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: 1, Y: 0, Z: 0}}},
		{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: 2, Y: 0, Z: 0}}},
	}

	Sort(particles)

	codes := make([]uint64, len(particles))
	for i, p := range particles {
		codes[i] = Code(p.Pos)
	}
	if !sort.SliceIsSorted(codes, func(i, j int) bool { return codes[i] < codes[j] }) {
		t.Errorf("expected particles sorted by Morton code, got codes %v", codes)
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	particles := []vec3.Particle{
		{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: 1, Y: 1, Z: 1}, Mass: 10}},
		{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: 1, Y: 1, Z: 1}, Mass: 20}},
		{PointMass: vec3.PointMass{Pos: vec3.Vec3{X: 1, Y: 1, Z: 1}, Mass: 30}},
	}

	Sort(particles)

	// Equal codes: original relative order (by Mass, ascending insertion
	// order) must be preserved.
	if particles[0].Mass != 10 || particles[1].Mass != 20 || particles[2].Mass != 30 {
		t.Errorf("expected stable order preserved for tied codes, got masses %v, %v, %v",
			particles[0].Mass, particles[1].Mass, particles[2].Mass)
	}
}

func TestSortHandlesSmallSlices(t *testing.T) {
	Sort(nil)
	Sort([]vec3.Particle{{}})
}
