// Package seed generates the initial particle distribution a run starts
// from. The wire format and evolution of particles afterward are the
// engine's concern; seed only produces the step-0 array.
package seed

import (
	"math/rand"

	"github.com/orrery-sim/barnes-hut/vec3"
)

// Particles returns n particles, each given mass maxMass and a position
// uniformly distributed within the ball of radius r (or within the disc
// z=0 when flat is set). seed selects the source's determinism: 0 draws
// entropy from the runtime, matching the source's "srandom only if a
// seed was given" rule.
func Particles(n int, r, maxMass float64, flat bool, seed int64) []vec3.Particle {
	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	rng := rand.New(src)

	particles := make([]vec3.Particle, n)
	for i := range particles {
		particles[i] = vec3.Particle{
			PointMass: vec3.PointMass{
				Pos:  randomPoint(rng, r, flat),
				Mass: maxMass,
			},
		}
	}
	return particles
}

// randomPoint draws a point uniformly within the ball of radius r,
// rejection-sampling a cube to avoid the corner-bias of naive spherical
// coordinate sampling. flat collapses z to 0, scattering the point
// uniformly within the disc instead.
func randomPoint(rng *rand.Rand, r float64, flat bool) vec3.Vec3 {
	for {
		x := (rng.Float64()*2 - 1) * r
		y := (rng.Float64()*2 - 1) * r
		z := 0.0
		if !flat {
			z = (rng.Float64()*2 - 1) * r
		}
		if x*x+y*y+z*z <= r*r {
			return vec3.Vec3{X: x, Y: y, Z: z}
		}
	}
}
