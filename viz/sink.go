// Package viz defines the optional visualization sink the coordinator
// renders through after each step, and a raylib-backed implementation.
package viz

import "github.com/orrery-sim/barnes-hut/vec3"

// Sink receives the particle array after every completed step. Render
// returns true if the run should stop (the user closed the window);
// a sink that can't fail to render simply always returns false.
type Sink interface {
	Render(particles []vec3.Particle, radius float64) bool
	Close()
}

// NopSink renders nothing and never asks to stop. It is the coordinator's
// default when no visualization was requested.
type NopSink struct{}

func (NopSink) Render([]vec3.Particle, float64) bool { return false }
func (NopSink) Close()                               {}

// StatsSink is an optional extension a Sink may implement to accept
// per-step bookkeeping the core computes but a point-cloud renderer alone
// wouldn't know, for display in an overlay panel. The coordinator checks
// for it with a type assertion rather than growing the required Sink
// surface.
type StatsSink interface {
	SetStats(step, nodeCount int)
}
