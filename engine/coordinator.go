// Package engine runs the barrier-synchronized step loop: a fixed pool
// of workers, each owning a disjoint slice of the shared particle array,
// rebuilding a shared octree every step and integrating forces in
// parallel between two barrier crossings. Workers write their results
// directly into their own slice of the shared array: slices never
// overlap, and force evaluation during simulate reads only the
// already-built (and by then read-only) tree, never another worker's
// slice of the particle array, so no per-worker copy is needed.
package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/orrery-sim/barnes-hut/arena"
	"github.com/orrery-sim/barnes-hut/config"
	"github.com/orrery-sim/barnes-hut/morton"
	"github.com/orrery-sim/barnes-hut/octree"
	"github.com/orrery-sim/barnes-hut/simerr"
	"github.com/orrery-sim/barnes-hut/telemetry"
	"github.com/orrery-sim/barnes-hut/vec3"
	"github.com/orrery-sim/barnes-hut/viz"
)

// optimizeEvery is the step interval at which the particle array is
// Z-curve sorted when config.Options.Optimize is set.
const optimizeEvery = 10

// Coordinator owns the shared particle array, the tree arena, the
// worker pool, and the two barriers that discipline every step. It is
// itself worker 0.
type Coordinator struct {
	opts      *config.Options
	particles []vec3.Particle
	workers   []*Worker

	barrier1 *Barrier
	barrier2 *Barrier
	errs     errorBox

	mem    *arena.Arena[octree.Octant]
	tree   *octree.Tree
	radius float64

	buildUS int64 // worker 0's own last build-phase duration
	simUS   int64 // worker 0's own last simulate-phase duration

	sink       viz.Sink
	csv        *telemetry.CSVStream
	collector  *telemetry.Collector
	experiment *telemetry.OutputManager
}

// NewCoordinator builds the worker pool and arena for particles, ready
// to Run. particles becomes the coordinator's shared array; callers
// must not retain or mutate it afterward. sink, csv, and experiment may
// be nil (a nil sink is replaced by viz.NopSink{}; nil csv/experiment disable
// that output).
func NewCoordinator(opts *config.Options, particles []vec3.Particle, sink viz.Sink, csv *telemetry.CSVStream, experiment *telemetry.OutputManager) (*Coordinator, error) {
	return newCoordinator(opts, particles, opts.ArenaMiB*1024*1024, sink, csv, experiment)
}

// newCoordinator is NewCoordinator with the arena size in raw bytes
// rather than MiB, so tests can size an arena too small to hold a
// step's tree without needing sub-MiB config granularity.
func newCoordinator(opts *config.Options, particles []vec3.Particle, arenaBytes int, sink viz.Sink, csv *telemetry.CSVStream, experiment *telemetry.OutputManager) (*Coordinator, error) {
	if len(particles) == 0 {
		return nil, fmt.Errorf("engine: at least one particle is required")
	}

	slices, err := Partition(len(particles), opts.Threads)
	if err != nil {
		return nil, err
	}

	mem, err := arena.Init[octree.Octant](arenaBytes)
	if err != nil {
		return nil, err
	}

	workers := make([]*Worker, opts.Threads)
	for i, s := range slices {
		workers[i] = newWorker(i, s)
	}

	if sink == nil {
		sink = viz.NopSink{}
	}

	return &Coordinator{
		opts:       opts,
		particles:  particles,
		workers:    workers,
		barrier1:   NewBarrier(opts.Threads),
		barrier2:   NewBarrier(opts.Threads),
		mem:        mem,
		radius:     opts.Radius,
		sink:       sink,
		csv:        csv,
		collector:  telemetry.NewCollector(30),
		experiment: experiment,
	}, nil
}

// Particles returns the coordinator's shared array. Only safe to call
// after Run has returned.
func (c *Coordinator) Particles() []vec3.Particle {
	return c.particles
}

// Close releases the coordinator's arena. Run's caller should defer
// this regardless of Run's outcome.
func (c *Coordinator) Close() error {
	return c.mem.Close()
}

// Run spawns the worker pool, including running worker 0 (the
// coordinator itself) on the calling goroutine, and blocks until every
// worker has stopped: either opts.Steps completed steps, or a failure
// observed by every worker at a shared barrier checkpoint.
func (c *Coordinator) Run() error {
	var wg sync.WaitGroup
	wg.Add(len(c.workers) - 1)
	for _, w := range c.workers[1:] {
		w := w
		go func() {
			defer wg.Done()
			c.errs.setIfUnset(c.workerLoop(w))
		}()
	}

	c.errs.setIfUnset(c.workerLoop(c.workers[0]))
	wg.Wait()

	c.sink.Close()
	if c.experiment != nil {
		c.errs.setIfUnset(c.experiment.Close())
	}

	return c.errs.get()
}

// continueStep reports whether step should run: opts.Steps == 0 means
// run until externally stopped (by a render-sink close or an error).
func (c *Coordinator) continueStep(step int) bool {
	return c.opts.Steps == 0 || step < c.opts.Steps
}

// workerLoop is the per-worker body run every step, shared by every
// worker including the coordinator's own (id 0) goroutine.
func (c *Coordinator) workerLoop(w *Worker) error {
	for step := 0; c.continueStep(step); step++ {
		if w.id == 0 && !c.errs.isSet() {
			start := time.Now()
			err := c.build(step)
			c.buildUS = time.Since(start).Microseconds()
			if err != nil {
				c.errs.setIfUnset(fmt.Errorf("engine: build step %d: %w", step, err))
			}
		}

		c.barrier1.Wait()
		if c.errs.isSet() {
			return c.errs.get()
		}

		simStart := time.Now()
		c.simulateSlice(w)
		if w.id == 0 {
			c.simUS = time.Since(simStart).Microseconds()
		}

		c.barrier2.Wait()

		if w.id == 0 {
			if err := c.afterStep(step, c.buildUS, c.simUS); err != nil {
				c.errs.setIfUnset(err)
			}
		}
	}
	return nil
}

// build resets the arena, optionally Z-curve sorts the particle array,
// and constructs a fresh octree from it. Run only by worker 0, only
// while no error has yet been observed.
func (c *Coordinator) build(step int) error {
	if c.opts.Optimize && step%optimizeEvery == 0 {
		morton.Sort(c.particles)
	}

	tree, err := octree.Build(c.mem, c.particles, c.radius)
	if err != nil {
		return err
	}
	c.tree = tree
	return nil
}

// simulateSlice evaluates Barnes–Hut forces over w's slice and
// integrates each particle with semi-implicit Euler, writing results
// in place into w's own disjoint slice of the shared array. No other
// worker ever reads or writes that range before the next barrier, so
// this needs no synchronization beyond the barriers already crossed.
func (c *Coordinator) simulateSlice(w *Worker) {
	theta := c.opts.Theta
	dt := c.opts.DT

	var maxDistSq float64
	for i := w.slice.Offset; i < w.slice.Offset+w.slice.Len; i++ {
		p := c.particles[i]
		force := c.tree.ForceOn(p, theta)

		p.Vel = p.Vel.Add(force.Scale(dt / p.Mass))
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))

		c.particles[i] = p

		if d2 := p.Pos.LenSq(); d2 > maxDistSq {
			maxDistSq = d2
		}
	}

	w.radius = math.Sqrt(maxDistSq)
}

// afterStep runs only on worker 0, between barrier2 of step and
// barrier1 of step+1, while every other worker is parked: aggregates
// the per-worker radius, emits timing, optionally paces and renders.
func (c *Coordinator) afterStep(step int, buildUS, simUS int64) error {
	maxRadius := c.workers[0].radius
	for _, w := range c.workers[1:] {
		if w.radius > maxRadius {
			maxRadius = w.radius
		}
	}
	c.radius = maxRadius
	for _, w := range c.workers {
		w.radius = maxRadius
	}

	c.collector.Record(buildUS, simUS, c.tree.NodeCount(), c.radius)
	if stats, ok := c.sink.(viz.StatsSink); ok {
		stats.SetStats(step, c.tree.NodeCount())
	}

	if c.csv != nil {
		if err := c.csv.WriteStep(telemetry.StepTiming{Step: step, BuildUS: buildUS, SimulateUS: simUS}); err != nil {
			return err
		}
	}
	if c.experiment != nil {
		if err := c.experiment.WriteStep(telemetry.StepTiming{Step: step, BuildUS: buildUS, SimulateUS: simUS}); err != nil {
			return err
		}
	}
	if c.opts.Verbose {
		c.collector.Stats().LogStats(step)
	}

	telemetry.SleepIfPositive(time.Duration(c.opts.DelayMS) * time.Millisecond)

	if c.sink.Render(c.particles, c.radius) {
		return simerr.ErrRender
	}
	return nil
}
