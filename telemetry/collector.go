package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Collector accumulates per-step build/simulate timings over a rolling
// window and reports humanized windowed averages, the way a PerfCollector
// averages tick durations over a rolling window — here keyed to this
// simulation's two phases (build, simulate) plus tree shape instead of a
// fixed named-phase pipeline.
type Collector struct {
	windowSize int
	build      []float64
	simulate   []float64
	writeIdx   int
	count      int

	lastNodeCount int
	lastRadius    float64
}

// NewCollector returns a Collector averaging over the last windowSize
// steps. windowSize < 1 is treated as 1.
func NewCollector(windowSize int) *Collector {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Collector{
		windowSize: windowSize,
		build:      make([]float64, windowSize),
		simulate:   make([]float64, windowSize),
	}
}

// Record adds one step's timings and tree stats to the rolling window.
func (c *Collector) Record(buildUS, simulateUS int64, nodeCount int, radius float64) {
	c.build[c.writeIdx] = float64(buildUS)
	c.simulate[c.writeIdx] = float64(simulateUS)
	c.writeIdx = (c.writeIdx + 1) % c.windowSize
	if c.count < c.windowSize {
		c.count++
	}
	c.lastNodeCount = nodeCount
	c.lastRadius = radius
}

// WindowStats is the windowed mean/stddev of recent step timings.
type WindowStats struct {
	BuildMeanUS    float64
	BuildStdDevUS  float64
	SimulateMeanUS float64
	SimStdDevUS    float64
	NodeCount      int
	Radius         float64
}

// Stats computes the current window's aggregate statistics with
// gonum/stat rather than a hand-rolled mean/variance loop.
func (c *Collector) Stats() WindowStats {
	if c.count == 0 {
		return WindowStats{}
	}

	build := c.build[:c.count]
	simulate := c.simulate[:c.count]

	buildMean := stat.Mean(build, nil)
	simMean := stat.Mean(simulate, nil)

	var buildStd, simStd float64
	if c.count > 1 {
		buildStd = stat.StdDev(build, nil)
		simStd = stat.StdDev(simulate, nil)
	}

	return WindowStats{
		BuildMeanUS:    buildMean,
		BuildStdDevUS:  buildStd,
		SimulateMeanUS: simMean,
		SimStdDevUS:    simStd,
		NodeCount:      c.lastNodeCount,
		Radius:         c.lastRadius,
	}
}

// LogStats emits the window's stats as a structured slog line: the
// verbose per-step report of timing plus tree node count and bounding
// radius.
func (s WindowStats) LogStats(step int) {
	slog.Info("step",
		"step", step,
		"build_us", int64(s.BuildMeanUS),
		"build_stddev_us", int64(s.BuildStdDevUS),
		"simulate_us", int64(s.SimulateMeanUS),
		"simulate_stddev_us", int64(s.SimStdDevUS),
		"nodes", s.NodeCount,
		"radius", s.Radius,
	)
}

// SleepIfPositive sleeps for d if it is positive, the optional
// inter-step delay a caller can use for visualization pacing.
func SleepIfPositive(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
