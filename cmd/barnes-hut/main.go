// Command barnes-hut runs a parallel Barnes-Hut N-body simulation,
// optionally rendering the particle cloud live and logging per-step
// timing to stdout or an experiment directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/orrery-sim/barnes-hut/config"
	"github.com/orrery-sim/barnes-hut/engine"
	"github.com/orrery-sim/barnes-hut/seed"
	"github.com/orrery-sim/barnes-hut/simerr"
	"github.com/orrery-sim/barnes-hut/telemetry"
	"github.com/orrery-sim/barnes-hut/viz"
)

var (
	configPath = flag.String("config", "", "path to a YAML file overriding the embedded defaults")
	steps      = flag.Int("steps", -1, "stop after N steps (0 = run until closed or killed); -1 keeps the config value")
	particles  = flag.Int("particles", -1, "particle count; -1 keeps the config value")
	threads    = flag.Int("threads", -1, "worker count; -1 keeps the config value")
	theta      = flag.Float64("theta", -1, "opening-angle threshold; negative keeps the config value")
	radius     = flag.Float64("radius", -1, "initial bounding radius; negative keeps the config value")
	seedFlag   = flag.Int64("seed", 0, "particle randomization seed; 0 keeps the config value (a config seed of 0 draws from the runtime)")
	optimize   = flag.Bool("optimize", false, "Z-curve sort the particle array every 10th step")
	flat       = flag.Bool("flat", false, "constrain initial particle positions to z = 0")
	verbose    = flag.Bool("verbose", false, "log per-step timing to stderr instead of writing the CSV to stdout")
	gui        = flag.Bool("gui", false, "open a raylib window and render the particle cloud live")
	outputDir  = flag.String("output-dir", "", "directory to write config.yaml and timing.csv into; unset disables it")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	opts, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "error", err)
		return 1
	}
	applyOverrides(opts)

	if err := opts.Validate(); err != nil {
		slog.Error("bad option", "error", err)
		return simerr.ExitCode(err)
	}

	var sink viz.Sink
	if *gui {
		sink = viz.NewRaylibSink(1280, 800, opts.Radius)
	}

	var experiment *telemetry.OutputManager
	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("output directory setup failed", "error", err)
			return 1
		}
		defer om.Close()
		if err := om.WriteOptions(opts); err != nil {
			slog.Error("writing config.yaml failed", "error", err)
			return 1
		}
		experiment = om
	}

	var csv *telemetry.CSVStream
	if !opts.Verbose {
		csv = telemetry.NewCSVStream(os.Stdout)
		if err := csv.WriteHeader(); err != nil {
			slog.Error("writing csv header failed", "error", err)
			return 1
		}
	} else {
		slog.Info("begin simulation", "particles", opts.Particles, "threads", opts.Threads, "steps", opts.Steps)
	}

	if opts.Verbose {
		slog.Info("randomizing particles", "count", opts.Particles, "radius", opts.Radius)
	}
	initial := seed.Particles(opts.Particles, opts.Radius, opts.MaxMass, opts.Flat, opts.Seed)
	if opts.Verbose {
		slog.Info("particle randomization complete")
	}

	coordinator, err := engine.NewCoordinator(opts, initial, sink, csv, experiment)
	if err != nil {
		slog.Error("coordinator setup failed", "error", err)
		return 1
	}
	defer func() {
		if err := coordinator.Close(); err != nil {
			slog.Error("arena teardown failed", "error", err)
		}
	}()

	if err := coordinator.Run(); err != nil {
		if errors.Is(err, simerr.ErrRender) {
			slog.Info("render window closed, simulation stopped")
			return 0
		}
		slog.Error("simulation failed", "error", err)
		return simerr.ExitCode(err)
	}

	return 0
}

// applyOverrides layers non-default flag values onto the loaded config,
// the way options_parse lets CLI arguments win over the file it read.
func applyOverrides(opts *config.Options) {
	if *steps >= 0 {
		opts.Steps = *steps
	}
	if *particles >= 0 {
		opts.Particles = *particles
	}
	if *threads >= 0 {
		opts.Threads = *threads
	}
	if *theta >= 0 {
		opts.Theta = *theta
	}
	if *radius >= 0 {
		opts.Radius = *radius
	}
	if *seedFlag != 0 {
		opts.Seed = *seedFlag
	}
	if *optimize {
		opts.Optimize = true
	}
	if *flat {
		opts.Flat = true
	}
	if *verbose {
		opts.Verbose = true
	}
	if *outputDir != "" {
		opts.OutputDir = *outputDir
	}

	if opts.Verbose {
		fmt.Fprintln(os.Stderr, "verbose mode: step timing will be logged instead of written as CSV to stdout")
	}
}
