// Package config loads and validates the simulation's tunables. Unlike
// a package-global config singleton, this package threads options explicitly
// through the coordinator and workers rather than reaching for
// process-wide state, so Load returns a value the caller owns.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orrery-sim/barnes-hut/simerr"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Options holds every tunable the core consumes.
type Options struct {
	Steps     int     `yaml:"steps"`      // 0 means run until externally stopped
	Particles int     `yaml:"particles"`  // N, fixed at start
	MaxMass   float64 `yaml:"max_mass"`   // initial mass assigned to every particle
	Radius    float64 `yaml:"radius"`     // initial bounding half-width R
	Theta     float64 `yaml:"theta"`      // opening-angle threshold
	DT        float64 `yaml:"dt"`         // integration time step
	Threads   int     `yaml:"threads"`    // worker count, >= 1
	Seed      int64   `yaml:"seed"`       // 0 uses system default
	DelayMS   int     `yaml:"delay_ms"`   // optional sleep between steps
	Optimize  bool    `yaml:"optimize"`   // enable Z-curve reorder every 10th step
	Flat      bool    `yaml:"flat"`       // constrain initial positions to z = 0
	Verbose   bool    `yaml:"verbose"`    // humanize timing output
	OutputDir string  `yaml:"output_dir"` // optional experiment-log directory

	// ArenaMiB sizes the coordinator's tree arena, one arena shared by
	// every worker. Several GiB is the
	// expected design point for large N; this stays modest by default
	// and is meant to be raised for pathological inputs.
	ArenaMiB int `yaml:"arena_mib"`
}

// Load loads configuration from embedded defaults, optionally overridden
// by a user-supplied YAML file. If path is empty, only the embedded
// defaults are used.
func Load(path string) (*Options, error) {
	opts := &Options{}
	if err := yaml.Unmarshal(defaultsYAML, opts); err != nil {
		return nil, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("config: parsing config file: %w", err)
		}
	}

	return opts, nil
}

// Validate rejects option combinations the core cannot run with.
func (o *Options) Validate() error {
	if o.Threads < 1 {
		return fmt.Errorf("config: threads must be >= 1, got %d: %w", o.Threads, simerr.ErrBadOption)
	}
	if o.Particles <= 0 {
		return fmt.Errorf("config: particles must be > 0, got %d: %w", o.Particles, simerr.ErrBadOption)
	}
	if o.Theta < 0 {
		return fmt.Errorf("config: theta must be >= 0, got %v: %w", o.Theta, simerr.ErrBadOption)
	}
	if o.Radius <= 0 {
		return fmt.Errorf("config: radius must be > 0, got %v: %w", o.Radius, simerr.ErrBadOption)
	}
	if o.Threads > o.Particles {
		return fmt.Errorf("config: threads (%d) cannot exceed particles (%d): %w", o.Threads, o.Particles, simerr.ErrBadOption)
	}
	if o.ArenaMiB <= 0 {
		return fmt.Errorf("config: arena_mib must be > 0, got %d: %w", o.ArenaMiB, simerr.ErrBadOption)
	}
	return nil
}
