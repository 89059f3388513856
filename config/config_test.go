package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/orrery-sim/barnes-hut/simerr"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	opts, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Particles != 1000 {
		t.Errorf("Particles: got %d, want 1000", opts.Particles)
	}
	if opts.Threads != 4 {
		t.Errorf("Threads: got %d, want 4", opts.Threads)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("embedded defaults should validate cleanly: %v", err)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	if err := os.WriteFile(path, []byte("particles: 50\ntheta: 0.1\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Particles != 50 {
		t.Errorf("Particles: got %d, want 50 (overridden)", opts.Particles)
	}
	if opts.Theta != 0.1 {
		t.Errorf("Theta: got %v, want 0.1 (overridden)", opts.Theta)
	}
	// Fields not present in the override file keep embedded defaults.
	if opts.Threads != 4 {
		t.Errorf("Threads: got %d, want 4 (unchanged default)", opts.Threads)
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	cases := []struct {
		name string
		opts Options
	}{
		{"zero threads", Options{Threads: 0, Particles: 10, Radius: 1}},
		{"negative threads", Options{Threads: -1, Particles: 10, Radius: 1}},
		{"zero particles", Options{Threads: 1, Particles: 0, Radius: 1}},
		{"negative theta", Options{Threads: 1, Particles: 10, Theta: -0.1, Radius: 1}},
		{"zero radius", Options{Threads: 1, Particles: 10, Radius: 0}},
		{"more threads than particles", Options{Threads: 5, Particles: 2, Radius: 1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.opts.Validate()
			if !errors.Is(err, simerr.ErrBadOption) {
				t.Errorf("expected ErrBadOption, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsGoodOptions(t *testing.T) {
	opts := Options{Threads: 2, Particles: 10, Theta: 0.5, Radius: 100, ArenaMiB: 64}
	if err := opts.Validate(); err != nil {
		t.Errorf("expected valid options to pass, got %v", err)
	}
}

func TestValidateRejectsZeroArena(t *testing.T) {
	opts := Options{Threads: 1, Particles: 10, Radius: 1, ArenaMiB: 0}
	if err := opts.Validate(); !errors.Is(err, simerr.ErrBadOption) {
		t.Errorf("expected ErrBadOption for zero arena_mib, got %v", err)
	}
}
