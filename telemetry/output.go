package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/orrery-sim/barnes-hut/config"
)

// OutputManager persists an experiment's timing log and the options it
// ran with to a directory: one config.yaml plus one timing.csv per run,
// trimmed to the one CSV stream this simulation produces.
type OutputManager struct {
	dir           string
	timingFile    *os.File
	headerWritten bool
}

// NewOutputManager creates the output directory and opens timing.csv.
// Returns nil if dir is empty (output disabled); every method is a
// nil-receiver no-op in that case, so callers don't need to branch.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("telemetry: creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "timing.csv"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating timing.csv: %w", err)
	}

	return &OutputManager{dir: dir, timingFile: f}, nil
}

// WriteOptions saves the run's configuration as YAML alongside the
// timing log, so an experiment directory is self-describing.
func (om *OutputManager) WriteOptions(opts *config.Options) error {
	if om == nil {
		return nil
	}
	data, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("telemetry: marshaling options: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("telemetry: writing config.yaml: %w", err)
	}
	return nil
}

// WriteStep appends one step's timing to timing.csv.
func (om *OutputManager) WriteStep(t StepTiming) error {
	if om == nil {
		return nil
	}

	records := []StepTiming{t}
	if !om.headerWritten {
		if err := gocsv.Marshal(records, om.timingFile); err != nil {
			return fmt.Errorf("telemetry: writing timing record: %w", err)
		}
		om.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.timingFile); err != nil {
		return fmt.Errorf("telemetry: writing timing record: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the timing file.
func (om *OutputManager) Close() error {
	if om == nil || om.timingFile == nil {
		return nil
	}
	return om.timingFile.Close()
}
