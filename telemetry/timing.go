// Package telemetry collects per-step timing, emits the simulation's
// standard CSV/verbose-log output, and optionally persists an experiment
// log: a rolling collector for live stats, slog for structured logging,
// and gocsv for file output.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// StepTiming is one completed step's timing record: the non-verbose
// standard-output contract, a CSV row with header step,build,simulate.
type StepTiming struct {
	Step       int   `csv:"step"`
	BuildUS    int64 `csv:"build"`
	SimulateUS int64 `csv:"simulate"`
}

// CSVStream writes the standard "step,build,simulate" CSV to stdout (or
// any writer), one row per completed step.
type CSVStream struct {
	w             *csv.Writer
	headerWritten bool
}

// NewCSVStream wraps w for step-by-step CSV emission.
func NewCSVStream(w io.Writer) *CSVStream {
	return &CSVStream{w: csv.NewWriter(w)}
}

// WriteHeader writes the "step,build,simulate" header line. WriteStep
// calls it itself if no header has been written yet.
func (s *CSVStream) WriteHeader() error {
	if err := s.w.Write([]string{"step", "build", "simulate"}); err != nil {
		return fmt.Errorf("telemetry: writing CSV header: %w", err)
	}
	s.w.Flush()
	s.headerWritten = true
	return s.w.Error()
}

// WriteStep writes one timing record and flushes immediately, so the
// consumer sees each step's line as it completes.
func (s *CSVStream) WriteStep(t StepTiming) error {
	if !s.headerWritten {
		if err := s.WriteHeader(); err != nil {
			return err
		}
	}
	row := []string{
		strconv.Itoa(t.Step),
		strconv.FormatInt(t.BuildUS, 10),
		strconv.FormatInt(t.SimulateUS, 10),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("telemetry: writing CSV row: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}
