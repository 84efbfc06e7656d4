// Package metrics records calibration outcomes for observability. Sinks
// are constructed from configuration and fanned out; the orchestrator only
// sees the Sink interface.
package metrics

import (
	"time"

	"github.com/gridcal/pricefit/core/model"
)

// FitRecord is one group's calibration outcome with its wall-clock cost.
type FitRecord struct {
	Result   model.CalibrationResult
	Duration time.Duration
}

// BatchRecord summarises a completed run.
type BatchRecord struct {
	RunID     string
	Successes int
	Partials  int
	Failures  int
	Duration  time.Duration
}

// Sink records calibration results for observability purposes.
type Sink interface {
	RecordFitResults(recs []FitRecord) error
	RecordBatch(rec BatchRecord) error
}

// ReoptimizationRecorder is implemented by sinks able to count joint
// re-optimizations of coupled pairs.
type ReoptimizationRecorder interface {
	RecordReoptimization(assetID string) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordFitResults([]FitRecord) error { return nil }
func (NopSink) RecordBatch(BatchRecord) error      { return nil }
func (NopSink) RecordReoptimization(string) error  { return nil }
