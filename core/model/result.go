package model

import "time"

// ThresholdPair holds the two fitted threshold prices. For a producer
// Price0 < Price100; for a consumer the ramp is reversed and
// Price0 > Price100. Both may be negative (storage charging below zero
// prices is common).
type ThresholdPair struct {
	Price0   float64 `json:"price0"`
	Price100 float64 `json:"price100"`
}

// Gap returns the width of the linear ramp region.
func (p ThresholdPair) Gap() float64 {
	if p.Price100 >= p.Price0 {
		return p.Price100 - p.Price0
	}
	return p.Price0 - p.Price100
}

// Ordered reports whether the pair satisfies the sign convention of the
// given unit kind. Equal thresholds are accepted; they describe a step
// ramp and are flagged separately.
func (p ThresholdPair) Ordered(kind UnitKind) bool {
	if kind == Consumer {
		return p.Price0 >= p.Price100
	}
	return p.Price0 <= p.Price100
}

// FitStatus describes how a group's calibration terminated.
type FitStatus int

const (
	// StatusConverged means the solver met the configured tolerance.
	StatusConverged FitStatus = iota
	// StatusMaxIterations means the iteration cap was hit; the result holds
	// the best estimate found.
	StatusMaxIterations
	// StatusTimedOut means the wall-clock budget was exceeded.
	StatusTimedOut
	// StatusSkipped means the data could not identify thresholds and no fit
	// was attempted.
	StatusSkipped
	// StatusFailed means malformed input or a crash confined to this group.
	StatusFailed
)

// MarshalJSON renders the status as its string form.
func (s FitStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s FitStatus) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIterations:
		return "max_iterations"
	case StatusTimedOut:
		return "timed_out"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Flag is a diagnostic attached to a calibration result.
type Flag string

const (
	FlagInsufficientData  Flag = "insufficient_data"
	FlagUnderdetermined   Flag = "underdetermined"
	FlagDegenerateSlope   Flag = "degenerate_slope"
	FlagDidNotConverge    Flag = "did_not_converge"
	FlagTimedOut          Flag = "timed_out"
	FlagBoundsClipped     Flag = "bounds_clipped"
	FlagOrderingViolation Flag = "ordering_violation"
	FlagJointReoptimized  Flag = "joint_reoptimized"
)

// CalibrationResult is the terminal artifact of one group's fit. It is
// immutable once produced; the ordering enforcer issues a revised copy for
// coupled pairs rather than mutating in place.
type CalibrationResult struct {
	Key        GroupKey       `json:"key"`
	Kind       UnitKind       `json:"kind"`
	Thresholds *ThresholdPair `json:"thresholds,omitempty"` // nil when unidentifiable
	Status     FitStatus      `json:"status"`
	RMSE       float64        `json:"rmse"`
	Iterations int            `json:"iterations"`
	Flags      []Flag         `json:"flags,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// HasFlag reports whether the result carries the given diagnostic.
func (r CalibrationResult) HasFlag(f Flag) bool {
	for _, have := range r.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// WithFlag returns a copy of the result carrying the additional flag.
func (r CalibrationResult) WithFlag(f Flag) CalibrationResult {
	if r.HasFlag(f) {
		return r
	}
	cp := r
	cp.Flags = append(append([]Flag(nil), r.Flags...), f)
	return cp
}

// Partial reports whether the result is usable but soft-flagged: a best
// estimate exists yet at least one diagnostic was raised.
func (r CalibrationResult) Partial() bool {
	return r.Status != StatusFailed && (r.Status != StatusConverged || len(r.Flags) > 0)
}

// Manifest summarises one batch run. Successes, partials and failures are
// disjoint; every input group appears in exactly one list.
type Manifest struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Successes  []CalibrationResult `json:"successes"`
	Partials   []CalibrationResult `json:"partials"`
	Failures   []CalibrationResult `json:"failures"`
}

// Add routes a result into the matching manifest category.
func (m *Manifest) Add(r CalibrationResult) {
	switch {
	case r.Status == StatusFailed:
		m.Failures = append(m.Failures, r)
	case r.Partial():
		m.Partials = append(m.Partials, r)
	default:
		m.Successes = append(m.Successes, r)
	}
}

// Total returns the number of results across all categories.
func (m Manifest) Total() int {
	return len(m.Successes) + len(m.Partials) + len(m.Failures)
}

// Results returns all results in a single slice, successes first.
func (m Manifest) Results() []CalibrationResult {
	out := make([]CalibrationResult, 0, m.Total())
	out = append(out, m.Successes...)
	out = append(out, m.Partials...)
	out = append(out, m.Failures...)
	return out
}
