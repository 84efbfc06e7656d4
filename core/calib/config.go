package calib

import (
	"fmt"
	"runtime"

	"github.com/gridcal/pricefit/core/ramp"
)

// Bounds restricts both threshold prices to a closed interval. A zero-value
// Bounds (Min == Max == 0) disables the restriction.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Enabled reports whether the bounds are active.
func (b Bounds) Enabled() bool { return b.Min != 0 || b.Max != 0 }

// Contains reports whether v lies inside the bounds.
func (b Bounds) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

// Clamp projects v into the bounds.
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// JointConfig tunes the coupled-pair re-optimization pass.
type JointConfig struct {
	// ConsumerWeight scales the consumer-side residual sum relative to the
	// producer side in the joint objective.
	ConsumerWeight float64 `json:"consumer_weight"`
	// MinGap is the strictly positive floor between consecutive thresholds
	// in the recovered ordering chain.
	MinGap float64 `json:"min_gap"`
}

// Config carries the recognized solver options. Unknown weighting schemes
// or non-positive tolerances are rejected at load time.
type Config struct {
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
	// RuntimeBudgetMS caps the wall-clock time of one group's fit. Zero
	// disables the budget; the iteration cap still applies.
	RuntimeBudgetMS int         `json:"runtime_budget_ms"`
	Bounds          Bounds      `json:"bounds"`
	Weighting       string      `json:"weighting"`
	Workers         int         `json:"workers"`
	Joint           JointConfig `json:"joint"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Tolerance == 0 {
		c.Tolerance = 1e-8
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 2000
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Joint.ConsumerWeight == 0 {
		c.Joint.ConsumerWeight = 1
	}
	if c.Joint.MinGap == 0 {
		c.Joint.MinGap = 1e-3
	}
}

// Validate checks the configuration fields.
func (c Config) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.RuntimeBudgetMS < 0 {
		return fmt.Errorf("runtime_budget_ms must not be negative, got %d", c.RuntimeBudgetMS)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Bounds.Enabled() && c.Bounds.Min >= c.Bounds.Max {
		return fmt.Errorf("bounds: min %g must be below max %g", c.Bounds.Min, c.Bounds.Max)
	}
	if _, ok := ramp.ParseWeighting(c.Weighting); !ok {
		return fmt.Errorf("unknown weighting scheme %q", c.Weighting)
	}
	if c.Joint.ConsumerWeight <= 0 {
		return fmt.Errorf("joint.consumer_weight must be positive, got %g", c.Joint.ConsumerWeight)
	}
	if c.Joint.MinGap <= 0 {
		return fmt.Errorf("joint.min_gap must be positive, got %g", c.Joint.MinGap)
	}
	return nil
}

func (c Config) weighting() ramp.Weighting {
	w, _ := ramp.ParseWeighting(c.Weighting)
	return w
}
