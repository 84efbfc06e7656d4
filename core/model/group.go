package model

import (
	"fmt"
	"math"
)

// UnitKind defines the market orientation of a calibration group.
type UnitKind int

const (
	// Producer units ramp up as the spot price rises above their thresholds.
	Producer UnitKind = iota
	// Consumer units ramp up as the spot price falls below their thresholds.
	// Storage charging halves are consumers.
	Consumer
)

// String returns a human-readable representation of the unit kind.
func (k UnitKind) String() string {
	switch k {
	case Producer:
		return "producer"
	case Consumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the unit kind as its string form.
func (k UnitKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// ParseUnitKind converts a configuration string to a UnitKind.
func ParseUnitKind(s string) (UnitKind, error) {
	switch s {
	case "producer":
		return Producer, nil
	case "consumer":
		return Consumer, nil
	default:
		return Producer, fmt.Errorf("unknown unit kind %q", s)
	}
}

// GroupKey uniquely identifies one calibration unit.
type GroupKey struct {
	Zone   string `json:"zone"`
	Sector string `json:"sector"`
	Period string `json:"period"`
}

// String renders the key as zone/sector/period.
func (k GroupKey) String() string {
	return k.Zone + "/" + k.Sector + "/" + k.Period
}

// TimeSeries holds the aligned hourly observations of one group. Prices and
// Powers always have equal length; Timestamps are optional but, when present,
// are chronological and free of duplicates. The series is read-only to the
// calibration core.
type TimeSeries struct {
	Timestamps []int64   `json:"timestamps,omitempty"` // unix seconds
	Prices     []float64 `json:"prices"`
	Powers     []float64 `json:"powers"`
}

// Len returns the number of aligned hours.
func (s TimeSeries) Len() int { return len(s.Prices) }

// Validate checks the structural invariants of the series.
func (s TimeSeries) Validate() error {
	if len(s.Prices) == 0 {
		return fmt.Errorf("empty series")
	}
	if len(s.Prices) != len(s.Powers) {
		return fmt.Errorf("misaligned series: %d prices, %d powers", len(s.Prices), len(s.Powers))
	}
	for i, p := range s.Prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("non-finite price %v at index %d", p, i)
		}
		if math.IsNaN(s.Powers[i]) || math.IsInf(s.Powers[i], 0) {
			return fmt.Errorf("non-finite power %v at index %d", s.Powers[i], i)
		}
	}
	if len(s.Timestamps) > 0 {
		if len(s.Timestamps) != len(s.Prices) {
			return fmt.Errorf("misaligned series: %d timestamps, %d prices", len(s.Timestamps), len(s.Prices))
		}
		for i := 1; i < len(s.Timestamps); i++ {
			if s.Timestamps[i] <= s.Timestamps[i-1] {
				return fmt.Errorf("timestamps not strictly increasing at index %d", i)
			}
		}
	}
	return nil
}

// Group is one calibration unit as supplied by the aggregation layer.
type Group struct {
	Key      GroupKey
	Series   TimeSeries
	Capacity float64 // maximum power, always positive
	Kind     UnitKind
	// AssetID links the producer and consumer halves of a coupled storage
	// unit. Empty for standalone groups.
	AssetID string
	// Init is the user-supplied threshold hypothesis seeding the fit.
	Init ThresholdPair
}

// Validate checks the mandatory inputs of a group. A failure here aborts
// this group's calibration only, never the batch.
func (g Group) Validate() error {
	if err := g.Series.Validate(); err != nil {
		return fmt.Errorf("group %s: %w", g.Key, err)
	}
	if g.Capacity <= 0 {
		return fmt.Errorf("group %s: capacity must be positive, got %g", g.Key, g.Capacity)
	}
	if !g.Init.Ordered(g.Kind) {
		return fmt.Errorf("group %s: initial hypothesis (%g, %g) violates %s ordering",
			g.Key, g.Init.Price0, g.Init.Price100, g.Kind)
	}
	return nil
}
