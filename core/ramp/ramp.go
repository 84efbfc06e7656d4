// Package ramp implements the piecewise-affine utilization model mapping a
// spot price to a fractional activation of a group's capacity, and the
// residual vector comparing its predictions against observed power.
package ramp

import (
	"math"

	"github.com/gridcal/pricefit/core/model"
)

// Epsilon is the minimum ramp width below which the model degrades to a
// step function at the shared threshold.
const Epsilon = 1e-9

// Model predicts power from the spot price for one group.
type Model struct {
	Thresholds model.ThresholdPair
	Capacity   float64
	Kind       model.UnitKind
}

// Fraction returns the utilization fraction in [0, 1] for the given price.
// degenerate is true when the ramp width is below Epsilon and the step
// fallback was used; callers surface it as a diagnostic instead of failing.
func (m Model) Fraction(price float64) (frac float64, degenerate bool) {
	p0, p100 := m.Thresholds.Price0, m.Thresholds.Price100
	if math.Abs(p100-p0) < Epsilon {
		return m.step(price, p0), true
	}
	if m.Kind == model.Consumer {
		frac = (p0 - price) / (p0 - p100)
	} else {
		frac = (price - p0) / (p100 - p0)
	}
	return clamp01(frac), false
}

// step is the zero-width fallback: producers switch fully on at or above
// the shared threshold, consumers at or below it.
func (m Model) step(price, threshold float64) float64 {
	if m.Kind == model.Consumer {
		if price <= threshold {
			return 1
		}
		return 0
	}
	if price >= threshold {
		return 1
	}
	return 0
}

// Power returns the predicted power for the given price. Producers inject
// non-negative power; consumers draw non-positive power.
func (m Model) Power(price float64) (power float64, degenerate bool) {
	frac, degenerate := m.Fraction(price)
	if m.Kind == model.Consumer {
		return -frac * m.Capacity, degenerate
	}
	return frac * m.Capacity, degenerate
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
