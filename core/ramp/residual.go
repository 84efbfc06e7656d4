package ramp

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gridcal/pricefit/core/model"
)

// Weighting selects how residuals are scaled before squaring. Any scheme
// must be deterministic so repeated runs reproduce identical fits.
type Weighting int

const (
	// WeightNone leaves residuals unweighted (plain least squares).
	WeightNone Weighting = iota
	// WeightTieDamped scales each residual by 1/sqrt(n) where n is the
	// number of hours sharing the same spot price. Long price plateaus then
	// count once per price level rather than once per hour, which reduces
	// the pull of repeated tied observations on the fit.
	WeightTieDamped
)

func (w Weighting) String() string {
	switch w {
	case WeightTieDamped:
		return "tie-damped"
	default:
		return "none"
	}
}

// ParseWeighting converts a configuration string to a Weighting.
func ParseWeighting(s string) (Weighting, bool) {
	switch s {
	case "", "none":
		return WeightNone, true
	case "tie-damped":
		return WeightTieDamped, true
	default:
		return WeightNone, false
	}
}

// Weights returns the per-hour residual weights for the series under the
// given scheme. A nil slice means all weights are one.
func Weights(series model.TimeSeries, scheme Weighting) []float64 {
	if scheme != WeightTieDamped {
		return nil
	}
	counts := make(map[float64]int, len(series.Prices))
	for _, p := range series.Prices {
		counts[p]++
	}
	w := make([]float64, len(series.Prices))
	for i, p := range series.Prices {
		w[i] = 1 / math.Sqrt(float64(counts[p]))
	}
	return w
}

// Residuals fills dst with the weighted per-hour discrepancy between the
// model prediction and the observed power. dst must have the series length.
// The function is pure: it reads only its arguments, so disjoint groups can
// be evaluated concurrently. degenerate reports whether any hour hit the
// step fallback.
func Residuals(dst []float64, m Model, series model.TimeSeries, weights []float64) (degenerate bool) {
	for i, price := range series.Prices {
		pred, deg := m.Power(price)
		if deg {
			degenerate = true
		}
		r := pred - series.Powers[i]
		if weights != nil {
			r *= weights[i]
		}
		dst[i] = r
	}
	return degenerate
}

// SumSquares evaluates the weighted residual sum of squares for the model.
func SumSquares(m Model, series model.TimeSeries, weights []float64) (ssr float64, degenerate bool) {
	buf := make([]float64, series.Len())
	degenerate = Residuals(buf, m, series, weights)
	return floats.Dot(buf, buf), degenerate
}

// Norm returns the root-mean-square of the residual vector, the
// goodness-of-fit metric reported on calibration results.
func Norm(residuals []float64) float64 {
	if len(residuals) == 0 {
		return 0
	}
	return floats.Norm(residuals, 2) / math.Sqrt(float64(len(residuals)))
}
