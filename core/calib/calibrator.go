// Package calib fits threshold-price pairs to historical market data. One
// Calibrator run covers a single (zone, sector, period) group; Orchestrator
// batches groups across a worker pool and Enforcer repairs the cross-group
// ordering of coupled storage assets.
package calib

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/gridcal/pricefit/core/model"
	"github.com/gridcal/pricefit/core/ramp"
)

// Calibrator fits one group's threshold pair by nonlinear least squares.
type Calibrator struct {
	cfg Config
}

// NewCalibrator returns a calibrator using the given solver options.
func NewCalibrator(cfg Config) *Calibrator {
	cfg.SetDefaults()
	return &Calibrator{cfg: cfg}
}

// minimize points to the function running the simplex search. It can be
// overridden in tests to simulate solver failures.
var minimize = runNelderMead

// runNelderMead minimizes obj from x0 under the configured iteration and
// wall-clock caps. The clamped ramp is only piecewise-differentiable, so a
// derivative-free method is used.
func runNelderMead(obj func(x []float64) float64, x0 []float64, cfg Config) (*optimize.Result, error) {
	problem := optimize.Problem{Func: obj}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   cfg.Tolerance,
			Iterations: 50,
		},
		MajorIterations: cfg.MaxIterations,
	}
	if cfg.RuntimeBudgetMS > 0 {
		settings.Runtime = time.Duration(cfg.RuntimeBudgetMS) * time.Millisecond
	}
	return optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
}

// thresholdsFrom maps solver coordinates (price0, s) back to a threshold
// pair, with gap = s*s so the ordering constraint holds structurally: the
// optimizer cannot cross the price0/price100 boundary whatever path it
// takes. A plain inequality would let plateaued data park the solver
// exactly on the boundary and report a false convergence.
func thresholdsFrom(x []float64, kind model.UnitKind) model.ThresholdPair {
	p0 := x[0]
	gap := x[1] * x[1]
	if kind == model.Consumer {
		return model.ThresholdPair{Price0: p0, Price100: p0 - gap}
	}
	return model.ThresholdPair{Price0: p0, Price100: p0 + gap}
}

// seedFrom converts the user hypothesis into solver coordinates.
func seedFrom(init model.ThresholdPair) []float64 {
	return []float64{init.Price0, math.Sqrt(init.Gap())}
}

// Fit calibrates the group and always returns a result: hard failures,
// unidentifiable data and non-convergence are all reported on the result
// itself so one group can never abort a batch.
func (c *Calibrator) Fit(group model.Group) model.CalibrationResult {
	res := model.CalibrationResult{Key: group.Key, Kind: group.Kind}

	if err := group.Validate(); err != nil {
		res.Status = model.StatusFailed
		res.Error = fmt.Sprintf("%v: %v", ErrMalformedInput, err)
		return res
	}
	if allZero(group.Series.Powers) {
		// Thresholds are unidentifiable; report undefined rather than a
		// fabricated fit.
		res.Status = model.StatusSkipped
		res.Flags = []model.Flag{model.FlagInsufficientData}
		res.Error = ErrInsufficientData.Error()
		return res
	}
	if constant(group.Series.Prices) {
		res.Status = model.StatusSkipped
		res.Flags = []model.Flag{model.FlagUnderdetermined}
		res.Error = ErrUnderdetermined.Error()
		return res
	}

	weights := ramp.Weights(group.Series, c.cfg.weighting())
	obj := c.objective(group, weights)

	sol, err := minimize(obj, seedFrom(group.Init), c.cfg)
	if sol == nil {
		res.Status = model.StatusFailed
		res.Error = fmt.Sprintf("solver: %v", err)
		return res
	}

	fitted := thresholdsFrom(sol.X, group.Kind)
	res.Iterations = sol.Stats.MajorIterations
	if c.cfg.Bounds.Enabled() && (!c.cfg.Bounds.Contains(fitted.Price0) || !c.cfg.Bounds.Contains(fitted.Price100)) {
		fitted.Price0 = c.cfg.Bounds.Clamp(fitted.Price0)
		fitted.Price100 = c.cfg.Bounds.Clamp(fitted.Price100)
		res = res.WithFlag(model.FlagBoundsClipped)
	}
	res.Thresholds = &fitted

	switch {
	case err != nil:
		res.Status = model.StatusMaxIterations
		res = res.WithFlag(model.FlagDidNotConverge)
		res.Error = fmt.Sprintf("solver: %v", err)
	case sol.Status == optimize.RuntimeLimit:
		res.Status = model.StatusTimedOut
		res = res.WithFlag(model.FlagTimedOut)
	case sol.Status == optimize.IterationLimit, sol.Status == optimize.FunctionEvaluationLimit:
		res.Status = model.StatusMaxIterations
		res = res.WithFlag(model.FlagDidNotConverge)
	default:
		res.Status = model.StatusConverged
	}

	m := ramp.Model{Thresholds: fitted, Capacity: group.Capacity, Kind: group.Kind}
	buf := make([]float64, group.Series.Len())
	if degenerate := ramp.Residuals(buf, m, group.Series, weights); degenerate {
		res = res.WithFlag(model.FlagDegenerateSlope)
	}
	res.RMSE = ramp.Norm(buf)
	return res
}

// widenReward scales the bonus for ramp width in the objective, relative to
// squared capacity. Data with at most one observation strictly inside the
// ramp fits a whole family of threshold pairs equally well; the bonus tilts
// that flat region so the widest member wins. It is small enough that any
// preference expressed by the data dominates it.
const widenReward = 1e-6

// objective evaluates the weighted residual sum of squares at the given
// solver coordinates, plus a quadratic penalty pushing both thresholds back
// inside the configured bounds, minus the width bonus selecting the widest
// of the ramps tying on residual. The bonus saturates at the observed price
// span, so widening past the data carries no further gain.
func (c *Calibrator) objective(group model.Group, weights []float64) func(x []float64) float64 {
	scale := float64(group.Series.Len()) * group.Capacity * group.Capacity
	reward := widenReward * group.Capacity * group.Capacity
	span := floats.Max(group.Series.Prices) - floats.Min(group.Series.Prices)
	return func(x []float64) float64 {
		pair := thresholdsFrom(x, group.Kind)
		m := ramp.Model{Thresholds: pair, Capacity: group.Capacity, Kind: group.Kind}
		ssr, _ := ramp.SumSquares(m, group.Series, weights)
		if c.cfg.Bounds.Enabled() {
			ssr += scale * (boundsExcess(pair.Price0, c.cfg.Bounds) + boundsExcess(pair.Price100, c.cfg.Bounds))
		}
		return ssr - reward*math.Min(pair.Gap(), span)
	}
}

func boundsExcess(v float64, b Bounds) float64 {
	d := 0.0
	if v < b.Min {
		d = b.Min - v
	} else if v > b.Max {
		d = v - b.Max
	}
	return d * d
}

func allZero(powers []float64) bool {
	for _, p := range powers {
		if math.Abs(p) > 1e-12 {
			return false
		}
	}
	return true
}

func constant(prices []float64) bool {
	for _, p := range prices[1:] {
		if math.Abs(p-prices[0]) > 1e-12 {
			return false
		}
	}
	return true
}
