package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/gridcal/pricefit/core/model"
	"github.com/gridcal/pricefit/core/ramp"
)

// CoupledPair links the producer and consumer halves of one physical asset,
// typically pumped storage split on the sign of its historical power.
type CoupledPair struct {
	AssetID  string
	Producer model.Group
	Consumer model.Group
}

// Enforcer guarantees the cross-group ordering invariant of coupled pairs:
//
//	cons.Price100 < cons.Price0 < prod.Price0 < prod.Price100
//
// Violations trigger a joint re-optimization of both fits; they are never
// silently dropped or auto-corrected.
type Enforcer struct {
	cfg Config
}

// NewEnforcer returns an enforcer using the given solver options.
func NewEnforcer(cfg Config) *Enforcer {
	cfg.SetDefaults()
	return &Enforcer{cfg: cfg}
}

// OrderingSatisfied reports whether the four thresholds form a strictly
// increasing chain from full consumption to full production.
func OrderingSatisfied(prod, cons model.ThresholdPair) bool {
	return cons.Price100 < cons.Price0 && cons.Price0 < prod.Price0 && prod.Price0 < prod.Price100
}

// Enforce checks the pair's independent fits and, on violation, reruns a
// joint constrained minimization of the combined residual sums seeded with
// those fits. It returns the (possibly revised) results and whether a joint
// re-optimization took place. Pairs with an unidentifiable half are left
// untouched: there is nothing to order against.
func (e *Enforcer) Enforce(pair CoupledPair, prodRes, consRes model.CalibrationResult) (model.CalibrationResult, model.CalibrationResult, bool) {
	if prodRes.Thresholds == nil || consRes.Thresholds == nil {
		return prodRes, consRes, false
	}
	if OrderingSatisfied(*prodRes.Thresholds, *consRes.Thresholds) {
		return prodRes, consRes, false
	}

	prodRes = prodRes.WithFlag(model.FlagOrderingViolation)
	consRes = consRes.WithFlag(model.FlagOrderingViolation)

	prodW := ramp.Weights(pair.Producer.Series, e.cfg.weighting())
	consW := ramp.Weights(pair.Consumer.Series, e.cfg.weighting())
	obj := e.jointObjective(pair, prodW, consW)

	sol, err := minimize(obj, e.jointSeed(*prodRes.Thresholds, *consRes.Thresholds), e.cfg)
	if sol == nil {
		// Best-effort: keep the independent fits, but the violation stays
		// on record.
		prodRes.Error = fmt.Sprintf("joint solver: %v", err)
		consRes.Error = prodRes.Error
		return prodRes, consRes, false
	}

	prodPair, consPair := e.chainFrom(sol.X)
	prodRes = e.revise(prodRes, pair.Producer, prodPair, prodW, sol, err)
	consRes = e.revise(consRes, pair.Consumer, consPair, consW, sol, err)
	return prodRes, consRes, true
}

// chainFrom maps joint solver coordinates (c100, s1, s2, s3) to the two
// threshold pairs. Each link of the chain is c_prev + min_gap + s*s, so the
// recovered ordering is strict by construction.
func (e *Enforcer) chainFrom(x []float64) (prod, cons model.ThresholdPair) {
	c100 := x[0]
	c0 := c100 + e.cfg.Joint.MinGap + x[1]*x[1]
	p0 := c0 + e.cfg.Joint.MinGap + x[2]*x[2]
	p100 := p0 + e.cfg.Joint.MinGap + x[3]*x[3]
	prod = model.ThresholdPair{Price0: p0, Price100: p100}
	cons = model.ThresholdPair{Price0: c0, Price100: c100}
	return prod, cons
}

// jointSeed builds the starting coordinates from the independent fits,
// flooring each link so the seed itself is feasible.
func (e *Enforcer) jointSeed(prod, cons model.ThresholdPair) []float64 {
	gap := func(width float64) float64 {
		return math.Sqrt(math.Max(width-e.cfg.Joint.MinGap, 0))
	}
	return []float64{
		cons.Price100,
		gap(cons.Price0 - cons.Price100),
		gap(prod.Price0 - cons.Price0),
		gap(prod.Price100 - prod.Price0),
	}
}

// jointObjective combines both residual sums. The consumer side is scaled
// by the configured weight; the relative weighting is a tunable, not a
// fixed equality.
func (e *Enforcer) jointObjective(pair CoupledPair, prodW, consW []float64) func(x []float64) float64 {
	return func(x []float64) float64 {
		prodPair, consPair := e.chainFrom(x)
		pm := ramp.Model{Thresholds: prodPair, Capacity: pair.Producer.Capacity, Kind: model.Producer}
		cm := ramp.Model{Thresholds: consPair, Capacity: pair.Consumer.Capacity, Kind: model.Consumer}
		ssrP, _ := ramp.SumSquares(pm, pair.Producer.Series, prodW)
		ssrC, _ := ramp.SumSquares(cm, pair.Consumer.Series, consW)
		return ssrP + e.cfg.Joint.ConsumerWeight*ssrC
	}
}

// revise stamps the jointly re-optimized thresholds and goodness of fit
// onto a copy of the independent result.
func (e *Enforcer) revise(res model.CalibrationResult, group model.Group, fitted model.ThresholdPair, weights []float64, sol *optimize.Result, err error) model.CalibrationResult {
	res.Thresholds = &fitted
	res.Iterations += sol.Stats.MajorIterations
	res = res.WithFlag(model.FlagJointReoptimized)
	switch {
	case err != nil:
		res.Status = model.StatusMaxIterations
		res = res.WithFlag(model.FlagDidNotConverge)
		res.Error = fmt.Sprintf("joint solver: %v", err)
	case sol.Status == optimize.RuntimeLimit:
		res.Status = model.StatusTimedOut
		res = res.WithFlag(model.FlagTimedOut)
	case sol.Status == optimize.IterationLimit, sol.Status == optimize.FunctionEvaluationLimit:
		res.Status = model.StatusMaxIterations
		res = res.WithFlag(model.FlagDidNotConverge)
	}
	m := ramp.Model{Thresholds: fitted, Capacity: group.Capacity, Kind: group.Kind}
	buf := make([]float64, group.Series.Len())
	ramp.Residuals(buf, m, group.Series, weights)
	res.RMSE = ramp.Norm(buf)
	return res
}
