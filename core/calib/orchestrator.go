package calib

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridcal/pricefit/core/events"
	"github.com/gridcal/pricefit/core/metrics"
	"github.com/gridcal/pricefit/core/model"
	"github.com/gridcal/pricefit/infra/logger"
	"github.com/gridcal/pricefit/internal/eventbus"
)

// Orchestrator runs a full batch: every group is fitted independently on a
// worker pool, then coupled pairs go through the ordering pass. One group's
// failure, timeout or panic never aborts the batch.
type Orchestrator struct {
	cfg      Config
	cal      *Calibrator
	enforcer *Enforcer
	log      logger.Logger
	sink     metrics.Sink
	bus      eventbus.EventBus
}

// NewOrchestrator creates a batch runner. log, sink and bus may be nil.
func NewOrchestrator(cfg Config, log logger.Logger, sink metrics.Sink, bus eventbus.EventBus) *Orchestrator {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop()
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Orchestrator{
		cfg:      cfg,
		cal:      NewCalibrator(cfg),
		enforcer: NewEnforcer(cfg),
		log:      log,
		sink:     sink,
		bus:      bus,
	}
}

// Run calibrates all groups and returns the manifest. Independent fits are
// embarrassingly parallel over disjoint inputs; the single synchronization
// point is the barrier before the coupling pass.
func (o *Orchestrator) Run(ctx context.Context, groups []model.Group) model.Manifest {
	start := time.Now()
	manifest := model.Manifest{RunID: uuid.NewString(), StartedAt: start}
	o.log.Infof("run %s: calibrating %d groups on %d workers", manifest.RunID, len(groups), o.cfg.Workers)

	results := make([]model.CalibrationResult, len(groups))
	durations := make([]time.Duration, len(groups))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], durations[i] = o.fitOne(groups[i])
			}
		}()
	}

	dispatched := len(groups)
feed:
	for i := range groups {
		select {
		case jobs <- i:
		case <-ctx.Done():
			dispatched = i
			break feed
		}
	}
	close(jobs)
	wg.Wait() // barrier: coupled fits must all be in before the ordering pass

	// Groups are dispatched in order, so everything from the dispatch cursor
	// on never reached a worker.
	for i := dispatched; i < len(groups); i++ {
		results[i] = model.CalibrationResult{
			Key:    groups[i].Key,
			Kind:   groups[i].Kind,
			Status: model.StatusFailed,
			Error:  fmt.Sprintf("run canceled: %v", ctx.Err()),
		}
	}

	o.orderingPass(groups, results)

	recs := make([]metrics.FitRecord, len(results))
	for i, r := range results {
		manifest.Add(r)
		recs[i] = metrics.FitRecord{Result: r, Duration: durations[i]}
	}
	if err := o.sink.RecordFitResults(recs); err != nil {
		o.log.Errorf("metrics error: %v", err)
	}

	manifest.FinishedAt = time.Now()
	o.finish(&manifest, time.Since(start))
	return manifest
}

// fitOne calibrates a single group, converting a panic confined to this
// group into a hard failure entry.
func (o *Orchestrator) fitOne(group model.Group) (res model.CalibrationResult, dur time.Duration) {
	start := time.Now()
	defer func() {
		dur = time.Since(start)
		if r := recover(); r != nil {
			o.log.Errorf("group %s: panic during fit: %v", group.Key, r)
			res = model.CalibrationResult{
				Key:    group.Key,
				Kind:   group.Kind,
				Status: model.StatusFailed,
				Error:  fmt.Sprintf("panic: %v", r),
			}
		}
		o.publish(events.FitEvent{Key: res.Key, Status: res.Status, Flags: res.Flags, Duration: dur})
	}()

	res = o.cal.Fit(group)
	if len(res.Flags) > 0 {
		o.log.Warnw("fit flagged", map[string]any{
			"group":  group.Key.String(),
			"status": res.Status.String(),
			"flags":  res.Flags,
		})
	} else {
		o.log.Debugf("group %s: %s after %d iterations, rmse %.4g", group.Key, res.Status, res.Iterations, res.RMSE)
	}
	return res, time.Since(start)
}

// orderingPass enforces the coupled-pair invariant over the finished
// independent fits, replacing the pair's entries on violation.
func (o *Orchestrator) orderingPass(groups []model.Group, results []model.CalibrationResult) {
	for _, pair := range coupledPairs(groups) {
		prodRes, consRes := results[pair.prod], results[pair.cons]
		cp := CoupledPair{AssetID: pair.assetID, Producer: groups[pair.prod], Consumer: groups[pair.cons]}

		violated := prodRes.Thresholds != nil && consRes.Thresholds != nil &&
			!OrderingSatisfied(*prodRes.Thresholds, *consRes.Thresholds)
		newProd, newCons, reopt := o.enforcer.Enforce(cp, prodRes, consRes)
		results[pair.prod], results[pair.cons] = newProd, newCons

		if violated && reopt {
			o.log.Warnf("asset %s: ordering violated, jointly re-optimized", pair.assetID)
		} else if violated {
			o.log.Errorf("asset %s: ordering violated and joint re-optimization failed", pair.assetID)
		}
		if reopt {
			if rr, ok := o.sink.(metrics.ReoptimizationRecorder); ok {
				if err := rr.RecordReoptimization(pair.assetID); err != nil {
					o.log.Errorf("metrics error: %v", err)
				}
			}
		}
		o.publish(events.OrderingEvent{
			AssetID:     pair.assetID,
			Producer:    cp.Producer.Key,
			Consumer:    cp.Consumer.Key,
			Violated:    violated,
			Reoptimized: reopt,
		})
	}
}

func (o *Orchestrator) finish(m *model.Manifest, dur time.Duration) {
	o.log.Infof("run %s: %d converged, %d partial, %d failed in %s",
		m.RunID, len(m.Successes), len(m.Partials), len(m.Failures), dur.Round(time.Millisecond))
	if err := o.sink.RecordBatch(metrics.BatchRecord{
		RunID:     m.RunID,
		Successes: len(m.Successes),
		Partials:  len(m.Partials),
		Failures:  len(m.Failures),
		Duration:  dur,
	}); err != nil {
		o.log.Errorf("metrics error: %v", err)
	}
	o.publish(events.BatchEvent{
		RunID:     m.RunID,
		Successes: len(m.Successes),
		Partials:  len(m.Partials),
		Failures:  len(m.Failures),
		Duration:  dur,
	})
}

func (o *Orchestrator) publish(e eventbus.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}

type pairIndex struct {
	assetID    string
	prod, cons int
}

// coupledPairs derives the producer/consumer pairs sharing an asset ID.
// Assets missing one of the two halves are skipped; their groups remain
// standalone results.
func coupledPairs(groups []model.Group) []pairIndex {
	type halves struct{ prod, cons int }
	byAsset := make(map[string]*halves)
	order := make([]string, 0)
	for i, g := range groups {
		if g.AssetID == "" {
			continue
		}
		h, ok := byAsset[g.AssetID]
		if !ok {
			h = &halves{prod: -1, cons: -1}
			byAsset[g.AssetID] = h
			order = append(order, g.AssetID)
		}
		if g.Kind == model.Producer {
			h.prod = i
		} else {
			h.cons = i
		}
	}
	pairs := make([]pairIndex, 0, len(order))
	for _, id := range order {
		h := byAsset[id]
		if h.prod >= 0 && h.cons >= 0 {
			pairs = append(pairs, pairIndex{assetID: id, prod: h.prod, cons: h.cons})
		}
	}
	return pairs
}
