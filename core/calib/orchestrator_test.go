package calib

import (
	"context"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/gridcal/pricefit/core/events"
	"github.com/gridcal/pricefit/core/metrics"
	"github.com/gridcal/pricefit/core/model"
	"github.com/gridcal/pricefit/internal/eventbus"
)

func batchGroups() []model.Group {
	zones := []string{"FR", "DE", "ES", "IT", "GB"}
	groups := make([]model.Group, len(zones))
	for i, z := range zones {
		groups[i] = producerGroup(model.ThresholdPair{Price0: 15, Price100: 45})
		groups[i].Key.Zone = z
	}
	return groups
}

func TestOrchestrator_PartialFailure(t *testing.T) {
	groups := batchGroups()
	groups[2].Series = model.TimeSeries{} // group 3 has an empty series

	orch := NewOrchestrator(Config{Workers: 3}, nil, nil, nil)
	manifest := orch.Run(context.Background(), groups)

	if manifest.Total() != 5 {
		t.Fatalf("expected 5 results got %d", manifest.Total())
	}
	if len(manifest.Successes) != 4 {
		t.Fatalf("expected 4 successes got %d", len(manifest.Successes))
	}
	if len(manifest.Failures) != 1 {
		t.Fatalf("expected 1 failure got %d", len(manifest.Failures))
	}
	if manifest.Failures[0].Key.Zone != "ES" {
		t.Fatalf("wrong group failed: %s", manifest.Failures[0].Key)
	}
	if manifest.RunID == "" {
		t.Fatalf("missing run id")
	}
}

func TestOrchestrator_PanicIsolated(t *testing.T) {
	old := minimize
	calls := 0
	minimize = func(obj func([]float64) float64, x0 []float64, cfg Config) (*optimize.Result, error) {
		calls++
		if calls == 1 {
			panic("solver blew up")
		}
		return old(obj, x0, cfg)
	}
	defer func() { minimize = old }()

	groups := batchGroups()[:2]
	orch := NewOrchestrator(Config{Workers: 1}, nil, nil, nil)
	manifest := orch.Run(context.Background(), groups)

	if manifest.Total() != 2 {
		t.Fatalf("expected 2 results got %d", manifest.Total())
	}
	if len(manifest.Failures) != 1 {
		t.Fatalf("expected the panicking group to fail, got %d failures", len(manifest.Failures))
	}
	if len(manifest.Successes) != 1 {
		t.Fatalf("expected the other group to survive, got %d successes", len(manifest.Successes))
	}
}

func TestOrchestrator_CoupledPairOrdering(t *testing.T) {
	pair := storagePair(
		model.ThresholdPair{Price0: 25, Price100: 55},
		model.ThresholdPair{Price0: 32, Price100: 2},
	)
	groups := []model.Group{pair.Consumer, pair.Producer}

	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe(16)

	orch := NewOrchestrator(Config{Workers: 2}, nil, nil, bus)
	manifest := orch.Run(context.Background(), groups)

	var prodRes, consRes *model.CalibrationResult
	for i := range manifest.Partials {
		r := &manifest.Partials[i]
		if r.Kind == model.Producer {
			prodRes = r
		} else {
			consRes = r
		}
	}
	if prodRes == nil || consRes == nil {
		t.Fatalf("expected both halves flagged as partial, manifest: %+v", manifest)
	}
	if !OrderingSatisfied(*prodRes.Thresholds, *consRes.Thresholds) {
		t.Fatalf("ordering not restored: prod %+v cons %+v", prodRes.Thresholds, consRes.Thresholds)
	}
	if !prodRes.HasFlag(model.FlagJointReoptimized) || !consRes.HasFlag(model.FlagJointReoptimized) {
		t.Fatalf("joint re-optimization not recorded")
	}

	sawOrdering := false
	timeout := time.After(time.Second)
	for !sawOrdering {
		select {
		case e := <-sub:
			if oe, ok := e.(events.OrderingEvent); ok {
				if !oe.Violated || !oe.Reoptimized {
					t.Fatalf("unexpected ordering event: %+v", oe)
				}
				sawOrdering = true
			}
		case <-timeout:
			t.Fatalf("no ordering event published")
		}
	}
}

func TestOrchestrator_CancellationMarksRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	groups := batchGroups()
	orch := NewOrchestrator(Config{Workers: 2}, nil, nil, nil)
	manifest := orch.Run(ctx, groups)

	if manifest.Total() != len(groups) {
		t.Fatalf("every group must appear in the manifest, got %d of %d", manifest.Total(), len(groups))
	}
	if len(manifest.Failures) == 0 {
		t.Fatalf("expected canceled groups to be reported as failures")
	}
}

func TestOrchestrator_CancellationWithEmptyKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Key fields are never validated non-empty; an all-empty key must not
	// confuse the accounting of dispatched versus canceled groups.
	groups := batchGroups()
	for i := range groups {
		groups[i].Key = model.GroupKey{}
	}
	orch := NewOrchestrator(Config{Workers: 2}, nil, nil, nil)
	manifest := orch.Run(ctx, groups)

	if manifest.Total() != len(groups) {
		t.Fatalf("expected %d results got %d", len(groups), manifest.Total())
	}
	for _, r := range manifest.Failures {
		if !strings.Contains(r.Error, "run canceled") {
			t.Fatalf("unexpected failure reason: %q", r.Error)
		}
	}
	for _, r := range manifest.Successes {
		if r.Thresholds == nil {
			t.Fatalf("completed fit lost its thresholds: %+v", r)
		}
	}
	if len(manifest.Failures) == 0 {
		t.Fatalf("expected undispatched groups to be reported as failures")
	}
}

type captureSink struct {
	metrics.NopSink
	fits    int
	batches int
	reopts  int
}

func (s *captureSink) RecordFitResults(recs []metrics.FitRecord) error {
	s.fits += len(recs)
	return nil
}

func (s *captureSink) RecordBatch(metrics.BatchRecord) error {
	s.batches++
	return nil
}

func (s *captureSink) RecordReoptimization(string) error {
	s.reopts++
	return nil
}

func TestOrchestrator_RecordsMetrics(t *testing.T) {
	pair := storagePair(
		model.ThresholdPair{Price0: 25, Price100: 55},
		model.ThresholdPair{Price0: 32, Price100: 2},
	)
	groups := []model.Group{pair.Consumer, pair.Producer}

	sink := &captureSink{}
	orch := NewOrchestrator(Config{Workers: 2}, nil, sink, nil)
	orch.Run(context.Background(), groups)

	if sink.fits != 2 {
		t.Fatalf("expected 2 fit records got %d", sink.fits)
	}
	if sink.batches != 1 {
		t.Fatalf("expected 1 batch record got %d", sink.batches)
	}
	if sink.reopts != 1 {
		t.Fatalf("expected 1 reoptimization record got %d", sink.reopts)
	}
}

func TestCoupledPairs_IncompleteAssetSkipped(t *testing.T) {
	groups := batchGroups()[:2]
	groups[0].AssetID = "lonely"
	groups[0].Kind = model.Producer

	pairs := coupledPairs(groups)
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs got %d", len(pairs))
	}

	groups[1].AssetID = "lonely"
	groups[1].Kind = model.Consumer
	pairs = coupledPairs(groups)
	if len(pairs) != 1 {
		t.Fatalf("expected one pair got %d", len(pairs))
	}
	if pairs[0].prod != 0 || pairs[0].cons != 1 {
		t.Fatalf("wrong pairing: %+v", pairs[0])
	}
}
