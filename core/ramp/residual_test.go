package ramp

import (
	"math"
	"testing"

	"github.com/gridcal/pricefit/core/model"
)

func testSeries() model.TimeSeries {
	return model.TimeSeries{
		Prices: []float64{10, 20, 30, 40, 50},
		Powers: []float64{0, 0, 50, 100, 100},
	}
}

func TestResiduals_ExactForwardModel(t *testing.T) {
	m := Model{
		Thresholds: model.ThresholdPair{Price0: 20, Price100: 40},
		Capacity:   100,
		Kind:       model.Producer,
	}
	series := testSeries()
	buf := make([]float64, series.Len())
	if deg := Residuals(buf, m, series, nil); deg {
		t.Fatalf("unexpected degenerate flag")
	}
	for i, r := range buf {
		if math.Abs(r) > 1e-12 {
			t.Fatalf("residual %d: expected 0 got %v", i, r)
		}
	}
	if n := Norm(buf); n != 0 {
		t.Fatalf("expected zero norm got %v", n)
	}
}

func TestResiduals_Deterministic(t *testing.T) {
	m := Model{
		Thresholds: model.ThresholdPair{Price0: 15, Price100: 45},
		Capacity:   100,
		Kind:       model.Producer,
	}
	series := testSeries()
	a := make([]float64, series.Len())
	b := make([]float64, series.Len())
	Residuals(a, m, series, nil)
	Residuals(b, m, series, nil)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("residual %d differs across runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestWeights_None(t *testing.T) {
	if w := Weights(testSeries(), WeightNone); w != nil {
		t.Fatalf("expected nil weights got %v", w)
	}
}

func TestWeights_TieDamped(t *testing.T) {
	series := model.TimeSeries{
		Prices: []float64{30, 30, 30, 30, 50},
		Powers: []float64{10, 20, 30, 40, 50},
	}
	w := Weights(series, WeightTieDamped)
	if len(w) != 5 {
		t.Fatalf("expected 5 weights got %d", len(w))
	}
	for i := 0; i < 4; i++ {
		if math.Abs(w[i]-0.5) > 1e-12 {
			t.Fatalf("tied hour %d: expected weight 0.5 got %v", i, w[i])
		}
	}
	if w[4] != 1 {
		t.Fatalf("unique hour: expected weight 1 got %v", w[4])
	}
}

func TestParseWeighting(t *testing.T) {
	if w, ok := ParseWeighting(""); !ok || w != WeightNone {
		t.Fatalf("empty scheme should default to none")
	}
	if w, ok := ParseWeighting("tie-damped"); !ok || w != WeightTieDamped {
		t.Fatalf("tie-damped not recognized")
	}
	if _, ok := ParseWeighting("golden"); ok {
		t.Fatalf("unknown scheme accepted")
	}
}

func TestNorm_RMS(t *testing.T) {
	got := Norm([]float64{3, 4})
	want := math.Sqrt(12.5)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v got %v", want, got)
	}
}
