package model

import (
	"encoding/json"
	"testing"
)

func TestThresholdPair_Ordered(t *testing.T) {
	prod := ThresholdPair{Price0: 20, Price100: 40}
	if !prod.Ordered(Producer) {
		t.Fatalf("producer pair should be ordered")
	}
	if prod.Ordered(Consumer) {
		t.Fatalf("producer pair must not satisfy consumer ordering")
	}

	cons := ThresholdPair{Price0: 30, Price100: 10}
	if !cons.Ordered(Consumer) {
		t.Fatalf("consumer pair should be ordered")
	}

	flat := ThresholdPair{Price0: 25, Price100: 25}
	if !flat.Ordered(Producer) || !flat.Ordered(Consumer) {
		t.Fatalf("equal thresholds are accepted for both kinds")
	}
	if flat.Gap() != 0 {
		t.Fatalf("expected zero gap got %v", flat.Gap())
	}
	if cons.Gap() != 20 {
		t.Fatalf("expected gap 20 got %v", cons.Gap())
	}
}

func TestManifest_Routing(t *testing.T) {
	var m Manifest
	m.Add(CalibrationResult{Status: StatusConverged})
	m.Add(CalibrationResult{Status: StatusConverged, Flags: []Flag{FlagBoundsClipped}})
	m.Add(CalibrationResult{Status: StatusMaxIterations, Flags: []Flag{FlagDidNotConverge}})
	m.Add(CalibrationResult{Status: StatusSkipped, Flags: []Flag{FlagInsufficientData}})
	m.Add(CalibrationResult{Status: StatusFailed, Error: "empty series"})

	if len(m.Successes) != 1 {
		t.Fatalf("expected 1 success got %d", len(m.Successes))
	}
	if len(m.Partials) != 3 {
		t.Fatalf("expected 3 partials got %d", len(m.Partials))
	}
	if len(m.Failures) != 1 {
		t.Fatalf("expected 1 failure got %d", len(m.Failures))
	}
	if m.Total() != 5 {
		t.Fatalf("expected 5 total got %d", m.Total())
	}
	if got := len(m.Results()); got != 5 {
		t.Fatalf("expected 5 results got %d", got)
	}
}

func TestCalibrationResult_WithFlag(t *testing.T) {
	r := CalibrationResult{Flags: []Flag{FlagBoundsClipped}}
	r2 := r.WithFlag(FlagOrderingViolation)
	if len(r.Flags) != 1 {
		t.Fatalf("original must be untouched, got %v", r.Flags)
	}
	if !r2.HasFlag(FlagOrderingViolation) || !r2.HasFlag(FlagBoundsClipped) {
		t.Fatalf("missing flags: %v", r2.Flags)
	}
	r3 := r2.WithFlag(FlagOrderingViolation)
	if len(r3.Flags) != 2 {
		t.Fatalf("duplicate flag added: %v", r3.Flags)
	}
}

func TestCalibrationResult_JSON(t *testing.T) {
	r := CalibrationResult{
		Key:        GroupKey{Zone: "FR", Sector: "fossil_gas", Period: "2015-2018"},
		Kind:       Consumer,
		Thresholds: &ThresholdPair{Price0: 30, Price100: 10},
		Status:     StatusMaxIterations,
		Flags:      []Flag{FlagDidNotConverge},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != "max_iterations" {
		t.Fatalf("expected string status got %v", decoded["status"])
	}
	if decoded["kind"] != "consumer" {
		t.Fatalf("expected string kind got %v", decoded["kind"])
	}
}
