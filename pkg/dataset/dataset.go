// Package dataset reads calibration run datasets: aligned hourly price and
// power series per (zone, sector, period) group, with optional initial
// threshold hypotheses and storage coupling.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gridcal/pricefit/core/model"
)

// Defaults are the fallback initial hypotheses applied to entries that
// carry none of their own.
type Defaults struct {
	Producer model.ThresholdPair
	Consumer model.ThresholdPair
}

// entry is one dataset record. Kind "storage" expands into a coupled
// consumer/producer pair sharing an asset ID.
type entry struct {
	Zone       string    `json:"zone"`
	Sector     string    `json:"sector"`
	Period     string    `json:"period"`
	Kind       string    `json:"kind"`
	Capacity   float64   `json:"capacity"`
	Asset      string    `json:"asset,omitempty"`
	Timestamps []int64   `json:"timestamps,omitempty"`
	Prices     []float64 `json:"prices"`
	Powers     []float64 `json:"powers"`

	InitPrice0   *float64 `json:"init_price0,omitempty"`
	InitPrice100 *float64 `json:"init_price100,omitempty"`
	// Consumer-side hypothesis, used by storage entries for their charging
	// half.
	InitConsPrice0   *float64 `json:"init_cons_price0,omitempty"`
	InitConsPrice100 *float64 `json:"init_cons_price100,omitempty"`
}

type fileFormat struct {
	Groups []entry `json:"groups"`
}

// Load reads a dataset file. Structural problems inside a single group
// (empty or misaligned series, bad capacity) are deliberately NOT rejected
// here: they flow through to the calibrator, which turns them into
// per-group failure entries without aborting the batch. Only dataset-level
// mistakes fail the load: undecodable JSON, unknown kinds and infeasible
// storage hypotheses.
func Load(path string, defs Defaults) ([]model.Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, defs)
}

// Read decodes a dataset from r. See Load for the validation split.
func Read(r io.Reader, defs Defaults) ([]model.Group, error) {
	var file fileFormat
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	groups := make([]model.Group, 0, len(file.Groups))
	for i, e := range file.Groups {
		gs, err := expand(e, defs)
		if err != nil {
			return nil, fmt.Errorf("dataset entry %d (%s/%s/%s): %w", i, e.Zone, e.Sector, e.Period, err)
		}
		groups = append(groups, gs...)
	}
	return groups, nil
}

func expand(e entry, defs Defaults) ([]model.Group, error) {
	key := model.GroupKey{Zone: e.Zone, Sector: e.Sector, Period: e.Period}
	series := model.TimeSeries{Timestamps: e.Timestamps, Prices: e.Prices, Powers: e.Powers}

	switch e.Kind {
	case "producer", "consumer":
		kind, _ := model.ParseUnitKind(e.Kind)
		init := defaultInit(kind, defs)
		if e.InitPrice0 != nil && e.InitPrice100 != nil {
			init = model.ThresholdPair{Price0: *e.InitPrice0, Price100: *e.InitPrice100}
		}
		return []model.Group{{
			Key:      key,
			Series:   series,
			Capacity: e.Capacity,
			Kind:     kind,
			AssetID:  e.Asset,
			Init:     init,
		}}, nil
	case "storage":
		return expandStorage(e, key, defs)
	default:
		return nil, fmt.Errorf("unknown kind %q", e.Kind)
	}
}

// expandStorage splits a storage entry into its charging (consumer) and
// discharging (producer) halves on the sign of the observed power. Hours at
// exactly zero appear in both halves, matching the historical convention
// for pumped storage series.
func expandStorage(e entry, key model.GroupKey, defs Defaults) ([]model.Group, error) {
	prodInit := defaultInit(model.Producer, defs)
	if e.InitPrice0 != nil && e.InitPrice100 != nil {
		prodInit = model.ThresholdPair{Price0: *e.InitPrice0, Price100: *e.InitPrice100}
	}
	consInit := defaultInit(model.Consumer, defs)
	if e.InitConsPrice0 != nil && e.InitConsPrice100 != nil {
		consInit = model.ThresholdPair{Price0: *e.InitConsPrice0, Price100: *e.InitConsPrice100}
	}
	// The charging hypothesis must sit at or below the discharging one,
	// otherwise the coupled seed is infeasible from the start.
	if consInit.Price0 > prodInit.Price0 {
		return nil, fmt.Errorf("storage hypothesis: cons price0 (%g) > prod price0 (%g)", consInit.Price0, prodInit.Price0)
	}

	asset := e.Asset
	if asset == "" {
		asset = key.String()
	}

	var prodSeries, consSeries model.TimeSeries
	if len(e.Prices) != len(e.Powers) {
		// Cannot split on power sign; hand the misaligned series to both
		// halves so the calibrator reports them as malformed groups.
		bad := model.TimeSeries{Timestamps: e.Timestamps, Prices: e.Prices, Powers: e.Powers}
		prodSeries, consSeries = bad, bad
		return storageGroups(key, e.Capacity, asset, consSeries, prodSeries, consInit, prodInit), nil
	}
	for i, p := range e.Powers {
		if p >= 0 {
			prodSeries.Powers = append(prodSeries.Powers, p)
			prodSeries.Prices = append(prodSeries.Prices, e.Prices[i])
			if len(e.Timestamps) == len(e.Powers) {
				prodSeries.Timestamps = append(prodSeries.Timestamps, e.Timestamps[i])
			}
		}
		if p <= 0 {
			consSeries.Powers = append(consSeries.Powers, p)
			consSeries.Prices = append(consSeries.Prices, e.Prices[i])
			if len(e.Timestamps) == len(e.Powers) {
				consSeries.Timestamps = append(consSeries.Timestamps, e.Timestamps[i])
			}
		}
	}

	return storageGroups(key, e.Capacity, asset, consSeries, prodSeries, consInit, prodInit), nil
}

func storageGroups(key model.GroupKey, capacity float64, asset string, consSeries, prodSeries model.TimeSeries, consInit, prodInit model.ThresholdPair) []model.Group {
	return []model.Group{
		{
			Key:      key,
			Series:   consSeries,
			Capacity: capacity,
			Kind:     model.Consumer,
			AssetID:  asset,
			Init:     consInit,
		},
		{
			Key:      key,
			Series:   prodSeries,
			Capacity: capacity,
			Kind:     model.Producer,
			AssetID:  asset,
			Init:     prodInit,
		},
	}
}

func defaultInit(kind model.UnitKind, defs Defaults) model.ThresholdPair {
	if kind == model.Consumer {
		return defs.Consumer
	}
	return defs.Producer
}
