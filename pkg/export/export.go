// Package export writes calibration manifests and threshold tables.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/gridcal/pricefit/core/model"
)

// WriteJSON writes the full run manifest to w in JSON format.
func WriteJSON(w io.Writer, m model.Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// WriteCSV writes one flat row per calibration result.
func WriteCSV(w io.Writer, results []model.CalibrationResult) error {
	cw := csv.NewWriter(w)
	header := []string{"zone", "sector", "period", "kind", "status", "price0", "price100", "rmse", "iterations", "flags", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		price0, price100 := "", ""
		if r.Thresholds != nil {
			price0 = formatPrice(r.Thresholds.Price0)
			price100 = formatPrice(r.Thresholds.Price100)
		}
		rec := []string{
			r.Key.Zone,
			r.Key.Sector,
			r.Key.Period,
			r.Kind.String(),
			r.Status.String(),
			price0,
			price100,
			strconv.FormatFloat(r.RMSE, 'f', -1, 64),
			strconv.Itoa(r.Iterations),
			joinFlags(r.Flags),
			r.Error,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteThresholdTable writes the fitted prices in the historical row
// layout: Cons_max and Cons_min for consumer halves, Prod_min and Prod_max
// for producers. Results without thresholds are omitted; the manifest keeps
// their diagnostics.
func WriteThresholdTable(w io.Writer, results []model.CalibrationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"zone", "sector", "period", "price_type", "price"}); err != nil {
		return err
	}
	for _, r := range results {
		if r.Thresholds == nil {
			continue
		}
		var rows [][2]string
		if r.Kind == model.Consumer {
			rows = [][2]string{
				{"Cons_max", formatPrice(r.Thresholds.Price100)},
				{"Cons_min", formatPrice(r.Thresholds.Price0)},
			}
		} else {
			rows = [][2]string{
				{"Prod_min", formatPrice(r.Thresholds.Price0)},
				{"Prod_max", formatPrice(r.Thresholds.Price100)},
			}
		}
		for _, row := range rows {
			rec := []string{r.Key.Zone, r.Key.Sector, r.Key.Period, row[0], row[1]}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinFlags(flags []model.Flag) string {
	if len(flags) == 0 {
		return ""
	}
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, "|")
}
