package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gridcal/pricefit/infra/logger"
)

// InfluxSink writes calibration results to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig holds the connection settings of an influx sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(httpClient()))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so an unreachable database never
// blocks a calibration run.
func NewInfluxSinkWithFallback(cfg InfluxConfig) Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return NopSink{}
	}
	return sink
}

// RecordFitResults writes one point per calibration result.
func (s *InfluxSink) RecordFitResults(recs []FitRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, rec := range recs {
		r := rec.Result
		p := write.NewPointWithMeasurement("calibration_fit").
			AddTag("zone", r.Key.Zone).
			AddTag("sector", r.Key.Sector).
			AddTag("period", r.Key.Period).
			AddTag("kind", r.Kind.String()).
			AddTag("status", r.Status.String()).
			AddField("rmse", round3(r.RMSE)).
			AddField("iterations", r.Iterations).
			AddField("duration_ms", rec.Duration.Milliseconds()).
			SetTime(time.Now())
		if r.Thresholds != nil {
			p.AddField("price0", round3(r.Thresholds.Price0))
			p.AddField("price100", round3(r.Thresholds.Price100))
		}
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordBatch writes the run summary point.
func (s *InfluxSink) RecordBatch(rec BatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("calibration_batch").
		AddTag("run_id", rec.RunID).
		AddField("successes", rec.Successes).
		AddField("partials", rec.Partials).
		AddField("failures", rec.Failures).
		AddField("duration_ms", rec.Duration.Milliseconds()).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}
