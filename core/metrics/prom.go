package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records calibration events in Prometheus metrics.
type PromSink struct {
	fits      *prometheus.CounterVec
	durations *prometheus.HistogramVec
	reopts    prometheus.Counter
	batches   prometheus.Counter
}

// NewPromSink registers calibration metrics on the provided registerer. If
// reg is nil, the default registerer is used. Already registered collectors
// are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	fits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calibration_fits_total",
		Help: "Total number of group calibrations by status and unit kind",
	}, []string{"status", "kind"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calibration_fit_duration_seconds",
		Help:    "Wall-clock duration of one group's fit",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	reopts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "calibration_joint_reoptimizations_total",
		Help: "Coupled pairs whose ordering violation triggered a joint refit",
	})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "calibration_batches_total",
		Help: "Completed batch runs",
	})

	s := &PromSink{fits: fits, durations: durations, reopts: reopts, batches: batches}
	for _, c := range []prometheus.Collector{fits, durations, reopts, batches} {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch existing := are.ExistingCollector.(type) {
			case *prometheus.CounterVec:
				s.fits = existing
			case *prometheus.HistogramVec:
				s.durations = existing
			case prometheus.Counter:
				if c == reopts {
					s.reopts = existing
				} else {
					s.batches = existing
				}
			}
		}
	}
	return s, nil
}

// RecordFitResults increments the per-status counters and duration
// histogram for each calibration result.
func (s *PromSink) RecordFitResults(recs []FitRecord) error {
	for _, r := range recs {
		status := r.Result.Status.String()
		s.fits.WithLabelValues(status, r.Result.Kind.String()).Inc()
		s.durations.WithLabelValues(status).Observe(r.Duration.Seconds())
	}
	return nil
}

// RecordBatch counts a completed run.
func (s *PromSink) RecordBatch(BatchRecord) error {
	s.batches.Inc()
	return nil
}

// RecordReoptimization counts a joint refit.
func (s *PromSink) RecordReoptimization(string) error {
	s.reopts.Inc()
	return nil
}
