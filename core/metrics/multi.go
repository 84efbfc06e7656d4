package metrics

// MultiSink fans records out to several sinks, returning the first error.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordFitResults forwards to every sink.
func (m *MultiSink) RecordFitResults(recs []FitRecord) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordFitResults(recs); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordBatch forwards to every sink.
func (m *MultiSink) RecordBatch(rec BatchRecord) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordBatch(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordReoptimization forwards to the sinks that support it.
func (m *MultiSink) RecordReoptimization(assetID string) error {
	var first error
	for _, s := range m.sinks {
		if rr, ok := s.(ReoptimizationRecorder); ok {
			if err := rr.RecordReoptimization(assetID); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
