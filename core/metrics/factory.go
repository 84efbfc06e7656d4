package metrics

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// NewSink creates a Sink from the configured list. No sinks yields a
// NopSink; several are fanned out through a MultiSink.
func NewSink(cfgs []SinkConfig) (Sink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	sinks := make([]Sink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := newSink(c)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

func newSink(cfg SinkConfig) (Sink, error) {
	switch cfg.Type {
	case "nop":
		return NopSink{}, nil
	case "prometheus":
		return NewPromSink(nil)
	case "influx":
		var ic InfluxConfig
		if err := decode(cfg.Conf, &ic); err != nil {
			return nil, fmt.Errorf("influx sink conf: %w", err)
		}
		if ic.URL == "" {
			return nil, fmt.Errorf("influx sink conf: url is required")
		}
		return NewInfluxSinkWithFallback(ic), nil
	default:
		return nil, fmt.Errorf("unknown metrics sink type %q", cfg.Type)
	}
}

// decode fills out the provided struct from a raw conf map using json tags.
func decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: out})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
