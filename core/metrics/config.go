package metrics

import "fmt"

// SinkConfig contains the type name and raw configuration of one sink.
type SinkConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Config defines the metrics section of the service configuration.
type Config struct {
	Sinks []SinkConfig `json:"sinks"`
	// PromAddr, when set, exposes /metrics on this address for the
	// duration of the run.
	PromAddr string `json:"prom_addr"`
}

// Validate checks that every sink type is known.
func (c Config) Validate() error {
	for _, s := range c.Sinks {
		switch s.Type {
		case "nop", "prometheus", "influx":
		default:
			return fmt.Errorf("unknown metrics sink type %q", s.Type)
		}
	}
	return nil
}
