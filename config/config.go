// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridcal/pricefit/core/calib"
	"github.com/gridcal/pricefit/core/metrics"
)

// Config is the root configuration of a calibration run.
type Config struct {
	Solver     calib.Config     `json:"solver"`
	Metrics    metrics.Config   `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
	Hypothesis HypothesisConfig `json:"hypothesis"`
	Export     ExportConfig     `json:"export"`
}

// Load reads the configuration file, applies PF_ environment overrides,
// then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("PF_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Solver.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Hypothesis.SetDefaults()
	cfg.Export.SetDefaults()
	if err := cfg.Solver.Validate(); err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if err := cfg.Hypothesis.Validate(); err != nil {
		return nil, fmt.Errorf("hypothesis: %w", err)
	}
	if err := cfg.Export.Validate(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return &cfg, nil
}
