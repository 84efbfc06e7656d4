package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1e-8, cfg.Tolerance)
	assert.Equal(t, 2000, cfg.MaxIterations)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, 1.0, cfg.Joint.ConsumerWeight)
	assert.Equal(t, 1e-3, cfg.Joint.MinGap)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		var cfg Config
		cfg.SetDefaults()
		return cfg
	}

	cfg := base()
	cfg.Tolerance = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MaxIterations = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.RuntimeBudgetMS = -5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Workers = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Bounds = Bounds{Min: 10, Max: 10}
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Weighting = "golden"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Joint.MinGap = -1e-3
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Weighting = "tie-damped"
	cfg.Bounds = Bounds{Min: -500, Max: 3000}
	assert.NoError(t, cfg.Validate())
}

func TestBounds(t *testing.T) {
	var none Bounds
	assert.False(t, none.Enabled())

	b := Bounds{Min: -500, Max: 3000}
	assert.True(t, b.Enabled())
	assert.True(t, b.Contains(0))
	assert.False(t, b.Contains(-501))
	assert.Equal(t, -500.0, b.Clamp(-1000))
	assert.Equal(t, 3000.0, b.Clamp(5000))
	assert.Equal(t, 42.0, b.Clamp(42))
}
