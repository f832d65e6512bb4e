package quality

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.InDelta(t, 0.30, cfg.Weights.Confidence, 1e-9)
	assert.InDelta(t, 0.25, cfg.Weights.Completeness, 1e-9)
	assert.InDelta(t, 0.25, cfg.Weights.Validation, 1e-9)
	assert.InDelta(t, 0.20, cfg.Weights.Consistency, 1e-9)
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)

	assert.Equal(t, 90.0, cfg.Tiers.Excellent)
	assert.Equal(t, 75.0, cfg.Tiers.Good)
	assert.Equal(t, 60.0, cfg.Tiers.Fair)

	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.yaml")
	yaml := `
quality:
  weights:
    confidence: 0.40
    completeness: 0.20
    validation: 0.20
    consistency: 0.20
  tiers:
    excellent: 85
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.40, cfg.Weights.Confidence, 1e-9)
	assert.InDelta(t, 0.20, cfg.Weights.Consistency, 1e-9)
	assert.Equal(t, 85.0, cfg.Tiers.Excellent)

	// Unset thresholds fall back to defaults.
	assert.Equal(t, 75.0, cfg.Tiers.Good)
	assert.Equal(t, 60.0, cfg.Tiers.Fair)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_BadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.yaml")
	yaml := `
quality:
  weights:
    confidence: 0.90
    completeness: 0.90
    validation: 0.90
    consistency: 0.90
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "weights should sum to 1.0")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Weights.Confidence = -0.1; c.Weights.Completeness = 0.65 },
			wantErr: "confidence weight must be >= 0",
		},
		{
			name:    "weights off balance",
			mutate:  func(c *Config) { c.Weights.Consistency = 0.5 },
			wantErr: "weights should sum to 1.0",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Tiers.Excellent = 120 },
			wantErr: "excellent threshold must be between 0 and 100",
		},
		{
			name:    "thresholds not descending",
			mutate:  func(c *Config) { c.Tiers.Good = 95 },
			wantErr: "tier thresholds must be strictly descending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
