// Package quality implements deterministic multi-metric assessment of
// validated lease records.
package quality

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights distributes the overall score across the four sub-metrics.
// Weights sum to 1.0.
type Weights struct {
	Confidence   float64 `yaml:"confidence"`
	Completeness float64 `yaml:"completeness"`
	Validation   float64 `yaml:"validation"`
	Consistency  float64 `yaml:"consistency"`
}

// Sum returns the sum of all metric weights.
func (w Weights) Sum() float64 {
	return w.Confidence + w.Completeness + w.Validation + w.Consistency
}

// TierThresholds maps an overall score to a quality tier. A score at or
// above Excellent is "excellent", at or above Good is "good", at or above
// Fair is "fair", and anything below is "poor".
type TierThresholds struct {
	Excellent float64 `yaml:"excellent"`
	Good      float64 `yaml:"good"`
	Fair      float64 `yaml:"fair"`
}

// Config is the full rule configuration for the assessment engine. It is
// immutable once handed to an Engine and safe to share across goroutines.
type Config struct {
	Weights Weights        `yaml:"weights"`
	Tiers   TierThresholds `yaml:"tiers"`
}

// DefaultConfig returns the canonical rule configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Confidence:   0.30,
			Completeness: 0.25,
			Validation:   0.25,
			Consistency:  0.20,
		},
		Tiers: TierThresholds{
			Excellent: 90,
			Good:      75,
			Fair:      60,
		},
	}
}

// LoadConfig reads rule overrides from a YAML file. Fields left zero in the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "quality: read config %s", path)
	}

	// The YAML has a top-level "quality" key.
	var wrapper struct {
		Quality Config `yaml:"quality"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Config{}, eris.Wrap(err, "quality: parse config")
	}

	cfg := wrapper.Quality
	def := DefaultConfig()
	if cfg.Weights.Sum() == 0 {
		cfg.Weights = def.Weights
	}
	if cfg.Tiers.Excellent == 0 {
		cfg.Tiers.Excellent = def.Tiers.Excellent
	}
	if cfg.Tiers.Good == 0 {
		cfg.Tiers.Good = def.Tiers.Good
	}
	if cfg.Tiers.Fair == 0 {
		cfg.Tiers.Fair = def.Tiers.Fair
	}

	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig checks that a Config is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	weights := map[string]float64{
		"confidence":   c.Weights.Confidence,
		"completeness": c.Weights.Completeness,
		"validation":   c.Weights.Validation,
		"consistency":  c.Weights.Consistency,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", name))
		}
	}

	if math.Abs(c.Weights.Sum()-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1.0, got %.2f", c.Weights.Sum()))
	}

	for name, t := range map[string]float64{
		"excellent": c.Tiers.Excellent,
		"good":      c.Tiers.Good,
		"fair":      c.Tiers.Fair,
	} {
		if t < 0 || t > 100 {
			errs = append(errs, fmt.Sprintf("%s threshold must be between 0 and 100", name))
		}
	}
	if !(c.Tiers.Excellent > c.Tiers.Good && c.Tiers.Good > c.Tiers.Fair) {
		errs = append(errs, "tier thresholds must be strictly descending")
	}

	if len(errs) > 0 {
		return eris.Errorf("quality: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
