package scoring

import (
	"fmt"
	"math"
)

// WeightTolerance is how far the five factor weights may drift from summing
// to exactly 1.0 before the config is rejected.
const WeightTolerance = 1e-9

// Default policy parameters. These are starting points, not hard rules;
// callers override them on Config when the engagement calls for it.
const (
	DefaultLookbackYears        = 5
	DefaultExperienceSaturation = 5.0
	DefaultLicenseHorizonYears  = 5.0
	DefaultBondSaturationRatio  = 2.0
	DefaultBondFloorRatio       = 0.25
	DefaultStateMatchScore      = 0.5
)

// Weights holds the five factor weights. Named fields rather than a
// string-keyed map so a typo in a factor name is a compile error, not a
// silently dropped weight.
type Weights struct {
	Experience float64 `json:"experience"`
	License    float64 `json:"license"`
	Bonding    float64 `json:"bonding"`
	Geography  float64 `json:"geography"`
	Reputation float64 `json:"reputation"`
}

// Sum returns the total of the five weights
func (w Weights) Sum() float64 {
	return w.Experience + w.License + w.Bonding + w.Geography + w.Reputation
}

// DefaultWeights spreads weight evenly across the five factors
func DefaultWeights() Weights {
	return Weights{
		Experience: 0.25,
		License:    0.20,
		Bonding:    0.20,
		Geography:  0.20,
		Reputation: 0.15,
	}
}

// Config is the immutable per-run scoring configuration
type Config struct {
	Weights Weights `json:"weights"`

	// MinBond is the engagement's required bonding capacity in dollars
	MinBond int64 `json:"min_bond"`

	// Target geography for the experience and geography factors
	TargetCity  string `json:"target_city"`
	TargetState string `json:"target_state"`

	// LookbackYears bounds which projects count toward experience
	LookbackYears int `json:"lookback_years"`

	// ExperienceSaturation is the quality-weighted project count at which
	// the experience curve reaches 0.5; marginal value shrinks past it.
	ExperienceSaturation float64 `json:"experience_saturation,omitempty"`

	// LicenseHorizonYears caps the remaining-validity credit: a license
	// good for this many years or more scores 1.0.
	LicenseHorizonYears float64 `json:"license_horizon_years,omitempty"`

	// BondSaturationRatio is the multiple of MinBond at which bonding
	// saturates at 1.0.
	BondSaturationRatio float64 `json:"bond_saturation_ratio,omitempty"`

	// BondFloorRatio is the fraction of MinBond below which bonding scores
	// 0 outright; between floor and saturation the score is proportional.
	BondFloorRatio float64 `json:"bond_floor_ratio,omitempty"`

	// StateMatchScore is the geography score for a state-only match
	StateMatchScore float64 `json:"state_match_score,omitempty"`
}

// NewConfig builds a config with default weights and policy parameters for
// the given engagement.
func NewConfig(minBond int64, targetCity, targetState string) Config {
	return Config{
		Weights:              DefaultWeights(),
		MinBond:              minBond,
		TargetCity:           targetCity,
		TargetState:          targetState,
		LookbackYears:        DefaultLookbackYears,
		ExperienceSaturation: DefaultExperienceSaturation,
		LicenseHorizonYears:  DefaultLicenseHorizonYears,
		BondSaturationRatio:  DefaultBondSaturationRatio,
		BondFloorRatio:       DefaultBondFloorRatio,
		StateMatchScore:      DefaultStateMatchScore,
	}
}

// ConfigError reports an invalid scoring configuration. It aborts the whole
// scoring call; per-candidate data problems never produce one.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid scoring config: %s: %s", e.Field, e.Reason)
}

// Validate checks the config invariants. Weights must be non-negative and
// sum to 1.0 within WeightTolerance; there is deliberately no silent
// renormalization.
func (c Config) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"weights.experience", c.Weights.Experience},
		{"weights.license", c.Weights.License},
		{"weights.bonding", c.Weights.Bonding},
		{"weights.geography", c.Weights.Geography},
		{"weights.reputation", c.Weights.Reputation},
	} {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: fmt.Sprintf("must be a non-negative number, got %v", f.value)}
		}
	}

	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return &ConfigError{Field: "weights", Reason: fmt.Sprintf("must sum to 1.0, got %v", sum)}
	}

	if c.MinBond <= 0 {
		return &ConfigError{Field: "min_bond", Reason: "must be positive"}
	}

	if c.TargetState == "" {
		return &ConfigError{Field: "target_state", Reason: "is required"}
	}

	if c.LookbackYears < 0 {
		return &ConfigError{Field: "lookback_years", Reason: "must not be negative"}
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"experience_saturation", c.ExperienceSaturation},
		{"license_horizon_years", c.LicenseHorizonYears},
		{"bond_saturation_ratio", c.BondSaturationRatio},
		{"bond_floor_ratio", c.BondFloorRatio},
		{"state_match_score", c.StateMatchScore},
	} {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: fmt.Sprintf("must be a non-negative number, got %v", f.value)}
		}
	}

	if c.BondFloorRatio > c.BondSaturationRatio && c.BondSaturationRatio > 0 {
		return &ConfigError{Field: "bond_floor_ratio", Reason: "must not exceed bond_saturation_ratio"}
	}

	if c.StateMatchScore > 1 {
		return &ConfigError{Field: "state_match_score", Reason: "must not exceed 1.0"}
	}

	return nil
}

// withDefaults returns a copy with zero-valued policy parameters filled in,
// so a config that only sets weights and engagement fields still scores.
func (c Config) withDefaults() Config {
	if c.LookbackYears == 0 {
		c.LookbackYears = DefaultLookbackYears
	}
	if c.ExperienceSaturation == 0 {
		c.ExperienceSaturation = DefaultExperienceSaturation
	}
	if c.LicenseHorizonYears == 0 {
		c.LicenseHorizonYears = DefaultLicenseHorizonYears
	}
	if c.BondSaturationRatio == 0 {
		c.BondSaturationRatio = DefaultBondSaturationRatio
	}
	if c.BondFloorRatio == 0 {
		c.BondFloorRatio = DefaultBondFloorRatio
	}
	if c.StateMatchScore == 0 {
		c.StateMatchScore = DefaultStateMatchScore
	}
	return c
}
