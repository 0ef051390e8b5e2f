// Package tuning holds the product constants of a Neo Haven session:
// roster size, opening metrics, class mix, update noise and the win/loss
// thresholds. Defaults reproduce the reference game; a YAML file may
// override any subset.
package tuning

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/neo-haven/internal/citizens"
	"github.com/talgya/neo-haven/internal/engine"
)

type Tuning struct {
	Population     int      `yaml:"population"`
	NoiseMagnitude float64  `yaml:"noise_magnitude"`
	MaxSamples     int      `yaml:"max_samples"`
	ClassMix       ClassMix `yaml:"class_mix"`
	Opening        Opening  `yaml:"opening_metrics"`
	Rules          Rules    `yaml:"rules"`
}

type ClassMix struct {
	LowIncome float64 `yaml:"low_income"`
	Wealthy   float64 `yaml:"wealthy"`
}

type Opening struct {
	AvgHappiness float64 `yaml:"avg_happiness"`
	Unemployment float64 `yaml:"unemployment"`
	GDP          float64 `yaml:"gdp"`
	CrimeRate    float64 `yaml:"crime_rate"`
	Population   float64 `yaml:"population"`
	GovApproval  float64 `yaml:"gov_approval"`
}

type Rules struct {
	ApprovalFloor float64 `yaml:"approval_floor"`
	WinApproval   float64 `yaml:"win_approval"`
	TurnLimit     int     `yaml:"turn_limit"`
}

// Default returns the reference constants.
func Default() Tuning {
	rules := engine.DefaultRules()
	m := engine.InitialMetrics()
	spawn := citizens.DefaultSpawnConfig()
	return Tuning{
		Population:     100,
		NoiseMagnitude: citizens.DefaultNoiseMagnitude,
		MaxSamples:     engine.MaxSamples,
		ClassMix: ClassMix{
			LowIncome: spawn.LowIncomeShare,
			Wealthy:   spawn.WealthyShare,
		},
		Opening: Opening{
			AvgHappiness: m.AvgHappiness,
			Unemployment: m.Unemployment,
			GDP:          m.GDP,
			CrimeRate:    m.CrimeRate,
			Population:   m.Population,
			GovApproval:  m.GovApproval,
		},
		Rules: Rules{
			ApprovalFloor: rules.ApprovalFloor,
			WinApproval:   rules.WinApproval,
			TurnLimit:     rules.TurnLimit,
		},
	}
}

// Load reads path over the defaults, so a file only needs the keys it
// changes. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Validate rejects constants no session could run with.
func (t Tuning) Validate() error {
	var errs []error
	if t.Population < 0 {
		errs = append(errs, fmt.Errorf("population %d is negative", t.Population))
	}
	if !unit(t.ClassMix.LowIncome) || !unit(t.ClassMix.Wealthy) {
		errs = append(errs, fmt.Errorf("class_mix shares must lie in [0, 1]"))
	} else if t.ClassMix.LowIncome+t.ClassMix.Wealthy > 1 {
		errs = append(errs, fmt.Errorf("class_mix low_income + wealthy = %.2f exceeds 1",
			t.ClassMix.LowIncome+t.ClassMix.Wealthy))
	}
	if t.NoiseMagnitude < 0 || math.IsNaN(t.NoiseMagnitude) {
		errs = append(errs, fmt.Errorf("noise_magnitude %v is negative", t.NoiseMagnitude))
	}
	if t.MaxSamples < 1 {
		errs = append(errs, fmt.Errorf("max_samples %d must be at least 1", t.MaxSamples))
	}
	if t.Rules.TurnLimit < 1 {
		errs = append(errs, fmt.Errorf("rules.turn_limit %d must be at least 1", t.Rules.TurnLimit))
	}
	if t.Rules.ApprovalFloor > t.Rules.WinApproval {
		errs = append(errs, fmt.Errorf("rules.approval_floor %v above rules.win_approval %v",
			t.Rules.ApprovalFloor, t.Rules.WinApproval))
	}
	return errors.Join(errs...)
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// EngineRules converts the thresholds for the orchestrator.
func (t Tuning) EngineRules() engine.Rules {
	return engine.Rules{
		ApprovalFloor: t.Rules.ApprovalFloor,
		WinApproval:   t.Rules.WinApproval,
		TurnLimit:     t.Rules.TurnLimit,
		MaxSamples:    t.MaxSamples,
	}
}

// SpawnConfig converts the class mix for the population factory.
func (t Tuning) SpawnConfig() citizens.SpawnConfig {
	return citizens.SpawnConfig{
		LowIncomeShare: t.ClassMix.LowIncome,
		WealthyShare:   t.ClassMix.Wealthy,
	}
}

// InitialMetrics returns the opening metrics at turn 1.
func (t Tuning) InitialMetrics() engine.Metrics {
	return engine.Metrics{
		AvgHappiness: t.Opening.AvgHappiness,
		Unemployment: t.Opening.Unemployment,
		GDP:          t.Opening.GDP,
		CrimeRate:    t.Opening.CrimeRate,
		Population:   t.Opening.Population,
		GovApproval:  t.Opening.GovApproval,
		Turn:         1,
	}
}
