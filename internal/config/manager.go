package config

import (
	"fmt"
	"os"

	"github.com/ducminhle1904/quant-risk-core/internal/regime"
	"gopkg.in/yaml.v3"
)

// Manager resolves the effective risk parameter set for the other core
// components. Resolution is a deterministic field-by-field merge:
// global defaults, then the strategy block, then the active regime
// multipliers, then the selected risk-profile template.
type Manager struct {
	file *File
	path string
}

// Load reads and validates a YAML risk configuration. Values in the
// file are unmarshaled over the built-in defaults, so unset keys
// inherit them. Validation failures are fatal and return a ConfigError.
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read risk config: %w", err)
	}

	file := DefaultFile()
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, newConfigError(path, "could not parse YAML: %v", err)
	}

	return NewManager(file)
}

// NewManager validates an in-memory configuration and wraps it. Used by
// Load and by embedders that build configuration programmatically.
func NewManager(file *File) (*Manager, error) {
	if file == nil {
		file = DefaultFile()
	}
	if err := validateFile(file); err != nil {
		return nil, err
	}
	return &Manager{file: file}, nil
}

// File exposes the validated configuration, primarily for reporting.
func (m *Manager) File() *File {
	return m.file
}

// Resolve produces the effective parameter set for one trade candidate.
// An empty strategy or an unconfigured strategy name inherits the
// globals; an unknown profile name is a configuration fault.
func (m *Manager) Resolve(strategy string, reg regime.Type, profile string) (*ResolvedParams, error) {
	p := m.file.resolve(strategy, reg)

	if profile != "" {
		layer, ok := m.file.Profiles[profile]
		if !ok {
			return nil, newConfigError("profiles."+profile, "unknown risk profile")
		}
		layer.apply(p)
		p.Profile = profile
	}

	// Overrides were validated per-layer at load; the merged result is
	// re-checked so no combination can smuggle in an inconsistent pair.
	if err := validateResolved(p, "resolved"); err != nil {
		return nil, err
	}

	return p, nil
}

// resolve merges defaults, strategy block and regime adjustment. The
// base sections are copied by value; the shared slices are cloned so
// the regime multipliers never mutate the loaded file.
func (f *File) resolve(strategy string, reg regime.Type) *ResolvedParams {
	p := &ResolvedParams{
		Strategy: strategy,
		Regime:   reg,
		Sizing:   f.PositionSizing,
		Stops:    f.StopLoss,
		Targets:  f.TakeProfit,
		Limits:   f.GlobalRisk,
	}
	p.Targets.Tiers = append([]TakeProfitTier(nil), f.TakeProfit.Tiers...)
	p.Limits.VaRConfidenceLevels = append([]float64(nil), f.GlobalRisk.VaRConfidenceLevels...)

	if strategy != "" {
		if layer, ok := f.Strategies[strategy]; ok {
			layer.apply(p)
		}
	}
	if reg != "" && reg != regime.TypeUnknown {
		if adj, ok := f.Regimes[string(reg)]; ok {
			adj.apply(p)
		}
	}

	return p
}
