package config

import (
	"sort"

	"github.com/ducminhle1904/quant-risk-core/internal/regime"
)

// validateFile performs full load-time validation: the base sections,
// every regime adjustment, and every strategy and profile layer merged
// against the base. Any failure aborts startup.
func validateFile(f *File) error {
	if err := validateResolved(f.resolve("", regime.TypeUnknown), "global"); err != nil {
		return err
	}

	for name, adj := range f.Regimes {
		if _, err := regime.Parse(name); err != nil {
			return newConfigError("regimes."+name, "unknown market regime")
		}
		if adj == nil {
			continue
		}
		if adj.SizeMultiplier < 0 || adj.StopMultiplier < 0 || adj.TargetMultiplier < 0 {
			return newConfigError("regimes."+name, "regime multipliers must be positive")
		}
	}

	for name := range f.Strategies {
		p := f.resolve(name, regime.TypeUnknown)
		if err := validateResolved(p, "strategies."+name); err != nil {
			return err
		}
	}

	for name, layer := range f.Profiles {
		p := f.resolve("", regime.TypeUnknown)
		layer.apply(p)
		if err := validateResolved(p, "profiles."+name); err != nil {
			return err
		}
	}

	return nil
}

// validateResolved checks one fully merged parameter set.
func validateResolved(p *ResolvedParams, scope string) error {
	if err := validateSizing(&p.Sizing, scope); err != nil {
		return err
	}
	if err := validateStops(&p.Stops, scope); err != nil {
		return err
	}
	if err := validateTargets(&p.Targets, scope); err != nil {
		return err
	}
	return validateLimits(&p.Limits, scope)
}

func validateSizing(s *SizingParams, scope string) error {
	field := scope + ".position_sizing"

	switch s.Method {
	case SizingKelly, SizingRiskParity, SizingVolatility, SizingFixedFraction, SizingMaxDrawdown:
	default:
		return newConfigError(field+".method", "unknown sizing method %q", s.Method)
	}

	fractions := map[string]float64{
		"max_kelly_fraction":        s.MaxKellyFraction,
		"base_fraction":             s.BaseFraction,
		"per_trade_risk_fraction":   s.PerTradeRiskFraction,
		"drawdown_contribution_cap": s.DrawdownContributionCap,
		"min_position_size":         s.MinPositionSize,
		"max_position_size":         s.MaxPositionSize,
	}
	for name, v := range fractions {
		if v < 0 || v > 1 {
			return newConfigError(field+"."+name, "must be within [0, 1], got %.4f", v)
		}
	}

	if s.MinPositionSize > s.MaxPositionSize {
		return newConfigError(field, "min_position_size %.4f exceeds max_position_size %.4f",
			s.MinPositionSize, s.MaxPositionSize)
	}
	if s.MinTradesForKelly < 0 {
		return newConfigError(field+".min_trades_for_kelly", "must be non-negative, got %d", s.MinTradesForKelly)
	}
	if s.VolatilityLookback < 2 {
		return newConfigError(field+".volatility_lookback", "must be at least 2, got %d", s.VolatilityLookback)
	}
	if s.VolatilityFloor <= 0 {
		return newConfigError(field+".volatility_floor", "must be positive, got %g", s.VolatilityFloor)
	}

	return nil
}

func validateStops(s *StopParams, scope string) error {
	field := scope + ".stop_loss"

	switch s.Method {
	case StopATR, StopPercent, StopTrailing, StopSupportResistance, StopTime:
	default:
		return newConfigError(field+".method", "unknown stop-loss method %q", s.Method)
	}

	if s.MinStop < 0 || s.MaxStop <= 0 || s.MaxStop > 1 {
		return newConfigError(field, "stop bounds must satisfy 0 <= min_stop and 0 < max_stop <= 1")
	}
	if s.MinStop > s.MaxStop {
		return newConfigError(field, "min_stop %.4f exceeds max_stop %.4f", s.MinStop, s.MaxStop)
	}
	if s.ATRPeriod < 1 {
		return newConfigError(field+".atr_period", "must be at least 1, got %d", s.ATRPeriod)
	}
	if s.ATRMultiplier <= 0 {
		return newConfigError(field+".atr_multiplier", "must be positive, got %.2f", s.ATRMultiplier)
	}
	if s.StopPercent <= 0 || s.StopPercent > 1 {
		return newConfigError(field+".stop_percent", "must be within (0, 1], got %.4f", s.StopPercent)
	}
	if s.TrailDistance < 0 {
		return newConfigError(field+".trail_distance", "must be non-negative, got %.4f", s.TrailDistance)
	}
	if s.TrailActivation < 0 || s.TrailActivation > 1 {
		return newConfigError(field+".trail_activation", "must be within [0, 1], got %.4f", s.TrailActivation)
	}
	if s.Method == StopTrailing && s.TrailDistance == 0 {
		return newConfigError(field+".trail_distance", "required for the trailing stop method")
	}
	if s.SRLookback < 2 {
		return newConfigError(field+".sr_lookback", "must be at least 2, got %d", s.SRLookback)
	}
	if s.SRBuffer < 0 || s.SRBuffer >= 1 {
		return newConfigError(field+".sr_buffer", "must be within [0, 1), got %.4f", s.SRBuffer)
	}
	if s.MaxHolding < 0 {
		return newConfigError(field+".max_holding", "must be non-negative")
	}
	if s.Method == StopTime && s.MaxHolding == 0 {
		return newConfigError(field+".max_holding", "required for the time stop method")
	}

	return nil
}

func validateTargets(t *TargetParams, scope string) error {
	field := scope + ".take_profit"

	switch t.Method {
	case TargetRiskReward, TargetFibonacci, TargetMovingAverage, TargetTiered:
	default:
		return newConfigError(field+".method", "unknown take-profit method %q", t.Method)
	}

	if t.RiskRewardRatio <= 0 {
		return newConfigError(field+".risk_reward_ratio", "must be positive, got %.2f", t.RiskRewardRatio)
	}
	if t.Method == TargetFibonacci && t.FibLookback < 2 {
		return newConfigError(field+".fib_lookback", "must be at least 2, got %d", t.FibLookback)
	}
	if t.Method == TargetMovingAverage && t.MAPeriod < 1 {
		return newConfigError(field+".ma_period", "must be at least 1, got %d", t.MAPeriod)
	}

	if t.Method == TargetTiered {
		if len(t.Tiers) == 0 {
			return newConfigError(field+".tiers", "at least one scale-out tier is required")
		}
		total := 0.0
		for i, tier := range t.Tiers {
			if tier.DistanceMultiple <= 0 {
				return newConfigError(field+".tiers", "tier %d distance_multiple must be positive", i)
			}
			if tier.Fraction <= 0 || tier.Fraction > 1 {
				return newConfigError(field+".tiers", "tier %d fraction must be within (0, 1]", i)
			}
			if i > 0 && tier.DistanceMultiple <= t.Tiers[i-1].DistanceMultiple {
				return newConfigError(field+".tiers", "tier distances must be strictly increasing")
			}
			total += tier.Fraction
		}
		if total > 1.0+1e-9 {
			return newConfigError(field+".tiers", "tier fractions sum to %.4f, must not exceed 1", total)
		}
	}

	return nil
}

func validateLimits(l *LimitParams, scope string) error {
	field := scope + ".global_risk"

	fractions := map[string]float64{
		"max_portfolio_risk":  l.MaxPortfolioRisk,
		"max_single_position": l.MaxSinglePosition,
		"max_sector_exposure": l.MaxSectorExposure,
		"max_correlation":     l.MaxCorrelation,
		"max_drawdown":        l.MaxDrawdown,
	}
	for name, v := range fractions {
		if v <= 0 || v > 1 {
			return newConfigError(field+"."+name, "must be within (0, 1], got %.4f", v)
		}
	}

	if len(l.VaRConfidenceLevels) == 0 {
		return newConfigError(field+".var_confidence_levels", "at least one confidence level is required")
	}
	for _, c := range l.VaRConfidenceLevels {
		if c <= 0 || c >= 1 {
			return newConfigError(field+".var_confidence_levels", "confidence %.4f must be within (0, 1)", c)
		}
	}
	if !sort.Float64sAreSorted(l.VaRConfidenceLevels) {
		return newConfigError(field+".var_confidence_levels", "confidence levels must be ascending")
	}

	switch l.VaRMethod {
	case VaRParametric, VaRHistorical:
	default:
		return newConfigError(field+".var_method", "unknown VaR method %q", l.VaRMethod)
	}

	w := l.ScoreWeights
	if w.VaRRatio < 0 || w.Concentration < 0 || w.Correlation < 0 {
		return newConfigError(field+".score_weights", "weights must be non-negative")
	}
	if w.VaRRatio+w.Concentration+w.Correlation <= 0 {
		return newConfigError(field+".score_weights", "at least one weight must be positive")
	}

	if l.SnapshotHistorySize < 1 {
		return newConfigError(field+".snapshot_history_size", "must be at least 1, got %d", l.SnapshotHistorySize)
	}
	if l.AlertCooldown < 0 || l.StalenessThreshold < 0 {
		return newConfigError(field, "cooldown and staleness threshold must be non-negative")
	}

	return nil
}
