package config

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/quant-risk-core/internal/regime"
	"gopkg.in/yaml.v3"
)

// SizingMethod selects the position-sizing algorithm
type SizingMethod string

const (
	SizingKelly         SizingMethod = "kelly"
	SizingRiskParity    SizingMethod = "risk_parity"
	SizingVolatility    SizingMethod = "volatility"
	SizingFixedFraction SizingMethod = "fixed_fraction"
	SizingMaxDrawdown   SizingMethod = "max_drawdown"
)

// StopMethod selects the stop-loss placement algorithm
type StopMethod string

const (
	StopATR               StopMethod = "atr"
	StopPercent           StopMethod = "percent"
	StopTrailing          StopMethod = "trailing"
	StopSupportResistance StopMethod = "support_resistance"
	StopTime              StopMethod = "time"
)

// TargetMethod selects the take-profit placement algorithm
type TargetMethod string

const (
	TargetRiskReward    TargetMethod = "risk_reward"
	TargetFibonacci     TargetMethod = "fibonacci"
	TargetMovingAverage TargetMethod = "moving_average"
	TargetTiered        TargetMethod = "tiered"
)

// VaRMethod selects how Value at Risk is estimated
type VaRMethod string

const (
	VaRParametric VaRMethod = "parametric"
	VaRHistorical VaRMethod = "historical"
)

// Duration wraps time.Duration so YAML values like "5m" parse directly
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"5m\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the wrapped time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SizingParams holds position-sizing configuration. All size bounds are
// fractions of current portfolio equity.
type SizingParams struct {
	Method                  SizingMethod `yaml:"method"`
	MaxKellyFraction        float64      `yaml:"max_kelly_fraction"`
	MinTradesForKelly       int          `yaml:"min_trades_for_kelly"`
	BaseFraction            float64      `yaml:"base_fraction"`
	PerTradeRiskFraction    float64      `yaml:"per_trade_risk_fraction"`
	VolatilityLookback      int          `yaml:"volatility_lookback"`
	VolatilityFloor         float64      `yaml:"volatility_floor"`
	DrawdownContributionCap float64      `yaml:"drawdown_contribution_cap"`
	MinPositionSize         float64      `yaml:"min_position_size"`
	MaxPositionSize         float64      `yaml:"max_position_size"`
}

// StopParams holds stop-loss configuration. MinStop and MaxStop bound the
// stop distance as fractions of the entry price; TrailDistance is an
// absolute price distance.
type StopParams struct {
	Method          StopMethod `yaml:"method"`
	ATRPeriod       int        `yaml:"atr_period"`
	ATRMultiplier   float64    `yaml:"atr_multiplier"`
	StopPercent     float64    `yaml:"stop_percent"`
	TrailDistance   float64    `yaml:"trail_distance"`
	TrailActivation float64    `yaml:"trail_activation"` // unrealized-profit fraction that arms the trail
	SRLookback      int        `yaml:"sr_lookback"`
	SRBuffer        float64    `yaml:"sr_buffer"`
	MinStop         float64    `yaml:"min_stop"`
	MaxStop         float64    `yaml:"max_stop"`
	MaxHolding      Duration   `yaml:"max_holding"`
}

// TakeProfitTier is one scale-out step: close Fraction of the position
// once price reaches DistanceMultiple times the initial stop distance
// beyond entry.
type TakeProfitTier struct {
	DistanceMultiple float64 `yaml:"distance_multiple"`
	Fraction         float64 `yaml:"fraction"`
}

// TargetParams holds take-profit configuration
type TargetParams struct {
	Method          TargetMethod     `yaml:"method"`
	RiskRewardRatio float64          `yaml:"risk_reward_ratio"`
	FibLookback     int              `yaml:"fib_lookback"`
	MAPeriod        int              `yaml:"ma_period"`
	Tiers           []TakeProfitTier `yaml:"tiers"`
}

// ScoreWeights blends the composite risk score inputs. Weights are
// configuration, not hard-coded; they are normalized at use.
type ScoreWeights struct {
	VaRRatio      float64 `yaml:"var_ratio"`
	Concentration float64 `yaml:"concentration"`
	Correlation   float64 `yaml:"correlation"`
}

// LimitParams holds the standing portfolio limits and assessment settings
type LimitParams struct {
	MaxPortfolioRisk    float64      `yaml:"max_portfolio_risk"`
	MaxSinglePosition   float64      `yaml:"max_single_position"`
	MaxSectorExposure   float64      `yaml:"max_sector_exposure"`
	MaxCorrelation      float64      `yaml:"max_correlation"`
	MaxDrawdown         float64      `yaml:"max_drawdown"`
	VaRConfidenceLevels []float64    `yaml:"var_confidence_levels"`
	VaRMethod           VaRMethod    `yaml:"var_method"`
	ScoreWeights        ScoreWeights `yaml:"score_weights"`
	SnapshotHistorySize int          `yaml:"snapshot_history_size"`
	AlertCooldown       Duration     `yaml:"alert_cooldown"`
	StalenessThreshold  Duration     `yaml:"staleness_threshold"`
}

// RegimeAdjustment scales resolved parameters for an active market regime.
// A zero multiplier in the file is normalized to 1.0 (no adjustment).
type RegimeAdjustment struct {
	SizeMultiplier   float64 `yaml:"size_multiplier"`
	StopMultiplier   float64 `yaml:"stop_multiplier"`
	TargetMultiplier float64 `yaml:"target_multiplier"`
}

// File is the full on-disk risk configuration
type File struct {
	Version        string                       `yaml:"version"`
	GlobalRisk     LimitParams                  `yaml:"global_risk"`
	PositionSizing SizingParams                 `yaml:"position_sizing"`
	StopLoss       StopParams                   `yaml:"stop_loss"`
	TakeProfit     TargetParams                 `yaml:"take_profit"`
	Strategies     map[string]*LayerOverride    `yaml:"strategies"`
	Regimes        map[string]*RegimeAdjustment `yaml:"regimes"`
	Profiles       map[string]*LayerOverride    `yaml:"profiles"`
}

// ResolvedParams is the single effective parameter set handed to the
// risk engine, stop-loss manager and portfolio monitor for one
// (strategy, regime, profile) selection.
type ResolvedParams struct {
	Strategy string
	Regime   regime.Type
	Profile  string

	Sizing  SizingParams
	Stops   StopParams
	Targets TargetParams
	Limits  LimitParams
}

// DefaultSizingParams returns the built-in sizing defaults
func DefaultSizingParams() SizingParams {
	return SizingParams{
		Method:                  SizingFixedFraction,
		MaxKellyFraction:        0.25,
		MinTradesForKelly:       20,
		BaseFraction:            0.05,
		PerTradeRiskFraction:    0.01,
		VolatilityLookback:      20,
		VolatilityFloor:         1e-6,
		DrawdownContributionCap: 0.05,
		MinPositionSize:         0.0,
		MaxPositionSize:         0.25,
	}
}

// DefaultStopParams returns the built-in stop-loss defaults
func DefaultStopParams() StopParams {
	return StopParams{
		Method:          StopATR,
		ATRPeriod:       14,
		ATRMultiplier:   2.0,
		StopPercent:     0.02,
		TrailDistance:   0.0,
		TrailActivation: 0.05,
		SRLookback:      50,
		SRBuffer:        0.002,
		MinStop:         0.002,
		MaxStop:         0.10,
		MaxHolding:      0,
	}
}

// DefaultTargetParams returns the built-in take-profit defaults
func DefaultTargetParams() TargetParams {
	return TargetParams{
		Method:          TargetRiskReward,
		RiskRewardRatio: 2.0,
		FibLookback:     50,
		MAPeriod:        20,
		Tiers: []TakeProfitTier{
			{DistanceMultiple: 1.0, Fraction: 0.5},
			{DistanceMultiple: 2.0, Fraction: 0.5},
		},
	}
}

// DefaultLimitParams returns the built-in portfolio limits
func DefaultLimitParams() LimitParams {
	return LimitParams{
		MaxPortfolioRisk:    0.05,
		MaxSinglePosition:   0.10,
		MaxSectorExposure:   0.25,
		MaxCorrelation:      0.80,
		MaxDrawdown:         0.20,
		VaRConfidenceLevels: []float64{0.95, 0.99},
		VaRMethod:           VaRParametric,
		ScoreWeights: ScoreWeights{
			VaRRatio:      0.40,
			Concentration: 0.35,
			Correlation:   0.25,
		},
		SnapshotHistorySize: 500,
		AlertCooldown:       Duration(5 * time.Minute),
		StalenessThreshold:  Duration(2 * time.Minute),
	}
}

// DefaultFile returns a complete default configuration. File values
// loaded from disk are unmarshaled over these defaults so unset keys
// inherit them.
func DefaultFile() *File {
	return &File{
		Version:        "1",
		GlobalRisk:     DefaultLimitParams(),
		PositionSizing: DefaultSizingParams(),
		StopLoss:       DefaultStopParams(),
		TakeProfit:     DefaultTargetParams(),
		Strategies:     map[string]*LayerOverride{},
		Regimes:        map[string]*RegimeAdjustment{},
		Profiles:       map[string]*LayerOverride{},
	}
}
