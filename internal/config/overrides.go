package config

// Override layers use pointer fields so "unset" is distinguishable from
// zero: only keys present in the YAML replace the inherited value.

// SizingOverride partially overrides SizingParams
type SizingOverride struct {
	Method                  *SizingMethod `yaml:"method"`
	MaxKellyFraction        *float64      `yaml:"max_kelly_fraction"`
	MinTradesForKelly       *int          `yaml:"min_trades_for_kelly"`
	BaseFraction            *float64      `yaml:"base_fraction"`
	PerTradeRiskFraction    *float64      `yaml:"per_trade_risk_fraction"`
	VolatilityLookback      *int          `yaml:"volatility_lookback"`
	VolatilityFloor         *float64      `yaml:"volatility_floor"`
	DrawdownContributionCap *float64      `yaml:"drawdown_contribution_cap"`
	MinPositionSize         *float64      `yaml:"min_position_size"`
	MaxPositionSize         *float64      `yaml:"max_position_size"`
}

func (o *SizingOverride) apply(p *SizingParams) {
	if o == nil {
		return
	}
	if o.Method != nil {
		p.Method = *o.Method
	}
	if o.MaxKellyFraction != nil {
		p.MaxKellyFraction = *o.MaxKellyFraction
	}
	if o.MinTradesForKelly != nil {
		p.MinTradesForKelly = *o.MinTradesForKelly
	}
	if o.BaseFraction != nil {
		p.BaseFraction = *o.BaseFraction
	}
	if o.PerTradeRiskFraction != nil {
		p.PerTradeRiskFraction = *o.PerTradeRiskFraction
	}
	if o.VolatilityLookback != nil {
		p.VolatilityLookback = *o.VolatilityLookback
	}
	if o.VolatilityFloor != nil {
		p.VolatilityFloor = *o.VolatilityFloor
	}
	if o.DrawdownContributionCap != nil {
		p.DrawdownContributionCap = *o.DrawdownContributionCap
	}
	if o.MinPositionSize != nil {
		p.MinPositionSize = *o.MinPositionSize
	}
	if o.MaxPositionSize != nil {
		p.MaxPositionSize = *o.MaxPositionSize
	}
}

// StopOverride partially overrides StopParams
type StopOverride struct {
	Method          *StopMethod `yaml:"method"`
	ATRPeriod       *int        `yaml:"atr_period"`
	ATRMultiplier   *float64    `yaml:"atr_multiplier"`
	StopPercent     *float64    `yaml:"stop_percent"`
	TrailDistance   *float64    `yaml:"trail_distance"`
	TrailActivation *float64    `yaml:"trail_activation"`
	SRLookback      *int        `yaml:"sr_lookback"`
	SRBuffer        *float64    `yaml:"sr_buffer"`
	MinStop         *float64    `yaml:"min_stop"`
	MaxStop         *float64    `yaml:"max_stop"`
	MaxHolding      *Duration   `yaml:"max_holding"`
}

func (o *StopOverride) apply(p *StopParams) {
	if o == nil {
		return
	}
	if o.Method != nil {
		p.Method = *o.Method
	}
	if o.ATRPeriod != nil {
		p.ATRPeriod = *o.ATRPeriod
	}
	if o.ATRMultiplier != nil {
		p.ATRMultiplier = *o.ATRMultiplier
	}
	if o.StopPercent != nil {
		p.StopPercent = *o.StopPercent
	}
	if o.TrailDistance != nil {
		p.TrailDistance = *o.TrailDistance
	}
	if o.TrailActivation != nil {
		p.TrailActivation = *o.TrailActivation
	}
	if o.SRLookback != nil {
		p.SRLookback = *o.SRLookback
	}
	if o.SRBuffer != nil {
		p.SRBuffer = *o.SRBuffer
	}
	if o.MinStop != nil {
		p.MinStop = *o.MinStop
	}
	if o.MaxStop != nil {
		p.MaxStop = *o.MaxStop
	}
	if o.MaxHolding != nil {
		p.MaxHolding = *o.MaxHolding
	}
}

// TargetOverride partially overrides TargetParams. Tiers replace the
// inherited schedule wholesale when present.
type TargetOverride struct {
	Method          *TargetMethod    `yaml:"method"`
	RiskRewardRatio *float64         `yaml:"risk_reward_ratio"`
	FibLookback     *int             `yaml:"fib_lookback"`
	MAPeriod        *int             `yaml:"ma_period"`
	Tiers           []TakeProfitTier `yaml:"tiers"`
}

func (o *TargetOverride) apply(p *TargetParams) {
	if o == nil {
		return
	}
	if o.Method != nil {
		p.Method = *o.Method
	}
	if o.RiskRewardRatio != nil {
		p.RiskRewardRatio = *o.RiskRewardRatio
	}
	if o.FibLookback != nil {
		p.FibLookback = *o.FibLookback
	}
	if o.MAPeriod != nil {
		p.MAPeriod = *o.MAPeriod
	}
	if o.Tiers != nil {
		p.Tiers = append([]TakeProfitTier(nil), o.Tiers...)
	}
}

// LimitOverride partially overrides LimitParams
type LimitOverride struct {
	MaxPortfolioRisk    *float64      `yaml:"max_portfolio_risk"`
	MaxSinglePosition   *float64      `yaml:"max_single_position"`
	MaxSectorExposure   *float64      `yaml:"max_sector_exposure"`
	MaxCorrelation      *float64      `yaml:"max_correlation"`
	MaxDrawdown         *float64      `yaml:"max_drawdown"`
	VaRConfidenceLevels []float64     `yaml:"var_confidence_levels"`
	VaRMethod           *VaRMethod    `yaml:"var_method"`
	ScoreWeights        *ScoreWeights `yaml:"score_weights"`
	SnapshotHistorySize *int          `yaml:"snapshot_history_size"`
	AlertCooldown       *Duration     `yaml:"alert_cooldown"`
	StalenessThreshold  *Duration     `yaml:"staleness_threshold"`
}

func (o *LimitOverride) apply(p *LimitParams) {
	if o == nil {
		return
	}
	if o.MaxPortfolioRisk != nil {
		p.MaxPortfolioRisk = *o.MaxPortfolioRisk
	}
	if o.MaxSinglePosition != nil {
		p.MaxSinglePosition = *o.MaxSinglePosition
	}
	if o.MaxSectorExposure != nil {
		p.MaxSectorExposure = *o.MaxSectorExposure
	}
	if o.MaxCorrelation != nil {
		p.MaxCorrelation = *o.MaxCorrelation
	}
	if o.MaxDrawdown != nil {
		p.MaxDrawdown = *o.MaxDrawdown
	}
	if o.VaRConfidenceLevels != nil {
		p.VaRConfidenceLevels = append([]float64(nil), o.VaRConfidenceLevels...)
	}
	if o.VaRMethod != nil {
		p.VaRMethod = *o.VaRMethod
	}
	if o.ScoreWeights != nil {
		p.ScoreWeights = *o.ScoreWeights
	}
	if o.SnapshotHistorySize != nil {
		p.SnapshotHistorySize = *o.SnapshotHistorySize
	}
	if o.AlertCooldown != nil {
		p.AlertCooldown = *o.AlertCooldown
	}
	if o.StalenessThreshold != nil {
		p.StalenessThreshold = *o.StalenessThreshold
	}
}

// LayerOverride groups the per-section overrides carried by one
// strategy block or one risk-profile template.
type LayerOverride struct {
	GlobalRisk     *LimitOverride  `yaml:"global_risk"`
	PositionSizing *SizingOverride `yaml:"position_sizing"`
	StopLoss       *StopOverride   `yaml:"stop_loss"`
	TakeProfit     *TargetOverride `yaml:"take_profit"`
}

func (l *LayerOverride) apply(p *ResolvedParams) {
	if l == nil {
		return
	}
	l.GlobalRisk.apply(&p.Limits)
	l.PositionSizing.apply(&p.Sizing)
	l.StopLoss.apply(&p.Stops)
	l.TakeProfit.apply(&p.Targets)
}

func (a *RegimeAdjustment) apply(p *ResolvedParams) {
	if a == nil {
		return
	}
	if a.SizeMultiplier > 0 && a.SizeMultiplier != 1 {
		p.Sizing.MaxKellyFraction *= a.SizeMultiplier
		p.Sizing.BaseFraction *= a.SizeMultiplier
		p.Sizing.PerTradeRiskFraction *= a.SizeMultiplier
		p.Sizing.MaxPositionSize *= a.SizeMultiplier
		if p.Sizing.MaxPositionSize > 1 {
			p.Sizing.MaxPositionSize = 1
		}
		if p.Sizing.MaxKellyFraction > 1 {
			p.Sizing.MaxKellyFraction = 1
		}
	}
	if a.StopMultiplier > 0 && a.StopMultiplier != 1 {
		p.Stops.ATRMultiplier *= a.StopMultiplier
		p.Stops.StopPercent *= a.StopMultiplier
		p.Stops.TrailDistance *= a.StopMultiplier
	}
	if a.TargetMultiplier > 0 && a.TargetMultiplier != 1 {
		p.Targets.RiskRewardRatio *= a.TargetMultiplier
		for i := range p.Targets.Tiers {
			p.Targets.Tiers[i].DistanceMultiple *= a.TargetMultiplier
		}
	}
}
