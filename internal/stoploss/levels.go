package stoploss

import (
	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/indicators"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// EntryLevels bundles the protective stop and take-profit ladder
// computed at trade acceptance.
type EntryLevels struct {
	StopLoss    float64
	TakeProfits []portfolio.TakeProfitTier
}

// ComputeLevels derives the initial stop and target ladder for a new
// position from recent candles and the resolved parameters. Methods
// that need more history than is available degrade to their simpler
// counterpart (percent stop, risk-reward target) rather than failing.
func (m *Manager) ComputeLevels(dir types.Direction, entry float64, history []types.OHLCV, params *config.ResolvedParams) *EntryLevels {
	stopDistance := m.stopDistance(dir, entry, history, &params.Stops)
	stop := entry - dir.Sign()*stopDistance

	return &EntryLevels{
		StopLoss:    stop,
		TakeProfits: m.targets(dir, entry, stopDistance, history, &params.Targets),
	}
}

// stopDistance returns the stop distance as a positive price offset
// from entry, clamped to the configured fraction-of-entry bounds.
// Longs stop below support, shorts above resistance.
func (m *Manager) stopDistance(dir types.Direction, entry float64, history []types.OHLCV, stops *config.StopParams) float64 {
	distance := entry * stops.StopPercent

	switch stops.Method {
	case config.StopATR:
		atr, err := indicators.ATR(history, stops.ATRPeriod)
		if err != nil {
			if m.log != nil {
				m.log.LogWarning("Stop Fallback", "ATR unavailable (%v), using percent stop", err)
			}
			break
		}
		distance = atr * stops.ATRMultiplier
	case config.StopSupportResistance:
		level, ok := m.structuralLevel(dir, history, stops)
		if !ok {
			if m.log != nil {
				m.log.LogWarning("Stop Fallback", "no structural level in %d candles, using percent stop", stops.SRLookback)
			}
			break
		}
		if d := dir.Sign() * (entry - level); d > 0 {
			distance = d
		}
	case config.StopPercent, config.StopTrailing, config.StopTime:
		// Percent distance; trailing and time stops start from the
		// same protective level and tighten dynamically.
	}

	// Clamp keeps the stop outside the noise band but inside the
	// tolerable loss band.
	if min := entry * stops.MinStop; distance < min {
		distance = min
	}
	if max := entry * stops.MaxStop; stops.MaxStop > 0 && distance > max {
		distance = max
	}
	return distance
}

// structuralLevel finds the protective price structure for the trade
// side: the lowest low (support) for longs, the highest high
// (resistance) for shorts. The buffer pads the level so ordinary wicks
// through it do not stop the trade.
func (m *Manager) structuralLevel(dir types.Direction, history []types.OHLCV, stops *config.StopParams) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}
	window := history
	if stops.SRLookback > 0 && len(window) > stops.SRLookback {
		window = window[len(window)-stops.SRLookback:]
	}

	if dir == types.DirectionShort {
		high := window[0].High
		for _, candle := range window[1:] {
			if candle.High > high {
				high = candle.High
			}
		}
		return high * (1 + stops.SRBuffer), true
	}

	low := window[0].Low
	for _, candle := range window[1:] {
		if candle.Low < low {
			low = candle.Low
		}
	}
	return low * (1 - stops.SRBuffer), true
}

// targets builds the take-profit ladder. Single-level methods produce
// one full-size tier; the tiered method maps each configured tier's
// distance multiple onto the stop distance.
func (m *Manager) targets(dir types.Direction, entry, stopDistance float64, history []types.OHLCV, targets *config.TargetParams) []portfolio.TakeProfitTier {
	sign := dir.Sign()

	switch targets.Method {
	case config.TargetTiered:
		tiers := make([]portfolio.TakeProfitTier, 0, len(targets.Tiers))
		for _, tier := range targets.Tiers {
			tiers = append(tiers, portfolio.TakeProfitTier{
				Price:    entry + sign*stopDistance*tier.DistanceMultiple,
				Fraction: tier.Fraction,
			})
		}
		return tiers

	case config.TargetFibonacci:
		if high, low, ok := swingRange(history, targets.FibLookback); ok && high > low {
			swing := high - low
			return []portfolio.TakeProfitTier{
				{Price: entry + sign*swing*0.618, Fraction: 0.5},
				{Price: entry + sign*swing*1.0, Fraction: 0.5},
			}
		}
		if m.log != nil {
			m.log.LogWarning("Target Fallback", "no swing range in %d candles, using risk-reward target", targets.FibLookback)
		}

	case config.TargetMovingAverage:
		if ma, err := indicators.SMA(history, targets.MAPeriod); err == nil {
			// The moving average only serves as a target when it sits
			// on the profitable side of entry.
			if sign*(ma-entry) > 0 {
				return []portfolio.TakeProfitTier{{Price: ma, Fraction: 1.0}}
			}
		} else if m.log != nil {
			m.log.LogWarning("Target Fallback", "SMA unavailable (%v), using risk-reward target", err)
		}
	}

	return []portfolio.TakeProfitTier{{
		Price:    entry + sign*stopDistance*targets.RiskRewardRatio,
		Fraction: 1.0,
	}}
}

// swingRange returns the high and low of the most recent lookback
// window.
func swingRange(history []types.OHLCV, lookback int) (high, low float64, ok bool) {
	if len(history) < 2 {
		return 0, 0, false
	}
	window := history
	if lookback > 0 && len(window) > lookback {
		window = window[len(window)-lookback:]
	}

	high, low = window[0].High, window[0].Low
	for _, candle := range window[1:] {
		if candle.High > high {
			high = candle.High
		}
		if candle.Low < low {
			low = candle.Low
		}
	}
	return high, low, true
}
