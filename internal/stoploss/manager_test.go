package stoploss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

func testParams() *config.ResolvedParams {
	return &config.ResolvedParams{
		Sizing:  config.DefaultSizingParams(),
		Stops:   config.DefaultStopParams(),
		Targets: config.DefaultTargetParams(),
		Limits:  config.DefaultLimitParams(),
	}
}

// flatCandles builds candles with a constant true range of 2 around a
// flat close of 100
func flatCandles(n int) []types.OHLCV {
	now := time.Now()
	candles := make([]types.OHLCV, n)
	for i := range candles {
		candles[i] = types.OHLCV{
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    1000,
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}
	}
	return candles
}

// rangeCandles builds candles bounded by a fixed high and low
func rangeCandles(n int, high, low float64) []types.OHLCV {
	now := time.Now()
	candles := make([]types.OHLCV, n)
	for i := range candles {
		candles[i] = types.OHLCV{
			Open:      (high + low) / 2,
			High:      high,
			Low:       low,
			Close:     (high + low) / 2,
			Volume:    1000,
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}
	}
	return candles
}

func longPosition(entry float64) *portfolio.Position {
	return &portfolio.Position{
		ID:         "pos1",
		Symbol:     "BTCUSDT",
		Quantity:   1,
		EntryPrice: entry,
		EntryTime:  time.Now(),
		MarkPrice:  entry,
		Exit:       portfolio.ExitState{Phase: portfolio.ExitArmed},
	}
}

// TestComputeLevels_ATRStop tests ATR-based stop placement
func TestComputeLevels_ATRStop(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()

	// ATR 2.0 with multiplier 2.0 puts the stop 4 below entry.
	levels := mgr.ComputeLevels(types.DirectionLong, 100, flatCandles(20), params)
	assert.InDelta(t, 96.0, levels.StopLoss, 1e-9)
}

// TestComputeLevels_ATRFallsBackToPercent tests degradation when there
// is not enough candle history
func TestComputeLevels_ATRFallsBackToPercent(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()

	levels := mgr.ComputeLevels(types.DirectionLong, 100, flatCandles(3), params)
	// Percent stop 2% of entry.
	assert.InDelta(t, 98.0, levels.StopLoss, 1e-9)
}

// TestComputeLevels_StopClampedToBounds tests the min/max stop clamp
func TestComputeLevels_StopClampedToBounds(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Stops.Method = config.StopPercent
	params.Stops.StopPercent = 0.5 // far beyond max_stop 0.10

	levels := mgr.ComputeLevels(types.DirectionLong, 100, nil, params)
	assert.InDelta(t, 90.0, levels.StopLoss, 1e-9)

	params.Stops.StopPercent = 0.0001 // below min_stop 0.002
	levels = mgr.ComputeLevels(types.DirectionLong, 100, nil, params)
	assert.InDelta(t, 99.8, levels.StopLoss, 1e-9)
}

// TestComputeLevels_SupportStopForLong tests that the structural stop
// for a long sits at the padded lowest low
func TestComputeLevels_SupportStopForLong(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Stops.Method = config.StopSupportResistance

	history := rangeCandles(20, 101, 95)
	levels := mgr.ComputeLevels(types.DirectionLong, 100, history, params)

	// Support 95 padded by the 0.2% buffer.
	assert.InDelta(t, 95*(1-0.002), levels.StopLoss, 1e-9)
}

// TestComputeLevels_ResistanceStopForShort tests that a short's
// structural stop sits at the padded highest high, not mirrored from
// support
func TestComputeLevels_ResistanceStopForShort(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Stops.Method = config.StopSupportResistance

	history := rangeCandles(20, 101, 95)
	levels := mgr.ComputeLevels(types.DirectionShort, 100, history, params)

	// Resistance 101 padded by the 0.2% buffer, just above entry.
	assert.InDelta(t, 101*(1+0.002), levels.StopLoss, 1e-9)
	assert.Less(t, levels.StopLoss, 102.0)
}

// TestComputeLevels_ShortStopAboveEntry tests stop placement for shorts
func TestComputeLevels_ShortStopAboveEntry(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()

	levels := mgr.ComputeLevels(types.DirectionShort, 100, flatCandles(20), params)
	assert.InDelta(t, 104.0, levels.StopLoss, 1e-9)
}

// TestComputeLevels_TieredTargets tests the scale-out ladder
func TestComputeLevels_TieredTargets(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Targets.Method = config.TargetTiered

	levels := mgr.ComputeLevels(types.DirectionLong, 100, flatCandles(20), params)
	require.Len(t, levels.TakeProfits, 2)

	// Stop distance 4: tiers at 1x and 2x.
	assert.InDelta(t, 104.0, levels.TakeProfits[0].Price, 1e-9)
	assert.InDelta(t, 108.0, levels.TakeProfits[1].Price, 1e-9)
	assert.Equal(t, 0.5, levels.TakeProfits[0].Fraction)
	assert.False(t, levels.TakeProfits[0].Fired)
}

// TestComputeLevels_RiskRewardTarget tests the single-target method
func TestComputeLevels_RiskRewardTarget(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Targets.Method = config.TargetRiskReward

	levels := mgr.ComputeLevels(types.DirectionLong, 100, flatCandles(20), params)
	require.Len(t, levels.TakeProfits, 1)
	assert.InDelta(t, 108.0, levels.TakeProfits[0].Price, 1e-9) // 2x the 4-point stop
	assert.Equal(t, 1.0, levels.TakeProfits[0].Fraction)
}

// TestOnPriceUpdate_TrailingRatchet tests activation, the monotone
// high-water mark and the final trigger
func TestOnPriceUpdate_TrailingRatchet(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Stops.TrailDistance = 3.0
	params.Stops.TrailActivation = 0.05

	pos := longPosition(100)
	pos.StopLoss = 96
	now := time.Now()

	// Below activation: stop untouched.
	reqs := mgr.OnPriceUpdate(pos, 103, now, params)
	assert.Empty(t, reqs)
	assert.Equal(t, portfolio.ExitArmed, pos.Exit.Phase)
	assert.InDelta(t, 96.0, pos.StopLoss, 1e-9)

	// 6% profit activates the trail and lifts the stop.
	reqs = mgr.OnPriceUpdate(pos, 106, now, params)
	assert.Empty(t, reqs)
	assert.Equal(t, portfolio.ExitTrailing, pos.Exit.Phase)
	assert.InDelta(t, 103.0, pos.StopLoss, 1e-9)

	// New high ratchets further.
	reqs = mgr.OnPriceUpdate(pos, 110, now, params)
	assert.Empty(t, reqs)
	assert.InDelta(t, 110.0, pos.Exit.HighWater, 1e-9)
	assert.InDelta(t, 107.0, pos.StopLoss, 1e-9)

	// Pullback never lowers the stop.
	reqs = mgr.OnPriceUpdate(pos, 108, now, params)
	assert.Empty(t, reqs)
	assert.InDelta(t, 107.0, pos.StopLoss, 1e-9)

	// Crossing the trailed stop triggers a full exit.
	reqs = mgr.OnPriceUpdate(pos, 106.5, now, params)
	require.Len(t, reqs, 1)
	assert.Equal(t, ReasonTrailingStop, reqs[0].Reason)
	assert.Equal(t, 1.0, reqs[0].Fraction)
	assert.Equal(t, portfolio.ExitTriggered, pos.Exit.Phase)
}

// TestOnPriceUpdate_TerminalPhaseIsNoOp tests idempotent re-evaluation
func TestOnPriceUpdate_TerminalPhaseIsNoOp(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()

	pos := longPosition(100)
	pos.StopLoss = 96
	now := time.Now()

	reqs := mgr.OnPriceUpdate(pos, 95, now, params)
	require.Len(t, reqs, 1)
	assert.Equal(t, ReasonStopLoss, reqs[0].Reason)

	// Replaying the same update emits nothing new.
	reqs = mgr.OnPriceUpdate(pos, 95, now, params)
	assert.Empty(t, reqs)
	assert.Equal(t, portfolio.ExitTriggered, pos.Exit.Phase)
}

// TestOnPriceUpdate_TiersFireOnce tests take-profit idempotence and the
// fraction conversion for sequential partial closes
func TestOnPriceUpdate_TiersFireOnce(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()

	pos := longPosition(100)
	pos.StopLoss = 96
	pos.TakeProfits = []portfolio.TakeProfitTier{
		{Price: 104, Fraction: 0.5},
		{Price: 108, Fraction: 0.5},
	}
	now := time.Now()

	reqs := mgr.OnPriceUpdate(pos, 104.5, now, params)
	require.Len(t, reqs, 1)
	assert.Equal(t, ReasonTakeProfitTier, reqs[0].Reason)
	assert.InDelta(t, 0.5, reqs[0].Fraction, 1e-9)
	assert.True(t, pos.TakeProfits[0].Fired)

	// Same price again: the fired tier stays quiet.
	reqs = mgr.OnPriceUpdate(pos, 104.5, now, params)
	assert.Empty(t, reqs)

	// Second tier closes the remainder: 0.5 of original is all of what
	// is left.
	reqs = mgr.OnPriceUpdate(pos, 108.5, now, params)
	require.Len(t, reqs, 1)
	assert.InDelta(t, 1.0, reqs[0].Fraction, 1e-9)
	assert.Equal(t, portfolio.ExitTriggered, pos.Exit.Phase)
}

// TestOnPriceUpdate_BothTiersInOneSweep tests a gap through the whole
// ladder in a single update
func TestOnPriceUpdate_BothTiersInOneSweep(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()

	pos := longPosition(100)
	pos.StopLoss = 96
	pos.TakeProfits = []portfolio.TakeProfitTier{
		{Price: 104, Fraction: 0.5},
		{Price: 108, Fraction: 0.5},
	}

	reqs := mgr.OnPriceUpdate(pos, 120, time.Now(), params)
	require.Len(t, reqs, 2)
	assert.InDelta(t, 0.5, reqs[0].Fraction, 1e-9)
	assert.InDelta(t, 1.0, reqs[1].Fraction, 1e-9)
	assert.Equal(t, portfolio.ExitTriggered, pos.Exit.Phase)
}

// TestOnPriceUpdate_TimeExit tests expiry after the holding limit
func TestOnPriceUpdate_TimeExit(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Stops.MaxHolding = config.Duration(time.Hour)

	pos := longPosition(100)
	pos.StopLoss = 96

	// Within the window: nothing happens.
	reqs := mgr.OnPriceUpdate(pos, 100, pos.EntryTime.Add(30*time.Minute), params)
	assert.Empty(t, reqs)

	reqs = mgr.OnPriceUpdate(pos, 100, pos.EntryTime.Add(2*time.Hour), params)
	require.Len(t, reqs, 1)
	assert.Equal(t, ReasonTimeExit, reqs[0].Reason)
	assert.Equal(t, 1.0, reqs[0].Fraction)
	assert.Equal(t, portfolio.ExitExpired, pos.Exit.Phase)

	// Expired is terminal.
	reqs = mgr.OnPriceUpdate(pos, 90, pos.EntryTime.Add(3*time.Hour), params)
	assert.Empty(t, reqs)
}

// TestOnPriceUpdate_ShortStopAndTrail tests the mirrored short-side
// behavior
func TestOnPriceUpdate_ShortStopAndTrail(t *testing.T) {
	mgr := NewManager(nil)
	params := testParams()
	params.Stops.TrailDistance = 3.0
	params.Stops.TrailActivation = 0.05

	pos := longPosition(100)
	pos.Quantity = -1
	pos.StopLoss = 104
	now := time.Now()

	// 6% profit on a short means price fell to 94.
	reqs := mgr.OnPriceUpdate(pos, 94, now, params)
	assert.Empty(t, reqs)
	assert.Equal(t, portfolio.ExitTrailing, pos.Exit.Phase)
	assert.InDelta(t, 97.0, pos.StopLoss, 1e-9)

	reqs = mgr.OnPriceUpdate(pos, 90, now, params)
	assert.Empty(t, reqs)
	assert.InDelta(t, 93.0, pos.StopLoss, 1e-9)

	reqs = mgr.OnPriceUpdate(pos, 93.5, now, params)
	require.Len(t, reqs, 1)
	assert.Equal(t, ReasonTrailingStop, reqs[0].Reason)
}
