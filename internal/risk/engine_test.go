package risk

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

// alternatingReturns builds a zero-mean series with per-bar volatility
// close to amplitude
func alternatingReturns(n int, amplitude float64) []float64 {
	returns := make([]float64, n)
	for i := range returns {
		if i%2 == 0 {
			returns[i] = amplitude
		} else {
			returns[i] = -amplitude
		}
	}
	return returns
}

func longSignal(symbol string) types.Signal {
	return types.Signal{
		Symbol:         symbol,
		Sector:         "crypto",
		Strategy:       "momentum",
		Direction:      types.DirectionLong,
		Strength:       0.5,
		WinProbability: 0.6,
		PayoffRatio:    2.0,
		Timestamp:      time.Now(),
	}
}

// TestPositionSize_KellyClampedToCap tests that the raw Kelly fraction
// is clamped to max_kelly_fraction
func TestPositionSize_KellyClampedToCap(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(30, 0.001)

	params := testParams()
	params.Sizing.Method = config.SizingKelly

	// p=0.6, b=2 gives raw f* = 0.4, above the 0.25 cap.
	result, err := engine.PositionSize(longSignal("BTCUSDT"), pf, 100, params)
	require.NoError(t, err)

	assert.False(t, result.FellBack)
	assert.InDelta(t, 0.25, result.Fraction, 1e-9)
	assert.InDelta(t, 2500.0, result.Notional, 1e-6)
	assert.InDelta(t, 25.0, result.Quantity, 1e-6)
}

// TestPositionSize_KellyNegativeEdge tests that a losing edge sizes to
// the minimum, not short
func TestPositionSize_KellyNegativeEdge(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(30, 0.001)

	params := testParams()
	params.Sizing.Method = config.SizingKelly

	sig := longSignal("BTCUSDT")
	sig.WinProbability = 0.3 // f* = (2*0.3 - 0.7)/2 < 0

	result, err := engine.PositionSize(sig, pf, 100, params)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Fraction)
	assert.Equal(t, 0.0, result.Quantity)
}

// TestPositionSize_MinClipDoesNotResurrectZero tests that a declined
// trade stays declined when a minimum position size is configured
func TestPositionSize_MinClipDoesNotResurrectZero(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(30, 0.001)

	params := testParams()
	params.Sizing.Method = config.SizingKelly
	params.Sizing.MinPositionSize = 0.02

	sig := longSignal("BTCUSDT")
	sig.WinProbability = 0.3 // losing edge, Kelly sizes to zero

	result, err := engine.PositionSize(sig, pf, 100, params)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Fraction, "the minimum clip must not open a position on a losing edge")
	assert.Equal(t, 0.0, result.Quantity)
}

// TestPositionSize_KellyFallsBackOnShortHistory tests the degradation
// to fixed-fractional sizing
func TestPositionSize_KellyFallsBackOnShortHistory(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(5, 0.001) // below min_trades_for_kelly

	params := testParams()
	params.Sizing.Method = config.SizingKelly

	result, err := engine.PositionSize(longSignal("BTCUSDT"), pf, 100, params)
	require.NoError(t, err)

	assert.True(t, result.FellBack, "short history must degrade, not fail")
	assert.InDelta(t, params.Sizing.BaseFraction, result.Fraction, 1e-9)
}

// TestPositionSize_RiskParityInverseVolatility tests that the less
// volatile candidate receives the larger weight
func TestPositionSize_RiskParityInverseVolatility(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(30, 0.01)
	pf.SymbolReturns["ETHUSDT"] = alternatingReturns(30, 0.04)
	pf.Positions = append(pf.Positions, &portfolio.Position{
		ID: "p1", Symbol: "ETHUSDT", Quantity: 10, EntryPrice: 100, MarkPrice: 100,
	})

	params := testParams()
	params.Sizing.Method = config.SizingRiskParity
	params.Sizing.MaxPositionSize = 1.0

	result, err := engine.PositionSize(longSignal("BTCUSDT"), pf, 100, params)
	require.NoError(t, err)

	// Inverse-vol weights: (1/0.01) / (1/0.01 + 1/0.04) = 0.8.
	assert.InDelta(t, 0.8, result.Fraction, 1e-6)
}

// TestPositionSize_VolatilityTargeting tests sigma-scaled sizing
func TestPositionSize_VolatilityTargeting(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(30, 0.01)

	params := testParams()
	params.Sizing.Method = config.SizingVolatility
	params.Sizing.MaxPositionSize = 1.0

	result, err := engine.PositionSize(longSignal("BTCUSDT"), pf, 100, params)
	require.NoError(t, err)

	// per_trade_risk 0.01 / sigma 0.01 = 1.0 of equity.
	assert.InDelta(t, 1.0, result.Fraction, 1e-6)
}

// TestPositionSize_DrawdownCapScalesDown tests the universal projected
// contribution cap
func TestPositionSize_DrawdownCapScalesDown(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(30, 0.05)

	params := testParams()
	params.Sizing.Method = config.SizingFixedFraction
	params.Sizing.BaseFraction = 0.9
	params.Sizing.MaxPositionSize = 1.0
	params.Sizing.DrawdownContributionCap = 0.02

	result, err := engine.PositionSize(longSignal("BTCUSDT"), pf, 100, params)
	require.NoError(t, err)

	unitVaR := ParametricVaR(pf.SymbolReturns["BTCUSDT"], 0.95)
	require.Greater(t, unitVaR, 0.0)
	assert.InDelta(t, 0.02/unitVaR, result.Fraction, 1e-9)
	assert.Less(t, result.Fraction, 0.9)
}

// TestPositionSize_ShortQuantityIsNegative tests the signed quantity
func TestPositionSize_ShortQuantityIsNegative(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)

	params := testParams()
	sig := longSignal("BTCUSDT")
	sig.Direction = types.DirectionShort

	result, err := engine.PositionSize(sig, pf, 100, params)
	require.NoError(t, err)
	assert.Negative(t, result.Quantity)
	assert.Positive(t, result.Notional)
}

// TestPositionSize_InvalidPrice tests the hard input guard
func TestPositionSize_InvalidPrice(t *testing.T) {
	engine := NewEngine(nil)
	pf := portfolio.New(10000)

	_, err := engine.PositionSize(longSignal("BTCUSDT"), pf, 0, testParams())
	assert.Error(t, err)
}

// TestComputeSnapshot_ScoreBounds tests that the composite score stays
// within [1, 10] even under extreme inputs
func TestComputeSnapshot_ScoreBounds(t *testing.T) {
	engine := NewEngine(nil)
	params := testParams()
	now := time.Now()

	empty := portfolio.New(10000)
	snap := engine.ComputeSnapshot(empty, nil, params, now)
	assert.GreaterOrEqual(t, snap.Score, 1.0)
	assert.LessOrEqual(t, snap.Score, 10.0)

	// Concentrated, volatile portfolio.
	loaded := portfolio.New(1000)
	loaded.Positions = append(loaded.Positions, &portfolio.Position{
		ID: "p1", Symbol: "BTCUSDT", Sector: "crypto", Quantity: 90, EntryPrice: 100, MarkPrice: 100,
	})
	for i := 0; i < 50; i++ {
		price := 100.0 + float64(i%7)*8
		loaded.MarkToMarket("BTCUSDT", price, now.Add(time.Duration(i)*time.Minute))
	}

	snap = engine.ComputeSnapshot(loaded, nil, params, now)
	assert.GreaterOrEqual(t, snap.Score, 1.0)
	assert.LessOrEqual(t, snap.Score, 10.0)
	assert.Greater(t, snap.Score, 1.0, "a concentrated portfolio must not score as riskless")
}

// TestComputeSnapshot_Deterministic tests that identical inputs yield
// identical snapshots
func TestComputeSnapshot_Deterministic(t *testing.T) {
	engine := NewEngine(nil)
	params := testParams()
	now := time.Now()

	pf := portfolio.New(10000)
	pf.Positions = append(pf.Positions,
		&portfolio.Position{ID: "a", Symbol: "ETHUSDT", Sector: "crypto", Quantity: 5, EntryPrice: 100, MarkPrice: 100},
		&portfolio.Position{ID: "b", Symbol: "BTCUSDT", Sector: "crypto", Quantity: 1, EntryPrice: 500, MarkPrice: 500},
	)
	pf.SymbolReturns["BTCUSDT"] = alternatingReturns(20, 0.01)
	pf.SymbolReturns["ETHUSDT"] = alternatingReturns(20, 0.02)

	first := engine.ComputeSnapshot(pf, nil, params, now)
	second := engine.ComputeSnapshot(pf, nil, params, now)

	assert.Equal(t, first.Symbols, second.Symbols)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, first.Symbols, "symbols must be sorted")
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.VaR, second.VaR)
	assert.Equal(t, first.Correlations, second.Correlations)
}

// TestComputeSnapshot_CandidateIncluded tests pre-trade concentration
func TestComputeSnapshot_CandidateIncluded(t *testing.T) {
	engine := NewEngine(nil)
	params := testParams()

	pf := portfolio.New(10000)
	candidate := &portfolio.Position{
		ID: "cand", Symbol: "BTCUSDT", Sector: "crypto", Quantity: 20, EntryPrice: 100, MarkPrice: 100,
	}

	snap := engine.ComputeSnapshot(pf, candidate, params, time.Now())
	assert.InDelta(t, 0.2, snap.SymbolConcentration["BTCUSDT"], 1e-9)
	assert.InDelta(t, 0.2, snap.SectorConcentration["crypto"], 1e-9)
	assert.Empty(t, pf.Positions, "assessment must not commit the candidate")
}

// TestComputeSnapshot_CandidateRaisesVaR tests that the candidate's
// weighted return series feeds the pre-trade VaR, not only the
// concentration figures
func TestComputeSnapshot_CandidateRaisesVaR(t *testing.T) {
	engine := NewEngine(nil)
	params := testParams()
	now := time.Now()

	// Flat equity history: the standing portfolio carries no VaR.
	pf := portfolio.New(10000)
	for i := 0; i < 30; i++ {
		pf.MarkToMarket("ETHUSDT", 100, now.Add(time.Duration(i)*time.Minute))
	}
	pf.SymbolReturns["ETHUSDT"] = alternatingReturns(30, 0.05)

	base := engine.ComputeSnapshot(pf, nil, params, now)
	assert.Equal(t, 0.0, base.VaR[0.95])

	candidate := &portfolio.Position{
		ID: "cand", Symbol: "ETHUSDT", Sector: "crypto", Quantity: 20, EntryPrice: 100, MarkPrice: 100,
	}
	withCandidate := engine.ComputeSnapshot(pf, candidate, params, now)

	assert.Greater(t, withCandidate.VaR[0.95], 0.0,
		"a volatile candidate must raise the projected VaR")
	assert.GreaterOrEqual(t, withCandidate.VaR[0.99], withCandidate.VaR[0.95])
}

// TestComputeSnapshot_VaRLevels tests that every configured level is
// populated and ordered
func TestComputeSnapshot_VaRLevels(t *testing.T) {
	engine := NewEngine(nil)
	params := testParams()
	now := time.Now()

	pf := portfolio.New(10000)
	pf.Positions = append(pf.Positions, &portfolio.Position{
		ID: "p1", Symbol: "BTCUSDT", Quantity: 10, EntryPrice: 100, MarkPrice: 100,
	})
	for i := 0; i < 40; i++ {
		price := 100.0 * (1 + 0.01*float64(i%5-2))
		pf.MarkToMarket("BTCUSDT", price, now.Add(time.Duration(i)*time.Minute))
	}

	snap := engine.ComputeSnapshot(pf, nil, params, now)
	assert.Len(t, snap.VaR, 2)
	assert.GreaterOrEqual(t, snap.VaR[0.99], snap.VaR[0.95])
	assert.GreaterOrEqual(t, snap.ExpectedShortfall, snap.VaR[0.95])
}
