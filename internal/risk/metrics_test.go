package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
)

// TestParametricVaR_MonotonicInConfidence tests that higher confidence
// never produces a smaller VaR
func TestParametricVaR_MonotonicInConfidence(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.005, -0.015, 0.02, -0.01, 0.003, -0.007}

	var95 := ParametricVaR(returns, 0.95)
	var99 := ParametricVaR(returns, 0.99)

	assert.GreaterOrEqual(t, var95, 0.0)
	assert.GreaterOrEqual(t, var99, var95, "VaR99 must be at least VaR95")
}

// TestHistoricalVaR_MonotonicInConfidence tests the same invariant for
// the empirical estimator
func TestHistoricalVaR_MonotonicInConfidence(t *testing.T) {
	returns := make([]float64, 0, 100)
	for i := 0; i < 100; i++ {
		returns = append(returns, math.Sin(float64(i))*0.02)
	}

	var95 := HistoricalVaR(returns, 0.95)
	var99 := HistoricalVaR(returns, 0.99)

	assert.GreaterOrEqual(t, var95, 0.0)
	assert.GreaterOrEqual(t, var99, var95)
}

// TestParametricVaR_InsufficientData tests the degenerate short series
func TestParametricVaR_InsufficientData(t *testing.T) {
	assert.Equal(t, 0.0, ParametricVaR(nil, 0.95))
	assert.Equal(t, 0.0, ParametricVaR([]float64{0.01}, 0.95))
}

// TestExpectedShortfall_AtLeastVaR tests that ES dominates VaR
func TestExpectedShortfall_AtLeastVaR(t *testing.T) {
	returns := []float64{0.01, -0.03, 0.02, -0.05, 0.015, -0.02, 0.005, -0.01, 0.02, -0.04}

	v := ParametricVaR(returns, 0.95)
	es := ParametricES(returns, 0.95)
	assert.GreaterOrEqual(t, es, v)

	hv := HistoricalVaR(returns, 0.90)
	hes := HistoricalES(returns, 0.90)
	assert.GreaterOrEqual(t, hes, hv)
}

// TestNormalQuantile_KnownValues tests the approximation against table
// values
func TestNormalQuantile_KnownValues(t *testing.T) {
	assert.InDelta(t, 1.6449, normalQuantile(0.95), 1e-3)
	assert.InDelta(t, 2.3263, normalQuantile(0.99), 1e-3)
	assert.InDelta(t, 0.0, normalQuantile(0.5), 1e-9)
	assert.InDelta(t, -1.6449, normalQuantile(0.05), 1e-3)
}

// TestMaxDrawdown_PeakToTrough tests drawdown over a known curve
func TestMaxDrawdown_PeakToTrough(t *testing.T) {
	now := time.Now()
	curve := []portfolio.EquityPoint{
		{Timestamp: now, Equity: 100},
		{Timestamp: now.Add(time.Minute), Equity: 120},
		{Timestamp: now.Add(2 * time.Minute), Equity: 90},
		{Timestamp: now.Add(3 * time.Minute), Equity: 110},
	}

	// Peak 120, trough 90: drawdown 25%.
	assert.InDelta(t, 0.25, MaxDrawdown(curve), 1e-9)
}

// TestMaxDrawdown_MonotoneCurve tests that a rising curve has zero
// drawdown
func TestMaxDrawdown_MonotoneCurve(t *testing.T) {
	now := time.Now()
	curve := []portfolio.EquityPoint{
		{Timestamp: now, Equity: 100},
		{Timestamp: now.Add(time.Minute), Equity: 105},
		{Timestamp: now.Add(2 * time.Minute), Equity: 111},
	}
	assert.Equal(t, 0.0, MaxDrawdown(curve))
}

// TestCorrelation_PerfectlyCorrelated tests the boundary correlations
func TestCorrelation_PerfectlyCorrelated(t *testing.T) {
	a := []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	b := []float64{0.02, -0.04, 0.06, -0.02, 0.04}

	assert.InDelta(t, 1.0, Correlation(a, b), 1e-9)

	inverse := make([]float64, len(a))
	for i, v := range a {
		inverse[i] = -v
	}
	assert.InDelta(t, -1.0, Correlation(a, inverse), 1e-9)
}

// TestCorrelation_UnequalLengths tests alignment on the recent overlap
func TestCorrelation_UnequalLengths(t *testing.T) {
	long := []float64{0.5, -0.5, 0.01, -0.02, 0.03}
	short := []float64{0.01, -0.02, 0.03}

	assert.InDelta(t, 1.0, Correlation(long, short), 1e-9)
}

// TestCorrelation_ZeroVariance tests the flat-series guard
func TestCorrelation_ZeroVariance(t *testing.T) {
	flat := []float64{0.01, 0.01, 0.01}
	other := []float64{0.01, -0.02, 0.03}
	assert.Equal(t, 0.0, Correlation(flat, other))
}

// TestCorrelationMatrix_Symmetry tests matrix shape and symmetry
func TestCorrelationMatrix_Symmetry(t *testing.T) {
	series := [][]float64{
		{0.01, -0.02, 0.03, -0.01},
		{0.02, -0.01, 0.01, -0.02},
		{-0.01, 0.02, -0.03, 0.01},
	}

	matrix := CorrelationMatrix(series)
	assert.Len(t, matrix, 3)
	for i := range matrix {
		assert.Equal(t, 1.0, matrix[i][i])
		for j := range matrix {
			assert.Equal(t, matrix[i][j], matrix[j][i])
		}
	}
}

// TestBeta_DoubledBenchmark tests the regression slope
func TestBeta_DoubledBenchmark(t *testing.T) {
	benchmark := []float64{0.01, -0.02, 0.015, -0.005, 0.02}
	asset := make([]float64, len(benchmark))
	for i, r := range benchmark {
		asset[i] = 2 * r
	}

	assert.InDelta(t, 2.0, Beta(asset, benchmark), 1e-9)
}

// TestBeta_NoBenchmark tests the empty-benchmark guard
func TestBeta_NoBenchmark(t *testing.T) {
	assert.Equal(t, 0.0, Beta([]float64{0.01, 0.02}, nil))
}
