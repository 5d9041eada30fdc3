package risk

import (
	"math"
	"sort"

	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
)

// Statistical building blocks for the portfolio metrics. All functions
// are pure so snapshots are reproducible from their inputs.

// Mean returns the arithmetic mean of the series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of the series.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// quantile returns the q-th empirical quantile (0..1) with linear
// interpolation between order statistics.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// normalQuantile returns the standard-normal quantile for p in (0, 1)
// using the Acklam rational approximation (relative error below 1e-9).
func normalQuantile(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}

	a := []float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := []float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := []float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := []float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const pLow = 0.02425
	const pHigh = 1 - pLow

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > pHigh:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}

// normalPDF is the standard-normal density.
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// ParametricVaR estimates Value at Risk at the given confidence level
// assuming normally distributed returns: VaR = -mu + sigma*z. The
// result is a non-negative loss fraction; clamping at zero keeps VaR
// monotonically non-decreasing in the confidence level.
func ParametricVaR(returns []float64, confidence float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	v := -Mean(returns) + StdDev(returns)*normalQuantile(confidence)
	if v < 0 {
		return 0
	}
	return v
}

// HistoricalVaR estimates Value at Risk as the empirical quantile of
// past returns at the given confidence level.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	v := -quantile(returns, 1-confidence)
	if v < 0 {
		return 0
	}
	return v
}

// ParametricES is the closed-form normal expected shortfall:
// ES = -mu + sigma * pdf(z) / (1 - confidence).
func ParametricES(returns []float64, confidence float64) float64 {
	if len(returns) < 2 || confidence <= 0 || confidence >= 1 {
		return 0
	}
	z := normalQuantile(confidence)
	es := -Mean(returns) + StdDev(returns)*normalPDF(z)/(1-confidence)
	if es < 0 {
		return 0
	}
	return es
}

// HistoricalES is the mean loss at or beyond the historical VaR
// threshold. With no observations past the threshold it degrades to
// the VaR itself.
func HistoricalES(returns []float64, confidence float64) float64 {
	v := HistoricalVaR(returns, confidence)
	if v == 0 {
		return 0
	}

	var tail []float64
	for _, r := range returns {
		if -r >= v {
			tail = append(tail, -r)
		}
	}
	if len(tail) == 0 {
		return v
	}
	return Mean(tail)
}

// MaxDrawdown returns the maximum peak-to-trough decline of the equity
// curve as a fraction of the peak.
func MaxDrawdown(curve []portfolio.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	peak := curve[0].Equity
	maxDD := 0.0
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := (peak - point.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// Correlation returns the Pearson correlation of two equal-length
// series; shorter inputs are aligned on their most recent overlap.
func Correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	meanA, meanB := Mean(a), Mean(b)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// CorrelationMatrix returns the pairwise correlation matrix for the
// given return series, in input order.
func CorrelationMatrix(series [][]float64) [][]float64 {
	n := len(series)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := Correlation(series[i], series[j])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return matrix
}

// Beta returns the regression beta of the asset returns against the
// benchmark returns, aligned on their most recent overlap.
func Beta(asset, benchmark []float64) float64 {
	n := len(asset)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 2 {
		return 0
	}
	asset = asset[len(asset)-n:]
	benchmark = benchmark[len(benchmark)-n:]

	meanA, meanB := Mean(asset), Mean(benchmark)
	var cov, varB float64
	for i := 0; i < n; i++ {
		cov += (asset[i] - meanA) * (benchmark[i] - meanB)
		varB += (benchmark[i] - meanB) * (benchmark[i] - meanB)
	}
	if varB == 0 {
		return 0
	}
	return cov / varB
}
