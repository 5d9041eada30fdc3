package regime

import (
	"math"

	"github.com/ducminhle1904/quant-risk-core/internal/indicators"
	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// DetectorConfig holds configuration parameters for regime detection
type DetectorConfig struct {
	TrendLookback    int     `yaml:"trend_lookback"`     // SMA period for trend direction
	VolLookback      int     `yaml:"vol_lookback"`       // return window for volatility ranking
	HighVolThreshold float64 `yaml:"high_vol_threshold"` // per-bar return stddev above which regime is high-volatility
}

// DefaultDetectorConfig returns the default detection parameters
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		TrendLookback:    50,
		VolLookback:      20,
		HighVolThreshold: 0.03,
	}
}

// Detector is a lightweight heuristic classifier used by replay tooling.
// Live deployments may substitute any external regime source.
type Detector struct {
	config *DetectorConfig
}

// NewDetector creates a new regime detector
func NewDetector(config *DetectorConfig) *Detector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &Detector{config: config}
}

// Detect classifies the regime from recent candles. Volatility takes
// precedence over trend direction: a violently trending market is still
// a high-volatility regime for risk purposes.
func (d *Detector) Detect(data []types.OHLCV) Type {
	if len(data) < d.config.VolLookback+1 {
		return TypeUnknown
	}

	if d.volatility(data) > d.config.HighVolThreshold {
		return TypeHighVolatility
	}

	sma, err := indicators.SMA(data, d.config.TrendLookback)
	if err != nil {
		return TypeUnknown
	}

	if data[len(data)-1].Close >= sma {
		return TypeBull
	}
	return TypeBear
}

// volatility is the standard deviation of simple per-bar returns over
// the configured lookback window.
func (d *Detector) volatility(data []types.OHLCV) float64 {
	start := len(data) - d.config.VolLookback
	returns := make([]float64, 0, d.config.VolLookback)
	for i := start; i < len(data); i++ {
		prev := data[i-1].Close
		if prev > 0 {
			returns = append(returns, (data[i].Close-prev)/prev)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance)
}
