package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// ATR calculates the Average True Range over the last period candles.
// ATR measures market volatility by decomposing the entire range of an
// asset price for that period.
func ATR(data []types.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("ATR period must be positive")
	}
	if len(data) < period+1 {
		return 0, errors.New("insufficient data points for ATR calculation")
	}

	sum := 0.0
	for i := len(data) - period; i < len(data); i++ {
		sum += trueRange(data[i], data[i-1].Close)
	}

	return sum / float64(period), nil
}

// trueRange calculates the True Range for a given candle
func trueRange(current types.OHLCV, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)

	return math.Max(hl, math.Max(hc, lc))
}
