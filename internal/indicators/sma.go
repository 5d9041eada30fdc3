package indicators

import (
	"errors"

	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// SMA calculates the Simple Moving Average of closes over the last period candles.
func SMA(data []types.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("SMA period must be positive")
	}
	if len(data) < period {
		return 0, errors.New("insufficient data for SMA calculation")
	}

	sum := 0.0
	for i := len(data) - period; i < len(data); i++ {
		sum += data[i].Close
	}

	return sum / float64(period), nil
}
