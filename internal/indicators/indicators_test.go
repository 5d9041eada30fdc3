package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

func candles(values ...[4]float64) []types.OHLCV {
	now := time.Now()
	out := make([]types.OHLCV, len(values))
	for i, v := range values {
		out[i] = types.OHLCV{
			Open: v[0], High: v[1], Low: v[2], Close: v[3],
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

// TestATR_ConstantRange tests ATR on candles with a fixed true range
func TestATR_ConstantRange(t *testing.T) {
	data := make([]types.OHLCV, 0, 16)
	now := time.Now()
	for i := 0; i < 16; i++ {
		data = append(data, types.OHLCV{
			Open: 100, High: 101, Low: 99, Close: 100,
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
	}

	atr, err := ATR(data, 14)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 1e-9)
}

// TestATR_GapDominatesRange tests that gaps from the previous close are
// included in the true range
func TestATR_GapDominatesRange(t *testing.T) {
	data := candles(
		[4]float64{100, 101, 99, 100},
		[4]float64{110, 111, 109, 110}, // gap of 10 over the prior close
	)

	atr, err := ATR(data, 1)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, atr, 1e-9) // max(111-109, |111-100|, |109-100|)
}

// TestATR_InsufficientData tests the history guard
func TestATR_InsufficientData(t *testing.T) {
	data := candles([4]float64{100, 101, 99, 100})
	_, err := ATR(data, 14)
	assert.Error(t, err)
}

// TestSMA_SimpleAverage tests the moving average over closes
func TestSMA_SimpleAverage(t *testing.T) {
	data := candles(
		[4]float64{0, 0, 0, 10},
		[4]float64{0, 0, 0, 20},
		[4]float64{0, 0, 0, 30},
		[4]float64{0, 0, 0, 40},
	)

	sma, err := SMA(data, 3)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, sma, 1e-9) // mean of the last three closes

	_, err = SMA(data, 5)
	assert.Error(t, err)
}
