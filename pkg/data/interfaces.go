package data

import "github.com/ducminhle1904/quant-risk-core/pkg/types"

// Provider supplies historical candles for backtest replay and
// indicator warm-up.
type Provider interface {
	// LoadCandles returns the full candle history for a symbol in
	// chronological order.
	LoadCandles(symbol string) ([]types.OHLCV, error)
}
