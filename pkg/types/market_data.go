package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// PriceUpdate is a single normalized market update (bar close or tick)
// delivered to the core by the data collaborator.
type PriceUpdate struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}
