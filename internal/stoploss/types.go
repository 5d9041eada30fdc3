package stoploss

import "time"

// Exit reasons carried on requests and stamped into the position's
// terminal state.
const (
	ReasonStopLoss       = "stop_loss"
	ReasonTrailingStop   = "trailing_stop"
	ReasonTakeProfitTier = "take_profit_tier"
	ReasonTimeExit       = "time_exit"
)

// ExitRequest is a proposed position reduction. The manager never
// mutates portfolio cash or quantities itself; the caller applies
// requests through its execution adapter.
type ExitRequest struct {
	PositionID string
	Symbol     string
	Fraction   float64 // share of the current quantity to close
	Price      float64
	Reason     string
	Timestamp  time.Time
}
