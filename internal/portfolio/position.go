package portfolio

import (
	"math"
	"time"

	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// ExitPhase is the lifecycle phase of a position's exit state machine:
// Armed -> Trailing -> Triggered, or Armed -> Expired for time exits.
type ExitPhase string

const (
	ExitArmed     ExitPhase = "armed"
	ExitTrailing  ExitPhase = "trailing"
	ExitTriggered ExitPhase = "triggered"
	ExitExpired   ExitPhase = "expired"
)

// ExitState is the tagged per-position exit bookkeeping owned by the
// Position record. HighWater is only meaningful in the Trailing phase:
// it is the best favorable price seen since the trail activated (the
// low-water mark for shorts). TriggerReason is set in terminal phases.
type ExitState struct {
	Phase         ExitPhase
	HighWater     float64
	TriggerReason string
}

// TakeProfitTier is one live scale-out level. Each tier fires at most
// once; Fired guards re-evaluation idempotence.
type TakeProfitTier struct {
	Price    float64
	Fraction float64
	Fired    bool
}

// Position is an open holding. Quantity is signed: negative for shorts.
// Created on trade acceptance, mutated on price updates (trailing
// ratchet, tier firing, partial closes), removed on full exit.
type Position struct {
	ID       string
	Symbol   string
	Sector   string
	Strategy string

	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
	MarkPrice  float64

	StopLoss    float64
	TakeProfits []TakeProfitTier

	Exit ExitState
}

// Direction derives the trade side from the signed quantity.
func (p *Position) Direction() types.Direction {
	if p.Quantity < 0 {
		return types.DirectionShort
	}
	return types.DirectionLong
}

// IsLong reports whether the position is long.
func (p *Position) IsLong() bool {
	return p.Quantity >= 0
}

// Notional returns the absolute current market value of the position.
func (p *Position) Notional() float64 {
	return math.Abs(p.Quantity) * p.MarkPrice
}

// UnrealizedPnL returns the open profit at the current mark price.
func (p *Position) UnrealizedPnL() float64 {
	return p.Quantity * (p.MarkPrice - p.EntryPrice)
}

// Age returns how long the position has been open as of now.
func (p *Position) Age(now time.Time) time.Duration {
	return now.Sub(p.EntryTime)
}

// Open reports whether the exit state machine is still live.
func (p *Position) Open() bool {
	return p.Exit.Phase == ExitArmed || p.Exit.Phase == ExitTrailing
}

// RemainingFraction is the share of the original size not yet scaled
// out through fired take-profit tiers.
func (p *Position) RemainingFraction() float64 {
	remaining := 1.0
	for _, tier := range p.TakeProfits {
		if tier.Fired {
			remaining -= tier.Fraction
		}
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}
