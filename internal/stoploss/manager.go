package stoploss

import (
	"time"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/logger"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
)

// Manager owns the per-position exit state machine. It computes entry
// levels, advances Armed -> Trailing -> Triggered/Expired on price
// updates, and emits ExitRequests for the caller to apply. It holds no
// position state itself; all bookkeeping lives on the Position record.
type Manager struct {
	log *logger.Logger
}

// NewManager creates a new stop-loss manager
func NewManager(log *logger.Logger) *Manager {
	return &Manager{log: log}
}

// OnPriceUpdate advances the position's exit state machine for one
// price observation and returns any resulting exit requests.
// Re-evaluating the same update is a no-op: terminal phases return
// nothing, the trailing stop only ratchets in the protective direction,
// and fired tiers never fire again.
func (m *Manager) OnPriceUpdate(pos *portfolio.Position, price float64, now time.Time, params *config.ResolvedParams) []ExitRequest {
	if !pos.Open() {
		return nil
	}

	if req := m.checkTimeExit(pos, price, now, &params.Stops); req != nil {
		return []ExitRequest{*req}
	}

	m.updateTrail(pos, price, &params.Stops)

	if req := m.checkStop(pos, price, now); req != nil {
		return []ExitRequest{*req}
	}

	return m.fireTiers(pos, price, now)
}

// checkTimeExit expires positions held past the configured maximum.
func (m *Manager) checkTimeExit(pos *portfolio.Position, price float64, now time.Time, stops *config.StopParams) *ExitRequest {
	maxHolding := stops.MaxHolding.Duration()
	if maxHolding <= 0 || pos.Age(now) < maxHolding {
		return nil
	}

	pos.Exit.Phase = portfolio.ExitExpired
	pos.Exit.TriggerReason = ReasonTimeExit
	if m.log != nil {
		m.log.Trade("%s %s expired after %s, closing at %.4f",
			pos.Symbol, pos.ID, pos.Age(now).Round(time.Second), price)
	}

	return &ExitRequest{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Fraction:   1.0,
		Price:      price,
		Reason:     ReasonTimeExit,
		Timestamp:  now,
	}
}

// updateTrail activates and ratchets the trailing stop. The trail arms
// once unrealized profit reaches the activation fraction; from then on
// the high-water mark is monotone and the stop only moves toward price,
// never away.
func (m *Manager) updateTrail(pos *portfolio.Position, price float64, stops *config.StopParams) {
	if stops.TrailDistance <= 0 {
		return
	}
	long := pos.IsLong()

	if pos.Exit.Phase == portfolio.ExitArmed {
		profit := (price - pos.EntryPrice) / pos.EntryPrice
		if !long {
			profit = -profit
		}
		if profit < stops.TrailActivation {
			return
		}
		pos.Exit.Phase = portfolio.ExitTrailing
		pos.Exit.HighWater = price
		if m.log != nil {
			m.log.Status("%s %s trailing activated at %.4f", pos.Symbol, pos.ID, price)
		}
	}

	if long {
		if price > pos.Exit.HighWater {
			pos.Exit.HighWater = price
		}
		if newStop := pos.Exit.HighWater - stops.TrailDistance; newStop > pos.StopLoss {
			pos.StopLoss = newStop
		}
	} else {
		if price < pos.Exit.HighWater {
			pos.Exit.HighWater = price
		}
		if newStop := pos.Exit.HighWater + stops.TrailDistance; newStop < pos.StopLoss {
			pos.StopLoss = newStop
		}
	}
}

// checkStop triggers a full close when price crosses the stop level.
func (m *Manager) checkStop(pos *portfolio.Position, price float64, now time.Time) *ExitRequest {
	if pos.StopLoss <= 0 {
		return nil
	}
	crossed := pos.IsLong() && price <= pos.StopLoss || !pos.IsLong() && price >= pos.StopLoss
	if !crossed {
		return nil
	}

	reason := ReasonStopLoss
	if pos.Exit.Phase == portfolio.ExitTrailing {
		reason = ReasonTrailingStop
	}
	pos.Exit.Phase = portfolio.ExitTriggered
	pos.Exit.TriggerReason = reason
	if m.log != nil {
		m.log.Trade("%s %s %s at %.4f (stop %.4f)", pos.Symbol, pos.ID, reason, price, pos.StopLoss)
	}

	return &ExitRequest{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Fraction:   1.0,
		Price:      price,
		Reason:     reason,
		Timestamp:  now,
	}
}

// fireTiers scales out through any take-profit tiers price has reached.
// Tier fractions are shares of the original size; requests convert them
// to shares of the current quantity so sequential partial closes compose.
func (m *Manager) fireTiers(pos *portfolio.Position, price float64, now time.Time) []ExitRequest {
	remaining := pos.RemainingFraction()
	if remaining <= 0 {
		return nil
	}
	long := pos.IsLong()

	var requests []ExitRequest
	for i := range pos.TakeProfits {
		tier := &pos.TakeProfits[i]
		if tier.Fired {
			continue
		}
		reached := long && price >= tier.Price || !long && price <= tier.Price
		if !reached {
			continue
		}

		tier.Fired = true
		fraction := tier.Fraction / remaining
		if fraction > 1 {
			fraction = 1
		}
		requests = append(requests, ExitRequest{
			PositionID: pos.ID,
			Symbol:     pos.Symbol,
			Fraction:   fraction,
			Price:      price,
			Reason:     ReasonTakeProfitTier,
			Timestamp:  now,
		})
		if m.log != nil {
			m.log.Trade("%s %s tier %d fired at %.4f (%.0f%% of original)",
				pos.Symbol, pos.ID, i+1, price, tier.Fraction*100)
		}

		remaining -= tier.Fraction
		if remaining <= 1e-9 {
			pos.Exit.Phase = portfolio.ExitTriggered
			pos.Exit.TriggerReason = ReasonTakeProfitTier
			break
		}
	}
	return requests
}
