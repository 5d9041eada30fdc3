package portfolio

import (
	"fmt"
	"math"
	"time"
)

// EquityPoint is one sample of the realized+unrealized equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Portfolio is the execution adapter's account state. The risk core
// reads it and proposes mutations through the adapter; it never holds
// a reference across calls. Mutating helpers below exist for the
// adapter's benefit.
type Portfolio struct {
	Cash      float64
	Positions []*Position

	EquityCurve      []EquityPoint
	SymbolReturns    map[string][]float64
	BenchmarkReturns []float64

	lastPrice map[string]float64
}

// New creates an empty portfolio with the given starting cash.
func New(cash float64) *Portfolio {
	return &Portfolio{
		Cash:          cash,
		SymbolReturns: make(map[string][]float64),
		lastPrice:     make(map[string]float64),
	}
}

// Equity returns cash plus the signed market value of all open positions.
func (p *Portfolio) Equity() float64 {
	equity := p.Cash
	for _, pos := range p.Positions {
		equity += pos.Quantity * pos.MarkPrice
	}
	return equity
}

// GrossExposure returns the sum of absolute position notionals.
func (p *Portfolio) GrossExposure() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.Notional()
	}
	return total
}

// SymbolExposure returns the absolute notional held in one symbol.
func (p *Portfolio) SymbolExposure(symbol string) float64 {
	total := 0.0
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			total += pos.Notional()
		}
	}
	return total
}

// SectorExposure returns the absolute notional held in one sector.
func (p *Portfolio) SectorExposure(sector string) float64 {
	total := 0.0
	for _, pos := range p.Positions {
		if pos.Sector == sector {
			total += pos.Notional()
		}
	}
	return total
}

// FindPosition returns the open position with the given ID, or nil.
func (p *Portfolio) FindPosition(id string) *Position {
	for _, pos := range p.Positions {
		if pos.ID == id {
			return pos
		}
	}
	return nil
}

// AddPosition commits a new position: cash is debited by the signed
// entry notional (shorts credit cash in this simple account model).
func (p *Portfolio) AddPosition(pos *Position) {
	p.Cash -= pos.Quantity * pos.EntryPrice
	p.Positions = append(p.Positions, pos)
}

// ReducePosition closes fraction of the position at the given price and
// returns the realized PnL. A fraction at or above the remaining size
// closes the position entirely and removes it.
func (p *Portfolio) ReducePosition(id string, fraction, price float64) (float64, error) {
	pos := p.FindPosition(id)
	if pos == nil {
		return 0, fmt.Errorf("position %s not found", id)
	}
	if fraction <= 0 {
		return 0, fmt.Errorf("reduce fraction must be positive, got %.4f", fraction)
	}
	if fraction > 1 {
		fraction = 1
	}

	closeQty := pos.Quantity * fraction
	realized := closeQty * (price - pos.EntryPrice)
	p.Cash += closeQty * price
	pos.Quantity -= closeQty

	if math.Abs(pos.Quantity) < 1e-12 {
		p.removePosition(id)
	}

	return realized, nil
}

func (p *Portfolio) removePosition(id string) {
	for i, pos := range p.Positions {
		if pos.ID == id {
			p.Positions = append(p.Positions[:i], p.Positions[i+1:]...)
			return
		}
	}
}

// MarkToMarket applies a price update: marks matching positions,
// records the per-symbol simple return, and samples the equity curve.
func (p *Portfolio) MarkToMarket(symbol string, price float64, ts time.Time) {
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			pos.MarkPrice = price
		}
	}

	if p.SymbolReturns == nil {
		p.SymbolReturns = make(map[string][]float64)
	}
	if p.lastPrice == nil {
		p.lastPrice = make(map[string]float64)
	}
	if prev, ok := p.lastPrice[symbol]; ok && prev > 0 {
		p.SymbolReturns[symbol] = append(p.SymbolReturns[symbol], (price-prev)/prev)
	}
	p.lastPrice[symbol] = price

	p.EquityCurve = append(p.EquityCurve, EquityPoint{Timestamp: ts, Equity: p.Equity()})
}

// Returns derives the portfolio-level simple return series from the
// equity curve.
func (p *Portfolio) Returns() []float64 {
	if len(p.EquityCurve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(p.EquityCurve)-1)
	for i := 1; i < len(p.EquityCurve); i++ {
		prev := p.EquityCurve[i-1].Equity
		if prev > 0 {
			returns = append(returns, (p.EquityCurve[i].Equity-prev)/prev)
		}
	}
	return returns
}

// LastUpdate returns the timestamp of the newest equity sample, used
// for data-staleness checks.
func (p *Portfolio) LastUpdate() time.Time {
	if len(p.EquityCurve) == 0 {
		return time.Time{}
	}
	return p.EquityCurve[len(p.EquityCurve)-1].Timestamp
}
