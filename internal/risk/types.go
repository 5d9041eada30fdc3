package risk

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
)

// InsufficientDataError signals that a sizing or estimation method has
// too little history to run. It is recoverable: the engine falls back
// to fixed-fractional sizing and logs the degradation, so callers never
// see it as a failure of the evaluation itself.
type InsufficientDataError struct {
	Symbol    string
	Required  int
	Available int
	What      string
}

// Error implements the error interface
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient %s for %s: have %d, need %d",
		e.What, e.Symbol, e.Available, e.Required)
}

// Snapshot is an immutable point-in-time portfolio risk assessment.
// VaR maps confidence level to a positive loss fraction of equity.
type Snapshot struct {
	Timestamp time.Time
	Equity    float64

	VaR               map[float64]float64
	ExpectedShortfall float64
	MaxDrawdown       float64

	Symbols                []string
	Correlations           [][]float64
	MaxPairwiseCorrelation float64
	Beta                   float64

	SymbolConcentration map[string]float64
	SectorConcentration map[string]float64

	// Score is the composite risk score, always within [1, 10].
	Score float64

	Stale    bool
	Warnings []string
}

// PrimaryVaR returns the VaR at the lowest configured confidence level,
// the operating number compared against max_portfolio_risk.
func (s *Snapshot) PrimaryVaR(levels []float64) float64 {
	if len(levels) == 0 {
		return 0
	}
	return s.VaR[levels[0]]
}

// SizeResult is the outcome of position sizing for one signal.
// Fraction is the share of equity allocated; Quantity is signed.
type SizeResult struct {
	Method   config.SizingMethod
	Fraction float64
	Quantity float64
	Notional float64
	FellBack bool
}
