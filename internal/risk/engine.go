package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/logger"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// Engine translates a signal, the current portfolio and the resolved
// risk parameters into a position size, and computes portfolio-level
// risk statistics on demand. It holds no portfolio state of its own.
type Engine struct {
	log *logger.Logger
}

// NewEngine creates a new risk engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// PositionSize computes the equity fraction and signed quantity for a
// trade candidate. A recoverable InsufficientDataError from the
// configured method degrades to fixed-fractional sizing; the fallback
// is logged, never surfaced as a failure.
func (e *Engine) PositionSize(sig types.Signal, pf *portfolio.Portfolio, price float64, params *config.ResolvedParams) (*SizeResult, error) {
	if price <= 0 {
		return nil, fmt.Errorf("invalid price %.4f for %s", price, sig.Symbol)
	}
	equity := pf.Equity()
	if equity <= 0 {
		return &SizeResult{Method: params.Sizing.Method}, nil
	}

	method := params.Sizing.Method
	fraction, err := e.rawFraction(method, sig, pf, price, params)
	fellBack := false
	if err != nil {
		var dataErr *InsufficientDataError
		if !errors.As(err, &dataErr) {
			return nil, err
		}
		if e.log != nil {
			e.log.LogWarning("Sizing Fallback", "%s: %v, using fixed fraction", sig.Symbol, err)
		}
		fraction = params.Sizing.BaseFraction
		fellBack = true
	}

	fraction = e.capDrawdownContribution(fraction, sig.Symbol, pf, params)

	// A method that sized to zero declined the trade; the minimum size
	// clip must not resurrect it.
	if fraction <= 0 {
		return &SizeResult{Method: method, FellBack: fellBack}, nil
	}

	// Every positive output is clipped to the configured bounds.
	if fraction > params.Sizing.MaxPositionSize {
		fraction = params.Sizing.MaxPositionSize
	}
	if fraction < params.Sizing.MinPositionSize {
		fraction = params.Sizing.MinPositionSize
	}

	notional := fraction * equity
	quantity := sig.Direction.Sign() * notional / price

	return &SizeResult{
		Method:   method,
		Fraction: fraction,
		Quantity: quantity,
		Notional: notional,
		FellBack: fellBack,
	}, nil
}

// rawFraction dispatches to the configured sizing method.
func (e *Engine) rawFraction(method config.SizingMethod, sig types.Signal, pf *portfolio.Portfolio, price float64, params *config.ResolvedParams) (float64, error) {
	switch method {
	case config.SizingKelly:
		return e.kellyFraction(sig, pf, params)
	case config.SizingRiskParity:
		return e.riskParityFraction(sig, pf, params)
	case config.SizingVolatility:
		return e.volatilityFraction(sig, pf, params)
	case config.SizingFixedFraction:
		return params.Sizing.BaseFraction, nil
	case config.SizingMaxDrawdown:
		// Base allocation; the drawdown cap is applied afterwards.
		return params.Sizing.BaseFraction, nil
	default:
		return 0, fmt.Errorf("unknown sizing method %q", method)
	}
}

// kellyFraction computes f* = (b*p - q) / b clamped to
// [0, max_kelly_fraction]. Requires both a usable probability estimate
// and enough symbol history to trust it.
func (e *Engine) kellyFraction(sig types.Signal, pf *portfolio.Portfolio, params *config.ResolvedParams) (float64, error) {
	history := len(pf.SymbolReturns[sig.Symbol])
	if history < params.Sizing.MinTradesForKelly {
		return 0, &InsufficientDataError{
			Symbol:    sig.Symbol,
			Required:  params.Sizing.MinTradesForKelly,
			Available: history,
			What:      "return history",
		}
	}
	p := sig.WinProbability
	b := sig.PayoffRatio
	if p <= 0 || p >= 1 || b <= 0 {
		return 0, &InsufficientDataError{
			Symbol:    sig.Symbol,
			Required:  1,
			Available: 0,
			What:      "win probability estimate",
		}
	}

	f := (b*p - (1 - p)) / b
	if f < 0 {
		f = 0
	}
	if f > params.Sizing.MaxKellyFraction {
		f = params.Sizing.MaxKellyFraction
	}
	return f, nil
}

// riskParityFraction weights the candidate by inverse volatility over
// the current open-position set plus the candidate itself.
func (e *Engine) riskParityFraction(sig types.Signal, pf *portfolio.Portfolio, params *config.ResolvedParams) (float64, error) {
	symbols := []string{sig.Symbol}
	seen := map[string]bool{sig.Symbol: true}
	for _, pos := range pf.Positions {
		if !seen[pos.Symbol] {
			seen[pos.Symbol] = true
			symbols = append(symbols, pos.Symbol)
		}
	}

	candVol, err := e.symbolVolatility(sig.Symbol, pf, params)
	if err != nil {
		return 0, err
	}

	totalInverse := 0.0
	for _, symbol := range symbols {
		vol, err := e.symbolVolatility(symbol, pf, params)
		if err != nil {
			// Open positions with short histories fall back to the
			// candidate's volatility rather than failing the trade.
			vol = candVol
		}
		totalInverse += 1 / vol
	}

	return (1 / candVol) / totalInverse, nil
}

// volatilityFraction targets a fixed dollar risk per unit of
// volatility: size = equity*per_trade_risk / (price*sigma), which as an
// equity fraction is per_trade_risk / sigma.
func (e *Engine) volatilityFraction(sig types.Signal, pf *portfolio.Portfolio, params *config.ResolvedParams) (float64, error) {
	vol, err := e.symbolVolatility(sig.Symbol, pf, params)
	if err != nil {
		return 0, err
	}
	return params.Sizing.PerTradeRiskFraction / vol, nil
}

// symbolVolatility estimates per-bar return volatility over the
// configured lookback, clamped below by the volatility floor.
func (e *Engine) symbolVolatility(symbol string, pf *portfolio.Portfolio, params *config.ResolvedParams) (float64, error) {
	returns := pf.SymbolReturns[symbol]
	if len(returns) < 2 {
		return 0, &InsufficientDataError{
			Symbol:    symbol,
			Required:  2,
			Available: len(returns),
			What:      "return history",
		}
	}
	if lookback := params.Sizing.VolatilityLookback; len(returns) > lookback {
		returns = returns[len(returns)-lookback:]
	}

	vol := StdDev(returns)
	if vol < params.Sizing.VolatilityFloor {
		vol = params.Sizing.VolatilityFloor
	}
	return vol, nil
}

// capDrawdownContribution scales the fraction down so the projected
// incremental drawdown contribution (parametric approximation via the
// symbol's 95% unit VaR) stays under the configured cap.
func (e *Engine) capDrawdownContribution(fraction float64, symbol string, pf *portfolio.Portfolio, params *config.ResolvedParams) float64 {
	cap := params.Sizing.DrawdownContributionCap
	if cap <= 0 || fraction <= 0 {
		return fraction
	}

	unitVaR := ParametricVaR(pf.SymbolReturns[symbol], 0.95)
	if unitVaR <= 0 {
		return fraction
	}
	if projected := fraction * unitVaR; projected > cap {
		return cap / unitVaR
	}
	return fraction
}

// ComputeSnapshot assembles a full portfolio risk snapshot, optionally
// including a candidate position for pre-trade checks. The result is a
// pure function of its inputs: identical inputs yield identical
// snapshots.
func (e *Engine) ComputeSnapshot(pf *portfolio.Portfolio, candidate *portfolio.Position, params *config.ResolvedParams, asOf time.Time) *Snapshot {
	positions := pf.Positions
	if candidate != nil {
		positions = append(append([]*portfolio.Position(nil), positions...), candidate)
	}

	equity := pf.Equity()
	snap := &Snapshot{
		Timestamp:           asOf,
		Equity:              equity,
		VaR:                 make(map[float64]float64, len(params.Limits.VaRConfidenceLevels)),
		SymbolConcentration: make(map[string]float64),
		SectorConcentration: make(map[string]float64),
	}

	portfolioReturns := pf.Returns()

	// Pre-trade checks see the portfolio as if the candidate were on:
	// its weighted return series is blended into the realized returns
	// before VaR and ES are estimated.
	varReturns := portfolioReturns
	if candidate != nil && equity > 0 {
		weight := candidate.Quantity * candidate.MarkPrice / equity
		varReturns = projectedReturns(portfolioReturns, pf.SymbolReturns[candidate.Symbol], weight)
	}
	if len(varReturns) < 2 {
		snap.Warnings = append(snap.Warnings, "insufficient portfolio return history for VaR")
	}
	for _, confidence := range params.Limits.VaRConfidenceLevels {
		snap.VaR[confidence] = e.valueAtRisk(varReturns, confidence, params.Limits.VaRMethod)
	}
	if len(params.Limits.VaRConfidenceLevels) > 0 {
		primary := params.Limits.VaRConfidenceLevels[0]
		snap.ExpectedShortfall = e.expectedShortfall(varReturns, primary, params.Limits.VaRMethod)
	}

	snap.MaxDrawdown = MaxDrawdown(pf.EquityCurve)

	// Concentrations over open positions plus the candidate.
	if equity > 0 {
		for _, pos := range positions {
			notional := pos.Notional()
			snap.SymbolConcentration[pos.Symbol] += notional / equity
			if pos.Sector != "" {
				snap.SectorConcentration[pos.Sector] += notional / equity
			}
		}
	}

	// Correlation structure over the involved symbols, sorted for
	// deterministic ordering.
	seen := make(map[string]bool)
	for _, pos := range positions {
		if !seen[pos.Symbol] {
			seen[pos.Symbol] = true
			snap.Symbols = append(snap.Symbols, pos.Symbol)
		}
	}
	sort.Strings(snap.Symbols)

	series := make([][]float64, len(snap.Symbols))
	for i, symbol := range snap.Symbols {
		series[i] = pf.SymbolReturns[symbol]
	}
	snap.Correlations = CorrelationMatrix(series)
	for i := range snap.Correlations {
		for j := i + 1; j < len(snap.Correlations); j++ {
			if c := math.Abs(snap.Correlations[i][j]); c > snap.MaxPairwiseCorrelation {
				snap.MaxPairwiseCorrelation = c
			}
		}
	}

	snap.Beta = Beta(portfolioReturns, pf.BenchmarkReturns)
	snap.Score = e.compositeScore(snap, params)

	return snap
}

// projectedReturns adds a weighted symbol return series to the realized
// portfolio returns, aligned on their most recent overlap. With no
// realized history the candidate's weighted series stands alone.
func projectedReturns(base, symbol []float64, weight float64) []float64 {
	if weight == 0 || len(symbol) == 0 {
		return base
	}
	if len(base) == 0 {
		scaled := make([]float64, len(symbol))
		for i, r := range symbol {
			scaled[i] = weight * r
		}
		return scaled
	}

	out := append([]float64(nil), base...)
	n := len(out)
	if len(symbol) < n {
		n = len(symbol)
	}
	for i := 0; i < n; i++ {
		out[len(out)-n+i] += weight * symbol[len(symbol)-n+i]
	}
	return out
}

func (e *Engine) valueAtRisk(returns []float64, confidence float64, method config.VaRMethod) float64 {
	if method == config.VaRHistorical {
		return HistoricalVaR(returns, confidence)
	}
	return ParametricVaR(returns, confidence)
}

func (e *Engine) expectedShortfall(returns []float64, confidence float64, method config.VaRMethod) float64 {
	if method == config.VaRHistorical {
		return HistoricalES(returns, confidence)
	}
	return ParametricES(returns, confidence)
}

// compositeScore blends the VaR-to-limit ratio, the worst single
// position concentration and the maximum pairwise correlation into a
// score in [1, 10]. The blend weights come from configuration.
func (e *Engine) compositeScore(snap *Snapshot, params *config.ResolvedParams) float64 {
	varRatio := 0.0
	if params.Limits.MaxPortfolioRisk > 0 {
		varRatio = clamp01(snap.PrimaryVaR(params.Limits.VaRConfidenceLevels) / params.Limits.MaxPortfolioRisk)
	}

	worstConcentration := 0.0
	for _, c := range snap.SymbolConcentration {
		if c > worstConcentration {
			worstConcentration = c
		}
	}
	concRatio := 0.0
	if params.Limits.MaxSinglePosition > 0 {
		concRatio = clamp01(worstConcentration / params.Limits.MaxSinglePosition)
	}

	corr := clamp01(snap.MaxPairwiseCorrelation)

	w := params.Limits.ScoreWeights
	total := w.VaRRatio + w.Concentration + w.Correlation
	if total <= 0 {
		return 1
	}
	normalized := (w.VaRRatio*varRatio + w.Concentration*concRatio + w.Correlation*corr) / total

	return 1 + 9*clamp01(normalized)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
