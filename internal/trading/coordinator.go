package trading

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/logger"
	"github.com/ducminhle1904/quant-risk-core/internal/monitor"
	"github.com/ducminhle1904/quant-risk-core/internal/monitoring"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
	"github.com/ducminhle1904/quant-risk-core/internal/regime"
	"github.com/ducminhle1904/quant-risk-core/internal/risk"
	"github.com/ducminhle1904/quant-risk-core/internal/stoploss"
	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// maxCandleHistory bounds the per-symbol candle buffer; indicator
// lookbacks never need more.
const maxCandleHistory = 500

// Coordinator ties the risk engine, stop-loss manager and portfolio
// monitor to one portfolio. Evaluate and OnCandle each run under the
// portfolio lock, so a trade is assessed, checked and committed against
// one consistent portfolio state with no interleaved mutation.
type Coordinator struct {
	mu sync.Mutex

	cfg     *config.Manager
	engine  *risk.Engine
	stops   *stoploss.Manager
	monitor *monitor.Monitor
	metrics *monitoring.Metrics
	log     *logger.Logger

	pf      *portfolio.Portfolio
	regime  regime.Type
	profile string

	candles map[string][]types.OHLCV
	records []*EnhancedTradeRecord
}

// NewCoordinator wires the risk components around a portfolio. The
// metrics instance may be nil.
func NewCoordinator(cfg *config.Manager, engine *risk.Engine, stops *stoploss.Manager, mon *monitor.Monitor, metrics *monitoring.Metrics, log *logger.Logger, pf *portfolio.Portfolio) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		engine:  engine,
		stops:   stops,
		monitor: mon,
		metrics: metrics,
		log:     log,
		pf:      pf,
		regime:  regime.TypeUnknown,
		candles: make(map[string][]types.OHLCV),
	}
}

// SetRegime switches the active market regime used for parameter
// resolution. Existing positions keep their entry levels; only future
// evaluations see the new multipliers.
func (c *Coordinator) SetRegime(r regime.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r != c.regime && c.log != nil {
		c.log.Status("regime changed %s -> %s", c.regime, r)
	}
	c.regime = r
}

// SetProfile switches the active risk profile template.
func (c *Coordinator) SetProfile(profile string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = profile
}

// Portfolio returns the managed portfolio. Callers must not mutate it
// while the coordinator is in use.
func (c *Coordinator) Portfolio() *portfolio.Portfolio {
	return c.pf
}

// Records returns a copy of the accepted trade records, oldest first.
func (c *Coordinator) Records() []*EnhancedTradeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*EnhancedTradeRecord, len(c.records))
	copy(out, c.records)
	return out
}

// OnBenchmark appends one benchmark return observation for beta
// estimation.
func (c *Coordinator) OnBenchmark(ret float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pf.BenchmarkReturns = append(c.pf.BenchmarkReturns, ret)
}

// Evaluate runs the full pre-trade pipeline for one signal: resolve
// parameters, size the position, compute entry levels, assess the
// portfolio as if the trade were on, and check limits. On a breach the
// trade is rejected and the alerts returned; the portfolio is untouched.
// On acceptance the position is committed and the trade record returned.
func (c *Coordinator) Evaluate(sig types.Signal, price float64, now time.Time) (*EnhancedTradeRecord, []monitor.Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	params, err := c.cfg.Resolve(sig.Strategy, c.regime, c.profile)
	if err != nil {
		c.countError()
		return nil, nil, fmt.Errorf("resolving parameters for %s: %w", sig.Strategy, err)
	}

	size, err := c.engine.PositionSize(sig, c.pf, price, params)
	if err != nil {
		c.countError()
		return nil, nil, fmt.Errorf("sizing %s: %w", sig.Symbol, err)
	}
	if size.Quantity == 0 {
		return nil, nil, nil
	}

	levels := c.stops.ComputeLevels(sig.Direction, price, c.candles[sig.Symbol], params)

	candidate := &portfolio.Position{
		ID:          uuid.New().String(),
		Symbol:      sig.Symbol,
		Sector:      sig.Sector,
		Strategy:    sig.Strategy,
		Quantity:    size.Quantity,
		EntryPrice:  price,
		EntryTime:   now,
		MarkPrice:   price,
		StopLoss:    levels.StopLoss,
		TakeProfits: levels.TakeProfits,
		Exit:        portfolio.ExitState{Phase: portfolio.ExitArmed},
	}

	snap := c.monitor.Assess(c.pf, candidate, params, now)
	alerts := c.monitor.CheckLimits(snap, params)
	if len(alerts) > 0 {
		c.monitor.EmitAlerts(alerts, params)
		c.countAlerts(alerts)
		if c.metrics != nil {
			c.metrics.TradesRejected.Inc()
		}
		if c.log != nil {
			c.log.Trade("REJECTED %s %s %.6f @ %.4f (%d limit breach(es))",
				sig.Direction, sig.Symbol, size.Quantity, price, len(alerts))
		}
		return nil, alerts, nil
	}

	c.pf.AddPosition(candidate)

	record := &EnhancedTradeRecord{
		ID:           candidate.ID,
		Timestamp:    now,
		Symbol:       sig.Symbol,
		Sector:       sig.Sector,
		Strategy:     sig.Strategy,
		Direction:    sig.Direction,
		EntryPrice:   price,
		Quantity:     size.Quantity,
		Notional:     size.Notional,
		Fraction:     size.Fraction,
		SizingMethod: size.Method,
		FellBack:     size.FellBack,
		StopLoss:     levels.StopLoss,
		TakeProfits:  append([]portfolio.TakeProfitTier(nil), levels.TakeProfits...),
		Regime:       c.regime,
		Profile:      c.profile,
		Snapshot:     snap,
		RiskScore:    snap.Score,
	}
	c.records = append(c.records, record)

	if c.metrics != nil {
		c.metrics.TradesAccepted.Inc()
	}
	c.publishSnapshot(snap, params)
	if c.log != nil {
		c.log.Trade("ACCEPTED %s %s %.6f @ %.4f stop %.4f (score %.1f)",
			sig.Direction, sig.Symbol, size.Quantity, price, levels.StopLoss, snap.Score)
	}

	return record, nil, nil
}

// OnCandle ingests one closed candle: marks the portfolio to market,
// re-evaluates every open position's exit state, applies the resulting
// exits, and runs a portfolio assessment. Returned requests describe
// the exits that were executed.
func (c *Coordinator) OnCandle(symbol string, candle types.OHLCV) ([]stoploss.ExitRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := append(c.candles[symbol], candle)
	if len(history) > maxCandleHistory {
		history = history[len(history)-maxCandleHistory:]
	}
	c.candles[symbol] = history

	c.pf.MarkToMarket(symbol, candle.Close, candle.Timestamp)

	var executed []stoploss.ExitRequest
	// Full exits remove entries from pf.Positions, so iterate a copy.
	open := append([]*portfolio.Position(nil), c.pf.Positions...)
	for _, pos := range open {
		if pos.Symbol != symbol || !pos.Open() {
			continue
		}
		params, err := c.cfg.Resolve(pos.Strategy, c.regime, c.profile)
		if err != nil {
			c.countError()
			return executed, fmt.Errorf("resolving parameters for %s: %w", pos.Strategy, err)
		}

		for _, req := range c.stops.OnPriceUpdate(pos, candle.Close, candle.Timestamp, params) {
			realized, err := c.pf.ReducePosition(req.PositionID, req.Fraction, req.Price)
			if err != nil {
				c.countError()
				return executed, fmt.Errorf("applying %s exit for %s: %w", req.Reason, req.Symbol, err)
			}
			executed = append(executed, req)
			if c.metrics != nil {
				c.metrics.ExitsExecuted.WithLabelValues(req.Reason).Inc()
			}
			if c.log != nil {
				c.log.Trade("EXIT %s %s %.0f%% @ %.4f realized %.2f",
					req.Symbol, req.Reason, req.Fraction*100, req.Price, realized)
			}
		}
	}

	// Post-update assessment uses the default parameter layer; alerts
	// here reflect the standing portfolio, not any one strategy.
	params, err := c.cfg.Resolve("", c.regime, c.profile)
	if err != nil {
		c.countError()
		return executed, err
	}
	snap := c.monitor.Assess(c.pf, nil, params, candle.Timestamp)
	alerts := c.monitor.CheckLimits(snap, params)
	c.monitor.EmitAlerts(alerts, params)
	c.countAlerts(alerts)
	c.publishSnapshot(snap, params)

	return executed, nil
}

// Candles returns the buffered history for a symbol.
func (c *Coordinator) Candles(symbol string) []types.OHLCV {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.OHLCV(nil), c.candles[symbol]...)
}

func (c *Coordinator) publishSnapshot(snap *risk.Snapshot, params *config.ResolvedParams) {
	if c.metrics == nil {
		return
	}
	c.metrics.RiskScore.Set(snap.Score)
	c.metrics.MaxDrawdown.Set(snap.MaxDrawdown)
	c.metrics.Equity.Set(snap.Equity)
	c.metrics.OpenPositions.Set(float64(len(c.pf.Positions)))
	c.metrics.PortfolioVaR.Set(snap.PrimaryVaR(params.Limits.VaRConfidenceLevels))
}

func (c *Coordinator) countAlerts(alerts []monitor.Alert) {
	if c.metrics == nil {
		return
	}
	for _, alert := range alerts {
		c.metrics.AlertsRaised.WithLabelValues(string(alert.Kind)).Inc()
	}
}

func (c *Coordinator) countError() {
	if c.metrics != nil {
		c.metrics.Errors.Inc()
	}
}
