package monitor

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/logger"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
	"github.com/ducminhle1904/quant-risk-core/internal/risk"
)

// Monitor assesses portfolio health, checks standing limits and
// delivers deduplicated alerts. Snapshot history is bounded by
// configuration; the oldest entries are dropped first.
type Monitor struct {
	engine   *risk.Engine
	notifier Notifier
	log      *logger.Logger

	history   []*risk.Snapshot
	lastAlert map[string]time.Time
}

// NewMonitor creates a portfolio monitor. The notifier may be nil, in
// which case alerts are only logged and returned.
func NewMonitor(engine *risk.Engine, notifier Notifier, log *logger.Logger) *Monitor {
	return &Monitor{
		engine:    engine,
		notifier:  notifier,
		log:       log,
		lastAlert: make(map[string]time.Time),
	}
}

// Assess computes a risk snapshot of the portfolio plus an optional
// trade candidate, flags stale market data, and records the snapshot in
// the bounded history.
func (m *Monitor) Assess(pf *portfolio.Portfolio, candidate *portfolio.Position, params *config.ResolvedParams, asOf time.Time) *risk.Snapshot {
	snap := m.engine.ComputeSnapshot(pf, candidate, params, asOf)

	if threshold := params.Limits.StalenessThreshold.Duration(); threshold > 0 {
		if last := pf.LastUpdate(); !last.IsZero() && asOf.Sub(last) > threshold {
			snap.Stale = true
			snap.Warnings = append(snap.Warnings,
				fmt.Sprintf("market data stale: last update %s ago", asOf.Sub(last).Round(time.Second)))
			if m.log != nil {
				m.log.LogWarning("Stale Data", "assessment at %s uses data from %s",
					asOf.Format(time.RFC3339), last.Format(time.RFC3339))
			}
		}
	}

	m.history = append(m.history, snap)
	if limit := params.Limits.SnapshotHistorySize; limit > 0 && len(m.history) > limit {
		m.history = m.history[len(m.history)-limit:]
	}

	return snap
}

// CheckLimits compares a snapshot against the standing limits and
// returns one alert per breached limit. An empty slice means the
// portfolio is within bounds.
func (m *Monitor) CheckLimits(snap *risk.Snapshot, params *config.ResolvedParams) []Alert {
	limits := params.Limits
	var alerts []Alert

	if limits.MaxPortfolioRisk > 0 {
		if v := snap.PrimaryVaR(limits.VaRConfidenceLevels); v > limits.MaxPortfolioRisk {
			alerts = append(alerts, m.newAlert(AlertPortfolioRisk, "", v, limits.MaxPortfolioRisk,
				fmt.Sprintf("portfolio VaR %.2f%% exceeds limit %.2f%%", v*100, limits.MaxPortfolioRisk*100),
				snap))
		}
	}

	if limits.MaxSinglePosition > 0 {
		for symbol, conc := range snap.SymbolConcentration {
			if conc > limits.MaxSinglePosition {
				alerts = append(alerts, m.newAlert(AlertSinglePosition, symbol, conc, limits.MaxSinglePosition,
					fmt.Sprintf("%s at %.2f%% of equity exceeds limit %.2f%%", symbol, conc*100, limits.MaxSinglePosition*100),
					snap))
			}
		}
	}

	if limits.MaxSectorExposure > 0 {
		for sector, conc := range snap.SectorConcentration {
			if conc > limits.MaxSectorExposure {
				alerts = append(alerts, m.newAlert(AlertSectorExposure, sector, conc, limits.MaxSectorExposure,
					fmt.Sprintf("sector %s at %.2f%% of equity exceeds limit %.2f%%", sector, conc*100, limits.MaxSectorExposure*100),
					snap))
			}
		}
	}

	if limits.MaxCorrelation > 0 && snap.MaxPairwiseCorrelation > limits.MaxCorrelation {
		alerts = append(alerts, m.newAlert(AlertCorrelation, "", snap.MaxPairwiseCorrelation, limits.MaxCorrelation,
			fmt.Sprintf("max pairwise correlation %.2f exceeds limit %.2f", snap.MaxPairwiseCorrelation, limits.MaxCorrelation),
			snap))
	}

	if limits.MaxDrawdown > 0 && snap.MaxDrawdown > limits.MaxDrawdown {
		alerts = append(alerts, m.newAlert(AlertDrawdown, "", snap.MaxDrawdown, limits.MaxDrawdown,
			fmt.Sprintf("drawdown %.2f%% exceeds limit %.2f%%", snap.MaxDrawdown*100, limits.MaxDrawdown*100),
			snap))
	}

	return alerts
}

// newAlert builds an alert carrying the snapshot it was judged against,
// grading severity by how far past the limit the observation is
// (critical at 25% past).
func (m *Monitor) newAlert(kind AlertKind, symbol string, observed, limit float64, message string, snap *risk.Snapshot) Alert {
	severity := SeverityWarning
	if limit > 0 && observed/limit >= 1.25 {
		severity = SeverityCritical
	}
	return Alert{
		Kind:      kind,
		Severity:  severity,
		Symbol:    symbol,
		Observed:  observed,
		Limit:     limit,
		Message:   message,
		Timestamp: snap.Timestamp,
		Snapshot:  snap,
	}
}

// EmitAlerts logs and delivers alerts, suppressing repeats of the same
// (kind, symbol) pair within the configured cooldown window.
func (m *Monitor) EmitAlerts(alerts []Alert, params *config.ResolvedParams) {
	cooldown := params.Limits.AlertCooldown.Duration()
	for _, alert := range alerts {
		key := string(alert.Kind) + "/" + alert.Symbol
		if last, ok := m.lastAlert[key]; ok && cooldown > 0 && alert.Timestamp.Sub(last) < cooldown {
			continue
		}
		m.lastAlert[key] = alert.Timestamp

		if m.log != nil {
			m.log.LogWarning("Risk Alert", "%s", alert.String())
		}
		if m.notifier != nil {
			if err := m.notifier.SendAlert(alert); err != nil && m.log != nil {
				m.log.LogError("Alert Delivery", err)
			}
		}
	}
}

// History returns a copy of the recorded snapshots, oldest first.
func (m *Monitor) History() []*risk.Snapshot {
	out := make([]*risk.Snapshot, len(m.history))
	copy(out, m.history)
	return out
}
