package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the risk core's operational state to Prometheus.
// All collectors are registered on a private registry so tests can
// create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	RiskScore      prometheus.Gauge
	PortfolioVaR   prometheus.Gauge
	MaxDrawdown    prometheus.Gauge
	Equity         prometheus.Gauge
	OpenPositions  prometheus.Gauge
	TradesAccepted prometheus.Counter
	TradesRejected prometheus.Counter
	ExitsExecuted  *prometheus.CounterVec
	AlertsRaised   *prometheus.CounterVec
	Errors         prometheus.Counter
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RiskScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_composite_score",
			Help: "Composite portfolio risk score from 1 (low) to 10 (high)",
		}),
		PortfolioVaR: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_portfolio_var",
			Help: "Portfolio Value at Risk at the primary confidence level, as a fraction of equity",
		}),
		MaxDrawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "risk_max_drawdown",
			Help: "Maximum peak-to-trough drawdown of the equity curve",
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_equity",
			Help: "Current portfolio equity in quote currency",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_open_positions",
			Help: "Number of open positions",
		}),
		TradesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trades_accepted_total",
			Help: "Trade candidates that passed risk checks and were committed",
		}),
		TradesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trades_rejected_total",
			Help: "Trade candidates rejected by risk limit checks",
		}),
		ExitsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exits_executed_total",
			Help: "Position exits by reason",
		}, []string{"reason"}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_alerts_total",
			Help: "Risk alerts by kind",
		}, []string{"kind"}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "risk_errors_total",
			Help: "Unrecoverable errors during evaluation",
		}),
	}

	registry.MustRegister(
		m.RiskScore, m.PortfolioVaR, m.MaxDrawdown, m.Equity, m.OpenPositions,
		m.TradesAccepted, m.TradesRejected, m.ExitsExecuted, m.AlertsRaised, m.Errors,
	)
	return m
}

// Handler returns the HTTP handler serving this instance's metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
