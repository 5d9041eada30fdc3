package monitor

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/quant-risk-core/internal/risk"
)

// AlertKind identifies which limit a breach alert refers to
type AlertKind string

const (
	AlertPortfolioRisk  AlertKind = "portfolio_risk"
	AlertSinglePosition AlertKind = "single_position"
	AlertSectorExposure AlertKind = "sector_exposure"
	AlertCorrelation    AlertKind = "correlation"
	AlertDrawdown       AlertKind = "drawdown"
)

// AlertSeverity grades how far past the limit the observed value is
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert describes one limit breach. Breaches are data, not errors: the
// monitor returns them from CheckLimits and the caller decides what to
// do with the trade.
type Alert struct {
	Kind      AlertKind
	Severity  AlertSeverity
	Symbol    string // offending symbol or sector, empty for portfolio-wide kinds
	Observed  float64
	Limit     float64
	Message   string
	Timestamp time.Time

	// Snapshot is the assessment the breach was judged against.
	Snapshot *risk.Snapshot
}

// String renders the alert for logs and console output
func (a Alert) String() string {
	return fmt.Sprintf("[%s] %s: %s (%.4f > %.4f)", a.Severity, a.Kind, a.Message, a.Observed, a.Limit)
}

// Notifier delivers alerts to an external channel. Implementations must
// be safe for concurrent use.
type Notifier interface {
	SendAlert(alert Alert) error
}
