package reporting

import (
	"github.com/ducminhle1904/quant-risk-core/internal/monitor"
	"github.com/ducminhle1904/quant-risk-core/internal/risk"
	"github.com/ducminhle1904/quant-risk-core/internal/trading"
)

// Package reporting renders risk-run results to the console and to
// Excel workbooks.

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintTrades(records []*trading.EnhancedTradeRecord)
	PrintSnapshot(snap *risk.Snapshot)
	PrintAlerts(alerts []monitor.Alert)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteWorkbook(records []*trading.EnhancedTradeRecord, snapshots []*risk.Snapshot, alerts []monitor.Alert, path string) error
}
