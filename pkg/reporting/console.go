package reporting

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/quant-risk-core/internal/monitor"
	"github.com/ducminhle1904/quant-risk-core/internal/risk"
	"github.com/ducminhle1904/quant-risk-core/internal/trading"
)

// DefaultConsoleReporter renders tables to stdout
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// PrintTrades renders the accepted trade records
func (r *DefaultConsoleReporter) PrintTrades(records []*trading.EnhancedTradeRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ACCEPTED TRADES")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Time", "Symbol", "Dir", "Qty", "Entry", "Stop", "Size %", "Method", "Score"})
	for _, rec := range records {
		method := string(rec.SizingMethod)
		if rec.FellBack {
			method += " (fallback)"
		}
		t.AppendRow(table.Row{
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Symbol,
			rec.Direction,
			fmt.Sprintf("%.6f", rec.Quantity),
			fmt.Sprintf("%.4f", rec.EntryPrice),
			fmt.Sprintf("%.4f", rec.StopLoss),
			fmt.Sprintf("%.2f%%", rec.Fraction*100),
			method,
			fmt.Sprintf("%.1f", rec.RiskScore),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// PrintSnapshot renders one portfolio risk snapshot
func (r *DefaultConsoleReporter) PrintSnapshot(snap *risk.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PORTFOLIO RISK")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📅 As Of", snap.Timestamp.Format(time.RFC3339)},
		{"💰 Equity", fmt.Sprintf("$%.2f", snap.Equity)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", snap.MaxDrawdown*100)},
		{"🎯 Risk Score", fmt.Sprintf("%.1f / 10", snap.Score)},
		{"📈 Beta", fmt.Sprintf("%.2f", snap.Beta)},
		{"🔗 Max Correlation", fmt.Sprintf("%.2f", snap.MaxPairwiseCorrelation)},
	})

	t.AppendSeparator()
	for level, v := range snap.VaR {
		t.AppendRow(table.Row{
			fmt.Sprintf("⚠️ VaR %.0f%%", level*100),
			fmt.Sprintf("%.2f%%", v*100),
		})
	}
	t.AppendRow(table.Row{"⚠️ Expected Shortfall", fmt.Sprintf("%.2f%%", snap.ExpectedShortfall*100)})

	if snap.Stale {
		t.AppendSeparator()
		t.AppendRow(table.Row{"⏰ Data", "STALE"})
	}

	t.Render()

	for _, warning := range snap.Warnings {
		fmt.Printf("  ⚠️  %s\n", warning)
	}
	fmt.Println()
}

// PrintAlerts renders limit-breach alerts
func (r *DefaultConsoleReporter) PrintAlerts(alerts []monitor.Alert) {
	if len(alerts) == 0 {
		fmt.Println("✅ No risk alerts")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("RISK ALERTS")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Time", "Severity", "Kind", "Subject", "Observed", "Limit"})
	for _, alert := range alerts {
		t.AppendRow(table.Row{
			alert.Timestamp.Format("2006-01-02 15:04"),
			alert.Severity,
			alert.Kind,
			alert.Symbol,
			fmt.Sprintf("%.4f", alert.Observed),
			fmt.Sprintf("%.4f", alert.Limit),
		})
	}

	t.Render()
	fmt.Println()
}
