package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/quant-risk-core/internal/monitor"
	"github.com/ducminhle1904/quant-risk-core/internal/risk"
	"github.com/ducminhle1904/quant-risk-core/internal/trading"
)

// ExcelStyles holds the workbook formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
	BaseStyle     int
}

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteWorkbook writes trades, snapshots and alerts to an Excel workbook
func (r *DefaultExcelReporter) WriteWorkbook(records []*trading.EnhancedTradeRecord, snapshots []*risk.Snapshot, alerts []monitor.Alert, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const snapshotsSheet = "Snapshots"
	const alertsSheet = "Alerts"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	fx.NewSheet(snapshotsSheet)
	fx.NewSheet(alertsSheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, records, styles); err != nil {
		return err
	}
	if err := r.writeSnapshotsSheet(fx, snapshotsSheet, snapshots, styles); err != nil {
		return err
	}
	if err := r.writeAlertsSheet(fx, alertsSheet, alerts, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// createExcelStyles creates the workbook styles
func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, records []*trading.EnhancedTradeRecord, styles ExcelStyles) error {
	headers := []string{"Time", "Symbol", "Sector", "Strategy", "Direction", "Quantity",
		"Entry Price", "Notional", "Size Fraction", "Sizing Method", "Fallback",
		"Stop Loss", "Regime", "Profile", "Risk Score"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	for i, rec := range records {
		row := i + 2
		values := []interface{}{
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Symbol,
			rec.Sector,
			rec.Strategy,
			string(rec.Direction),
			rec.Quantity,
			rec.EntryPrice,
			rec.Notional,
			rec.Fraction,
			string(rec.SizingMethod),
			rec.FellBack,
			rec.StopLoss,
			string(rec.Regime),
			rec.Profile,
			rec.RiskScore,
		}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell(8, row), cell(8, row), styles.CurrencyStyle)
		fx.SetCellStyle(sheet, cell(9, row), cell(9, row), styles.PercentStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeSnapshotsSheet(fx *excelize.File, sheet string, snapshots []*risk.Snapshot, styles ExcelStyles) error {
	headers := []string{"Time", "Equity", "Expected Shortfall", "Max Drawdown",
		"Max Correlation", "Beta", "Risk Score", "Stale", "Warnings"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	for i, snap := range snapshots {
		row := i + 2
		warnings := ""
		for j, w := range snap.Warnings {
			if j > 0 {
				warnings += "; "
			}
			warnings += w
		}
		values := []interface{}{
			snap.Timestamp.Format("2006-01-02 15:04:05"),
			snap.Equity,
			snap.ExpectedShortfall,
			snap.MaxDrawdown,
			snap.MaxPairwiseCorrelation,
			snap.Beta,
			snap.Score,
			snap.Stale,
			warnings,
		}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell(2, row), cell(2, row), styles.CurrencyStyle)
		fx.SetCellStyle(sheet, cell(3, row), cell(4, row), styles.PercentStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeAlertsSheet(fx *excelize.File, sheet string, alerts []monitor.Alert, styles ExcelStyles) error {
	headers := []string{"Time", "Severity", "Kind", "Subject", "Observed", "Limit", "Message"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	for i, alert := range alerts {
		row := i + 2
		values := []interface{}{
			alert.Timestamp.Format("2006-01-02 15:04:05"),
			string(alert.Severity),
			string(alert.Kind),
			alert.Symbol,
			alert.Observed,
			alert.Limit,
			alert.Message,
		}
		if err := r.writeRow(fx, sheet, row, values); err != nil {
			return err
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeHeader(fx *excelize.File, sheet string, headers []string, styles ExcelStyles) error {
	for i, header := range headers {
		if err := fx.SetCellValue(sheet, cell(i+1, 1), header); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(sheet, cell(1, 1), cell(len(headers), 1), styles.HeaderStyle)
}

func (r *DefaultExcelReporter) writeRow(fx *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		if err := fx.SetCellValue(sheet, cell(i+1, row), value); err != nil {
			return err
		}
	}
	return nil
}

// cell converts 1-based column/row indices to an A1-style reference
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
