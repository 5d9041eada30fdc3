package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// CSVProvider loads candle files named <SYMBOL>.csv from a directory.
// The header row is matched case-insensitively; column order does not
// matter. Timestamps may be RFC3339 or unix epoch (seconds or millis).
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider rooted at dir
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// LoadCandles implements Provider
func (p *CSVProvider) LoadCandles(symbol string) ([]types.OHLCV, error) {
	path := filepath.Join(p.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open candle file for %s: %w", symbol, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read header of %s: %w", path, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var candles []types.OHLCV
	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		line++

		candle, err := parseCandle(record, cols)
		if err != nil {
			// Malformed rows are skipped, not fatal; exchange exports
			// routinely contain partial last rows.
			continue
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("%s contains no usable candles", path)
	}
	return candles, nil
}

// columnMap holds the index of each required column in the CSV header
type columnMap struct {
	timestamp, open, high, low, close, volume int
}

func mapColumns(header []string) (*columnMap, error) {
	cols := &columnMap{timestamp: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "timestamp", "time", "date", "open_time":
			cols.timestamp = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		case "volume", "vol":
			cols.volume = i
		}
	}
	if cols.timestamp < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.close < 0 {
		return nil, fmt.Errorf("header missing required columns (need timestamp/open/high/low/close), got %v", header)
	}
	return cols, nil
}

func parseCandle(record []string, cols *columnMap) (types.OHLCV, error) {
	var candle types.OHLCV
	var err error

	if candle.Timestamp, err = parseTimestamp(record[cols.timestamp]); err != nil {
		return candle, err
	}
	if candle.Open, err = strconv.ParseFloat(record[cols.open], 64); err != nil {
		return candle, err
	}
	if candle.High, err = strconv.ParseFloat(record[cols.high], 64); err != nil {
		return candle, err
	}
	if candle.Low, err = strconv.ParseFloat(record[cols.low], 64); err != nil {
		return candle, err
	}
	if candle.Close, err = strconv.ParseFloat(record[cols.close], 64); err != nil {
		return candle, err
	}
	if cols.volume >= 0 && cols.volume < len(record) {
		candle.Volume, _ = strconv.ParseFloat(record[cols.volume], 64)
	}
	return candle, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts.UTC(), nil
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		if epoch > 1e12 {
			return time.UnixMilli(epoch).UTC(), nil
		}
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
