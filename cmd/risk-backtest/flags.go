package main

import (
	"flag"
	"fmt"
	"strings"
)

// Flags holds the parsed command-line options
type Flags struct {
	ConfigPath string
	DataDir    string
	Symbols    map[string]string // symbol -> sector
	Strategy   string
	Profile    string
	Regime     string
	AutoRegime bool

	Balance     float64
	SignalEvery int
	Lookback    int

	OutputXLSX  string
	MetricsAddr string
}

// parseFlags reads the command line. Symbols are given as
// "SYMBOL:sector" pairs separated by commas; the sector may be omitted.
func parseFlags() (*Flags, error) {
	f := &Flags{}

	var symbols string
	flag.StringVar(&f.ConfigPath, "config", "configs/risk.yaml", "Path to risk configuration YAML")
	flag.StringVar(&f.DataDir, "data", "data", "Directory containing <SYMBOL>.csv candle files")
	flag.StringVar(&symbols, "symbols", "", "Comma-separated SYMBOL:sector pairs, e.g. BTCUSDT:crypto,ETHUSDT:crypto")
	flag.StringVar(&f.Strategy, "strategy", "momentum", "Strategy name used for parameter resolution")
	flag.StringVar(&f.Profile, "profile", "", "Risk profile template to apply")
	flag.StringVar(&f.Regime, "regime", "", "Fixed market regime (bull, bear, high_volatility)")
	flag.BoolVar(&f.AutoRegime, "auto-regime", false, "Detect the market regime from price data")
	flag.Float64Var(&f.Balance, "balance", 100000, "Starting cash balance")
	flag.IntVar(&f.SignalEvery, "signal-every", 10, "Generate a signal every N candles per symbol")
	flag.IntVar(&f.Lookback, "lookback", 20, "Momentum lookback in candles")
	flag.StringVar(&f.OutputXLSX, "output", "", "Write results to this Excel workbook")
	flag.StringVar(&f.MetricsAddr, "metrics", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flag.Parse()

	if symbols == "" {
		return nil, fmt.Errorf("at least one symbol is required (-symbols)")
	}
	f.Symbols = make(map[string]string)
	for _, pair := range strings.Split(symbols, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		sector := ""
		if len(parts) == 2 {
			sector = parts[1]
		}
		f.Symbols[parts[0]] = sector
	}
	if f.AutoRegime && f.Regime != "" {
		return nil, fmt.Errorf("-regime and -auto-regime are mutually exclusive")
	}

	return f, nil
}
