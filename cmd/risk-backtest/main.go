package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/quant-risk-core/internal/config"
	"github.com/ducminhle1904/quant-risk-core/internal/indicators"
	"github.com/ducminhle1904/quant-risk-core/internal/logger"
	"github.com/ducminhle1904/quant-risk-core/internal/monitor"
	"github.com/ducminhle1904/quant-risk-core/internal/monitoring"
	"github.com/ducminhle1904/quant-risk-core/internal/portfolio"
	"github.com/ducminhle1904/quant-risk-core/internal/regime"
	"github.com/ducminhle1904/quant-risk-core/internal/risk"
	"github.com/ducminhle1904/quant-risk-core/internal/stoploss"
	"github.com/ducminhle1904/quant-risk-core/internal/trading"
	"github.com/ducminhle1904/quant-risk-core/pkg/data"
	"github.com/ducminhle1904/quant-risk-core/pkg/reporting"
	"github.com/ducminhle1904/quant-risk-core/pkg/types"
)

// regimeRefresh is how often (in candles of the first symbol) the
// detector re-classifies the market when -auto-regime is set.
const regimeRefresh = 50

// tick pairs one candle with its symbol for the merged replay stream
type tick struct {
	symbol string
	candle types.OHLCV
}

func main() {
	// Optional .env for local runs; absence is not an error.
	godotenv.Load()

	flags, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	appLog, err := logger.NewLogger("risk-backtest")
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	defer appLog.Close()

	// Configuration errors are fatal: a half-validated risk setup must
	// never size trades.
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		appLog.LogError("Config Load", err)
		fmt.Fprintf(os.Stderr, "❌ invalid risk configuration: %v\n", err)
		os.Exit(1)
	}

	var metrics *monitoring.Metrics
	if flags.MetricsAddr != "" {
		metrics = monitoring.NewMetrics()
		go func() {
			if err := monitoring.Serve(flags.MetricsAddr, metrics); err != nil {
				appLog.LogError("Metrics Server", err)
			}
		}()
	}

	pf := portfolio.New(flags.Balance)
	engine := risk.NewEngine(appLog)
	stops := stoploss.NewManager(appLog)
	mon := monitor.NewMonitor(engine, nil, appLog)
	coordinator := trading.NewCoordinator(cfg, engine, stops, mon, metrics, appLog, pf)

	if flags.Regime != "" {
		r, err := regime.Parse(flags.Regime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		coordinator.SetRegime(r)
	}
	coordinator.SetProfile(flags.Profile)

	ticks, firstSymbol, err := loadTicks(flags)
	if err != nil {
		appLog.LogError("Data Load", err)
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	appLog.Status("replaying %d candles across %d symbols", len(ticks), len(flags.Symbols))

	alerts := replay(coordinator, flags, ticks, firstSymbol, appLog)

	report(coordinator, mon, alerts, flags, appLog)
}

// loadTicks reads every symbol's candles and merges them into one
// chronological stream.
func loadTicks(flags *Flags) ([]tick, string, error) {
	provider := data.NewCSVProvider(flags.DataDir)

	var ticks []tick
	firstSymbol := ""
	for symbol := range flags.Symbols {
		candles, err := provider.LoadCandles(symbol)
		if err != nil {
			return nil, "", err
		}
		if firstSymbol == "" || symbol < firstSymbol {
			firstSymbol = symbol
		}
		for _, candle := range candles {
			ticks = append(ticks, tick{symbol: symbol, candle: candle})
		}
	}

	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].candle.Timestamp.Before(ticks[j].candle.Timestamp)
	})
	return ticks, firstSymbol, nil
}

// replay feeds the merged stream through the coordinator, generating a
// momentum signal every N candles per symbol. Returned alerts are the
// limit breaches that rejected trades.
func replay(coordinator *trading.Coordinator, flags *Flags, ticks []tick, firstSymbol string, appLog *logger.Logger) []monitor.Alert {
	detector := regime.NewDetector(regime.DefaultDetectorConfig())
	counts := make(map[string]int)
	var rejections []monitor.Alert

	for _, t := range ticks {
		if _, err := coordinator.OnCandle(t.symbol, t.candle); err != nil {
			appLog.LogError("Candle Update", err)
			continue
		}
		counts[t.symbol]++

		if flags.AutoRegime && t.symbol == firstSymbol && counts[t.symbol]%regimeRefresh == 0 {
			if detected := detector.Detect(coordinator.Candles(firstSymbol)); detected != regime.TypeUnknown {
				coordinator.SetRegime(detected)
			}
		}

		if counts[t.symbol]%flags.SignalEvery != 0 {
			continue
		}
		sig, ok := momentumSignal(t.symbol, flags.Symbols[t.symbol], flags.Strategy, flags.Lookback, coordinator.Candles(t.symbol))
		if !ok {
			continue
		}

		_, alerts, err := coordinator.Evaluate(sig, t.candle.Close, t.candle.Timestamp)
		if err != nil {
			appLog.LogError("Trade Evaluation", err)
			continue
		}
		rejections = append(rejections, alerts...)
	}
	return rejections
}

// momentumSignal emits a long signal when price trades above its moving
// average, and a short signal when below. Probability and payoff are
// crude constants; real strategies would estimate them.
func momentumSignal(symbol, sector, strategy string, lookback int, history []types.OHLCV) (types.Signal, bool) {
	ma, err := indicators.SMA(history, lookback)
	if err != nil {
		return types.Signal{}, false
	}
	last := history[len(history)-1]

	direction := types.DirectionLong
	if last.Close < ma {
		direction = types.DirectionShort
	}
	strength := (last.Close - ma) / ma
	if strength < 0 {
		strength = -strength
	}

	return types.Signal{
		Symbol:         symbol,
		Sector:         sector,
		Strategy:       strategy,
		Direction:      direction,
		Strength:       strength,
		WinProbability: 0.55,
		PayoffRatio:    2.0,
		Timestamp:      last.Timestamp,
	}, true
}

// report prints the run summary and optionally writes the workbook.
func report(coordinator *trading.Coordinator, mon *monitor.Monitor, alerts []monitor.Alert, flags *Flags, appLog *logger.Logger) {
	console := reporting.NewDefaultConsoleReporter()
	records := coordinator.Records()
	history := mon.History()

	console.PrintTrades(records)
	if len(history) > 0 {
		console.PrintSnapshot(history[len(history)-1])
	}
	console.PrintAlerts(alerts)

	if flags.OutputXLSX != "" {
		excel := reporting.NewDefaultExcelReporter()
		if err := excel.WriteWorkbook(records, history, alerts, flags.OutputXLSX); err != nil {
			appLog.LogError("Excel Output", err)
			fmt.Fprintf(os.Stderr, "❌ could not write workbook: %v\n", err)
			return
		}
		fmt.Printf("📊 Results written to %s\n", flags.OutputXLSX)
	}

	if flags.MetricsAddr != "" {
		fmt.Printf("📈 Metrics still serving on %s, press Ctrl+C to exit\n", flags.MetricsAddr)
		select {}
	}
}
