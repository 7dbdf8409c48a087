package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"qsim/internal/backtest"
	"qsim/internal/config"
	"qsim/internal/database"
	"qsim/internal/logger"
	"qsim/internal/market/price"
)

// One-shot backtest runner. Reads prices from a CSV file or the configured
// database and writes the result as JSON to stdout.
func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "configuration file path")
		csvPath    = flag.String("csv", "", "price history CSV (timestamp,price); overrides the database source")
		strategy   = flag.String("strategy", "dca", "strategy: dca, grid, momentum, meanReversion")
		symbol     = flag.String("symbol", "BTC/USDT", "market symbol")
		days       = flag.Int("days", 30, "lookback window in days")
		capital    = flag.Float64("capital", 10000, "initial capital")
		size       = flag.Float64("size", 100, "position size per trigger")
		stopLoss   = flag.Float64("stop-loss", 0, "stop loss percent (0 disables)")
		takeProfit = flag.Float64("take-profit", 0, "take profit percent (0 disables)")
		pretty     = flag.Bool("pretty", false, "indent JSON output")
	)
	flag.Parse()

	_ = godotenv.Load()

	provider, err := buildProvider(*configPath, *csvPath)
	if err != nil {
		log.Fatalf("Failed to build price source: %v", err)
	}

	appLog := logger.NewLogger(logger.Config{Level: logger.LevelWarn, Format: logger.FormatText, Output: "stderr"})
	engine := backtest.NewEngine(provider, appLog)

	end := time.Now().UTC()
	cfg := &backtest.Config{
		Strategy:          backtest.Strategy(*strategy),
		Symbol:            *symbol,
		StartDate:         end.AddDate(0, 0, -*days),
		EndDate:           end,
		InitialCapital:    *capital,
		PositionSize:      *size,
		StopLossPercent:   *stopLoss,
		TakeProfitPercent: *takeProfit,
	}

	result, err := engine.Run(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	fmt.Fprintf(os.Stderr, "%s on %s: %d trades, final capital %.2f\n",
		cfg.Strategy, cfg.Symbol, result.Metrics.TotalTrades, result.FinalCapital)
}

func buildProvider(configPath, csvPath string) (price.Provider, error) {
	if csvPath != "" {
		return price.LoadCSV(csvPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}
	return price.NewPostgresProvider(db), nil
}
