package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"crossover/internal/config"
	"crossover/internal/gather/us"
	"crossover/internal/marketdata"
	"crossover/internal/store"
	"crossover/internal/util"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	symbols, err := us.Universe(cfg.Gather.Symbols, cfg.Gather.SymbolsCSV)
	if err != nil {
		log.Fatalf("failed to load symbols: %v", err)
	}
	if len(symbols) == 0 {
		log.Fatalf("no symbols configured: set gather.symbols or gather.symbols_csv")
	}

	stores := []store.BarStore{store.NewParquetStore(cfg.Storage.DataDir)}
	if cfg.Storage.SQLitePath != "" {
		sq, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer sq.Close()
		stores = append(stores, sq)
	}

	source := marketdata.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL, cfg.Alpaca.Feed, cfg.Gather.MaxAttempts)
	calendar := us.NewCalendarClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)

	gatherer := us.NewDailyBarGatherer(source, stores, us.DailyBarConfig{
		Symbols:         symbols,
		StartDate:       cfg.Gather.StartDate,
		RateLimitPerMin: cfg.Gather.RateLimitPerMin,
		ProgressDir:     filepath.Join(cfg.Storage.DataDir, "us", "daily"),
	}, func(ctx context.Context) (time.Time, error) {
		return us.LatestFinishedTradingDay(calendar, time.Now())
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting gather", "gatherer", gatherer.Name(), "symbols", len(symbols), "stores", len(stores))
	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("gather error: %v", err)
	}
}
