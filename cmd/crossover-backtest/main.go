package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"crossover/internal/config"
	"crossover/internal/domain"
	"crossover/internal/marketdata"
	"crossover/internal/render"
	"crossover/internal/store"
	"crossover/internal/strategy"
	"crossover/internal/strategy/builtins"
	"crossover/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "instrument to backtest (overrides backtest.symbol)")
	windows := flag.String("windows", "", "comma separated window lengths (overrides backtest.windows)")
	rule := flag.String("rule", "", "signal rule name (overrides backtest.rule)")
	start := flag.String("start", "", "first date, YYYY-MM-DD (overrides backtest.start)")
	end := flag.String("end", "", "last date, YYYY-MM-DD (overrides backtest.end)")
	source := flag.String("source", "", "price source: alpaca, parquet, sqlite or cached")
	outDir := flag.String("out", "", "directory for the chart and JSON report (overrides render.out_dir)")
	writeJSON := flag.Bool("json", false, "also write the full result set as JSON")
	parallel := flag.Int("parallel", -1, "windows evaluated concurrently (overrides backtest.parallel)")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *symbol != "" {
		cfg.Backtest.Symbol = strings.ToUpper(*symbol)
	}
	if *windows != "" {
		ws, err := config.ParseWindows(*windows)
		if err != nil {
			log.Fatalf("invalid -windows: %v", err)
		}
		cfg.Backtest.Windows = ws
	}
	if *rule != "" {
		cfg.Backtest.Rule = *rule
	}
	if *start != "" {
		cfg.Backtest.Start = *start
	}
	if *end != "" {
		cfg.Backtest.End = *end
	}
	if *source != "" {
		cfg.Backtest.Source = *source
	}
	if *outDir != "" {
		cfg.Render.OutDir = *outDir
	}
	if *writeJSON {
		cfg.Render.JSON = true
	}
	if *parallel >= 0 {
		cfg.Backtest.Parallel = *parallel
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	from, to, err := cfg.Backtest.Range()
	if err != nil {
		log.Fatalf("invalid date range: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	provider, closeProvider, err := newProvider(cfg)
	if err != nil {
		log.Fatalf("failed to create price provider: %v", err)
	}
	defer closeProvider()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting backtest",
		"symbol", cfg.Backtest.Symbol,
		"windows", cfg.Backtest.Windows,
		"rule", cfg.Backtest.Rule,
		"source", provider.Name(),
	)

	bt := strategy.NewBacktester(provider, builtins.NewRegistry(), cfg.Backtest.Parallel, logger)
	rs, err := bt.Run(ctx, cfg.Backtest.Rule, cfg.Backtest.Symbol, from, to, cfg.Backtest.Windows)
	if err != nil {
		// Nothing is rendered for a failed run.
		log.Fatalf("backtest failed: %v", err)
	}

	// Everything is rendered before any output is written.
	svg := render.SVGRenderer{Width: cfg.Render.Width, Height: cfg.Render.Height}
	report, err := render.BuildReport(cfg.Backtest.Symbol, rs, svg, cfg.Render.JSON)
	if err != nil {
		log.Fatalf("failed to render report: %v", err)
	}

	base := filepath.Join(cfg.Render.OutDir, fmt.Sprintf("%s-%s", cfg.Backtest.Symbol, cfg.Backtest.Rule))
	if err := writeFile(base+".svg", report.SVG); err != nil {
		log.Fatalf("failed to write chart: %v", err)
	}
	slog.Info("chart written", "path", base+".svg")

	if report.JSON != nil {
		if err := writeFile(base+".json", report.JSON); err != nil {
			log.Fatalf("failed to write JSON: %v", err)
		}
		slog.Info("results written", "path", base+".json")
	}

	if _, err := os.Stdout.Write(report.Table); err != nil {
		log.Fatalf("failed to print summary: %v", err)
	}
}

// newProvider builds the price provider named by backtest.source. The
// returned func releases any store it opened.
func newProvider(cfg *config.Config) (marketdata.Provider, func(), error) {
	market := domain.Market(cfg.Backtest.Market)
	noop := func() {}

	alpacaProvider := func() *marketdata.AlpacaProvider {
		return marketdata.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret,
			cfg.Alpaca.DataURL, cfg.Alpaca.Feed, cfg.Gather.MaxAttempts)
	}

	switch cfg.Backtest.Source {
	case "alpaca":
		return alpacaProvider(), noop, nil
	case "parquet":
		return marketdata.NewStoreProvider("parquet", store.NewParquetStore(cfg.Storage.DataDir), market), noop, nil
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return nil, nil, fmt.Errorf("storage.sqlite_path is required for source sqlite")
		}
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return marketdata.NewStoreProvider("sqlite", s, market), func() { s.Close() }, nil
	case "cached":
		return marketdata.NewCachingProvider(store.NewParquetStore(cfg.Storage.DataDir), alpacaProvider(), market), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Backtest.Source)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
