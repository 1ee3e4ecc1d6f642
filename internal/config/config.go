package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"crossover/internal/strategy/builtins"
)

// DefaultPath is used when CROSSOVER_CONFIG is not set.
const DefaultPath = "config/crossover.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the crossover backtester.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Logging  Logging  `yaml:"logging"`
	Backtest Backtest `yaml:"backtest"`
	Gather   Gather   `yaml:"gather"`
	Render   Render   `yaml:"render"`
}

// Storage holds paths for cached market data.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca APIs. BaseURL is the
// trading API, used for the market calendar.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backtest describes one backtest invocation: the instrument, the date
// bounds and the ordered list of window lengths.
type Backtest struct {
	Symbol   string `yaml:"symbol"`
	Market   string `yaml:"market"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Windows  []int  `yaml:"windows"`
	Rule     string `yaml:"rule"`
	Parallel int    `yaml:"parallel"`
	// Source selects the price provider: alpaca, parquet, sqlite or cached.
	Source string `yaml:"source"`
}

// Gather controls the daily bar gathering job.
type Gather struct {
	Symbols         []string `yaml:"symbols"`
	SymbolsCSV      string   `yaml:"symbols_csv"`
	StartDate       string   `yaml:"start_date"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	MaxAttempts     int      `yaml:"max_attempts"`
}

// Render controls chart and report output.
type Render struct {
	OutDir string `yaml:"out_dir"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	JSON   bool   `yaml:"json"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path returns the configuration path from CROSSOVER_CONFIG, or DefaultPath.
func Path() string {
	if v := os.Getenv("CROSSOVER_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, fills defaults and then applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if cfg.Alpaca.Feed == "" {
		cfg.Alpaca.Feed = "sip"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Backtest.Market == "" {
		cfg.Backtest.Market = "us"
	}
	if cfg.Backtest.Rule == "" {
		cfg.Backtest.Rule = builtins.DefaultRule
	}
	if cfg.Backtest.Source == "" {
		cfg.Backtest.Source = "cached"
	}
	if cfg.Gather.StartDate == "" {
		cfg.Gather.StartDate = "2010-01-01"
	}
	if cfg.Gather.RateLimitPerMin == 0 {
		cfg.Gather.RateLimitPerMin = 200
	}
	if cfg.Gather.MaxAttempts == 0 {
		cfg.Gather.MaxAttempts = 3
	}
	if cfg.Render.OutDir == "" {
		cfg.Render.OutDir = "out"
	}
	if cfg.Render.Width == 0 {
		cfg.Render.Width = 980
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = 520
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("BACKTEST_SYMBOL"); v != "" {
		cfg.Backtest.Symbol = v
	}

	if v := os.Getenv("BACKTEST_WINDOWS"); v != "" {
		windows, err := ParseWindows(v)
		if err != nil {
			return fmt.Errorf("BACKTEST_WINDOWS: %w", err)
		}
		cfg.Backtest.Windows = windows
	}

	// Standard Alpaca env vars (highest priority, canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	return nil
}

// ParseWindows parses a comma separated list of window lengths. Order and
// duplicates are preserved.
func ParseWindows(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("window %q: %w", part, err)
		}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, errors.New("no windows")
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the backtest section. Window values are range checked
// against the loaded series later; here they only need to be positive.
func (c *Config) Validate() error {
	b := c.Backtest
	if b.Symbol == "" {
		return errors.New("backtest.symbol is required")
	}
	if len(b.Windows) == 0 {
		return errors.New("backtest.windows must list at least one window")
	}
	for i, w := range b.Windows {
		if w <= 0 {
			return fmt.Errorf("backtest.windows[%d] = %d: must be positive", i, w)
		}
	}
	if _, _, err := b.Range(); err != nil {
		return err
	}
	switch b.Source {
	case "alpaca", "parquet", "sqlite", "cached":
	default:
		return fmt.Errorf("backtest.source %q: want alpaca, parquet, sqlite or cached", b.Source)
	}
	return nil
}

// Range parses the start and end dates (YYYY-MM-DD, UTC). End is inclusive;
// an empty end means today.
func (b Backtest) Range() (start, end time.Time, err error) {
	if b.Start == "" {
		return time.Time{}, time.Time{}, errors.New("backtest.start is required")
	}
	start, err = time.Parse(time.DateOnly, b.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.start: %w", err)
	}
	if b.End == "" {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	} else if end, err = time.Parse(time.DateOnly, b.End); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.end %s is before start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}
