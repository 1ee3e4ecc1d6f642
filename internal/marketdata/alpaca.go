package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	alpacadata "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"crossover/internal/domain"
	"crossover/internal/util"
)

// BarClient is the part of the Alpaca market data client used here.
type BarClient interface {
	GetBars(symbol string, req alpacadata.GetBarsRequest) ([]alpacadata.Bar, error)
}

// Compile-time interface checks.
var (
	_ BarClient = (*alpacadata.Client)(nil)
	_ Provider  = (*AlpacaProvider)(nil)
	_ BarSource = (*AlpacaProvider)(nil)
)

// AlpacaProvider fetches split and dividend adjusted daily bars from the
// Alpaca market data API.
type AlpacaProvider struct {
	client      BarClient
	feed        string
	maxAttempts int
	baseDelay   time.Duration
	log         *slog.Logger
}

// NewAlpacaProvider creates a provider with its own Alpaca client. An empty
// dataURL uses the SDK default.
func NewAlpacaProvider(apiKey, apiSecret, dataURL, feed string, maxAttempts int) *AlpacaProvider {
	opts := alpacadata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return NewAlpacaProviderWithClient(alpacadata.NewClient(opts), feed, maxAttempts)
}

// NewAlpacaProviderWithClient creates a provider around an existing client.
func NewAlpacaProviderWithClient(client BarClient, feed string, maxAttempts int) *AlpacaProvider {
	if feed == "" {
		feed = "sip"
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AlpacaProvider{
		client:      client,
		feed:        feed,
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		log:         slog.Default().With("provider", "alpaca"),
	}
}

// Name returns the provider identifier.
func (p *AlpacaProvider) Name() string { return "alpaca" }

// Bars fetches the daily bars of symbol whose session dates fall within
// [start, end]. Failed requests are retried with exponential backoff.
func (p *AlpacaProvider) Bars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	symbol = strings.ToUpper(symbol)
	req := alpacadata.GetBarsRequest{
		TimeFrame:  alpacadata.OneDay,
		Adjustment: alpacadata.All,
		Start:      dateOf(start),
		End:        dateOf(end).AddDate(0, 0, 1).Add(-time.Nanosecond),
		Feed:       alpacadata.Feed(p.feed),
	}

	var raw []alpacadata.Bar
	attempt := 0
	err := util.Retry(ctx, p.maxAttempts, p.baseDelay, func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return util.Permanent(err)
		}
		bars, err := p.client.GetBars(symbol, req)
		if err != nil {
			p.log.Warn("GetBars failed", "symbol", symbol, "attempt", attempt, "err", err)
			return err
		}
		raw = bars
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  ab.Timestamp.UTC(),
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	p.log.Debug("bars fetched", "symbol", symbol, "count", len(bars), "attempts", attempt)
	return bars, nil
}

// PriceSeries returns the adjusted close series of symbol over [start, end].
func (p *AlpacaProvider) PriceSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	bars, err := p.Bars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	return SeriesFromBars(bars)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
