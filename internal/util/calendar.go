package util

import (
	"time"

	"crossover/internal/domain"
)

// TradingCalendar knows which dates carry a daily session for a market.
// Only weekends are excluded; exchange holidays are treated as sessions.
type TradingCalendar struct {
	market domain.Market
}

// NewTradingCalendar creates a TradingCalendar for the given market.
func NewTradingCalendar(market domain.Market) *TradingCalendar {
	return &TradingCalendar{
		market: market,
	}
}

// Market returns the calendar's market.
func (tc *TradingCalendar) Market() domain.Market { return tc.market }

// IsSessionDay reports whether a daily session is expected on t's date.
func (tc *TradingCalendar) IsSessionDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// NextSession returns the first session date on or after t's date.
func (tc *TradingCalendar) NextSession(t time.Time) time.Time {
	d := dateOf(t)
	for !tc.IsSessionDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevSession returns the last session date on or before t's date.
func (tc *TradingCalendar) PrevSession(t time.Time) time.Time {
	d := dateOf(t)
	for !tc.IsSessionDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
