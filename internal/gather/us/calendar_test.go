package us

import (
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

type fakeCalendar struct {
	days []alpaca.CalendarDay
	err  error
}

func (f *fakeCalendar) GetCalendar(_ alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error) {
	return f.days, f.err
}

func week() *fakeCalendar {
	return &fakeCalendar{days: []alpaca.CalendarDay{
		{Date: "2024-06-03"}, {Date: "2024-06-04"}, {Date: "2024-06-05"},
		{Date: "2024-06-06"}, {Date: "2024-06-07"},
	}}
}

func TestLatestFinishedTradingDay(t *testing.T) {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before cutoff uses previous session", time.Date(2024, 6, 7, 15, 0, 0, 0, et), "2024-06-06"},
		{"after cutoff uses today", time.Date(2024, 6, 7, 21, 0, 0, 0, et), "2024-06-07"},
		{"weekend uses friday", time.Date(2024, 6, 9, 12, 0, 0, 0, et), "2024-06-07"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LatestFinishedTradingDay(week(), tc.now)
			if err != nil {
				t.Fatalf("LatestFinishedTradingDay: %v", err)
			}
			if got.Format(time.DateOnly) != tc.want {
				t.Errorf("LatestFinishedTradingDay = %s, want %s", got.Format(time.DateOnly), tc.want)
			}
		})
	}
}

func TestLatestFinishedTradingDayErrors(t *testing.T) {
	now := time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC)
	if _, err := LatestFinishedTradingDay(&fakeCalendar{err: errors.New("401")}, now); err == nil {
		t.Error("calendar failure should be returned")
	}
	if _, err := LatestFinishedTradingDay(&fakeCalendar{}, now); err == nil {
		t.Error("empty calendar should be an error")
	}
}
