package daemon

import (
	"fmt"
	"time"
)

// MarketSchedule is the regular session in exchange local time
type MarketSchedule struct {
	Location  *time.Location
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
}

// DefaultMarketSchedule returns the NYSE/NASDAQ regular session
func DefaultMarketSchedule() MarketSchedule {
	return MarketSchedule{
		Location:  ETLocation(),
		OpenHour:  9,
		OpenMin:   30,
		CloseHour: 16,
		CloseMin:  0,
	}
}

// MarketStatus describes the session at a point in time
type MarketStatus struct {
	IsOpen      bool
	Now         time.Time
	OpenTime    time.Time
	CloseTime   time.Time
	TimeToOpen  time.Duration
	TimeToClose time.Duration
	Reason      string // "open", "weekend", "holiday", "pre-market", "after-hours"
}

// ETLocation returns US Eastern Time
func ETLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// no tzdata: assume EST
		loc = time.FixedZone("EST", -5*60*60)
	}
	return loc
}

func (s MarketSchedule) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s MarketSchedule) open(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.OpenHour, s.OpenMin, 0, 0, s.loc())
}

func (s MarketSchedule) close(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.CloseHour, s.CloseMin, 0, 0, s.loc())
}

// IsTradingDay reports whether the exchange holds a regular session on t's
// local date
func (s MarketSchedule) IsTradingDay(t time.Time) bool {
	t = t.In(s.loc())
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsUSHoliday(t)
}

// NextTradingDay returns the first trading day strictly after t's local date
func (s MarketSchedule) NextTradingDay(t time.Time) time.Time {
	t = t.In(s.loc())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc()).AddDate(0, 0, 1)
	for !s.IsTradingDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// Status returns the market status at now
func (s MarketSchedule) Status(now time.Time) MarketStatus {
	now = now.In(s.loc())
	status := MarketStatus{
		Now:       now,
		OpenTime:  s.open(now),
		CloseTime: s.close(now),
	}

	nextOpen := func() time.Duration {
		return s.open(s.NextTradingDay(now)).Sub(now)
	}

	switch {
	case now.Weekday() == time.Saturday || now.Weekday() == time.Sunday:
		status.Reason = "weekend"
		status.TimeToOpen = nextOpen()
	case IsUSHoliday(now):
		status.Reason = "holiday"
		status.TimeToOpen = nextOpen()
	case now.Before(status.OpenTime):
		status.Reason = "pre-market"
		status.TimeToOpen = status.OpenTime.Sub(now)
	case !now.Before(status.CloseTime):
		status.Reason = "after-hours"
		status.TimeToOpen = nextOpen()
	default:
		status.IsOpen = true
		status.Reason = "open"
		status.TimeToClose = status.CloseTime.Sub(now)
	}
	return status
}

// NextClose returns the first session close at or after now. The daily
// candle of that session is final once it has passed.
func (s MarketSchedule) NextClose(now time.Time) time.Time {
	now = now.In(s.loc())
	if s.IsTradingDay(now) {
		if c := s.close(now); !now.After(c) {
			return c
		}
	}
	return s.close(s.NextTradingDay(now))
}

// FormatDuration renders d as "3h 20m" or "20m"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// NYSE full-day closures
var usHolidays = map[string]bool{
	"2024-01-01": true, // New Year's Day
	"2024-01-15": true, // MLK Day
	"2024-02-19": true, // Presidents Day
	"2024-03-29": true, // Good Friday
	"2024-05-27": true, // Memorial Day
	"2024-06-19": true, // Juneteenth
	"2024-07-04": true, // Independence Day
	"2024-09-02": true, // Labor Day
	"2024-11-28": true, // Thanksgiving
	"2024-12-25": true, // Christmas

	"2025-01-01": true,
	"2025-01-20": true,
	"2025-02-17": true,
	"2025-04-18": true,
	"2025-05-26": true,
	"2025-06-19": true,
	"2025-07-04": true,
	"2025-09-01": true,
	"2025-11-27": true,
	"2025-12-25": true,

	"2026-01-01": true,
	"2026-01-19": true,
	"2026-02-16": true,
	"2026-04-03": true,
	"2026-05-25": true,
	"2026-06-19": true,
	"2026-07-03": true, // observed
	"2026-09-07": true,
	"2026-11-26": true,
	"2026-12-25": true,

	"2027-01-01": true,
	"2027-01-18": true,
	"2027-02-15": true,
	"2027-03-26": true,
	"2027-05-31": true,
	"2027-06-18": true, // observed
	"2027-07-05": true, // observed
	"2027-09-06": true,
	"2027-11-25": true,
	"2027-12-24": true, // observed
}

// IsUSHoliday reports whether t's date is a NYSE holiday
func IsUSHoliday(t time.Time) bool {
	return usHolidays[t.Format("2006-01-02")]
}
