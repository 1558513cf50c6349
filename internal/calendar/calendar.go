package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MaxLookbackDays bounds the backwards walk in PreviousTradingDay.
const MaxLookbackDays = 30

// ErrNoTradingDay means no open day was found within MaxLookbackDays.
var ErrNoTradingDay = errors.New("no trading day within lookback window")

// Calendar reports exchange trading days.
type Calendar interface {
	IsTradingDay(ctx context.Context, day time.Time) (bool, error)
}

// WeekdayCalendar treats Monday to Friday as open, minus explicit holidays.
type WeekdayCalendar struct {
	Holidays map[string]bool // keyed by "2006-01-02"
}

// NewWeekdayCalendar builds a calendar from "YYYY-MM-DD" holiday dates.
func NewWeekdayCalendar(holidays []string) (*WeekdayCalendar, error) {
	c := &WeekdayCalendar{Holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		d, err := time.Parse("2006-01-02", h)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h, err)
		}
		c.Holidays[d.Format("2006-01-02")] = true
	}
	return c, nil
}

func (c *WeekdayCalendar) IsTradingDay(_ context.Context, day time.Time) (bool, error) {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	}
	return !c.Holidays[day.Format("2006-01-02")], nil
}

// PreviousTradingDay returns midnight of the most recent open day on or before day.
func PreviousTradingDay(ctx context.Context, cal Calendar, day time.Time) (time.Time, error) {
	d := truncateDay(day)
	for i := 0; i <= MaxLookbackDays; i++ {
		open, err := cal.IsTradingDay(ctx, d)
		if err != nil {
			return time.Time{}, fmt.Errorf("trading calendar: %w", err)
		}
		if open {
			return d, nil
		}
		d = d.AddDate(0, 0, -1)
	}
	return time.Time{}, fmt.Errorf("%w: before %s", ErrNoTradingDay, day.Format("2006-01-02"))
}

// DefaultRange picks the date range used when none is given. Before closeAt ("HH:MM") today's
// session is incomplete, so the range ends on the previous open day; at or after the close it
// may end today. start is end minus months.
func DefaultRange(ctx context.Context, cal Calendar, now time.Time, closeAt string, months int) (start, end time.Time, err error) {
	cutoff, err := time.Parse("15:04", closeAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("close time %q: %w", closeAt, err)
	}
	from := truncateDay(now)
	closing := from.Add(time.Duration(cutoff.Hour())*time.Hour + time.Duration(cutoff.Minute())*time.Minute)
	if now.Before(closing) {
		from = from.AddDate(0, 0, -1)
	}
	end, err = PreviousTradingDay(ctx, cal, from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return end.AddDate(0, -months, 0), end, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
