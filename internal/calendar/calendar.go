package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a local wall-clock time stored as seconds since midnight.
type ClockTime int

// ParseClock parses "HH:MM" or "HH:MM:SS" 24-hour local time.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}

	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
		}
		vals[i] = v
	}

	if vals[0] < 0 || vals[0] > 23 || vals[1] < 0 || vals[1] > 59 || vals[2] < 0 || vals[2] > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}

	return ClockTime(vals[0]*3600 + vals[1]*60 + vals[2]), nil
}

func (c ClockTime) Hour() int   { return int(c) / 3600 }
func (c ClockTime) Minute() int { return (int(c) % 3600) / 60 }
func (c ClockTime) Second() int { return int(c) % 60 }

func (c ClockTime) String() string {
	if c.Second() == 0 {
		return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
	}
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

// Add returns the clock time shifted by d. The result may run past midnight;
// callers use that to detect trips that do not fit the same day.
func (c ClockTime) Add(d time.Duration) ClockTime {
	return c + ClockTime(d/time.Second)
}

// ClockOf extracts the local wall-clock time of an instant in loc.
func ClockOf(t time.Time, loc *time.Location) ClockTime {
	lt := t.In(loc)
	return ClockTime(lt.Hour()*3600 + lt.Minute()*60 + lt.Second())
}

// DayOfWeek returns the local day of week of an instant, 0=Sunday..6=Saturday.
func DayOfWeek(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday())
}

// DateKey formats the local calendar date of an instant as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// At builds the absolute instant for a local date and clock time.
// DST gaps and overlaps resolve the way time.Date does.
func At(year int, month time.Month, day int, c ClockTime, loc *time.Location) time.Time {
	return time.Date(year, month, day, c.Hour(), c.Minute(), c.Second(), 0, loc)
}

// WithinWindow reports whether [start, end] lies inside [winStart, winEnd].
// Boundaries are inclusive: a trip may begin exactly at window open and must
// end no later than window close.
func WithinWindow(start, end, winStart, winEnd ClockTime) bool {
	return start >= winStart && end <= winEnd
}

// Overlaps reports whether two absolute intervals strictly overlap.
// Intervals are open: an end equal to another's start is not a conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// AddMonths shifts t by n calendar months, clamping to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29, not Mar 2/3).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	shifted := first.AddDate(0, n, 0)
	if last := DaysInMonth(shifted.Year(), shifted.Month()); d > last {
		d = last
	}
	return time.Date(shifted.Year(), shifted.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysInMonth returns the number of days in a calendar month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) Days() int {
	return DaysInMonth(ym.Year, ym.Month)
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// YearMonthOf returns the local calendar month an instant falls in.
func YearMonthOf(t time.Time, loc *time.Location) YearMonth {
	lt := t.In(loc)
	return YearMonth{Year: lt.Year(), Month: lt.Month()}
}
