package recurrence

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil calendar date with no time-of-day or zone attached.
// The zero value is treated as "unset" throughout the repo.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string { return d.Time(time.UTC).Format(dateLayout) }

// Time returns midnight of the date in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() time.Weekday { return d.Time(time.UTC).Weekday() }

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AddDays relies on time.Date normalization for month/year carry.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// AddMonthsClamped moves n months forward and pins the day-of-month to day,
// clamped to the target month's length. This avoids the time.AddDate
// behavior where Jan 31 + 1 month silently rolls over into March.
func (d Date) AddMonthsClamped(n, day int) Date {
	months := d.Year*12 + int(d.Month) - 1 + n
	y := months / 12
	m := time.Month(months%12 + 1)
	return Date{Year: y, Month: m, Day: clampDay(day, y, m)}
}

func clampDay(day, year int, month time.Month) int {
	if day < 1 {
		day = 1
	}
	if max := DaysInMonth(year, month); day > max {
		return max
	}
	return day
}

func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns b - a in whole days.
func DaysBetween(a, b Date) int {
	return int(b.Time(time.UTC).Sub(a.Time(time.UTC)) / (24 * time.Hour))
}

func monthIndex(d Date) int { return d.Year*12 + int(d.Month) - 1 }

// NthWeekdayOfMonth returns the n-th (1-based) wd of the month.
// Every month has at least four of each weekday, so n in 1..4 always exists.
func NthWeekdayOfMonth(year int, month time.Month, wd time.Weekday, n int) Date {
	first := Date{Year: year, Month: month, Day: 1}
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDays(offset + (n-1)*7)
}

// LastWeekdayOfMonth scans backward from the month's final day.
func LastWeekdayOfMonth(year int, month time.Month, wd time.Weekday) Date {
	last := Date{Year: year, Month: month, Day: DaysInMonth(year, month)}
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDays(-offset)
}
