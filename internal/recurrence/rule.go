package recurrence

import (
	"errors"
	"fmt"
	"time"
)

type Frequency uint8

const (
	FreqDaily Frequency = iota
	FreqWeekly
	FreqMonthly
	FreqYearly
)

func (f Frequency) String() string {
	switch f {
	case FreqDaily:
		return "daily"
	case FreqWeekly:
		return "weekly"
	case FreqMonthly:
		return "monthly"
	case FreqYearly:
		return "yearly"
	default:
		return fmt.Sprintf("frequency(%d)", uint8(f))
	}
}

// MonthlyMode selects how a monthly rule picks its day.
type MonthlyMode uint8

const (
	// MonthlyOnDay repeats on a fixed day-of-month, clamped to short months
	// (day 31 lands on Feb 28/29).
	MonthlyOnDay MonthlyMode = iota
	// MonthlyOnWeekday repeats on an ordinal weekday (e.g. second Tuesday,
	// last Friday).
	MonthlyOnWeekday
)

// Ordinal names a weekday slot within a month.
type Ordinal uint8

const (
	OrdinalFirst Ordinal = iota + 1
	OrdinalSecond
	OrdinalThird
	OrdinalFourth
	OrdinalLast
)

// WeekdaySet is a bitmask over time.Weekday (bit 0 = Sunday).
type WeekdaySet uint8

func Weekdays(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }
func (s WeekdaySet) IsEmpty() bool           { return s == 0 }

func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

type EndKind uint8

const (
	EndNever EndKind = iota
	EndOnDate
	EndAfterCount
)

// EndCondition bounds a rule's expansion.
//
// AfterCount counts occurrences the rule yields, not raw calendar steps.
// An occurrence suppressed by a skip exception is still a scheduled
// occurrence, so it does NOT consume the count.
type EndCondition struct {
	Kind  EndKind
	Date  Date // EndOnDate
	Count int  // EndAfterCount
}

func EndOn(d Date) EndCondition   { return EndCondition{Kind: EndOnDate, Date: d} }
func EndAfter(n int) EndCondition { return EndCondition{Kind: EndAfterCount, Count: n} }

// Rule describes a repeat pattern. The active fields depend on Freq (and,
// for monthly rules, on MonthlyMode); Validate enforces the combinations.
type Rule struct {
	Freq     Frequency
	Interval int

	// Weekly only. Empty means "repeat on the anchor date's weekday".
	ByWeekdays WeekdaySet

	// Monthly only.
	MonthlyMode    MonthlyMode
	MonthDay       int          // MonthlyOnDay; 0 means "anchor date's day"
	Ordinal        Ordinal      // MonthlyOnWeekday
	OrdinalWeekday time.Weekday // MonthlyOnWeekday

	End EndCondition
}

var (
	ErrInvalidRule = errors.New("invalid recurrence rule")
)

func (r Rule) Validate() error {
	if r.Freq > FreqYearly {
		return fmt.Errorf("%w: unknown frequency %d", ErrInvalidRule, r.Freq)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be >= 1, got %d", ErrInvalidRule, r.Interval)
	}
	if r.Freq != FreqWeekly && !r.ByWeekdays.IsEmpty() {
		return fmt.Errorf("%w: weekday set only applies to weekly rules", ErrInvalidRule)
	}
	if r.Freq == FreqMonthly {
		switch r.MonthlyMode {
		case MonthlyOnDay:
			if r.MonthDay < 0 || r.MonthDay > 31 {
				return fmt.Errorf("%w: month day must be in 1..31, got %d", ErrInvalidRule, r.MonthDay)
			}
		case MonthlyOnWeekday:
			if r.Ordinal < OrdinalFirst || r.Ordinal > OrdinalLast {
				return fmt.Errorf("%w: ordinal must be 1st..4th or last", ErrInvalidRule)
			}
			if r.OrdinalWeekday < time.Sunday || r.OrdinalWeekday > time.Saturday {
				return fmt.Errorf("%w: invalid ordinal weekday %d", ErrInvalidRule, r.OrdinalWeekday)
			}
		default:
			return fmt.Errorf("%w: unknown monthly mode %d", ErrInvalidRule, r.MonthlyMode)
		}
	}
	switch r.End.Kind {
	case EndNever:
	case EndOnDate:
		if r.End.Date.IsZero() {
			return fmt.Errorf("%w: end-on-date requires a date", ErrInvalidRule)
		}
	case EndAfterCount:
		if r.End.Count < 1 {
			return fmt.Errorf("%w: end-after-count must be >= 1, got %d", ErrInvalidRule, r.End.Count)
		}
	default:
		return fmt.Errorf("%w: unknown end condition %d", ErrInvalidRule, r.End.Kind)
	}
	return nil
}
