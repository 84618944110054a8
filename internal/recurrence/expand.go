package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// ExceptionKind is a per-date deviation from the rule-generated schedule.
type ExceptionKind uint8

const (
	// ExceptionSkip suppresses the occurrence entirely.
	ExceptionSkip ExceptionKind = iota + 1
	// ExceptionOverride keeps the occurrence but replaces template fields
	// for that date only.
	ExceptionOverride
)

func (k ExceptionKind) String() string {
	switch k {
	case ExceptionSkip:
		return "skip"
	case ExceptionOverride:
		return "override"
	default:
		return fmt.Sprintf("exception(%d)", uint8(k))
	}
}

// Override carries the replacement template fields of an override exception.
// Nil pointer fields mean "keep the series template value".
type Override struct {
	Title       *string
	Description *string
	Points      *int
}

// Exception deviates a single occurrence date. A date has at most one
// exception; skip wins over rule-generated presence.
type Exception struct {
	Date     Date
	Kind     ExceptionKind
	Override *Override
}

// Occurrence is one expanded calendar date of a rule.
//
// Skipped occurrences are kept in the result (flagged) so callers can count
// and audit them; the materializer never inserts rows for them.
type Occurrence struct {
	Date     Date
	Skipped  bool
	Override *Override
}

// ErrIterationCap reports that expansion hit the hard iteration cap before
// reaching the window end. The occurrences produced so far are still valid.
var ErrIterationCap = errors.New("recurrence expansion iteration cap exceeded")

// maxExpandSteps bounds expansion so an ill-formed rule can never loop
// forever.
const maxExpandSteps = 1000

// Expand produces the rule's occurrences within [windowStart, windowEnd],
// anchored at seriesStart, with exceptions applied. It is deterministic and
// side-effect free. Dates are ascending.
func Expand(rule Rule, seriesStart, windowStart, windowEnd Date, excs []Exception) ([]Occurrence, error) {
	if err := Validate(rule, seriesStart); err != nil {
		return nil, err
	}
	c := newCollector(rule, windowStart, windowEnd, excs)

	// Count-bounded rules must replay every occurrence since the anchor;
	// everything else can skip straight to the window.
	hint := windowStart
	if rule.End.Kind == EndAfterCount {
		hint = Date{}
	}
	next := stepper(rule, seriesStart, hint)
	for i := 0; i < maxExpandSteps; i++ {
		d, ok := next()
		if !ok || !c.add(d) {
			return c.out, nil
		}
	}
	return c.out, ErrIterationCap
}

// Validate checks the rule plus the anchor the expansion needs.
func Validate(rule Rule, seriesStart Date) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if seriesStart.IsZero() {
		return fmt.Errorf("%w: series start date required", ErrInvalidRule)
	}
	return nil
}

// collector applies end conditions and exceptions to raw occurrence dates.
// Shared by both expanders so their semantics cannot drift apart.
type collector struct {
	rule        Rule
	windowStart Date
	windowEnd   Date
	excs        map[Date]Exception

	out      []Occurrence
	produced int // non-skipped occurrences, for EndAfterCount
}

func newCollector(rule Rule, windowStart, windowEnd Date, excs []Exception) *collector {
	m := make(map[Date]Exception, len(excs))
	for _, e := range excs {
		m[e.Date] = e
	}
	return &collector{rule: rule, windowStart: windowStart, windowEnd: windowEnd, excs: m}
}

// add processes one raw occurrence date. Dates must arrive in ascending
// order. It returns false once expansion must stop.
func (c *collector) add(d Date) bool {
	if c.rule.End.Kind == EndOnDate && d.After(c.rule.End.Date) {
		return false
	}
	if c.rule.End.Kind == EndAfterCount && c.produced >= c.rule.End.Count {
		return false
	}
	if d.After(c.windowEnd) {
		return false
	}

	exc, hasExc := c.excs[d]
	skipped := hasExc && exc.Kind == ExceptionSkip
	if !skipped {
		c.produced++
	}

	if d.Before(c.windowStart) {
		return true
	}
	o := Occurrence{Date: d, Skipped: skipped}
	if hasExc && exc.Kind == ExceptionOverride {
		o.Override = exc.Override
	}
	c.out = append(c.out, o)
	return true
}

// stepper returns a generator of raw occurrence dates (ascending, starting
// at the first occurrence >= seriesStart). A non-zero hint lets the
// generator begin near that date instead of at the anchor; it only ever
// skips whole intervals, so the occurrence grid is unchanged.
func stepper(rule Rule, start, hint Date) func() (Date, bool) {
	skippable := 0
	if !hint.IsZero() && hint.After(start) {
		skippable = DaysBetween(start, hint)
	}

	switch rule.Freq {
	case FreqDaily:
		cur := start.AddDays(skippable / rule.Interval * rule.Interval)
		first := true
		return func() (Date, bool) {
			if first {
				first = false
				return cur, true
			}
			cur = cur.AddDays(rule.Interval)
			return cur, true
		}

	case FreqWeekly:
		stride := 7 * rule.Interval
		if rule.ByWeekdays.IsEmpty() {
			cur := start.AddDays(skippable / stride * stride)
			first := true
			return func() (Date, bool) {
				if first {
					first = false
					return cur, true
				}
				cur = cur.AddDays(stride)
				return cur, true
			}
		}
		// Explicit weekday set: walk days, keeping only active weeks
		// (week index relative to the anchor's week, Sunday-based).
		cur := start.AddDays(skippable / stride * stride)
		started := false
		return func() (Date, bool) {
			d := cur
			if started {
				d = d.AddDays(1)
			}
			// An active weekday arrives within interval+1 weeks.
			for i := 0; i <= 7*(rule.Interval+1); i++ {
				if rule.ByWeekdays.Has(d.Weekday()) && weekIndex(start, d)%rule.Interval == 0 {
					cur = d
					started = true
					return d, true
				}
				d = d.AddDays(1)
			}
			return Date{}, false
		}

	case FreqMonthly:
		day := rule.MonthDay
		if rule.MonthlyMode == MonthlyOnDay && day == 0 {
			day = start.Day
		}
		k := 0
		if !hint.IsZero() && hint.After(start) {
			if months := monthIndex(hint) - monthIndex(start); months > 0 {
				k = months / rule.Interval
			}
		}
		return func() (Date, bool) {
			for ; ; k++ {
				var d Date
				if rule.MonthlyMode == MonthlyOnDay {
					d = start.AddMonthsClamped(k*rule.Interval, day)
				} else {
					d = ordinalWeekdayIn(start.AddMonthsClamped(k*rule.Interval, 1), rule.Ordinal, rule.OrdinalWeekday)
				}
				if d.Before(start) {
					continue
				}
				k++
				return d, true
			}
		}

	case FreqYearly:
		k := 0
		if !hint.IsZero() && hint.Year > start.Year {
			k = (hint.Year - start.Year) / rule.Interval
		}
		return func() (Date, bool) {
			for ; ; k++ {
				y := start.Year + k*rule.Interval
				d := Date{Year: y, Month: start.Month, Day: clampDay(start.Day, y, start.Month)}
				if d.Before(start) {
					continue
				}
				k++
				return d, true
			}
		}

	default:
		return func() (Date, bool) { return Date{}, false }
	}
}

// weekIndex counts Sunday-based weeks between the week containing anchor
// and the week containing d.
func weekIndex(anchor, d Date) int {
	weekStart := anchor.AddDays(-int(anchor.Weekday()))
	return DaysBetween(weekStart, d) / 7
}

func ordinalWeekdayIn(monthAnchor Date, ord Ordinal, wd time.Weekday) Date {
	if ord == OrdinalLast {
		return LastWeekdayOfMonth(monthAnchor.Year, monthAnchor.Month, wd)
	}
	return NthWeekdayOfMonth(monthAnchor.Year, monthAnchor.Month, wd, int(ord))
}
