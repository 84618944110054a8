package recurrence

// maxFilterScanDays bounds the day walk of the filter expander
// (roughly 400 years).
const maxFilterScanDays = 146_000

// ExpandByFilter evaluates the rule the way an RFC 5545 implementation
// evaluates an RRULE: walk every candidate day from the anchor and keep the
// days the rule matches. Slower than Expand but independent of its stepping
// logic, which makes it the reference for calendar interop.
//
// The result is identical to Expand for every valid rule and window.
func ExpandByFilter(rule Rule, seriesStart, windowStart, windowEnd Date, excs []Exception) ([]Occurrence, error) {
	if err := Validate(rule, seriesStart); err != nil {
		return nil, err
	}
	c := newCollector(rule, windowStart, windowEnd, excs)

	d := seriesStart
	for i := 0; i < maxFilterScanDays; i++ {
		if d.After(windowEnd) {
			return c.out, nil
		}
		if matches(rule, seriesStart, d) && !c.add(d) {
			return c.out, nil
		}
		d = d.AddDays(1)
	}
	return c.out, ErrIterationCap
}

// matches reports whether d is an occurrence of rule anchored at start.
// d must be >= start.
func matches(rule Rule, start, d Date) bool {
	switch rule.Freq {
	case FreqDaily:
		return DaysBetween(start, d)%rule.Interval == 0

	case FreqWeekly:
		if rule.ByWeekdays.IsEmpty() {
			days := DaysBetween(start, d)
			return days%7 == 0 && (days/7)%rule.Interval == 0
		}
		return rule.ByWeekdays.Has(d.Weekday()) && weekIndex(start, d)%rule.Interval == 0

	case FreqMonthly:
		if (monthIndex(d)-monthIndex(start))%rule.Interval != 0 {
			return false
		}
		if rule.MonthlyMode == MonthlyOnDay {
			day := rule.MonthDay
			if day == 0 {
				day = start.Day
			}
			return d.Day == clampDay(day, d.Year, d.Month)
		}
		target := ordinalWeekdayIn(Date{Year: d.Year, Month: d.Month, Day: 1}, rule.Ordinal, rule.OrdinalWeekday)
		return d == target

	case FreqYearly:
		if (d.Year-start.Year)%rule.Interval != 0 {
			return false
		}
		return d.Month == start.Month && d.Day == clampDay(start.Day, d.Year, d.Month)

	default:
		return false
	}
}
