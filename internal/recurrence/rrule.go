package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RFC 5545 serialization of rules, for calendar export/import and as the
// persisted form of a rule in storage. The round trip is lossless for every
// field this engine supports.

const rruleDateLayout = "20060102"

var weekdayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RRule renders the rule as an RFC 5545 RRULE value (without the "RRULE:"
// property prefix).
func (r Rule) RRule() string {
	var parts []string
	switch r.Freq {
	case FreqDaily:
		parts = append(parts, "FREQ=DAILY")
	case FreqWeekly:
		parts = append(parts, "FREQ=WEEKLY")
	case FreqMonthly:
		parts = append(parts, "FREQ=MONTHLY")
	case FreqYearly:
		parts = append(parts, "FREQ=YEARLY")
	}
	parts = append(parts, "INTERVAL="+strconv.Itoa(r.Interval))

	if r.Freq == FreqWeekly && !r.ByWeekdays.IsEmpty() {
		codes := make([]string, 0, 7)
		for _, d := range r.ByWeekdays.Days() {
			codes = append(codes, weekdayCodes[d])
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}
	if r.Freq == FreqMonthly {
		switch r.MonthlyMode {
		case MonthlyOnDay:
			if r.MonthDay > 0 {
				parts = append(parts, "BYMONTHDAY="+strconv.Itoa(r.MonthDay))
			}
		case MonthlyOnWeekday:
			ord := int(r.Ordinal)
			if r.Ordinal == OrdinalLast {
				ord = -1
			}
			parts = append(parts, fmt.Sprintf("BYDAY=%d%s", ord, weekdayCodes[r.OrdinalWeekday]))
		}
	}

	switch r.End.Kind {
	case EndOnDate:
		parts = append(parts, "UNTIL="+r.End.Date.Time(time.UTC).Format(rruleDateLayout))
	case EndAfterCount:
		parts = append(parts, "COUNT="+strconv.Itoa(r.End.Count))
	}
	return strings.Join(parts, ";")
}

// ParseRRule parses an RRULE value (an optional "RRULE:" prefix is
// accepted). The returned rule is validated.
func ParseRRule(s string) (Rule, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "RRULE:"))
	if s == "" {
		return Rule{}, fmt.Errorf("%w: empty rrule", ErrInvalidRule)
	}

	r := Rule{Interval: 1}
	seenFreq := false
	for _, part := range strings.Split(s, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return Rule{}, fmt.Errorf("%w: malformed rrule part %q", ErrInvalidRule, part)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "FREQ":
			seenFreq = true
			switch strings.ToUpper(val) {
			case "DAILY":
				r.Freq = FreqDaily
			case "WEEKLY":
				r.Freq = FreqWeekly
			case "MONTHLY":
				r.Freq = FreqMonthly
			case "YEARLY":
				r.Freq = FreqYearly
			default:
				return Rule{}, fmt.Errorf("%w: unsupported FREQ=%s", ErrInvalidRule, val)
			}
		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: invalid INTERVAL=%q", ErrInvalidRule, val)
			}
			r.Interval = n
		case "BYDAY":
			if err := parseByDay(&r, val); err != nil {
				return Rule{}, err
			}
		case "BYMONTHDAY":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: invalid BYMONTHDAY=%q", ErrInvalidRule, val)
			}
			r.MonthlyMode = MonthlyOnDay
			r.MonthDay = n
		case "UNTIL":
			// Accept both the date form and the date-time form.
			raw := val
			if i := strings.IndexByte(raw, 'T'); i > 0 {
				raw = raw[:i]
			}
			t, err := time.Parse(rruleDateLayout, raw)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: invalid UNTIL=%q", ErrInvalidRule, val)
			}
			r.End = EndOn(DateOf(t))
		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Rule{}, fmt.Errorf("%w: invalid COUNT=%q", ErrInvalidRule, val)
			}
			r.End = EndAfter(n)
		default:
			return Rule{}, fmt.Errorf("%w: unsupported rrule part %s", ErrInvalidRule, key)
		}
	}
	if !seenFreq {
		return Rule{}, fmt.Errorf("%w: FREQ is required", ErrInvalidRule)
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func parseByDay(r *Rule, val string) error {
	entries := strings.Split(val, ",")
	if len(entries) == 0 || (len(entries) == 1 && strings.TrimSpace(entries[0]) == "") {
		return fmt.Errorf("%w: BYDAY requires at least one weekday", ErrInvalidRule)
	}

	// An ordinal prefix (e.g. "2TU", "-1FR") selects monthly-by-weekday;
	// a plain weekday list is a weekly set.
	first := strings.TrimSpace(entries[0])
	if len(first) > 2 {
		if len(entries) != 1 {
			return fmt.Errorf("%w: ordinal BYDAY takes a single entry", ErrInvalidRule)
		}
		code := first[len(first)-2:]
		wd, ok := weekdayFromCode(code)
		if !ok {
			return fmt.Errorf("%w: invalid BYDAY weekday %q", ErrInvalidRule, code)
		}
		n, err := strconv.Atoi(first[:len(first)-2])
		if err != nil {
			return fmt.Errorf("%w: invalid BYDAY ordinal %q", ErrInvalidRule, first)
		}
		r.MonthlyMode = MonthlyOnWeekday
		r.OrdinalWeekday = wd
		switch {
		case n == -1:
			r.Ordinal = OrdinalLast
		case n >= 1 && n <= 4:
			r.Ordinal = Ordinal(n)
		default:
			return fmt.Errorf("%w: BYDAY ordinal must be 1..4 or -1, got %d", ErrInvalidRule, n)
		}
		return nil
	}

	var set WeekdaySet
	for _, e := range entries {
		wd, ok := weekdayFromCode(strings.TrimSpace(e))
		if !ok {
			return fmt.Errorf("%w: invalid BYDAY weekday %q", ErrInvalidRule, e)
		}
		set |= Weekdays(wd)
	}
	r.ByWeekdays = set
	return nil
}

func weekdayFromCode(code string) (time.Weekday, bool) {
	code = strings.ToUpper(code)
	for i, c := range weekdayCodes {
		if c == code {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ExDates renders the skip exceptions as an RFC 5545 EXDATE property.
// Returns "" when there is nothing to export.
func ExDates(excs []Exception) string {
	var dates []string
	for _, e := range excs {
		if e.Kind == ExceptionSkip {
			dates = append(dates, e.Date.Time(time.UTC).Format(rruleDateLayout))
		}
	}
	if len(dates) == 0 {
		return ""
	}
	return "EXDATE;VALUE=DATE:" + strings.Join(dates, ",")
}

// ParseExDates parses an EXDATE property (with or without the property
// name) into skip-exception dates.
func ParseExDates(s string) ([]Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return nil, nil
	}
	var out []Date
	for _, part := range strings.Split(s, ",") {
		raw := strings.TrimSpace(part)
		if i := strings.IndexByte(raw, 'T'); i > 0 {
			raw = raw[:i]
		}
		t, err := time.Parse(rruleDateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid EXDATE entry %q", part)
		}
		out = append(out, DateOf(t))
	}
	return out, nil
}
