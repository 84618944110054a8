package engine

import (
	"chorewheel/internal/recurrence"
	"chorewheel/internal/store"
)

// cadenceDue reports whether a rotating task's cadence wants a fresh
// instance on the given day. This is the single-date cousin of the range
// expansion in package recurrence.
func cadenceDue(c store.Cadence, today recurrence.Date) bool {
	switch c.Freq {
	case store.CadenceDaily:
		return true
	case store.CadenceWeekly:
		// No configured days means any day qualifies.
		return c.Weekdays.IsEmpty() || c.Weekdays.Has(today.Weekday())
	case store.CadenceMonthly:
		day := c.MonthDay
		if day == 0 {
			day = 1
		}
		// Clamp so day 31 still fires in short months.
		if max := recurrence.DaysInMonth(today.Year, today.Month); day > max {
			day = max
		}
		return today.Day == day
	default:
		return false
	}
}
