package recurrence

import (
	"testing"
	"time"
)

func TestAddMonthsClamped(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		from Date
		n    int
		day  int
		want string
	}{
		{name: "jan31 to feb", from: NewDate(2024, time.January, 31), n: 1, day: 31, want: "2024-02-29"},
		{name: "jan31 to feb non-leap", from: NewDate(2023, time.January, 31), n: 1, day: 31, want: "2023-02-28"},
		{name: "jan31 to mar", from: NewDate(2024, time.January, 31), n: 2, day: 31, want: "2024-03-31"},
		{name: "jan31 to apr", from: NewDate(2024, time.January, 31), n: 3, day: 31, want: "2024-04-30"},
		{name: "year carry", from: NewDate(2024, time.November, 15), n: 3, day: 15, want: "2025-02-15"},
		{name: "zero months", from: NewDate(2024, time.June, 10), n: 0, day: 10, want: "2024-06-10"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.AddMonthsClamped(tt.n, tt.day)
			if got.String() != tt.want {
				t.Fatalf("AddMonthsClamped(%d, %d) = %s, want %s", tt.n, tt.day, got, tt.want)
			}
		})
	}
}

func TestNthWeekdayOfMonth(t *testing.T) {
	t.Parallel()
	// September 2025 starts on a Monday.
	got := NthWeekdayOfMonth(2025, time.September, time.Monday, 1)
	if got.String() != "2025-09-01" {
		t.Fatalf("1st Monday = %s, want 2025-09-01", got)
	}
	got = NthWeekdayOfMonth(2025, time.September, time.Tuesday, 2)
	if got.String() != "2025-09-09" {
		t.Fatalf("2nd Tuesday = %s, want 2025-09-09", got)
	}
}

func TestLastWeekdayOfMonth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		year  int
		month time.Month
		wd    time.Weekday
		want  string
	}{
		{2025, time.September, time.Tuesday, "2025-09-30"},
		{2025, time.September, time.Monday, "2025-09-29"},
		{2024, time.February, time.Thursday, "2024-02-29"},
		{2025, time.February, time.Friday, "2025-02-28"},
	}
	for _, tt := range tests {
		got := LastWeekdayOfMonth(tt.year, tt.month, tt.wd)
		if got.String() != tt.want {
			t.Fatalf("LastWeekdayOfMonth(%d, %s, %s) = %s, want %s", tt.year, tt.month, tt.wd, got, tt.want)
		}
		if got.Weekday() != tt.wd {
			t.Fatalf("result %s falls on %s, want %s", got, got.Weekday(), tt.wd)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()
	a := NewDate(2024, time.February, 27)
	b := NewDate(2024, time.March, 2)
	if got := DaysBetween(a, b); got != 4 {
		t.Fatalf("DaysBetween = %d, want 4 (leap February)", got)
	}
	if got := DaysBetween(b, a); got != -4 {
		t.Fatalf("reverse DaysBetween = %d, want -4", got)
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	t.Parallel()
	d, err := ParseDate("2024-07-09")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.String() != "2024-07-09" {
		t.Fatalf("round trip = %s", d)
	}
	if _, err := ParseDate("09/07/2024"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}
