package store

import (
	"time"

	"chorewheel/internal/recurrence"
)

// CompletionRule says how a multi-assignee task counts as done.
type CompletionRule string

const (
	CompleteAnyOne   CompletionRule = "any_one"
	CompleteEveryone CompletionRule = "everyone"
)

// Series is a recurring chore definition: one recurrence rule plus the
// template its generated task rows are stamped from.
type Series struct {
	ID          string
	HouseholdID string

	// OriginalSeriesID back-references the series this one was split from,
	// preserving the history of already-generated instances.
	OriginalSeriesID string

	Title          string
	Description    string
	Points         int
	Assignees      []string
	CompletionRule CompletionRule

	Rule      recurrence.Rule
	StartDate recurrence.Date
	EndDate   recurrence.Date // zero = open-ended

	Active bool

	// LastGeneratedThrough is the watermark: occurrences up to and
	// including this date have been materialized.
	LastGeneratedThrough recurrence.Date

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeriesException is a single-date deviation; at most one row per
// (series, date).
type SeriesException struct {
	SeriesID string
	Date     recurrence.Date
	Kind     recurrence.ExceptionKind
	Override *recurrence.Override
}

// Task is a materialized chore instance. For series-generated tasks the
// pair (SeriesID, DueDate) is unique; that pair is the dedup key that makes
// generation idempotent.
type Task struct {
	ID          string
	HouseholdID string

	SeriesID       string // set for series-generated tasks
	RotatingTaskID string // set for rotation instances

	Title          string
	Description    string
	Points         int
	CompletionRule CompletionRule

	DueDate     recurrence.Date
	CompletedAt *time.Time
	Hidden      bool

	CreatedAt time.Time
}

// Assignment binds a task to a household member.
type Assignment struct {
	TaskID   string
	MemberID string
}

type Member struct {
	ID          string
	HouseholdID string
	Name        string
	Active      bool
}

// CadenceFreq is the schedule grain of a rotating task.
type CadenceFreq string

const (
	CadenceDaily   CadenceFreq = "daily"
	CadenceWeekly  CadenceFreq = "weekly"
	CadenceMonthly CadenceFreq = "monthly"
)

// Cadence answers "should a fresh instance exist today".
type Cadence struct {
	Freq     CadenceFreq
	Weekdays recurrence.WeekdaySet // weekly; empty = any day
	MonthDay int                   // monthly; 0 = day 1
}

// RotatingTask cycles one chore through an ordered ring of members.
// CurrentIndex is only ever mutated through SwapRotationIndex.
type RotatingTask struct {
	ID          string
	HouseholdID string

	Title       string
	Description string
	Points      int

	MemberOrder  []string
	CurrentIndex int

	Cadence            Cadence
	RotateOnCompletion bool

	Active bool
	Paused bool
}

type RotationStatus string

const (
	RotationSuccess RotationStatus = "success"
	RotationSkipped RotationStatus = "skipped"
	RotationFailed  RotationStatus = "failed"
)

// RotationEvent is the append-only audit row written for every scheduling
// attempt, successful or not. Never updated, never deleted.
type RotationEvent struct {
	ID             string
	RotatingTaskID string

	PreviousIndex int
	SelectedIndex int
	NextIndex     int

	MemberID string
	TaskID   string

	Status RotationStatus
	Reason string
	Source string

	At time.Time
}

// RunLog is the write-once observability record of one orchestrator run.
type RunLog struct {
	ID          string
	HouseholdID string

	WindowStart recurrence.Date
	WindowEnd   recurrence.Date

	Inserted int
	Skipped  int
	Errors   []string

	TookMS int64
	At     time.Time
}
