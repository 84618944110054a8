package engine

import (
	"time"

	"chorewheel/internal/store"
)

// TriggerSource says what caused a rotation attempt. It lands in the audit
// log verbatim.
type TriggerSource string

const (
	SourceScheduled  TriggerSource = "scheduled"
	SourceCompletion TriggerSource = "completion"
	SourceManual     TriggerSource = "manual"
)

// RunResult aggregates one orchestrator invocation.
type RunResult struct {
	Inserted int
	Skipped  int
	Errors   []string
	Duration time.Duration
}

// RotationOutcome reports a single rotation attempt.
type RotationOutcome struct {
	Status   store.RotationStatus
	Reason   string
	TaskID   string
	MemberID string
}

// Event types published on the bus for collaborators (UI, reward ledger).
const (
	EventGenerationCompleted = "generation.completed"
	EventRotationAdvanced    = "rotation.advanced"
	EventTaskCompleted       = "task.completed"
)

// TaskCompleted is the bus payload collaborators publish when a chore is
// finished; completion-triggered rotation listens for it.
type TaskCompleted struct {
	TaskID         string
	RotatingTaskID string
}

// GenerationCompleted is the bus payload published after each run.
type GenerationCompleted struct {
	HouseholdID string
	Inserted    int
	Skipped     int
	Errors      int
}
