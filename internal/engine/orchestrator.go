package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chorewheel/internal/eventbus"
	"chorewheel/internal/recurrence"
	"chorewheel/internal/store"
	logx "chorewheel/pkg/logx"
)

// Orchestrator is the entry point of the generation engine. It holds no
// state between invocations; everything lives in the store.
type Orchestrator struct {
	store store.Store
	log   logx.Logger
	bus   eventbus.Bus
	loc   *time.Location

	// Overridable for tests.
	now   func() time.Time
	newID func() string
}

func New(st store.Store, log logx.Logger, bus eventbus.Bus) *Orchestrator {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Orchestrator{
		store: st,
		log:   log,
		bus:   bus,
		loc:   time.Local,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SetLocation sets the location used to resolve "today" for rotation
// cadence checks.
func (o *Orchestrator) SetLocation(loc *time.Location) {
	if loc != nil {
		o.loc = loc
	}
}

// Run generates task instances for one household over [windowStart,
// windowEnd]: every active series is materialized, and every active,
// unpaused rotating task whose cadence is due today gets one scheduling
// attempt. Safe to invoke repeatedly over overlapping windows.
func (o *Orchestrator) Run(ctx context.Context, householdID string, windowStart, windowEnd recurrence.Date) (RunResult, error) {
	started := o.now()
	if windowStart.IsZero() || windowEnd.IsZero() || windowEnd.Before(windowStart) {
		return RunResult{}, fmt.Errorf("invalid window [%s, %s]", windowStart, windowEnd)
	}

	var res RunResult
	log := o.log.With(logx.String("household", householdID))
	log.Info("generation run started",
		logx.String("window_start", windowStart.String()),
		logx.String("window_end", windowEnd.String()))

	series, err := o.store.ListActiveSeries(ctx, householdID)
	if err != nil {
		return RunResult{}, fmt.Errorf("list series: %w", err)
	}
	for _, s := range series {
		ins, skp, errs := o.materializeSeries(ctx, s, windowStart, windowEnd)
		res.Inserted += ins
		res.Skipped += skp
		res.Errors = append(res.Errors, errs...)
	}

	// Rotating tasks are "today"-scoped, not range-generated.
	today := recurrence.DateOf(o.now().In(o.loc))
	rts, err := o.store.ListActiveRotatingTasks(ctx, householdID)
	if err != nil {
		return RunResult{}, fmt.Errorf("list rotating tasks: %w", err)
	}
	for _, rt := range rts {
		out, err := o.advanceRotation(ctx, rt, SourceScheduled, today)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("rotating task %s: %v", rt.ID, err))
			continue
		}
		switch out.Status {
		case store.RotationSuccess:
			res.Inserted++
		case store.RotationSkipped:
			res.Skipped++
		case store.RotationFailed:
			res.Errors = append(res.Errors, fmt.Sprintf("rotating task %s: %s", rt.ID, out.Reason))
		}
	}

	res.Duration = o.now().Sub(started)
	run := store.RunLog{
		ID:          o.newID(),
		HouseholdID: householdID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Inserted:    res.Inserted,
		Skipped:     res.Skipped,
		Errors:      res.Errors,
		TookMS:      res.Duration.Milliseconds(),
		At:          started,
	}
	if err := o.store.AppendRunLog(ctx, run); err != nil {
		o.log.Error("run log append failed", logx.Err(err))
	}

	o.publish(EventGenerationCompleted, GenerationCompleted{
		HouseholdID: householdID,
		Inserted:    res.Inserted,
		Skipped:     res.Skipped,
		Errors:      len(res.Errors),
	})
	log.Info("generation run finished",
		logx.Int("inserted", res.Inserted),
		logx.Int("skipped", res.Skipped),
		logx.Int("errors", len(res.Errors)),
		logx.Duration("took", res.Duration))
	return res, nil
}

// GenerateRotation runs one immediate rotation attempt, outside any window
// generation. Completion-triggered calls pass SourceCompletion; only tasks
// configured to rotate on completion will advance for it.
func (o *Orchestrator) GenerateRotation(ctx context.Context, rotatingTaskID string, source TriggerSource) (RotationOutcome, error) {
	rt, err := o.store.GetRotatingTask(ctx, rotatingTaskID)
	if err != nil {
		return RotationOutcome{}, fmt.Errorf("get rotating task %s: %w", rotatingTaskID, err)
	}
	today := recurrence.DateOf(o.now().In(o.loc))
	return o.advanceRotation(ctx, rt, source, today)
}

func (o *Orchestrator) publish(eventType string, data any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(eventbus.Event{Type: eventType, Data: data})
}
