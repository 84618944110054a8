package engine

import (
	"context"
	"fmt"

	"chorewheel/internal/recurrence"
	"chorewheel/internal/store"
	logx "chorewheel/pkg/logx"
)

// Reasons recorded in rotation audit events. Kept as constants so operators
// can grep/filter on them.
const (
	reasonInactive        = "task inactive"
	reasonPaused          = "task paused"
	reasonCadenceNotDue   = "cadence not due today"
	reasonCompletionOff   = "completion rotation disabled"
	reasonIncompleteTask  = "incomplete task exists"
	reasonNoValidMembers  = "no valid members"
	reasonAlreadyAdvanced = "rotation already advanced"
)

// advanceRotation runs the rotation state machine for one task. Every
// attempt, whatever the outcome, appends exactly one audit event.
//
// The advancement itself is a compare-and-swap at the storage boundary;
// losing the swap means a concurrent invocation owns this cycle, and we
// record a skip without creating anything.
func (o *Orchestrator) advanceRotation(ctx context.Context, rt store.RotatingTask, source TriggerSource, today recurrence.Date) (RotationOutcome, error) {
	log := o.log.With(logx.String("rotating_task", rt.ID), logx.String("source", string(source)))
	prev := rt.CurrentIndex

	skip := func(reason string) (RotationOutcome, error) {
		o.appendRotationEvent(ctx, store.RotationEvent{
			RotatingTaskID: rt.ID,
			PreviousIndex:  prev,
			SelectedIndex:  prev,
			NextIndex:      prev,
			Status:         store.RotationSkipped,
			Reason:         reason,
			Source:         string(source),
		})
		log.Debug("rotation skipped", logx.String("reason", reason))
		return RotationOutcome{Status: store.RotationSkipped, Reason: reason}, nil
	}
	fail := func(selected, next int, memberID, reason string) (RotationOutcome, error) {
		o.appendRotationEvent(ctx, store.RotationEvent{
			RotatingTaskID: rt.ID,
			PreviousIndex:  prev,
			SelectedIndex:  selected,
			NextIndex:      next,
			MemberID:       memberID,
			Status:         store.RotationFailed,
			Reason:         reason,
			Source:         string(source),
		})
		log.Warn("rotation failed", logx.String("reason", reason))
		return RotationOutcome{Status: store.RotationFailed, Reason: reason, MemberID: memberID}, nil
	}

	// 1. Eligibility.
	if !rt.Active {
		return skip(reasonInactive)
	}
	if rt.Paused {
		return skip(reasonPaused)
	}
	if source == SourceScheduled && !cadenceDue(rt.Cadence, today) {
		return skip(reasonCadenceNotDue)
	}
	// Cadence-rotated tasks get fresh instances from scheduled runs only;
	// a completion event may only advance tasks that opted into it.
	if source == SourceCompletion && !rt.RotateOnCompletion {
		return skip(reasonCompletionOff)
	}

	// 2. Single-instance invariant.
	open, err := o.store.HasOpenRotationTask(ctx, rt.ID)
	if err != nil {
		return RotationOutcome{}, fmt.Errorf("rotating task %s: probe open task: %w", rt.ID, err)
	}
	if open {
		return skip(reasonIncompleteTask)
	}

	// 3. Member selection. CurrentIndex always names the next member to
	// serve (every creation below writes selected+1 back), so the scan
	// starts at the current slot for completion triggers too; the member
	// who just finished was already stepped past when their instance was
	// created.
	if len(rt.MemberOrder) == 0 {
		return fail(prev, prev, "", reasonNoValidMembers)
	}
	members, err := o.store.ListActiveMembers(ctx, rt.HouseholdID)
	if err != nil {
		return RotationOutcome{}, fmt.Errorf("rotating task %s: list members: %w", rt.ID, err)
	}
	valid := make(map[string]bool, len(members))
	for _, m := range members {
		valid[m.ID] = true
	}
	selected, memberID := -1, ""
	for i := 0; i < len(rt.MemberOrder); i++ {
		idx := (prev + i) % len(rt.MemberOrder)
		if valid[rt.MemberOrder[idx]] {
			selected = idx
			memberID = rt.MemberOrder[idx]
			break
		}
	}
	if selected < 0 {
		return fail(prev, prev, "", reasonNoValidMembers)
	}
	next := (selected + 1) % len(rt.MemberOrder)

	// 4. Reservation: the CAS is the only write path for the index.
	won, err := o.store.SwapRotationIndex(ctx, rt.ID, prev, next)
	if err != nil {
		return RotationOutcome{}, fmt.Errorf("rotating task %s: swap index: %w", rt.ID, err)
	}
	if !won {
		return skip(reasonAlreadyAdvanced)
	}

	// 5. Task + assignment creation, with rollback on partial failure so
	// the index never stays advanced without an assigned task behind it.
	t := store.Task{
		ID:             o.newID(),
		HouseholdID:    rt.HouseholdID,
		RotatingTaskID: rt.ID,
		Title:          rt.Title,
		Description:    rt.Description,
		Points:         rt.Points,
		CompletionRule: store.CompleteAnyOne,
		DueDate:        today,
	}
	if err := o.store.InsertTask(ctx, t); err != nil {
		o.revertRotationIndex(ctx, rt.ID, next, prev)
		return fail(selected, next, memberID, fmt.Sprintf("create task: %v", err))
	}
	if err := o.store.InsertAssignment(ctx, store.Assignment{TaskID: t.ID, MemberID: memberID}); err != nil {
		if derr := o.store.DeleteTask(ctx, t.ID); derr != nil {
			log.Error("rollback task delete failed", logx.Err(derr), logx.String("task", t.ID))
		}
		o.revertRotationIndex(ctx, rt.ID, next, prev)
		return fail(selected, next, memberID, fmt.Sprintf("create assignment: %v", err))
	}

	// 6. Audit the success.
	o.appendRotationEvent(ctx, store.RotationEvent{
		RotatingTaskID: rt.ID,
		PreviousIndex:  prev,
		SelectedIndex:  selected,
		NextIndex:      next,
		MemberID:       memberID,
		TaskID:         t.ID,
		Status:         store.RotationSuccess,
		Source:         string(source),
	})
	log.Info("rotation advanced",
		logx.String("member", memberID),
		logx.Int("prev_index", prev),
		logx.Int("next_index", next),
		logx.String("task", t.ID))

	o.publish(EventRotationAdvanced, RotationOutcome{
		Status:   store.RotationSuccess,
		TaskID:   t.ID,
		MemberID: memberID,
	})
	return RotationOutcome{Status: store.RotationSuccess, TaskID: t.ID, MemberID: memberID}, nil
}

func (o *Orchestrator) revertRotationIndex(ctx context.Context, rotatingTaskID string, from, to int) {
	ok, err := o.store.SwapRotationIndex(ctx, rotatingTaskID, from, to)
	if err != nil {
		o.log.Error("rotation index rollback failed", logx.Err(err), logx.String("rotating_task", rotatingTaskID))
		return
	}
	if !ok {
		// Someone advanced past us between reservation and rollback; the
		// audit trail has both attempts, leave the index alone.
		o.log.Warn("rotation index rollback lost", logx.String("rotating_task", rotatingTaskID))
	}
}

// appendRotationEvent must succeed on every code path; when the store write
// itself fails all we can do is log loudly.
func (o *Orchestrator) appendRotationEvent(ctx context.Context, e store.RotationEvent) {
	e.ID = o.newID()
	e.At = o.now()
	if err := o.store.AppendRotationEvent(ctx, e); err != nil {
		o.log.Error("rotation event append failed", logx.Err(err),
			logx.String("rotating_task", e.RotatingTaskID), logx.String("status", string(e.Status)))
	}
}
