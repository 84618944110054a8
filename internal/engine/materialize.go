package engine

import (
	"context"
	"errors"
	"fmt"

	"chorewheel/internal/recurrence"
	"chorewheel/internal/store"
	logx "chorewheel/pkg/logx"
)

// materializeSeries expands one series over the window and inserts the task
// rows that do not exist yet. A failure on one occurrence never aborts the
// rest of the batch; failures come back as error strings for the run log.
//
// The watermark moves only after a clean batch: a failed insert leaves it
// put so the next run retries the same dates, and the dedup key keeps that
// retry from duplicating the rows that did land.
func (o *Orchestrator) materializeSeries(ctx context.Context, s store.Series, windowStart, windowEnd recurrence.Date) (inserted, skipped int, errs []string) {
	log := o.log.With(logx.String("series", s.ID))

	// A series end date tightens the window; the watermark pulls the start
	// past dates earlier runs already materialized.
	if !s.EndDate.IsZero() && s.EndDate.Before(windowEnd) {
		windowEnd = s.EndDate
	}
	if !s.LastGeneratedThrough.IsZero() && !s.LastGeneratedThrough.Before(windowStart) {
		windowStart = s.LastGeneratedThrough.AddDays(1)
	}
	if windowEnd.Before(windowStart) {
		return 0, 0, nil
	}

	excRows, err := o.store.ListExceptions(ctx, s.ID)
	if err != nil {
		return 0, 0, []string{fmt.Sprintf("series %s: list exceptions: %v", s.ID, err)}
	}
	excs := make([]recurrence.Exception, 0, len(excRows))
	for _, e := range excRows {
		excs = append(excs, recurrence.Exception{Date: e.Date, Kind: e.Kind, Override: e.Override})
	}

	occs, err := recurrence.Expand(s.Rule, s.StartDate, windowStart, windowEnd, excs)
	capped := false
	if err != nil {
		if !errors.Is(err, recurrence.ErrIterationCap) {
			return 0, 0, []string{fmt.Sprintf("series %s: expand: %v", s.ID, err)}
		}
		// Cap hit: keep what we got, flag the series.
		capped = true
		log.Warn("expansion hit iteration cap; window truncated",
			logx.String("window_end", windowEnd.String()),
			logx.Int("occurrences", len(occs)))
	}

	for _, occ := range occs {
		if occ.Skipped {
			continue
		}
		t := taskFromSeries(s, occ)
		t.ID = o.newID()
		ok, err := o.store.InsertTaskIfAbsent(ctx, t)
		if err != nil {
			errs = append(errs, fmt.Sprintf("series %s @ %s: insert: %v", s.ID, occ.Date, err))
			continue
		}
		if ok {
			inserted++
		} else {
			skipped++
		}
	}

	// A truncated expansion only vouches for the dates it produced.
	through := windowEnd
	if capped {
		if len(occs) == 0 {
			through = recurrence.Date{}
		} else {
			through = occs[len(occs)-1].Date
		}
	}
	if len(errs) == 0 && !through.IsZero() {
		if err := o.store.AdvanceWatermark(ctx, s.ID, through); err != nil {
			errs = append(errs, fmt.Sprintf("series %s: advance watermark: %v", s.ID, err))
		}
	}

	log.Debug("series materialized",
		logx.Int("inserted", inserted),
		logx.Int("skipped", skipped),
		logx.Int("errors", len(errs)))
	return inserted, skipped, errs
}

// taskFromSeries stamps a task row from the series template, with override
// fields applied for override-exception occurrences.
func taskFromSeries(s store.Series, occ recurrence.Occurrence) store.Task {
	t := store.Task{
		HouseholdID:    s.HouseholdID,
		SeriesID:       s.ID,
		Title:          s.Title,
		Description:    s.Description,
		Points:         s.Points,
		CompletionRule: s.CompletionRule,
		DueDate:        occ.Date,
	}
	if ov := occ.Override; ov != nil {
		if ov.Title != nil {
			t.Title = *ov.Title
		}
		if ov.Description != nil {
			t.Description = *ov.Description
		}
		if ov.Points != nil {
			t.Points = *ov.Points
		}
	}
	return t
}
