package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorewheel/internal/eventbus"
	"chorewheel/internal/recurrence"
	"chorewheel/internal/store"
	logx "chorewheel/pkg/logx"
)

const testHousehold = "hh-1"

// testNow is a Wednesday.
var testNow = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

func newTestOrch(t *testing.T, bus eventbus.Bus) (*Orchestrator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	o := New(mem, logx.Logger{}, bus)
	o.SetLocation(time.UTC)
	o.now = func() time.Time { return testNow }
	var seq atomic.Int64
	o.newID = func() string { return fmt.Sprintf("id-%04d", seq.Add(1)) }
	return o, mem
}

func mustCreateSeries(t *testing.T, mem *store.Memory, s store.Series) store.Series {
	t.Helper()
	if s.HouseholdID == "" {
		s.HouseholdID = testHousehold
	}
	s.Active = true
	out, err := mem.CreateSeries(context.Background(), s)
	require.NoError(t, err)
	return out
}

func mustCreateMembers(t *testing.T, mem *store.Memory, active map[string]bool) {
	t.Helper()
	for id, act := range active {
		_, err := mem.CreateMember(context.Background(), store.Member{
			ID: id, HouseholdID: testHousehold, Name: id, Active: act,
		})
		require.NoError(t, err)
	}
}

func dailyRule() recurrence.Rule {
	return recurrence.Rule{Freq: recurrence.FreqDaily, Interval: 1}
}

func date(y int, m time.Month, d int) recurrence.Date {
	return recurrence.NewDate(y, m, d)
}

// ---- Series materialization ----

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	mustCreateSeries(t, mem, store.Series{
		ID: "s-dishes", Title: "dishes", Rule: dailyRule(), StartDate: date(2024, time.January, 1),
	})

	ctx := context.Background()
	start, end := date(2024, time.January, 1), date(2024, time.January, 7)

	first, err := o.Run(ctx, testHousehold, start, end)
	require.NoError(t, err)
	assert.Equal(t, 7, first.Inserted)
	assert.Empty(t, first.Errors)

	second, err := o.Run(ctx, testHousehold, start, end)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted, "re-running the window must create nothing")
	assert.Equal(t, 0, second.Skipped, "the watermark keeps covered dates from being re-scanned")

	require.Len(t, mem.Tasks(), 7)
	s, ok := mem.SeriesByID("s-dishes")
	require.True(t, ok)
	assert.Equal(t, end, s.LastGeneratedThrough)
	assert.Len(t, mem.Runs(), 2)
}

func TestRunOverlappingWindows(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	mustCreateSeries(t, mem, store.Series{
		ID: "s-1", Title: "trash", Rule: dailyRule(), StartDate: date(2024, time.January, 1),
	})

	ctx := context.Background()
	res, err := o.Run(ctx, testHousehold, date(2024, time.January, 1), date(2024, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Inserted)

	// Shifted window: the first run's watermark covers days 4..5, so only
	// 6..8 are even expanded.
	res, err = o.Run(ctx, testHousehold, date(2024, time.January, 4), date(2024, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 0, res.Skipped)
	assert.Len(t, mem.Tasks(), 8)
}

func TestRunRetriesWindowAfterInsertFailure(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	mustCreateSeries(t, mem, store.Series{
		ID: "s-1", Title: "sweep", Rule: dailyRule(), StartDate: date(2024, time.January, 1),
	})

	ctx := context.Background()
	start, end := date(2024, time.January, 1), date(2024, time.January, 3)

	mem.FailInsertTask = errors.New("disk full")
	res, err := o.Run(ctx, testHousehold, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	require.Len(t, res.Errors, 1)

	// The failed batch must not move the watermark, so the same window is
	// retried in full and the missing day is backfilled.
	s, ok := mem.SeriesByID("s-1")
	require.True(t, ok)
	assert.True(t, s.LastGeneratedThrough.IsZero())

	res, err = o.Run(ctx, testHousehold, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped, "already-landed rows dedup, not duplicate")
	assert.Empty(t, res.Errors)

	s, ok = mem.SeriesByID("s-1")
	require.True(t, ok)
	assert.Equal(t, end, s.LastGeneratedThrough)
	assert.Len(t, mem.Tasks(), 3)
}

func TestRunSkipExceptionSuppressesTask(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	mustCreateSeries(t, mem, store.Series{
		ID: "s-1", Title: "vacuum", Rule: dailyRule(), StartDate: date(2024, time.January, 1),
	})
	ctx := context.Background()
	require.NoError(t, mem.PutException(ctx, store.SeriesException{
		SeriesID: "s-1", Date: date(2024, time.January, 3), Kind: recurrence.ExceptionSkip,
	}))

	res, err := o.Run(ctx, testHousehold, date(2024, time.January, 1), date(2024, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Inserted)

	for _, task := range mem.Tasks() {
		assert.NotEqual(t, "2024-01-03", task.DueDate.String(), "skipped date must not materialize")
	}
}

func TestRunOverrideExceptionRestampsTemplate(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	mustCreateSeries(t, mem, store.Series{
		ID: "s-1", Title: "mop floors", Points: 5,
		Rule: dailyRule(), StartDate: date(2024, time.January, 1),
	})
	ctx := context.Background()
	title, points := "deep clean floors", 12
	require.NoError(t, mem.PutException(ctx, store.SeriesException{
		SeriesID: "s-1", Date: date(2024, time.January, 2), Kind: recurrence.ExceptionOverride,
		Override: &recurrence.Override{Title: &title, Points: &points},
	}))

	_, err := o.Run(ctx, testHousehold, date(2024, time.January, 1), date(2024, time.January, 3))
	require.NoError(t, err)

	var overridden, plain int
	for _, task := range mem.Tasks() {
		if task.DueDate.String() == "2024-01-02" {
			assert.Equal(t, title, task.Title)
			assert.Equal(t, points, task.Points)
			overridden++
		} else {
			assert.Equal(t, "mop floors", task.Title)
			assert.Equal(t, 5, task.Points)
			plain++
		}
	}
	assert.Equal(t, 1, overridden)
	assert.Equal(t, 2, plain)
}

func TestRunSeriesEndDateTightensWindow(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	mustCreateSeries(t, mem, store.Series{
		ID: "s-1", Title: "water plants", Rule: dailyRule(),
		StartDate: date(2024, time.January, 1), EndDate: date(2024, time.January, 3),
	})

	res, err := o.Run(context.Background(), testHousehold, date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
}

func TestRunRejectsInvalidWindow(t *testing.T) {
	t.Parallel()
	o, _ := newTestOrch(t, nil)
	_, err := o.Run(context.Background(), testHousehold, date(2024, time.January, 5), date(2024, time.January, 1))
	require.Error(t, err)
	_, err = o.Run(context.Background(), testHousehold, recurrence.Date{}, date(2024, time.January, 1))
	require.Error(t, err)
}

func TestRunPublishesCompletionEvent(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	o, mem := newTestOrch(t, bus)
	mustCreateSeries(t, mem, store.Series{
		ID: "s-1", Title: "laundry", Rule: dailyRule(), StartDate: date(2024, time.January, 1),
	})
	_, err := o.Run(context.Background(), testHousehold, date(2024, time.January, 1), date(2024, time.January, 2))
	require.NoError(t, err)

	select {
	case ev := <-ch:
		require.Equal(t, EventGenerationCompleted, ev.Type)
		payload, ok := ev.Data.(GenerationCompleted)
		require.True(t, ok)
		assert.Equal(t, testHousehold, payload.HouseholdID)
		assert.Equal(t, 2, payload.Inserted)
	case <-time.After(time.Second):
		t.Fatal("no generation event published")
	}
}

// ---- Rotation ----

func rotatingFixture() store.RotatingTask {
	return store.RotatingTask{
		ID:           "rt-1",
		HouseholdID:  testHousehold,
		Title:        "take out trash",
		Points:       3,
		MemberOrder:  []string{"alice", "bob", "carol"},
		CurrentIndex: 0,
		Cadence:      store.Cadence{Freq: store.CadenceDaily},

		RotateOnCompletion: true,
		Active:             true,
	}
}

func TestRotationAdvances(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true, "carol": true})
	_, err := mem.CreateRotatingTask(ctx, rotatingFixture())
	require.NoError(t, err)

	out, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	require.Equal(t, store.RotationSuccess, out.Status)
	assert.Equal(t, "alice", out.MemberID, "scheduled trigger serves the current member")

	rt, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rt.CurrentIndex)

	tasks := mem.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "rt-1", tasks[0].RotatingTaskID)
	assert.Equal(t, "2024-01-10", tasks[0].DueDate.String())

	asgs := mem.Assignments()
	require.Len(t, asgs, 1)
	assert.Equal(t, tasks[0].ID, asgs[0].TaskID)
	assert.Equal(t, "alice", asgs[0].MemberID)

	events := mem.Events()
	require.Len(t, events, 1)
	assert.Equal(t, store.RotationSuccess, events[0].Status)
	assert.Equal(t, 0, events[0].PreviousIndex)
	assert.Equal(t, 1, events[0].NextIndex)
	assert.Equal(t, string(SourceScheduled), events[0].Source)
}

func TestRotationCompletionKeepsRingOrder(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true, "carol": true})
	_, err := mem.CreateRotatingTask(ctx, rotatingFixture())
	require.NoError(t, err)

	// The index already stepped past alice when her instance was created,
	// so a completion trigger must serve bob next, then carol, never
	// skipping a member.
	served := []string{}
	out, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	require.Equal(t, store.RotationSuccess, out.Status)
	served = append(served, out.MemberID)

	for i := 0; i < 2; i++ {
		require.NoError(t, mem.CompleteTask(ctx, out.TaskID, testNow))
		out, err = o.GenerateRotation(ctx, "rt-1", SourceCompletion)
		require.NoError(t, err)
		require.Equal(t, store.RotationSuccess, out.Status)
		served = append(served, out.MemberID)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, served)

	rt, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, rt.CurrentIndex, "serving the whole ring wraps back to the first slot")
}

func TestRotationCompletionRequiresOptIn(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true})

	// Schedule-rotated task: fresh instances belong to Monday runs, and
	// testNow is a Wednesday. Completing an instance mid-week must not
	// spawn the next one early.
	rt := rotatingFixture()
	rt.MemberOrder = []string{"alice", "bob"}
	rt.RotateOnCompletion = false
	rt.Cadence = store.Cadence{Freq: store.CadenceWeekly, Weekdays: recurrence.Weekdays(time.Monday)}
	_, err := mem.CreateRotatingTask(ctx, rt)
	require.NoError(t, err)

	out, err := o.GenerateRotation(ctx, "rt-1", SourceCompletion)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSkipped, out.Status)
	assert.Equal(t, "completion rotation disabled", out.Reason)

	assert.Empty(t, mem.Tasks())
	got, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentIndex)
}

func TestRotationSkipsWhenOpenTaskExists(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true})
	rt := rotatingFixture()
	rt.MemberOrder = []string{"alice", "bob"}
	_, err := mem.CreateRotatingTask(ctx, rt)
	require.NoError(t, err)

	first, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	require.Equal(t, store.RotationSuccess, first.Status)

	second, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSkipped, second.Status)
	assert.Equal(t, "incomplete task exists", second.Reason)

	// Completing the open task unblocks the next cycle.
	require.NoError(t, mem.CompleteTask(ctx, first.TaskID, testNow))
	third, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSuccess, third.Status)
	assert.Equal(t, "bob", third.MemberID)
}

func TestRotationSkipsInactiveAndPaused(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()

	inactive := rotatingFixture()
	inactive.ID = "rt-off"
	inactive.Active = false
	_, err := mem.CreateRotatingTask(ctx, inactive)
	require.NoError(t, err)

	paused := rotatingFixture()
	paused.ID = "rt-paused"
	paused.Paused = true
	_, err = mem.CreateRotatingTask(ctx, paused)
	require.NoError(t, err)

	out, err := o.GenerateRotation(ctx, "rt-off", SourceManual)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSkipped, out.Status)
	assert.Equal(t, "task inactive", out.Reason)

	out, err = o.GenerateRotation(ctx, "rt-paused", SourceManual)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSkipped, out.Status)
	assert.Equal(t, "task paused", out.Reason)

	assert.Empty(t, mem.Tasks())
	assert.Len(t, mem.Events(), 2, "every attempt leaves an audit row")
}

func TestRotationCadenceGatesScheduledOnly(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true})

	rt := rotatingFixture()
	rt.MemberOrder = []string{"alice", "alice2"}
	// testNow is a Wednesday; a Monday-only cadence is not due.
	rt.Cadence = store.Cadence{Freq: store.CadenceWeekly, Weekdays: recurrence.Weekdays(time.Monday)}
	_, err := mem.CreateRotatingTask(ctx, rt)
	require.NoError(t, err)

	out, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSkipped, out.Status)
	assert.Equal(t, "cadence not due today", out.Reason)

	// Manual triggers bypass the cadence gate.
	out, err = o.GenerateRotation(ctx, "rt-1", SourceManual)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSuccess, out.Status)
}

func TestRotationScansPastInvalidMembers(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	// alice left the household, bob is next in ring order.
	mustCreateMembers(t, mem, map[string]bool{"alice": false, "bob": true, "carol": true})
	_, err := mem.CreateRotatingTask(ctx, rotatingFixture())
	require.NoError(t, err)

	out, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	require.Equal(t, store.RotationSuccess, out.Status)
	assert.Equal(t, "bob", out.MemberID)

	rt, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rt.CurrentIndex, "next index follows the selected slot, not the stale one")
}

func TestRotationFailsWithNoValidMembers(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": false, "bob": false, "carol": false})
	_, err := mem.CreateRotatingTask(ctx, rotatingFixture())
	require.NoError(t, err)

	out, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	assert.Equal(t, store.RotationFailed, out.Status)
	assert.Equal(t, "no valid members", out.Reason)

	rt, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, rt.CurrentIndex, "failed selection must not move the ring")
	assert.Empty(t, mem.Tasks())
}

func TestRotationRollsBackOnAssignmentFailure(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true, "carol": true})
	_, err := mem.CreateRotatingTask(ctx, rotatingFixture())
	require.NoError(t, err)

	mem.FailInsertAssignment = errors.New("disk full")
	out, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	assert.Equal(t, store.RotationFailed, out.Status)

	// No half-created state: task gone, index back where it started.
	assert.Empty(t, mem.Tasks())
	assert.Empty(t, mem.Assignments())
	rt, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, rt.CurrentIndex)

	events := mem.Events()
	require.Len(t, events, 1)
	assert.Equal(t, store.RotationFailed, events[0].Status)

	// The ring is usable again immediately.
	out, err = o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	assert.Equal(t, store.RotationSuccess, out.Status)
	assert.Equal(t, "alice", out.MemberID)
}

func TestRotationTaskFailureRevertsIndex(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true, "carol": true})
	_, err := mem.CreateRotatingTask(ctx, rotatingFixture())
	require.NoError(t, err)

	mem.FailInsertTask = errors.New("constraint violated")
	out, err := o.GenerateRotation(ctx, "rt-1", SourceScheduled)
	require.NoError(t, err)
	assert.Equal(t, store.RotationFailed, out.Status)

	rt, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, rt.CurrentIndex)
	assert.Empty(t, mem.Tasks())
}

func TestRotationConcurrentAttemptsSingleWinner(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true, "carol": true})
	_, err := mem.CreateRotatingTask(ctx, rotatingFixture())
	require.NoError(t, err)

	// All attempts race from the same snapshot, the way two overlapping
	// generation runs would; the index CAS must let exactly one through.
	snapshot, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	today := recurrence.DateOf(testNow)

	const attempts = 8
	var wg sync.WaitGroup
	var successes atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := o.advanceRotation(ctx, snapshot, SourceScheduled, today)
			if err != nil {
				return
			}
			if out.Status == store.RotationSuccess {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load(), "exactly one concurrent attempt may win")
	require.Len(t, mem.Tasks(), 1)
	require.Len(t, mem.Assignments(), 1)
	rt, err := mem.GetRotatingTask(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rt.CurrentIndex, "the ring advanced exactly once")
	assert.Len(t, mem.Events(), attempts, "every attempt is audited")
}

func TestGenerateRotationUnknownID(t *testing.T) {
	t.Parallel()
	o, _ := newTestOrch(t, nil)
	_, err := o.GenerateRotation(context.Background(), "rt-missing", SourceManual)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunCoversRotatingTasks(t *testing.T) {
	t.Parallel()
	o, mem := newTestOrch(t, nil)
	ctx := context.Background()
	mustCreateMembers(t, mem, map[string]bool{"alice": true, "bob": true})
	rt := rotatingFixture()
	rt.MemberOrder = []string{"alice", "bob"}
	_, err := mem.CreateRotatingTask(ctx, rt)
	require.NoError(t, err)

	res, err := o.Run(ctx, testHousehold, date(2024, time.January, 10), date(2024, time.January, 12))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted, "the rotation instance counts as inserted")
	require.Len(t, mem.Tasks(), 1)
	assert.Equal(t, "rt-1", mem.Tasks()[0].RotatingTaskID)
}

// ---- Cadence ----

func TestCadenceDue(t *testing.T) {
	t.Parallel()
	wed := date(2024, time.January, 10)
	tests := []struct {
		name    string
		cadence store.Cadence
		today   recurrence.Date
		want    bool
	}{
		{"daily always", store.Cadence{Freq: store.CadenceDaily}, wed, true},
		{"weekly any day", store.Cadence{Freq: store.CadenceWeekly}, wed, true},
		{"weekly matching day", store.Cadence{Freq: store.CadenceWeekly, Weekdays: recurrence.Weekdays(time.Wednesday)}, wed, true},
		{"weekly other day", store.Cadence{Freq: store.CadenceWeekly, Weekdays: recurrence.Weekdays(time.Monday)}, wed, false},
		{"monthly default first", store.Cadence{Freq: store.CadenceMonthly}, date(2024, time.February, 1), true},
		{"monthly default other day", store.Cadence{Freq: store.CadenceMonthly}, date(2024, time.February, 2), false},
		{"monthly fixed day", store.Cadence{Freq: store.CadenceMonthly, MonthDay: 10}, wed, true},
		{"monthly clamped day 31", store.Cadence{Freq: store.CadenceMonthly, MonthDay: 31}, date(2024, time.February, 29), true},
		{"unknown freq", store.Cadence{Freq: store.CadenceFreq("hourly")}, wed, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cadenceDue(tt.cadence, tt.today))
		})
	}
}
