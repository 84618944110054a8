package store

import (
	"context"
	"testing"
	"time"

	"chorewheel/internal/recurrence"
)

// The memory store must mirror the sqlite semantics the engine leans on:
// the (series, due date) dedup key and the rotation index CAS.

func TestMemoryDedupKey(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()
	due := recurrence.NewDate(2024, time.April, 1)

	ok, err := m.InsertTaskIfAbsent(ctx, Task{ID: "t-1", SeriesID: "s-1", DueDate: due})
	if err != nil || !ok {
		t.Fatalf("first insert: ok=%v err=%v", ok, err)
	}
	ok, err = m.InsertTaskIfAbsent(ctx, Task{ID: "t-2", SeriesID: "s-1", DueDate: due})
	if err != nil || ok {
		t.Fatalf("duplicate insert: ok=%v err=%v", ok, err)
	}
	ok, err = m.InsertTaskIfAbsent(ctx, Task{ID: "t-3", SeriesID: "s-2", DueDate: due})
	if err != nil || !ok {
		t.Fatalf("other series insert: ok=%v err=%v", ok, err)
	}
	if got := len(m.Tasks()); got != 2 {
		t.Fatalf("task count = %d, want 2", got)
	}
}

func TestMemorySwapRotationIndex(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()
	if _, err := m.CreateRotatingTask(ctx, RotatingTask{ID: "rt-1", MemberOrder: []string{"a", "b"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if won, err := m.SwapRotationIndex(ctx, "rt-1", 1, 0); err != nil || won {
		t.Fatalf("stale swap: won=%v err=%v", won, err)
	}
	if won, err := m.SwapRotationIndex(ctx, "rt-1", 0, 1); err != nil || !won {
		t.Fatalf("swap: won=%v err=%v", won, err)
	}
	if _, err := m.SwapRotationIndex(ctx, "rt-missing", 0, 1); err != ErrNotFound {
		t.Fatalf("missing: err=%v, want ErrNotFound", err)
	}
}

func TestMemoryWatermarkOnlyAdvances(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()
	if _, err := m.CreateSeries(ctx, Series{ID: "s-1", HouseholdID: "hh", Active: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	far := recurrence.NewDate(2024, time.June, 30)
	if err := m.AdvanceWatermark(ctx, "s-1", far); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := m.AdvanceWatermark(ctx, "s-1", recurrence.NewDate(2024, time.June, 1)); err != nil {
		t.Fatalf("advance back: %v", err)
	}
	s, ok := m.SeriesByID("s-1")
	if !ok || s.LastGeneratedThrough != far {
		t.Fatalf("watermark = %s", s.LastGeneratedThrough)
	}
	if err := m.AdvanceWatermark(ctx, "s-missing", far); err != ErrNotFound {
		t.Fatalf("missing series: err=%v, want ErrNotFound", err)
	}
}
