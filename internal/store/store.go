package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"chorewheel/internal/recurrence"
	logx "chorewheel/pkg/logx"
)

var (
	ErrNotFound = errors.New("store: not found")
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default for real deployments)
//   - "memory": in-process maps (tests, demos)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the generation engine.
type Store interface {
	// Series.
	CreateSeries(ctx context.Context, s Series) (Series, error)
	ListActiveSeries(ctx context.Context, householdID string) ([]Series, error)
	ListExceptions(ctx context.Context, seriesID string) ([]SeriesException, error)
	PutException(ctx context.Context, e SeriesException) error

	// InsertTaskIfAbsent inserts t unless a task already exists for
	// (t.SeriesID, t.DueDate). Returns whether a row was inserted. The
	// miss is an expected outcome, not an error.
	InsertTaskIfAbsent(ctx context.Context, t Task) (bool, error)

	// AdvanceWatermark moves the series watermark forward to through.
	// A through date at or behind the current watermark is a no-op.
	AdvanceWatermark(ctx context.Context, seriesID string, through recurrence.Date) error

	// Rotation.
	CreateRotatingTask(ctx context.Context, rt RotatingTask) (RotatingTask, error)
	ListActiveRotatingTasks(ctx context.Context, householdID string) ([]RotatingTask, error)
	GetRotatingTask(ctx context.Context, id string) (RotatingTask, error)

	// HasOpenRotationTask reports whether an incomplete, visible task for
	// the rotating task already exists.
	HasOpenRotationTask(ctx context.Context, rotatingTaskID string) (bool, error)

	// SwapRotationIndex is the compare-and-swap on the rotation index:
	// it sets CurrentIndex to next only if it still equals prev, and
	// reports whether the swap won. A lost swap is an expected outcome.
	SwapRotationIndex(ctx context.Context, rotatingTaskID string, prev, next int) (bool, error)

	InsertTask(ctx context.Context, t Task) error
	InsertAssignment(ctx context.Context, a Assignment) error
	DeleteTask(ctx context.Context, taskID string) error
	CompleteTask(ctx context.Context, taskID string, at time.Time) error

	// Members.
	CreateMember(ctx context.Context, m Member) (Member, error)
	ListActiveMembers(ctx context.Context, householdID string) ([]Member, error)

	// Audit. Both are append-only.
	AppendRotationEvent(ctx context.Context, e RotationEvent) error
	AppendRunLog(ctx context.Context, r RunLog) error

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
