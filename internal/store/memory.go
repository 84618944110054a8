package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"chorewheel/internal/recurrence"
)

// Memory is the in-process Store. It honors the same dedup and
// compare-and-swap semantics as the sqlite backend, which is what makes it
// usable for concurrency tests.
type Memory struct {
	mu sync.Mutex

	series     map[string]Series
	exceptions map[string][]SeriesException // keyed by series id
	tasks      map[string]Task
	dedup      map[taskKey]string // (series, due date) -> task id
	asgs       []Assignment
	members    map[string]Member
	rotating   map[string]RotatingTask
	events     []RotationEvent
	runs       []RunLog

	// FailInsertTask and FailInsertAssignment, when set, make the next
	// matching insert fail. Tests use them to exercise rollback and
	// retry paths.
	FailInsertTask       error
	FailInsertAssignment error
}

type taskKey struct {
	seriesID string
	dueDate  recurrence.Date
}

func NewMemory() *Memory {
	return &Memory{
		series:     map[string]Series{},
		exceptions: map[string][]SeriesException{},
		tasks:      map[string]Task{},
		dedup:      map[taskKey]string{},
		members:    map[string]Member{},
		rotating:   map[string]RotatingTask{},
	}
}

func (m *Memory) Close() error { return nil }

// ---- Series ----

func (m *Memory) CreateSeries(_ context.Context, s Series) (Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.CompletionRule == "" {
		s.CompletionRule = CompleteAnyOne
	}
	m.series[s.ID] = s
	return s, nil
}

func (m *Memory) ListActiveSeries(_ context.Context, householdID string) ([]Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Series
	for _, s := range m.series {
		if s.HouseholdID == householdID && s.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListExceptions(_ context.Context, seriesID string) ([]SeriesException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]SeriesException(nil), m.exceptions[seriesID]...)
	return out, nil
}

func (m *Memory) PutException(_ context.Context, e SeriesException) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.exceptions[e.SeriesID]
	for i, old := range list {
		if old.Date == e.Date {
			list[i] = e
			return nil
		}
	}
	m.exceptions[e.SeriesID] = append(list, e)
	return nil
}

// ---- Tasks ----

func (m *Memory) InsertTaskIfAbsent(_ context.Context, t Task) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailInsertTask; err != nil {
		m.FailInsertTask = nil
		return false, err
	}
	key := taskKey{seriesID: t.SeriesID, dueDate: t.DueDate}
	if _, exists := m.dedup[key]; exists {
		return false, nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.tasks[t.ID] = t
	m.dedup[key] = t.ID
	return true, nil
}

func (m *Memory) AdvanceWatermark(_ context.Context, seriesID string, through recurrence.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[seriesID]
	if !ok {
		return ErrNotFound
	}
	if s.LastGeneratedThrough.IsZero() || s.LastGeneratedThrough.Before(through) {
		s.LastGeneratedThrough = through
		s.UpdatedAt = time.Now()
		m.series[seriesID] = s
	}
	return nil
}

func (m *Memory) InsertTask(_ context.Context, t Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailInsertTask; err != nil {
		m.FailInsertTask = nil
		return err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *Memory) InsertAssignment(_ context.Context, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailInsertAssignment; err != nil {
		m.FailInsertAssignment = nil
		return err
	}
	m.asgs = append(m.asgs, a)
	return nil
}

func (m *Memory) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	out := m.asgs[:0]
	for _, a := range m.asgs {
		if a.TaskID != taskID {
			out = append(out, a)
		}
	}
	m.asgs = out
	return nil
}

func (m *Memory) CompleteTask(_ context.Context, taskID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.CompletedAt != nil {
		return ErrNotFound
	}
	t.CompletedAt = &at
	m.tasks[taskID] = t
	return nil
}

// ---- Rotation ----

func (m *Memory) CreateRotatingTask(_ context.Context, rt RotatingTask) (RotatingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotating[rt.ID] = rt
	return rt, nil
}

func (m *Memory) ListActiveRotatingTasks(_ context.Context, householdID string) ([]RotatingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RotatingTask
	for _, rt := range m.rotating {
		if rt.HouseholdID == householdID && rt.Active && !rt.Paused {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetRotatingTask(_ context.Context, id string) (RotatingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.rotating[id]
	if !ok {
		return RotatingTask{}, ErrNotFound
	}
	return rt, nil
}

func (m *Memory) HasOpenRotationTask(_ context.Context, rotatingTaskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.RotatingTaskID == rotatingTaskID && t.CompletedAt == nil && !t.Hidden {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) SwapRotationIndex(_ context.Context, rotatingTaskID string, prev, next int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.rotating[rotatingTaskID]
	if !ok {
		return false, ErrNotFound
	}
	if rt.CurrentIndex != prev {
		return false, nil
	}
	rt.CurrentIndex = next
	m.rotating[rotatingTaskID] = rt
	return true, nil
}

// ---- Members ----

func (m *Memory) CreateMember(_ context.Context, mem Member) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[mem.ID] = mem
	return mem, nil
}

func (m *Memory) ListActiveMembers(_ context.Context, householdID string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Member
	for _, mem := range m.members {
		if mem.HouseholdID == householdID && mem.Active {
			out = append(out, mem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- Audit ----

func (m *Memory) AppendRotationEvent(_ context.Context, e RotationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.At.IsZero() {
		e.At = time.Now()
	}
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) AppendRunLog(_ context.Context, r RunLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.At.IsZero() {
		r.At = time.Now()
	}
	m.runs = append(m.runs, r)
	return nil
}

// ---- test inspection helpers ----

// Tasks returns a snapshot of all task rows.
func (m *Memory) Tasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].DueDate.Compare(out[j].DueDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Events returns a snapshot of the rotation audit log.
func (m *Memory) Events() []RotationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RotationEvent(nil), m.events...)
}

// Runs returns a snapshot of the generation run logs.
func (m *Memory) Runs() []RunLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunLog(nil), m.runs...)
}

// Assignments returns a snapshot of task assignments.
func (m *Memory) Assignments() []Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Assignment(nil), m.asgs...)
}

// SeriesByID returns a series row (for watermark assertions).
func (m *Memory) SeriesByID(id string) (Series, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[id]
	return s, ok
}
