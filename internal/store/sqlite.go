package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"chorewheel/internal/recurrence"
	logx "chorewheel/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const sqliteTimeLayout = time.RFC3339Nano

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- Series ----

func (s *sqliteStore) CreateSeries(ctx context.Context, sr Series) (Series, error) {
	now := time.Now()
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = now
	}
	sr.UpdatedAt = now
	if sr.CompletionRule == "" {
		sr.CompletionRule = CompleteAnyOne
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO series(id, household_id, original_series_id, title, description, points,
		                    assignees, completion_rule, rrule, start_date, end_date, active,
		                    last_generated_through, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sr.ID, sr.HouseholdID, nullStr(sr.OriginalSeriesID), sr.Title, sr.Description, sr.Points,
		strings.Join(sr.Assignees, ","), string(sr.CompletionRule), sr.Rule.RRule(),
		sr.StartDate.String(), nullDate(sr.EndDate), boolInt(sr.Active),
		nullDate(sr.LastGeneratedThrough),
		sr.CreatedAt.Format(sqliteTimeLayout), sr.UpdatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return Series{}, fmt.Errorf("create series: %w", err)
	}
	return sr, nil
}

func (s *sqliteStore) ListActiveSeries(ctx context.Context, householdID string) ([]Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, household_id, original_series_id, title, description, points,
		        assignees, completion_rule, rrule, start_date, end_date, active,
		        last_generated_through, created_at, updated_at
		   FROM series WHERE household_id = ? AND active = 1 ORDER BY id`,
		householdID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func scanSeries(rows *sql.Rows) (Series, error) {
	var (
		sr                   Series
		origID               sql.NullString
		assignees            string
		rule                 string
		startDate            string
		endDate, watermark   sql.NullString
		active               int
		createdAt, updatedAt string
	)
	err := rows.Scan(&sr.ID, &sr.HouseholdID, &origID, &sr.Title, &sr.Description, &sr.Points,
		&assignees, &sr.CompletionRule, &rule, &startDate, &endDate, &active,
		&watermark, &createdAt, &updatedAt)
	if err != nil {
		return Series{}, err
	}
	sr.OriginalSeriesID = origID.String
	if assignees != "" {
		sr.Assignees = strings.Split(assignees, ",")
	}
	sr.Active = active != 0
	if sr.Rule, err = recurrence.ParseRRule(rule); err != nil {
		return Series{}, fmt.Errorf("series %s: %w", sr.ID, err)
	}
	if sr.StartDate, err = recurrence.ParseDate(startDate); err != nil {
		return Series{}, fmt.Errorf("series %s: %w", sr.ID, err)
	}
	if sr.EndDate, err = scanDate(endDate); err != nil {
		return Series{}, fmt.Errorf("series %s: %w", sr.ID, err)
	}
	if sr.LastGeneratedThrough, err = scanDate(watermark); err != nil {
		return Series{}, fmt.Errorf("series %s: %w", sr.ID, err)
	}
	sr.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	sr.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)
	return sr, nil
}

func (s *sqliteStore) ListExceptions(ctx context.Context, seriesID string) ([]SeriesException, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT series_id, date, kind, override_title, override_description, override_points
		   FROM series_exceptions WHERE series_id = ? ORDER BY date`,
		seriesID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeriesException
	for rows.Next() {
		var (
			e          SeriesException
			date, kind string
			title      sql.NullString
			desc       sql.NullString
			points     sql.NullInt64
		)
		if err := rows.Scan(&e.SeriesID, &date, &kind, &title, &desc, &points); err != nil {
			return nil, err
		}
		if e.Date, err = recurrence.ParseDate(date); err != nil {
			return nil, err
		}
		switch kind {
		case "skip":
			e.Kind = recurrence.ExceptionSkip
		case "override":
			e.Kind = recurrence.ExceptionOverride
			ov := &recurrence.Override{}
			if title.Valid {
				v := title.String
				ov.Title = &v
			}
			if desc.Valid {
				v := desc.String
				ov.Description = &v
			}
			if points.Valid {
				v := int(points.Int64)
				ov.Points = &v
			}
			e.Override = ov
		default:
			return nil, fmt.Errorf("series %s: unknown exception kind %q", seriesID, kind)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) PutException(ctx context.Context, e SeriesException) error {
	var title, desc any
	var points any
	if e.Override != nil {
		if e.Override.Title != nil {
			title = *e.Override.Title
		}
		if e.Override.Description != nil {
			desc = *e.Override.Description
		}
		if e.Override.Points != nil {
			points = *e.Override.Points
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO series_exceptions(series_id, date, kind, override_title, override_description, override_points)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(series_id, date) DO UPDATE SET
		   kind=excluded.kind,
		   override_title=excluded.override_title,
		   override_description=excluded.override_description,
		   override_points=excluded.override_points`,
		e.SeriesID, e.Date.String(), e.Kind.String(), title, desc, points,
	)
	return err
}

// ---- Tasks ----

func (s *sqliteStore) InsertTaskIfAbsent(ctx context.Context, t Task) (bool, error) {
	if t.SeriesID == "" {
		return false, errors.New("insert-if-absent requires a series id")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	// The partial unique index on (series_id, due_date) makes this a single
	// atomic insert-if-absent; a conflict is the expected dedup miss.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, household_id, series_id, rotating_task_id, title, description,
		                   points, completion_rule, due_date, completed_at, hidden, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(series_id, due_date) WHERE series_id IS NOT NULL DO NOTHING`,
		t.ID, t.HouseholdID, t.SeriesID, nullStr(t.RotatingTaskID), t.Title, t.Description,
		t.Points, string(t.CompletionRule), t.DueDate.String(), nil, boolInt(t.Hidden),
		t.CreatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqliteStore) AdvanceWatermark(ctx context.Context, seriesID string, through recurrence.Date) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE series
		    SET last_generated_through = ?, updated_at = ?
		  WHERE id = ? AND (last_generated_through IS NULL OR last_generated_through < ?)`,
		through.String(), time.Now().Format(sqliteTimeLayout), seriesID, through.String(),
	)
	return err
}

func (s *sqliteStore) InsertTask(ctx context.Context, t Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	var due any
	if !t.DueDate.IsZero() {
		due = t.DueDate.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, household_id, series_id, rotating_task_id, title, description,
		                   points, completion_rule, due_date, completed_at, hidden, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.HouseholdID, nullStr(t.SeriesID), nullStr(t.RotatingTaskID), t.Title, t.Description,
		t.Points, string(t.CompletionRule), due, nil, boolInt(t.Hidden),
		t.CreatedAt.Format(sqliteTimeLayout),
	)
	return err
}

func (s *sqliteStore) InsertAssignment(ctx context.Context, a Assignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments(task_id, member_id) VALUES(?,?)
		 ON CONFLICT(task_id, member_id) DO NOTHING`,
		a.TaskID, a.MemberID,
	)
	return err
}

func (s *sqliteStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	return err
}

func (s *sqliteStore) CompleteTask(ctx context.Context, taskID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed_at = ? WHERE id = ? AND completed_at IS NULL`,
		at.Format(sqliteTimeLayout), taskID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Rotation ----

func (s *sqliteStore) CreateRotatingTask(ctx context.Context, rt RotatingTask) (RotatingTask, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rotating_tasks(id, household_id, title, description, points, member_order,
		                            current_index, cadence, cadence_weekdays, cadence_month_day,
		                            rotate_on_completion, active, paused)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rt.ID, rt.HouseholdID, rt.Title, rt.Description, rt.Points,
		strings.Join(rt.MemberOrder, ","), rt.CurrentIndex,
		string(rt.Cadence.Freq), int(rt.Cadence.Weekdays), rt.Cadence.MonthDay,
		boolInt(rt.RotateOnCompletion), boolInt(rt.Active), boolInt(rt.Paused),
	)
	if err != nil {
		return RotatingTask{}, fmt.Errorf("create rotating task: %w", err)
	}
	return rt, nil
}

const rotatingTaskColumns = `id, household_id, title, description, points, member_order,
	current_index, cadence, cadence_weekdays, cadence_month_day,
	rotate_on_completion, active, paused`

func (s *sqliteStore) ListActiveRotatingTasks(ctx context.Context, householdID string) ([]RotatingTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rotatingTaskColumns+` FROM rotating_tasks
		  WHERE household_id = ? AND active = 1 AND paused = 0 ORDER BY id`,
		householdID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RotatingTask
	for rows.Next() {
		rt, err := scanRotatingTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetRotatingTask(ctx context.Context, id string) (RotatingTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+rotatingTaskColumns+` FROM rotating_tasks WHERE id = ?`, id)
	rt, err := scanRotatingTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return RotatingTask{}, ErrNotFound
	}
	return rt, err
}

func scanRotatingTask(scan func(...any) error) (RotatingTask, error) {
	var (
		rt                       RotatingTask
		order, cadence           string
		weekdays, monthDay       int
		rotateOn, active, paused int
	)
	err := scan(&rt.ID, &rt.HouseholdID, &rt.Title, &rt.Description, &rt.Points, &order,
		&rt.CurrentIndex, &cadence, &weekdays, &monthDay, &rotateOn, &active, &paused)
	if err != nil {
		return RotatingTask{}, err
	}
	if order != "" {
		rt.MemberOrder = strings.Split(order, ",")
	}
	rt.Cadence = Cadence{Freq: CadenceFreq(cadence), Weekdays: recurrence.WeekdaySet(weekdays), MonthDay: monthDay}
	rt.RotateOnCompletion = rotateOn != 0
	rt.Active = active != 0
	rt.Paused = paused != 0
	return rt, nil
}

func (s *sqliteStore) HasOpenRotationTask(ctx context.Context, rotatingTaskID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM tasks
		  WHERE rotating_task_id = ? AND completed_at IS NULL AND hidden = 0 LIMIT 1`,
		rotatingTaskID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqliteStore) SwapRotationIndex(ctx context.Context, rotatingTaskID string, prev, next int) (bool, error) {
	// The WHERE guard is the compare-and-swap; losing it means a concurrent
	// invocation already advanced the ring.
	res, err := s.db.ExecContext(ctx,
		`UPDATE rotating_tasks SET current_index = ? WHERE id = ? AND current_index = ?`,
		next, rotatingTaskID, prev,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---- Members ----

func (s *sqliteStore) CreateMember(ctx context.Context, m Member) (Member, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members(id, household_id, name, active) VALUES(?,?,?,?)`,
		m.ID, m.HouseholdID, m.Name, boolInt(m.Active),
	)
	if err != nil {
		return Member{}, fmt.Errorf("create member: %w", err)
	}
	return m, nil
}

func (s *sqliteStore) ListActiveMembers(ctx context.Context, householdID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, household_id, name, active FROM members
		  WHERE household_id = ? AND active = 1 ORDER BY id`,
		householdID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		var active int
		if err := rows.Scan(&m.ID, &m.HouseholdID, &m.Name, &active); err != nil {
			return nil, err
		}
		m.Active = active != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

// ---- Audit ----

func (s *sqliteStore) AppendRotationEvent(ctx context.Context, e RotationEvent) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rotation_events(id, rotating_task_id, prev_index, selected_index, next_index,
		                             member_id, task_id, status, reason, source, at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.RotatingTaskID, e.PreviousIndex, e.SelectedIndex, e.NextIndex,
		nullStr(e.MemberID), nullStr(e.TaskID), string(e.Status), e.Reason, e.Source,
		e.At.Format(sqliteTimeLayout),
	)
	return err
}

func (s *sqliteStore) AppendRunLog(ctx context.Context, r RunLog) error {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	errsJSON := []byte("[]")
	if len(r.Errors) > 0 {
		if b, err := json.Marshal(r.Errors); err == nil {
			errsJSON = b
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_runs(id, household_id, window_start, window_end,
		                             inserted, skipped, errors, took_ms, at)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		r.ID, r.HouseholdID, r.WindowStart.String(), r.WindowEnd.String(),
		r.Inserted, r.Skipped, string(errsJSON), r.TookMS, r.At.Format(sqliteTimeLayout),
	)
	return err
}

// ---- helpers ----

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullDate(d recurrence.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func scanDate(v sql.NullString) (recurrence.Date, error) {
	if !v.Valid || v.String == "" {
		return recurrence.Date{}, nil
	}
	return recurrence.ParseDate(v.String)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
