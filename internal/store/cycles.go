package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kyklos/internal/models"
)

// ownedDay is a day joined with its owning cycle, loaded for guard
// checks before any write.
type ownedDay struct {
	models.Day
	OwnerID     string
	CompletedAt *time.Time
}

// SetDayCompletion flips a day and cascades the same value to every
// task under it. The day-level toggle is a coarse override: prior
// per-task state is discarded on purpose.
func (s *Store) SetDayCompletion(ctx context.Context, ownerID, dayID string, completed bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		day, err := loadOwnedDay(ctx, tx, dayID)
		if err != nil {
			return err
		}
		if err := guardMutable(day.OwnerID, ownerID, day.CompletedAt); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE days SET completed = ? WHERE id = ?", boolToInt(completed), dayID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE tasks SET completed = ? WHERE day_id = ?", boolToInt(completed), dayID)
		return err
	})
}

// SetTaskCompletion flips a task, then recomputes whether its parent
// day is now fully complete. The sibling aggregate is read inside the
// same transaction, after the task write, so two concurrent toggles
// under one day cannot both act on a stale snapshot. A day with zero
// tasks is never auto-flipped here.
func (s *Store) SetTaskCompletion(ctx context.Context, ownerID, taskID string, completed bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var dayID string
		err := tx.QueryRowContext(ctx, "SELECT day_id FROM tasks WHERE id = ?", taskID).Scan(&dayID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
		}
		if err != nil {
			return err
		}

		day, err := loadOwnedDay(ctx, tx, dayID)
		if err != nil {
			return err
		}
		if err := guardMutable(day.OwnerID, ownerID, day.CompletedAt); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE tasks SET completed = ? WHERE id = ?", boolToInt(completed), taskID); err != nil {
			return err
		}

		var total, done int
		err = tx.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM tasks WHERE day_id = ?", dayID).Scan(&total, &done)
		if err != nil {
			return err
		}
		if total == 0 {
			return nil
		}

		allComplete := done == total
		if allComplete == day.Completed {
			// No-op: skips a redundant day write.
			return nil
		}
		_, err = tx.ExecContext(ctx, "UPDATE days SET completed = ? WHERE id = ?", boolToInt(allComplete), dayID)
		return err
	})
}

// AdvanceCycle archives a fully complete cycle and seeds its successor,
// cloning the task templates (titles and descriptions, not completion
// state) day-index by day-index. The whole rollover is one transaction:
// a failure at any step leaves no partial state behind.
func (s *Store) AdvanceCycle(ctx context.Context, ownerID, cycleID string, now time.Time) (string, error) {
	var newCycleID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cycle, err := loadCycleTx(ctx, tx, cycleID)
		if err != nil {
			return err
		}
		if err := guardMutable(cycle.OwnerID, ownerID, cycle.CompletedAt); err != nil {
			return err
		}

		days, err := daysForCycleTx(ctx, tx, cycleID)
		if err != nil {
			return err
		}
		if !allDaysComplete(days) {
			return models.ErrCycleNotReady
		}

		if _, err := tx.ExecContext(ctx, "UPDATE cycles SET completed_at = ? WHERE id = ?", formatTime(now), cycleID); err != nil {
			return err
		}

		newCycleID = newID()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cycles (id, owner_id, sequence_number, started_at, completed_at)
			VALUES (?, ?, ?, ?, NULL)
		`, newCycleID, cycle.OwnerID, cycle.SequenceNumber+1, formatTime(now))
		if err != nil {
			return err
		}

		newDayIDs := make(map[int]string, models.CycleDayCount)
		for index := 1; index <= models.CycleDayCount; index++ {
			id := newID()
			newDayIDs[index] = id
			_, err := tx.ExecContext(ctx, "INSERT INTO days (id, cycle_id, day_index, completed) VALUES (?, ?, ?, 0)", id, newCycleID, index)
			if err != nil {
				return err
			}
		}

		return cloneTasksTx(ctx, tx, days, newDayIDs, now)
	})
	if err != nil {
		return "", err
	}
	return newCycleID, nil
}

// EnsureActiveCycle guarantees the owner has an active cycle with all
// seven day slots, seeding any day that has never had tasks from the
// given template. Idempotent: safe to run on every dashboard load and
// under concurrent invocation.
func (s *Store) EnsureActiveCycle(ctx context.Context, ownerID string, template models.WeekTemplate, now time.Time) (string, error) {
	var cycleID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		latest, err := latestCycleTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		switch {
		case latest == nil:
			cycleID, err = insertCycleTx(ctx, tx, ownerID, 1, now)
		case latest.Archived():
			// The latest cycle should never be archived without a
			// successor; repair by starting the next one fresh.
			cycleID, err = insertCycleTx(ctx, tx, ownerID, latest.SequenceNumber+1, now)
		default:
			cycleID = latest.ID
		}
		if err != nil {
			return err
		}

		if err := ensureDayRowsTx(ctx, tx, cycleID); err != nil {
			return err
		}
		return seedEmptyDaysTx(ctx, tx, cycleID, template, now)
	})
	if err != nil {
		return "", err
	}
	return cycleID, nil
}

// LatestCycle returns the owner's highest-sequence cycle, or nil.
func (s *Store) LatestCycle(ctx context.Context, ownerID string) (*models.Cycle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, sequence_number, started_at, completed_at
		FROM cycles WHERE owner_id = ?
		ORDER BY sequence_number DESC LIMIT 1
	`, ownerID)
	cycle, err := scanCycle(row)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return cycle, nil
}

// GetCycle returns a cycle by id, or nil when absent.
func (s *Store) GetCycle(ctx context.Context, cycleID string) (*models.Cycle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, sequence_number, started_at, completed_at
		FROM cycles WHERE id = ?
	`, cycleID)
	cycle, err := scanCycle(row)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return cycle, nil
}

// DaysForCycle returns the cycle's days in day_index order.
func (s *Store) DaysForCycle(ctx context.Context, cycleID string) ([]models.Day, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle_id, day_index, completed
		FROM days WHERE cycle_id = ?
		ORDER BY day_index ASC
	`, cycleID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var days []models.Day
	for rows.Next() {
		var day models.Day
		var completed int
		if err := rows.Scan(&day.ID, &day.CycleID, &day.DayIndex, &completed); err != nil {
			return nil, err
		}
		day.Completed = completed != 0
		days = append(days, day)
	}
	return days, rows.Err()
}

// TasksForDays returns tasks grouped by day id, each group in position
// then creation order.
func (s *Store) TasksForDays(ctx context.Context, dayIDs []string) (map[string][]models.Task, error) {
	tasks := make(map[string][]models.Task)
	if len(dayIDs) == 0 {
		return tasks, nil
	}

	query := fmt.Sprintf(`
		SELECT id, day_id, title, description, completed, position, created_at
		FROM tasks WHERE day_id IN (%s)
		ORDER BY position ASC, created_at ASC
	`, placeholders(len(dayIDs)))
	args := make([]any, 0, len(dayIDs))
	for _, id := range dayIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks[task.DayID] = append(tasks[task.DayID], *task)
	}
	return tasks, rows.Err()
}

// CountArchivedCycles returns how many of the owner's cycles are archived.
func (s *Store) CountArchivedCycles(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles WHERE owner_id = ? AND completed_at IS NOT NULL", ownerID).Scan(&count)
	if err != nil {
		return 0, mapSQLiteError(err)
	}
	return count, nil
}

// guardMutable is the ownership guard for mutating operations.
func guardMutable(resourceOwnerID, userID string, completedAt *time.Time) error {
	if resourceOwnerID != userID {
		return models.ErrAccessDenied
	}
	if completedAt != nil {
		return models.ErrCycleArchived
	}
	return nil
}

func loadOwnedDay(ctx context.Context, tx *sql.Tx, dayID string) (*ownedDay, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT d.id, d.cycle_id, d.day_index, d.completed, c.owner_id, c.completed_at
		FROM days d JOIN cycles c ON c.id = d.cycle_id
		WHERE d.id = ?
	`, dayID)

	var day ownedDay
	var completed int
	var completedAt sql.NullString
	err := row.Scan(&day.ID, &day.CycleID, &day.DayIndex, &completed, &day.OwnerID, &completedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("day %s: %w", dayID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	day.Completed = completed != 0
	if completedAt.Valid {
		parsed, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		day.CompletedAt = &parsed
	}
	return &day, nil
}

func loadCycleTx(ctx context.Context, tx *sql.Tx, cycleID string) (*models.Cycle, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, owner_id, sequence_number, started_at, completed_at
		FROM cycles WHERE id = ?
	`, cycleID)
	cycle, err := scanCycle(row)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, fmt.Errorf("cycle %s: %w", cycleID, models.ErrNotFound)
	}
	return cycle, nil
}

func latestCycleTx(ctx context.Context, tx *sql.Tx, ownerID string) (*models.Cycle, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, owner_id, sequence_number, started_at, completed_at
		FROM cycles WHERE owner_id = ?
		ORDER BY sequence_number DESC LIMIT 1
	`, ownerID)
	return scanCycle(row)
}

func insertCycleTx(ctx context.Context, tx *sql.Tx, ownerID string, sequence int, now time.Time) (string, error) {
	id := newID()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cycles (id, owner_id, sequence_number, started_at, completed_at)
		VALUES (?, ?, ?, ?, NULL)
	`, id, ownerID, sequence, formatTime(now))
	if err != nil {
		// A concurrent bootstrap won the insert; adopt its cycle. The
		// re-read sees the winner because every operation shares the
		// single pooled connection. A second process with its own WAL
		// snapshot could still miss the row and surface the constraint
		// error; retry EnsureActiveCycle in that deployment.
		if isUniqueConstraint(err) {
			existing, selErr := latestCycleTx(ctx, tx, ownerID)
			if selErr != nil {
				return "", selErr
			}
			if existing != nil && !existing.Archived() {
				return existing.ID, nil
			}
		}
		return "", err
	}
	return id, nil
}

func ensureDayRowsTx(ctx context.Context, tx *sql.Tx, cycleID string) error {
	for index := 1; index <= models.CycleDayCount; index++ {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO days (id, cycle_id, day_index, completed)
			VALUES (?, ?, ?, 0)
			ON CONFLICT(cycle_id, day_index) DO NOTHING
		`, newID(), cycleID, index)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedEmptyDaysTx(ctx context.Context, tx *sql.Tx, cycleID string, template models.WeekTemplate, now time.Time) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT d.id, d.day_index
		FROM days d LEFT JOIN tasks t ON t.day_id = d.id
		WHERE d.cycle_id = ?
		GROUP BY d.id, d.day_index
		HAVING COUNT(t.id) = 0
	`, cycleID)
	if err != nil {
		return err
	}

	type emptyDay struct {
		id    string
		index int
	}
	var empty []emptyDay
	for rows.Next() {
		var day emptyDay
		if err := rows.Scan(&day.id, &day.index); err != nil {
			rows.Close()
			return err
		}
		empty = append(empty, day)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, day := range empty {
		for position, seed := range template.TasksFor(day.index) {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tasks (id, day_id, title, description, completed, position, created_at)
				VALUES (?, ?, ?, ?, 0, ?, ?)
			`, newID(), day.id, seed.Title, nullIfEmpty(seed.Description), position, formatTime(now))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func daysForCycleTx(ctx context.Context, tx *sql.Tx, cycleID string) ([]models.Day, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, cycle_id, day_index, completed
		FROM days WHERE cycle_id = ?
		ORDER BY day_index ASC
	`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.Day
	for rows.Next() {
		var day models.Day
		var completed int
		if err := rows.Scan(&day.ID, &day.CycleID, &day.DayIndex, &completed); err != nil {
			return nil, err
		}
		day.Completed = completed != 0
		days = append(days, day)
	}
	return days, rows.Err()
}

func allDaysComplete(days []models.Day) bool {
	if len(days) != models.CycleDayCount {
		return false
	}
	for _, day := range days {
		if !day.Completed {
			return false
		}
	}
	return true
}

// cloneTasksTx copies the old cycle's task templates under the new days
// sharing the same day_index. Completion state is not cloned.
func cloneTasksTx(ctx context.Context, tx *sql.Tx, oldDays []models.Day, newDayIDs map[int]string, now time.Time) error {
	dayIndexByID := make(map[string]int, len(oldDays))
	args := make([]any, 0, len(oldDays))
	for _, day := range oldDays {
		dayIndexByID[day.ID] = day.DayIndex
		args = append(args, day.ID)
	}
	if len(args) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		SELECT day_id, title, description
		FROM tasks WHERE day_id IN (%s)
		ORDER BY position ASC, created_at ASC
	`, placeholders(len(args)))
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}

	type template struct {
		dayIndex    int
		title       string
		description sql.NullString
	}
	var templates []template
	for rows.Next() {
		var oldDayID string
		var t template
		if err := rows.Scan(&oldDayID, &t.title, &t.description); err != nil {
			rows.Close()
			return err
		}
		t.dayIndex = dayIndexByID[oldDayID]
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	positions := make(map[int]int, models.CycleDayCount)
	for _, t := range templates {
		newDayID, ok := newDayIDs[t.dayIndex]
		if !ok {
			continue
		}
		position := positions[t.dayIndex]
		positions[t.dayIndex] = position + 1

		var description any
		if t.description.Valid {
			description = t.description.String
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, day_id, title, description, completed, position, created_at)
			VALUES (?, ?, ?, ?, 0, ?, ?)
		`, newID(), newDayID, t.title, description, position, formatTime(now))
		if err != nil {
			return err
		}
	}
	return nil
}

func scanCycle(row *sql.Row) (*models.Cycle, error) {
	var cycle models.Cycle
	var startedAt string
	var completedAt sql.NullString

	err := row.Scan(&cycle.ID, &cycle.OwnerID, &cycle.SequenceNumber, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parsedStarted, err := parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	cycle.StartedAt = parsedStarted
	if completedAt.Valid {
		parsed, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		cycle.CompletedAt = &parsed
	}
	return &cycle, nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var description sql.NullString
	var completed int
	var createdAt string

	if err := scanner.Scan(
		&task.ID,
		&task.DayID,
		&task.Title,
		&description,
		&completed,
		&task.Position,
		&createdAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	task.Description = description.String
	task.Completed = completed != 0
	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = parsedCreated
	return &task, nil
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
