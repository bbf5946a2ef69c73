package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

// compile-time check that *TaskRepo implements repository.TaskRepository
var _ repository.TaskRepository = (*TaskRepo)(nil)

// TaskRepo stores tasks ("attacks") in the tasks table.
type TaskRepo struct {
	conn *sql.DB
}

const taskColumns = `id, title, completed, owner_id, goal_id, parent_task_id,
	difficulty, recurrence_days, last_completed, created_at, updated_at`

// Create inserts a task and fills in its generated ID and timestamps.
func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO tasks (title, completed, owner_id, goal_id, parent_task_id,
			difficulty, recurrence_days, last_completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title,
		task.Completed,
		task.OwnerID,
		nullInt64(task.GoalID),
		nullInt64(task.ParentID),
		task.Difficulty,
		task.RecurrenceDays,
		nullTime(task.LastCompleted),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task %q: %w", task.Title, err)
	}

	task.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading task id: %w", err)
	}
	return nil
}

// GetByID retrieves a task by ID, regardless of owner.
func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %d: %w", id, err)
	}
	return task, nil
}

// ListByOwner returns the owner's tasks ordered by id.
func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Task, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = ?
		 ORDER BY id LIMIT ? OFFSET ?`,
		ownerID, limitOrAll(opts.Limit), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks for %s: %w", ownerID, err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}
	return tasks, nil
}

// Update persists all mutable task fields. OwnerID never changes.
func (r *TaskRepo) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, completed = ?, goal_id = ?, parent_task_id = ?,
		     difficulty = ?, recurrence_days = ?, last_completed = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title,
		task.Completed,
		nullInt64(task.GoalID),
		nullInt64(task.ParentID),
		task.Difficulty,
		task.RecurrenceDays,
		nullTime(task.LastCompleted),
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %d: %w", task.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("task", task.ID)
	}
	return nil
}

// Delete removes a single task.
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}

// DeleteByGoalIDs removes every task attached to any of the given goals.
func (r *TaskRepo) DeleteByGoalIDs(ctx context.Context, goalIDs []int64) error {
	if len(goalIDs) == 0 {
		return nil
	}

	args := make([]any, len(goalIDs))
	for i, id := range goalIDs {
		args[i] = id
	}

	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE goal_id IN (`+placeholders(len(goalIDs))+`)`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tasks by goal: %w", err)
	}
	return nil
}

// scanTask reads one task row; scan is either sql.Row.Scan or sql.Rows.Scan.
func scanTask(scan func(dest ...any) error) (*model.Task, error) {
	var (
		t             model.Task
		goalID        sql.NullInt64
		parentID      sql.NullInt64
		lastCompleted sql.NullTime
	)

	err := scan(
		&t.ID,
		&t.Title,
		&t.Completed,
		&t.OwnerID,
		&goalID,
		&parentID,
		&t.Difficulty,
		&t.RecurrenceDays,
		&lastCompleted,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if goalID.Valid {
		t.GoalID = &goalID.Int64
	}
	if parentID.Valid {
		t.ParentID = &parentID.Int64
	}
	if lastCompleted.Valid {
		t.LastCompleted = &lastCompleted.Time
	}
	return &t, nil
}
