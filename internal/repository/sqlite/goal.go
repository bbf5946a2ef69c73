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

// compile-time check that *GoalRepo implements repository.GoalRepository
var _ repository.GoalRepository = (*GoalRepo)(nil)

// GoalRepo stores goals ("bosses") in the goals table.
type GoalRepo struct {
	conn *sql.DB
}

const goalColumns = `id, title, description, status, owner_id, parent_goal_id,
	due_date, max_hp, current_hp, defeated, created_at, updated_at`

// Create inserts a goal and fills in its generated ID and timestamps.
func (r *GoalRepo) Create(ctx context.Context, goal *model.Goal) error {
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO goals (title, description, status, owner_id, parent_goal_id,
			due_date, max_hp, current_hp, defeated, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.Title,
		goal.Description,
		goal.Status,
		goal.OwnerID,
		nullInt64(goal.ParentID),
		nullTime(goal.DueDate),
		goal.MaxHP,
		goal.CurrentHP,
		goal.Defeated,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting goal %q: %w", goal.Title, err)
	}

	goal.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading goal id: %w", err)
	}
	return nil
}

// GetByID retrieves a goal by ID, regardless of owner. Ownership is the
// service layer's concern; the repository just reports what exists.
func (r *GoalRepo) GetByID(ctx context.Context, id int64) (*model.Goal, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)

	goal, err := scanGoal(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("goal", id)
		}
		return nil, fmt.Errorf("sqlite: getting goal %d: %w", id, err)
	}
	return goal, nil
}

// ListByOwner returns the owner's goals ordered by id.
func (r *GoalRepo) ListByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Goal, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ?
		 ORDER BY id LIMIT ? OFFSET ?`,
		ownerID, limitOrAll(opts.Limit), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing goals for %s: %w", ownerID, err)
	}
	defer rows.Close()

	return collectGoals(rows)
}

// ListChildren returns the direct children of a goal.
func (r *GoalRepo) ListChildren(ctx context.Context, parentID int64) ([]model.Goal, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE parent_goal_id = ? ORDER BY id`,
		parentID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing children of goal %d: %w", parentID, err)
	}
	defer rows.Close()

	return collectGoals(rows)
}

// Update persists all mutable goal fields. OwnerID is never changed:
// ownership is fixed at creation for the entity's lifetime.
func (r *GoalRepo) Update(ctx context.Context, goal *model.Goal) error {
	goal.UpdatedAt = time.Now()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE goals
		 SET title = ?, description = ?, status = ?, parent_goal_id = ?,
		     due_date = ?, max_hp = ?, current_hp = ?, defeated = ?, updated_at = ?
		 WHERE id = ?`,
		goal.Title,
		goal.Description,
		goal.Status,
		nullInt64(goal.ParentID),
		nullTime(goal.DueDate),
		goal.MaxHP,
		goal.CurrentHP,
		goal.Defeated,
		goal.UpdatedAt,
		goal.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating goal %d: %w", goal.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("goal", goal.ID)
	}
	return nil
}

// DeleteByIDs removes the given goals in one statement. The caller passes
// the full subtree with attached tasks already removed.
func (r *GoalRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM goals WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: deleting goals: %w", err)
	}
	return nil
}

// scanGoal reads one goal row; scan is either sql.Row.Scan or sql.Rows.Scan.
func scanGoal(scan func(dest ...any) error) (*model.Goal, error) {
	var (
		g        model.Goal
		parentID sql.NullInt64
		dueDate  sql.NullTime
	)

	err := scan(
		&g.ID,
		&g.Title,
		&g.Description,
		&g.Status,
		&g.OwnerID,
		&parentID,
		&dueDate,
		&g.MaxHP,
		&g.CurrentHP,
		&g.Defeated,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		g.ParentID = &parentID.Int64
	}
	if dueDate.Valid {
		g.DueDate = &dueDate.Time
	}
	return &g, nil
}

func collectGoals(rows *sql.Rows) ([]model.Goal, error) {
	goals := []model.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning goal: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating goals: %w", err)
	}
	return goals, nil
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

// limitOrAll turns "no limit" (0 or negative) into SQLite's -1, which means
// unlimited in a LIMIT clause.
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
