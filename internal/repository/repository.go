// Package repository declares the storage interfaces the service layer
// depends on. Services are written against these interfaces, never against
// a concrete database, so tests swap in in-memory mocks and the SQLite
// implementation stays swappable.
package repository

import (
	"context"

	"github.com/goalraiders/goalraiders/internal/model"
)

// ListOptions carries pagination for list queries. Zero values mean
// "no limit, no offset"; the service layer clamps caller-supplied values.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores player accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetBySubject looks a user up by external identity key.
	// Returns apperror.ErrNotFound if the subject has never been seen.
	GetBySubject(ctx context.Context, subject string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// GoalRepository stores goals ("bosses").
type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	GetByID(ctx context.Context, id int64) (*model.Goal, error)
	ListByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Goal, error)
	// ListChildren returns the direct children of a goal. Cascade deletion
	// walks the tree with repeated ListChildren calls rather than relying
	// on database-side recursion.
	ListChildren(ctx context.Context, parentID int64) ([]model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// TaskRepository stores tasks ("attacks").
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	ListByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id int64) error
	// DeleteByGoalIDs removes every task attached to any of the given
	// goals. Used when a goal subtree is deleted.
	DeleteByGoalIDs(ctx context.Context, goalIDs []int64) error
}
