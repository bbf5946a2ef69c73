package service

import (
	"context"
	"errors"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

// Ownership guard.
//
// Every read, update, delete, and state transition on a goal or task goes
// through one of these helpers before anything else happens. The contract:
// a record that doesn't exist and a record owned by a different user are
// reported identically as NotFound, so probing the API can never reveal
// which ids exist in other accounts.

// ownedGoal loads a goal and confirms it belongs to ownerID.
func ownedGoal(ctx context.Context, goals repository.GoalRepository, ownerID string, id int64) (*model.Goal, error) {
	goal, err := goals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal.OwnerID != ownerID {
		return nil, apperror.NotFound("goal", id)
	}
	return goal, nil
}

// ownedTask loads a task and confirms it belongs to ownerID.
func ownedTask(ctx context.Context, tasks repository.TaskRepository, ownerID string, id int64) (*model.Task, error) {
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, apperror.NotFound("task", id)
	}
	return task, nil
}
