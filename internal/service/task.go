package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

// TaskService is the task engine: CRUD for tasks plus the completion state
// machine. Completing a task that targets a goal strikes that goal through
// the goal engine, which in turn may trigger the defeat reward.
type TaskService struct {
	tasks  repository.TaskRepository
	goals  *GoalService
	users  *UserService
	logger *slog.Logger

	// now is injectable so recurrence-window tests can pin the calendar.
	now func() time.Time
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks repository.TaskRepository, goals *GoalService, users *UserService, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		goals:  goals,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// CreateTaskInput carries the caller-supplied fields for a new task.
type CreateTaskInput struct {
	Title          string
	GoalID         *int64
	ParentID       *int64
	Difficulty     string
	RecurrenceDays int
}

// Create validates and saves a new task owned by the acting user. Goal and
// parent-task links must point at entities the same user owns.
func (s *TaskService) Create(ctx context.Context, subject string, in CreateTaskInput) (*model.Task, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.InvalidInput("title", "task title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.InvalidInput("title",
			fmt.Sprintf("task title must be %d characters or less", MaxTitleLength))
	}
	if in.RecurrenceDays < 0 {
		return nil, apperror.InvalidInput("recurrenceDays", "recurrenceDays cannot be negative")
	}

	if in.GoalID != nil {
		if err := s.validateGoalLink(ctx, user.ID, *in.GoalID); err != nil {
			return nil, err
		}
	}
	if in.ParentID != nil {
		if err := s.validateParentLink(ctx, user.ID, *in.ParentID, 0); err != nil {
			return nil, err
		}
	}

	task := &model.Task{
		Title:          title,
		OwnerID:        user.ID,
		GoalID:         in.GoalID,
		ParentID:       in.ParentID,
		Difficulty:     in.Difficulty,
		RecurrenceDays: in.RecurrenceDays,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task",
			slog.String("owner", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.Int64("id", task.ID),
		slog.String("owner", user.ID),
		slog.String("difficulty", task.Difficulty),
	)
	return task, nil
}

// Get returns one of the acting user's tasks.
func (s *TaskService) Get(ctx context.Context, subject string, id int64) (*model.Task, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}
	return ownedTask(ctx, s.tasks, user.ID, id)
}

// List returns the acting user's tasks with pagination.
func (s *TaskService) List(ctx context.Context, subject string, limit, offset int) ([]model.Task, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListByOwner(ctx, user.ID, clampList(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskInput carries the replacement fields for an existing task.
// GoalID and ParentID are set-or-clear: nil removes the link.
type UpdateTaskInput struct {
	Title          string
	GoalID         *int64
	ParentID       *int64
	Difficulty     string
	RecurrenceDays int
}

// Update modifies an existing task. Completion state is not editable here;
// it only moves through Complete.
func (s *TaskService) Update(ctx context.Context, subject string, id int64, in UpdateTaskInput) (*model.Task, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	task, err := ownedTask(ctx, s.tasks, user.ID, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.InvalidInput("title", "task title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.InvalidInput("title",
			fmt.Sprintf("task title must be %d characters or less", MaxTitleLength))
	}
	if in.RecurrenceDays < 0 {
		return nil, apperror.InvalidInput("recurrenceDays", "recurrenceDays cannot be negative")
	}

	if in.GoalID != nil {
		if err := s.validateGoalLink(ctx, user.ID, *in.GoalID); err != nil {
			return nil, err
		}
	}
	if in.ParentID != nil {
		if err := s.validateParentLink(ctx, user.ID, *in.ParentID, task.ID); err != nil {
			return nil, err
		}
	}

	task.Title = title
	task.GoalID = in.GoalID
	task.ParentID = in.ParentID
	task.Difficulty = in.Difficulty
	task.RecurrenceDays = in.RecurrenceDays

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return task, nil
}

// Delete removes a single task. Children of the task are detached, not
// deleted; only goals cascade.
func (s *TaskService) Delete(ctx context.Context, subject string, id int64) error {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return err
	}

	task, err := ownedTask(ctx, s.tasks, user.ID, id)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Info("task deleted",
		slog.Int64("id", task.ID),
		slog.String("owner", user.ID),
	)
	return nil
}

// Complete drives the task's two-state machine.
//
// Pending -> Completed: mark completed, stamp today as lastCompleted, and
// if the task targets a goal, strike it (damage by the task's difficulty,
// then the edge-triggered defeat check; a defeat grants the owner XP).
//
// Completed -> Pending: fires only on a recurring task whose window has
// elapsed (lastCompleted + recurrenceDays <= today, or lastCompleted is
// unset). It clears both flags and causes no damage and no XP.
//
// Anything else is a no-op: a one-shot task stays completed forever, and a
// recurring task inside its window is returned unchanged.
func (s *TaskService) Complete(ctx context.Context, subject string, id int64) (*model.Task, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	task, err := ownedTask(ctx, s.tasks, user.ID, id)
	if err != nil {
		return nil, err
	}

	today := dateOnly(s.now())

	if task.Completed {
		if task.RecurrenceDays > 0 && s.recurrenceElapsed(task, today) {
			task.Completed = false
			task.LastCompleted = nil
		}
		// Inside the window, or one-shot: no state change, no side effects.
	} else {
		task.Completed = true
		task.LastCompleted = &today

		if task.GoalID != nil {
			if err := s.strikeLinkedGoal(ctx, user, task); err != nil {
				return nil, err
			}
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("saving completed task: %w", err)
	}
	return task, nil
}

// strikeLinkedGoal damages the task's goal through the goal engine. The
// goal write commits before the task write; see rewardDefeat for the
// non-transactional chain this accepts.
func (s *TaskService) strikeLinkedGoal(ctx context.Context, user *model.User, task *model.Task) error {
	goal, err := s.goals.getByID(ctx, *task.GoalID)
	if err != nil {
		if isNotFound(err) {
			// The link survived its goal somehow; treat the strike as
			// hitting nothing rather than failing the completion.
			s.logger.Warn("task references missing goal",
				slog.Int64("task", task.ID),
				slog.Int64("goal", *task.GoalID),
			)
			return nil
		}
		return fmt.Errorf("loading linked goal: %w", err)
	}

	justDefeated, err := s.goals.strike(ctx, user, goal, task.Difficulty)
	if err != nil {
		return err
	}
	if justDefeated {
		s.logger.Info("task completion defeated goal",
			slog.Int64("task", task.ID),
			slog.Int64("goal", goal.ID),
		)
	}
	return nil
}

// recurrenceElapsed reports whether a completed recurring task is eligible
// to reset. The window boundary is inclusive: a task completed exactly
// recurrenceDays ago resets today.
func (s *TaskService) recurrenceElapsed(task *model.Task, today time.Time) bool {
	if task.LastCompleted == nil {
		return true
	}
	next := dateOnly(*task.LastCompleted).AddDate(0, 0, task.RecurrenceDays)
	return !next.After(today)
}

// validateGoalLink confirms the linked goal exists and belongs to ownerID.
func (s *TaskService) validateGoalLink(ctx context.Context, ownerID string, goalID int64) error {
	goal, err := s.goals.getByID(ctx, goalID)
	if err != nil {
		if isNotFound(err) {
			return apperror.InvalidInput("goalId",
				fmt.Sprintf("invalid goal id: %d", goalID))
		}
		return fmt.Errorf("loading linked goal: %w", err)
	}
	if goal.OwnerID != ownerID {
		return apperror.InvalidInput("goalId",
			fmt.Sprintf("invalid goal id: %d", goalID))
	}
	return nil
}

// validateParentLink confirms the parent task exists, belongs to ownerID,
// and is not the task itself. selfID is 0 during creation.
func (s *TaskService) validateParentLink(ctx context.Context, ownerID string, parentID, selfID int64) error {
	if parentID == selfID && selfID != 0 {
		return apperror.InvalidInput("parentTaskId", "task cannot be its own parent")
	}

	parent, err := s.tasks.GetByID(ctx, parentID)
	if err != nil {
		if isNotFound(err) {
			return apperror.InvalidInput("parentTaskId",
				fmt.Sprintf("invalid parent task id: %d", parentID))
		}
		return fmt.Errorf("loading parent task: %w", err)
	}
	if parent.OwnerID != ownerID {
		return apperror.InvalidInput("parentTaskId",
			fmt.Sprintf("invalid parent task id: %d", parentID))
	}
	return nil
}

// dateOnly truncates a timestamp to its calendar date. Recurrence windows
// compare dates, never times of day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
