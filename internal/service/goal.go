package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/config"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// GoalService is the goal engine: CRUD for goals plus the hit-point rules
// (damage, defeat, revive). Defeat rewards go through the user service's
// leveling engine.
type GoalService struct {
	goals  repository.GoalRepository
	tasks  repository.TaskRepository
	users  *UserService
	game   config.GameConfig
	logger *slog.Logger
}

// NewGoalService creates a GoalService.
func NewGoalService(goals repository.GoalRepository, tasks repository.TaskRepository, users *UserService, game config.GameConfig, logger *slog.Logger) *GoalService {
	return &GoalService{
		goals:  goals,
		tasks:  tasks,
		users:  users,
		game:   game,
		logger: logger,
	}
}

// CreateGoalInput carries the caller-supplied fields for a new goal.
// MaxHP <= 0 means "use the HP table for my status".
type CreateGoalInput struct {
	Title       string
	Description string
	Status      string
	ParentID    *int64
	DueDate     *time.Time
	MaxHP       int
}

// Create validates and saves a new goal owned by the acting user.
//
// The resolved max HP comes from the status HP table when the caller does
// not supply a positive value, and a freshly created boss always starts at
// full health.
func (s *GoalService) Create(ctx context.Context, subject string, in CreateGoalInput) (*model.Goal, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.InvalidInput("title", "goal title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.InvalidInput("title",
			fmt.Sprintf("goal title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, apperror.InvalidInput("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}

	if in.ParentID != nil {
		if _, err := ownedParentGoal(ctx, s.goals, user.ID, *in.ParentID); err != nil {
			return nil, err
		}
	}

	maxHP := in.MaxHP
	if maxHP <= 0 {
		maxHP = s.game.MaxHP(in.Status)
	}

	goal := &model.Goal{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		OwnerID:     user.ID,
		ParentID:    in.ParentID,
		DueDate:     in.DueDate,
		MaxHP:       maxHP,
		CurrentHP:   maxHP,
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		s.logger.Error("failed to create goal",
			slog.String("owner", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating goal: %w", err)
	}

	s.logger.Info("goal created",
		slog.Int64("id", goal.ID),
		slog.String("owner", user.ID),
		slog.String("status", goal.Status),
		slog.Int("maxHp", goal.MaxHP),
	)
	return goal, nil
}

// Get returns one of the acting user's goals.
func (s *GoalService) Get(ctx context.Context, subject string, id int64) (*model.Goal, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}
	return ownedGoal(ctx, s.goals, user.ID, id)
}

// List returns the acting user's goals with pagination.
func (s *GoalService) List(ctx context.Context, subject string, limit, offset int) ([]model.Goal, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	goals, err := s.goals.ListByOwner(ctx, user.ID, clampList(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	return goals, nil
}

// UpdateGoalInput carries the replacement fields for an existing goal.
// ParentID and DueDate are set-or-clear: nil detaches the parent / clears
// the date. MaxHP <= 0 keeps the current value.
type UpdateGoalInput struct {
	Title       string
	Description string
	Status      string
	ParentID    *int64
	DueDate     *time.Time
	MaxHP       int
}

// Update modifies an existing goal. Ownership never changes, and
// re-parenting is validated against the same-owner rule.
func (s *GoalService) Update(ctx context.Context, subject string, id int64, in UpdateGoalInput) (*model.Goal, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	goal, err := ownedGoal(ctx, s.goals, user.ID, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.InvalidInput("title", "goal title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.InvalidInput("title",
			fmt.Sprintf("goal title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, apperror.InvalidInput("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}

	if in.ParentID != nil {
		if *in.ParentID == goal.ID {
			return nil, apperror.InvalidInput("parentGoalId", "goal cannot be its own parent")
		}
		if _, err := ownedParentGoal(ctx, s.goals, user.ID, *in.ParentID); err != nil {
			return nil, err
		}
	}

	goal.Title = title
	goal.Description = strings.TrimSpace(in.Description)
	goal.Status = in.Status
	goal.ParentID = in.ParentID
	goal.DueDate = in.DueDate
	if in.MaxHP > 0 {
		goal.MaxHP = in.MaxHP
		if goal.CurrentHP > goal.MaxHP {
			goal.CurrentHP = goal.MaxHP
		}
	}

	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("updating goal: %w", err)
	}
	return goal, nil
}

// Delete removes a goal, all of its descendant goals, and every task
// attached to any goal in that subtree.
//
// The subtree is collected id-by-id before anything is removed (the goal
// tree is an arena keyed by id, not an object graph), then tasks go first
// and goals second so no task ever references a missing goal.
func (s *GoalService) Delete(ctx context.Context, subject string, id int64) error {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return err
	}

	goal, err := ownedGoal(ctx, s.goals, user.ID, id)
	if err != nil {
		return err
	}

	ids, err := s.collectSubtree(ctx, goal.ID)
	if err != nil {
		return fmt.Errorf("collecting goal subtree: %w", err)
	}

	if err := s.tasks.DeleteByGoalIDs(ctx, ids); err != nil {
		return fmt.Errorf("deleting attached tasks: %w", err)
	}
	if err := s.goals.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("deleting goals: %w", err)
	}

	s.logger.Info("goal deleted",
		slog.Int64("id", goal.ID),
		slog.String("owner", user.ID),
		slog.Int("subtreeSize", len(ids)),
	)
	return nil
}

// ApplyDamage deals table-driven damage to a goal. Unknown difficulty tags
// deal zero damage; they are not an error. HP is clamped at zero and never
// goes negative.
//
// This is the manual damage path: it does not mark defeat. Defeat fires
// either from a task completion's post-damage check or from the explicit
// Defeat operation.
func (s *GoalService) ApplyDamage(ctx context.Context, subject string, id int64, difficulty string) (*model.Goal, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	goal, err := ownedGoal(ctx, s.goals, user.ID, id)
	if err != nil {
		return nil, err
	}

	s.damage(goal, difficulty)
	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("saving damaged goal: %w", err)
	}
	return goal, nil
}

// Defeat is the manual boss-kill: it drops the goal to zero HP and, if the
// goal was not already defeated, marks it defeated and grants the owner the
// XP reward for the goal's status.
//
// The reward is edge-triggered on the false-to-true transition of the
// defeated flag, so repeated Defeat calls are HP-idempotent and grant
// nothing after the first.
func (s *GoalService) Defeat(ctx context.Context, subject string, id int64) (*model.Goal, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	goal, err := ownedGoal(ctx, s.goals, user.ID, id)
	if err != nil {
		return nil, err
	}

	goal.CurrentHP = 0
	justDefeated := s.checkAndMarkDefeat(goal)

	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("saving defeated goal: %w", err)
	}

	if justDefeated {
		if err := s.rewardDefeat(ctx, user, goal); err != nil {
			return nil, err
		}
	}
	return goal, nil
}

// Revive restores a goal to full HP and clears the defeated flag, making it
// damageable (and defeatable) again. A defeated goal that kept full HP but
// stayed flagged would be unplayable, so revive always re-arms the flag.
func (s *GoalService) Revive(ctx context.Context, subject string, id int64) (*model.Goal, error) {
	user, err := s.users.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	goal, err := ownedGoal(ctx, s.goals, user.ID, id)
	if err != nil {
		return nil, err
	}

	goal.CurrentHP = goal.MaxHP
	goal.Defeated = false

	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("saving revived goal: %w", err)
	}

	s.logger.Info("goal revived",
		slog.Int64("id", goal.ID),
		slog.Int("hp", goal.CurrentHP),
	)
	return goal, nil
}

// strike is the task-completion damage path: apply damage, then run the
// edge-triggered defeat check, then persist. It reports whether this call
// is the one that defeated the goal.
//
// The caller has already established ownership of the task, and the task's
// goal link is same-owner by construction, so there is no second guard
// here.
func (s *GoalService) strike(ctx context.Context, user *model.User, goal *model.Goal, difficulty string) (justDefeated bool, err error) {
	s.damage(goal, difficulty)
	justDefeated = s.checkAndMarkDefeat(goal)

	if err := s.goals.Update(ctx, goal); err != nil {
		return false, fmt.Errorf("saving struck goal: %w", err)
	}

	if justDefeated {
		if err := s.rewardDefeat(ctx, user, goal); err != nil {
			return true, err
		}
	}
	return justDefeated, nil
}

// damage applies the configured damage for a difficulty tag and clamps HP
// into [0, maxHp].
func (s *GoalService) damage(goal *model.Goal, difficulty string) {
	goal.CurrentHP -= s.game.Damage(difficulty)
	if goal.CurrentHP < 0 {
		goal.CurrentHP = 0
	}
}

// checkAndMarkDefeat fires the defeat transition at most once per defeat:
// only when HP is zero AND the flag is still down. Observing zero HP on an
// already-defeated goal does nothing, so the reward can never double-fire.
func (s *GoalService) checkAndMarkDefeat(goal *model.Goal) bool {
	if goal.CurrentHP == 0 && !goal.Defeated {
		goal.Defeated = true
		return true
	}
	return false
}

// rewardDefeat grants the owner the configured XP for defeating this goal.
//
// The goal write and the user write are two sequential commits, not one
// transaction. A crash between them leaves the goal defeated without the
// reward; the store offers no cross-row transactions to close that window,
// and the ordering at least guarantees the reward is never granted for a
// defeat that was not persisted.
func (s *GoalService) rewardDefeat(ctx context.Context, user *model.User, goal *model.Goal) error {
	xp := s.game.XPReward(goal.Status)

	s.logger.Info("goal defeated",
		slog.Int64("id", goal.ID),
		slog.String("owner", user.ID),
		slog.Int("xpReward", xp),
	)

	if _, err := s.users.grantExperience(ctx, user, xp); err != nil {
		return fmt.Errorf("granting defeat reward: %w", err)
	}
	return nil
}

// getByID fetches a goal without an ownership check. The task engine uses
// it for link validation and for loading a strike target; every caller
// applies its own ownership rule.
func (s *GoalService) getByID(ctx context.Context, id int64) (*model.Goal, error) {
	return s.goals.GetByID(ctx, id)
}

// collectSubtree gathers the ids of a goal and all of its descendants,
// breadth-first. The visited set makes the walk terminate even if the
// stored tree were ever corrupted into a cycle.
func (s *GoalService) collectSubtree(ctx context.Context, rootID int64) ([]int64, error) {
	ids := []int64{rootID}
	visited := map[int64]bool{rootID: true}

	for queue := []int64{rootID}; len(queue) > 0; {
		id := queue[0]
		queue = queue[1:]

		children, err := s.goals.ListChildren(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return ids, nil
}

// ownedParentGoal validates a parent reference. Unlike the plain guard, a
// bad parent id is the caller's input being wrong, so a missing or foreign
// parent is InvalidInput rather than NotFound.
func ownedParentGoal(ctx context.Context, goals repository.GoalRepository, ownerID string, parentID int64) (*model.Goal, error) {
	parent, err := goals.GetByID(ctx, parentID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.InvalidInput("parentGoalId",
				fmt.Sprintf("invalid parent goal id: %d", parentID))
		}
		return nil, fmt.Errorf("loading parent goal: %w", err)
	}
	if parent.OwnerID != ownerID {
		return nil, apperror.InvalidInput("parentGoalId",
			fmt.Sprintf("invalid parent goal id: %d", parentID))
	}
	return parent, nil
}

// clampList normalizes caller-supplied pagination.
func clampList(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}
