package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/model"
)

func TestGoalCreate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{
		Title:       "  Ship the report  ",
		Description: " quarterly numbers ",
		Status:      model.DifficultyMedium,
		MaxHP:       0,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ship the report", goal.Title)
	assert.Equal(t, "quarterly numbers", goal.Description)
	assert.Equal(t, 100, goal.MaxHP, "zero maxHp falls back to the status HP table")
	assert.Equal(t, 100, goal.CurrentHP, "a new boss starts at full health")
	assert.False(t, goal.Defeated)
	assert.NotZero(t, goal.ID)
}

func TestGoalCreateExplicitHP(t *testing.T) {
	e := newTestEngine(t)

	goal, err := e.goals.Create(context.Background(), "alice", CreateGoalInput{
		Title:  "Big one",
		Status: model.DifficultyEasy,
		MaxHP:  777,
	})
	require.NoError(t, err)
	assert.Equal(t, 777, goal.MaxHP)
	assert.Equal(t, 777, goal.CurrentHP)
}

func TestGoalCreateUnknownStatusHP(t *testing.T) {
	e := newTestEngine(t)

	goal, err := e.goals.Create(context.Background(), "alice", CreateGoalInput{
		Title:  "Mystery",
		Status: "Legendary",
	})
	require.NoError(t, err)
	assert.Equal(t, 100, goal.MaxHP, "unknown status uses the default HP")
}

func TestGoalCreateValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateGoalInput
	}{
		{name: "empty title", in: CreateGoalInput{Title: "   "}},
		{name: "title too long", in: CreateGoalInput{Title: strings.Repeat("x", MaxTitleLength+1)}},
		{name: "description too long", in: CreateGoalInput{
			Title:       "ok",
			Description: strings.Repeat("x", MaxDescriptionLength+1),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.goals.Create(ctx, "alice", tc.in)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		})
	}
}

func TestGoalCreateParentValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	parent, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Parent"})
	require.NoError(t, err)

	// Valid same-owner parent.
	child, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Child", ParentID: &parent.ID})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	// Nonexistent parent.
	missing := int64(9999)
	_, err = e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	// Someone else's goal as parent: also invalid input, same as missing.
	_, err = e.goals.Create(ctx, "bob", CreateGoalInput{Title: "Thief", ParentID: &parent.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGoalGetOwnership(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Mine"})
	require.NoError(t, err)

	got, err := e.goals.Get(ctx, "alice", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, goal.ID, got.ID)

	// Another user's lookup is indistinguishable from a missing goal.
	_, err = e.goals.Get(ctx, "bob", goal.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotErrorIs(t, err, apperror.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = e.goals.Get(ctx, "alice", 4242)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGoalList(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Goal"})
		require.NoError(t, err)
	}
	_, err := e.goals.Create(ctx, "bob", CreateGoalInput{Title: "Bob's goal"})
	require.NoError(t, err)

	goals, err := e.goals.List(ctx, "alice", 0, 0)
	require.NoError(t, err)
	assert.Len(t, goals, 5, "default pagination, only the caller's goals")

	page, err := e.goals.List(ctx, "alice", 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestGoalUpdate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{
		Title:  "Before",
		Status: model.DifficultyEasy,
	})
	require.NoError(t, err)

	updated, err := e.goals.Update(ctx, "alice", goal.ID, UpdateGoalInput{
		Title:  "After",
		Status: model.DifficultyHard,
		MaxHP:  0,
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, model.DifficultyHard, updated.Status)
	assert.Equal(t, goal.MaxHP, updated.MaxHP, "zero maxHp keeps the stored value")
}

func TestGoalUpdateShrinkMaxHPClampsCurrent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Boss", MaxHP: 200})
	require.NoError(t, err)

	updated, err := e.goals.Update(ctx, "alice", goal.ID, UpdateGoalInput{Title: "Boss", MaxHP: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.MaxHP)
	assert.Equal(t, 40, updated.CurrentHP, "currentHp never exceeds maxHp")
}

func TestGoalUpdateSelfParent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Loop"})
	require.NoError(t, err)

	_, err = e.goals.Update(ctx, "alice", goal.ID, UpdateGoalInput{Title: "Loop", ParentID: &goal.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGoalUpdateOwnership(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Mine"})
	require.NoError(t, err)

	_, err = e.goals.Update(ctx, "bob", goal.ID, UpdateGoalInput{Title: "Stolen"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGoalDeleteCascades(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	root, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Root"})
	require.NoError(t, err)
	child, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Child", ParentID: &root.ID})
	require.NoError(t, err)
	grandchild, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Grandchild", ParentID: &child.ID})
	require.NoError(t, err)
	bystander, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Bystander"})
	require.NoError(t, err)

	// Tasks hanging off the subtree go down with it.
	_, err = e.tasks.Create(ctx, "alice", CreateTaskInput{Title: "On child", GoalID: &child.ID})
	require.NoError(t, err)
	_, err = e.tasks.Create(ctx, "alice", CreateTaskInput{Title: "On grandchild", GoalID: &grandchild.ID})
	require.NoError(t, err)
	loose, err := e.tasks.Create(ctx, "alice", CreateTaskInput{Title: "Unlinked"})
	require.NoError(t, err)

	require.NoError(t, e.goals.Delete(ctx, "alice", root.ID))

	for _, id := range []int64{root.ID, child.ID, grandchild.ID} {
		_, err := e.goals.Get(ctx, "alice", id)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	}
	_, err = e.goals.Get(ctx, "alice", bystander.ID)
	assert.NoError(t, err, "goals outside the subtree survive")

	tasks, err := e.tasks.List(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, loose.ID, tasks[0].ID)
}

func TestGoalDeleteOwnership(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Mine"})
	require.NoError(t, err)

	err = e.goals.Delete(ctx, "bob", goal.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = e.goals.Get(ctx, "alice", goal.ID)
	assert.NoError(t, err, "the goal is untouched")
}

func TestGoalApplyDamage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Boss", MaxHP: 50})
	require.NoError(t, err)

	goal, err = e.goals.ApplyDamage(ctx, "alice", goal.ID, model.DifficultyMedium)
	require.NoError(t, err)
	assert.Equal(t, 30, goal.CurrentHP)

	// Unknown difficulty deals nothing and is not an error.
	goal, err = e.goals.ApplyDamage(ctx, "alice", goal.ID, "Mystery")
	require.NoError(t, err)
	assert.Equal(t, 30, goal.CurrentHP)
}

func TestGoalApplyDamageClampsAtZero(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Weak boss", MaxHP: 10})
	require.NoError(t, err)

	goal, err = e.goals.ApplyDamage(ctx, "alice", goal.ID, model.DifficultyEpic)
	require.NoError(t, err)
	assert.Equal(t, 0, goal.CurrentHP, "overkill clamps at zero, never negative")
	assert.False(t, goal.Defeated, "the manual damage path does not mark defeat")
}

func TestGoalDefeat(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{
		Title:  "Boss",
		Status: model.DifficultyMedium,
	})
	require.NoError(t, err)

	goal, err = e.goals.Defeat(ctx, "alice", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, goal.CurrentHP)
	assert.True(t, goal.Defeated)

	user, err := e.users.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50, user.Experience, "defeat grants the status XP reward")
}

func TestGoalDefeatRewardFiresOnce(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{
		Title:  "Boss",
		Status: model.DifficultyMedium,
	})
	require.NoError(t, err)

	_, err = e.goals.Defeat(ctx, "alice", goal.ID)
	require.NoError(t, err)
	_, err = e.goals.Defeat(ctx, "alice", goal.ID)
	require.NoError(t, err)
	_, err = e.goals.Defeat(ctx, "alice", goal.ID)
	require.NoError(t, err)

	user, err := e.users.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50, user.Experience, "repeated defeats grant nothing after the first")
	assert.Equal(t, 1, user.Level)
}

func TestGoalRevive(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	goal, err := e.goals.Create(ctx, "alice", CreateGoalInput{Title: "Boss", MaxHP: 80})
	require.NoError(t, err)
	_, err = e.goals.Defeat(ctx, "alice", goal.ID)
	require.NoError(t, err)

	goal, err = e.goals.Revive(ctx, "alice", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, goal.CurrentHP)
	assert.False(t, goal.Defeated)

	// A revived boss can be defeated again, and the reward fires again.
	goal, err = e.goals.Defeat(ctx, "alice", goal.ID)
	require.NoError(t, err)
	assert.True(t, goal.Defeated)
}
