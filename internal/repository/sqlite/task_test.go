package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

func TestTaskCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "owner")
	goal := createTestGoal(t, db, user.ID, "boss")

	task := &model.Task{
		Title:          "write chapter 1",
		OwnerID:        user.ID,
		GoalID:         &goal.ID,
		Difficulty:     model.DifficultyHard,
		RecurrenceDays: 7,
	}
	if err := db.Tasks().Create(context.Background(), task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID == 0 {
		t.Fatal("Create() did not set task.ID")
	}

	got, err := db.Tasks().GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.GoalID == nil || *got.GoalID != goal.ID {
		t.Errorf("GoalID = %v, want %d", got.GoalID, goal.ID)
	}
	if got.RecurrenceDays != 7 {
		t.Errorf("RecurrenceDays = %d, want 7", got.RecurrenceDays)
	}
	if got.Completed {
		t.Error("new task should not be completed")
	}
	if got.LastCompleted != nil {
		t.Errorf("LastCompleted = %v, want nil", got.LastCompleted)
	}
}

func TestTaskUpdateCompletionRoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "owner")
	task := createTestTask(t, db, user.ID, "daily run")

	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	task.Completed = true
	task.LastCompleted = &today
	if err := db.Tasks().Update(context.Background(), task); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Tasks().GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Completed {
		t.Error("Completed not persisted")
	}
	if got.LastCompleted == nil || !got.LastCompleted.Equal(today) {
		t.Errorf("LastCompleted = %v, want %v", got.LastCompleted, today)
	}

	// Clearing LastCompleted persists as NULL, not as a zero time.
	task.Completed = false
	task.LastCompleted = nil
	if err := db.Tasks().Update(context.Background(), task); err != nil {
		t.Fatalf("Update(clear) error = %v", err)
	}
	got, err = db.Tasks().GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.LastCompleted != nil {
		t.Errorf("LastCompleted = %v, want nil after clear", got.LastCompleted)
	}
}

func TestTaskDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "owner")
	task := createTestTask(t, db, user.ID, "gone soon")

	if err := db.Tasks().Delete(context.Background(), task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Tasks().GetByID(context.Background(), task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(deleted) error = %v, want ErrNotFound", err)
	}
	if err := db.Tasks().Delete(context.Background(), task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTaskDeleteByGoalIDs(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "owner")
	goalA := createTestGoal(t, db, user.ID, "a")
	goalB := createTestGoal(t, db, user.ID, "b")

	attached := createTestTask(t, db, user.ID, "attached")
	attached.GoalID = &goalA.ID
	if err := db.Tasks().Update(context.Background(), attached); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	loose := createTestTask(t, db, user.ID, "loose")

	if err := db.Tasks().DeleteByGoalIDs(context.Background(), []int64{goalA.ID, goalB.ID}); err != nil {
		t.Fatalf("DeleteByGoalIDs() error = %v", err)
	}

	if _, err := db.Tasks().GetByID(context.Background(), attached.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("task attached to deleted goal still present: %v", err)
	}
	if _, err := db.Tasks().GetByID(context.Background(), loose.ID); err != nil {
		t.Errorf("unattached task was deleted: %v", err)
	}
}

func TestTaskListByOwner(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")

	createTestTask(t, db, owner.ID, "one")
	createTestTask(t, db, owner.ID, "two")
	createTestTask(t, db, other.ID, "theirs")

	tasks, err := db.Tasks().ListByOwner(context.Background(), owner.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("ListByOwner() returned %d tasks, want 2", len(tasks))
	}
	for _, task := range tasks {
		if task.OwnerID != owner.ID {
			t.Errorf("listed task %d owned by %q, want %q", task.ID, task.OwnerID, owner.ID)
		}
	}
}
