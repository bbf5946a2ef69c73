package model

import "time"

// Task is an "attack": a unit of work whose completion damages a linked
// goal by the damage value configured for the task's difficulty.
//
// GoalID is a weak reference. The task does not own the goal, but deleting
// the goal deletes the task. ParentID builds a per-user task tree with the
// same arena representation goals use.
//
// RecurrenceDays controls the two-state completion machine:
//
//	0  – one-shot: once completed, further complete calls are no-ops
//	>0 – recurring: a completed task resets to pending when the recurrence
//	     window has elapsed (LastCompleted + RecurrenceDays <= today)
//
// LastCompleted holds only a calendar date; the time of day is irrelevant
// to the recurrence window.
type Task struct {
	ID             int64      `json:"id"             db:"id"`
	Title          string     `json:"title"          db:"title"`
	Completed      bool       `json:"completed"      db:"completed"`
	OwnerID        string     `json:"ownerId"        db:"owner_id"`
	GoalID         *int64     `json:"goalId"         db:"goal_id"`
	ParentID       *int64     `json:"parentTaskId"   db:"parent_task_id"`
	Difficulty     string     `json:"difficulty"     db:"difficulty"`
	RecurrenceDays int        `json:"recurrenceDays" db:"recurrence_days"`
	LastCompleted  *time.Time `json:"lastCompleted"  db:"last_completed"`
	CreatedAt      time.Time  `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt"      db:"updated_at"`
}
