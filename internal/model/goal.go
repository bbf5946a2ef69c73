package model

import "time"

// Goal difficulty/status vocabulary. These are ordinary strings, not an
// enum: they are keys into the configurable game tables, and unknown keys
// fall back to the tables' defaults instead of being rejected.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
	DifficultyEpic   = "Epic"
)

// Goal is a "boss": an objective with hit points. Completing tasks linked
// to the goal damages it; reaching zero HP defeats it and rewards the owner
// with experience.
//
// Goals form a tree per user via ParentID (nil = top level). The tree is an
// arena keyed by id, not an embedded object graph: cascade deletion walks
// parent ids to collect descendants before any row is removed.
//
// Defeated is deliberately a stored flag rather than a computed currentHp==0
// check. Defeat is an edge-triggered event: it fires once when HP first hits
// zero, and only an explicit revive re-arms it. A revived goal has full HP
// and Defeated=false even though it hit zero in the past.
type Goal struct {
	ID          int64      `json:"id"          db:"id"`
	Title       string     `json:"title"       db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status"      db:"status"` // doubles as the difficulty tag
	OwnerID     string     `json:"ownerId"     db:"owner_id"`
	ParentID    *int64     `json:"parentGoalId" db:"parent_goal_id"`
	DueDate     *time.Time `json:"dueDate"     db:"due_date"`
	MaxHP       int        `json:"maxHp"       db:"max_hp"`      // >= 1
	CurrentHP   int        `json:"currentHp"   db:"current_hp"`  // 0 <= currentHp <= maxHp
	Defeated    bool       `json:"defeated"    db:"defeated"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt"   db:"updated_at"`
}
