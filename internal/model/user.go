// Package model defines the data structures used throughout the application.
// These are plain structs shared by the repository, service, and handler
// layers; none of them know anything about SQL or HTTP.
package model

import "time"

// User represents a player account.
//
// Subject is the stable external identity key (the JWT "sub" claim). It is
// the only thing the identity layer and the engine agree on: tokens carry a
// subject, and the first authenticated request for an unseen subject lazily
// provisions a row. The internal ID exists so foreign keys don't depend on
// whatever format an identity provider uses for its subjects.
//
// Experience is always kept in [0, 100) after every mutation: the leveling
// engine converts each full 100 XP into a level immediately, so the stored
// value is only the remainder.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Subject      string    `json:"subject"      db:"subject"` // external identity key, unique
	Username     string    `json:"username"     db:"username"`
	Email        string    `json:"email"        db:"email"`
	PasswordHash string    `json:"-"            db:"password_hash"` // empty for externally-authenticated users
	Level        int       `json:"level"        db:"level"`         // >= 1
	Experience   int       `json:"experience"   db:"experience"`    // 0 <= experience < 100
	CurrentHP    *int      `json:"currentHp"    db:"current_hp"`    // player HP, unrelated to goal HP
	MaxHP        *int      `json:"maxHp"        db:"max_hp"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}
