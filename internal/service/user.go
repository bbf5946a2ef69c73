// Package service contains the business logic layer: the ownership guard,
// the goal and task engines, the leveling engine, and the authentication
// flows. Handlers call into this package with plain values and get back
// domain entities or taxonomy errors; nothing here knows about HTTP, and
// nothing here knows about SQL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

// xpPerLevel is how much experience one level costs. Experience is stored
// as the remainder, so it always ends up in [0, xpPerLevel).
const xpPerLevel = 100

// UserService provisions player accounts and runs the leveling engine.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// GetOrCreate resolves an identity key to its user record, provisioning a
// new level-1 player on first sighting. Every authenticated operation in
// the system starts here: the token layer hands us a subject, and this is
// where that subject becomes (or already is) a row.
func (s *UserService) GetOrCreate(ctx context.Context, subject string) (*model.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, apperror.Unauthorized("no identity resolved for request")
	}

	user, err := s.users.GetBySubject(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	// First sighting: provision a fresh player. The placeholder profile
	// matches what the web client expects until the user edits it.
	user = &model.User{
		Subject:  subject,
		Username: "User_" + shortKey(subject),
		Email:    subject + "@example.com",
		Level:    1,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("provisioning user: %w", err)
	}

	s.logger.Info("user provisioned",
		slog.String("id", user.ID),
		slog.String("subject", subject),
	)
	return user, nil
}

// AddExperience grants XP to the user identified by subject and applies
// level-ups. Large grants can cross several level boundaries in one call,
// hence the loop: 80 XP + 250 XP is three level-ups with 30 XP left over.
//
// Negative amounts are rejected; there is no way to drain experience.
func (s *UserService) AddExperience(ctx context.Context, subject string, amount int) (*model.User, error) {
	if amount < 0 {
		return nil, apperror.InvalidInput("amount", "experience amount cannot be negative")
	}

	user, err := s.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	return s.grantExperience(ctx, user, amount)
}

// grantExperience is the leveling engine proper. It takes an already-loaded
// user so the task engine can reward a defeat without a second lookup.
func (s *UserService) grantExperience(ctx context.Context, user *model.User, amount int) (*model.User, error) {
	user.Experience += amount
	for user.Experience >= xpPerLevel {
		user.Level++
		user.Experience -= xpPerLevel
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("saving experience: %w", err)
	}

	s.logger.Info("experience granted",
		slog.String("user", user.ID),
		slog.Int("amount", amount),
		slog.Int("level", user.Level),
		slog.Int("experience", user.Experience),
	)
	return user, nil
}

// UpdateProfile changes the user's display name and player HP. Identity
// (subject), level, and experience are not editable through this path.
func (s *UserService) UpdateProfile(ctx context.Context, subject, username string, currentHP, maxHP *int) (*model.User, error) {
	user, err := s.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	if username = strings.TrimSpace(username); username != "" {
		user.Username = username
	}
	if maxHP != nil {
		if *maxHP < 0 {
			return nil, apperror.InvalidInput("maxHp", "maxHp cannot be negative")
		}
		user.MaxHP = maxHP
	}
	if currentHP != nil {
		if *currentHP < 0 {
			return nil, apperror.InvalidInput("currentHp", "currentHp cannot be negative")
		}
		user.CurrentHP = currentHP
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return user, nil
}

// shortKey trims an identity key down to a readable suffix for the default
// username.
func shortKey(subject string) string {
	if len(subject) > 8 {
		return subject[:8]
	}
	return subject
}
