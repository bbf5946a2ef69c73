package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo stores player accounts in the users table.
type UserRepo struct {
	conn *sql.DB
}

const userColumns = `id, subject, username, email, password_hash, level,
	experience, current_hp, max_hp, created_at, updated_at`

// Create inserts a new user. The internal ID (an xid) and timestamps are
// assigned here; a caller that leaves Level unset gets a fresh level-1
// player.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Level < 1 {
		user.Level = 1
	}

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, subject, username, email, password_hash, level,
			experience, current_hp, max_hp, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Subject,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Level,
		user.Experience,
		nullInt(user.CurrentHP),
		nullInt(user.MaxHP),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (subject=%s): %w", user.Subject, err)
	}
	return nil
}

// GetByID retrieves a user by internal ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

// GetBySubject retrieves a user by external identity key.
func (r *UserRepo) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	return r.getUser(ctx, `subject = ?`, subject)
}

// GetByEmail retrieves a user by email. Only meaningful for accounts
// registered through the built-in password flow.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `email = ?`, email)
}

func (r *UserRepo) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u         model.User
		currentHP sql.NullInt64
		maxHP     sql.NullInt64
	)

	err := r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	).Scan(
		&u.ID,
		&u.Subject,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Level,
		&u.Experience,
		&currentHP,
		&maxHP,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
			}
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	u.CurrentHP = intPtr(currentHP)
	u.MaxHP = intPtr(maxHP)
	return &u, nil
}

// Update persists mutable user fields (profile, level, experience, HP).
// Subject is immutable; it is the row's identity as far as the engine is
// concerned.
func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, email = ?, password_hash = ?, level = ?,
		     experience = ?, current_hp = ?, max_hp = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Level,
		user.Experience,
		nullInt(user.CurrentHP),
		nullInt(user.MaxHP),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "user not found",
		}
	}
	return nil
}

// nullInt converts *int to a driver-friendly nullable value.
func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// intPtr converts a scanned NullInt64 back into the model's *int.
func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
