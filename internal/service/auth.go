package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/auth"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

// MinPasswordLength is the floor for the built-in password flow.
const MinPasswordLength = 8

// AuthService handles the authentication business logic: built-in
// email/password accounts and the Google OAuth callback. Both paths end
// the same way, with a signed JWT whose subject is the user's identity
// key; from there on the engine doesn't care how the user logged in.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record with the issued JWT so the handler
// can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password-backed account and logs it in.
//
// Password accounts get a generated identity key with a "local:" prefix,
// keeping them in a namespace that can never collide with subjects minted
// by an external provider.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.InvalidInput("email", "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.InvalidInput("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.InvalidInput("email", "email is already registered")
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.InvalidInput("password", err.Error())
	}

	subject := "local:" + xid.New().String()
	if username == "" {
		username = "User_" + shortKey(strings.TrimPrefix(subject, "local:"))
	}

	user := &model.User{
		Subject:      subject,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Level:        1,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("email", email),
	)

	return s.issueToken(user)
}

// Login verifies email/password credentials and issues a token.
//
// Unknown email and wrong password produce the same Unauthorized error so
// the login endpoint can't be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if user.PasswordHash == "" {
		// Provisioned via an external provider; there is no password to check.
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	return s.issueToken(user)
}

// LoginOrRegisterGoogle handles the Google OAuth callback: load the account
// for the Google subject, provision it on first login, and issue a token.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	subject := gUser.Subject()
	user, err := s.users.GetBySubject(ctx, subject)
	switch {
	case err == nil:
		// Returning player.
	case isNotFound(err):
		username := strings.TrimSpace(gUser.Name)
		if username == "" {
			username = "User_" + shortKey(gUser.Sub)
		}
		user = &model.User{
			Subject:  subject,
			Username: username,
			Email:    strings.ToLower(gUser.Email),
			Level:    1,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("provisioning Google account: %w", err)
		}
		s.logger.Info("user registered via Google", slog.String("id", user.ID))
	default:
		return nil, fmt.Errorf("looking up Google account: %w", err)
	}

	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.Subject)
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
