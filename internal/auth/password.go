package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. 12 is slow enough to frustrate
// offline cracking and fast enough that login latency stays unnoticeable.
const defaultCost = 12

// ErrWrongPassword is returned by Verify when the password doesn't match.
// Callers should surface it as a generic "invalid credentials" message
// rather than revealing whether the email or the password was wrong.
var ErrWrongPassword = errors.New("auth: password does not match")

// PasswordService provides bcrypt hashing and verification for the
// built-in email/password flow.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a reduced cost
// so test suites don't spend their time inside bcrypt.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The salt and cost
// are embedded in the output, so Verify needs nothing but the hash.
//
// bcrypt silently truncates inputs past 72 bytes, so longer passwords are
// rejected instead of being half-checked.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", errors.New("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash.
// Returns ErrWrongPassword on mismatch.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return fmt.Errorf("auth: verifying password: %w", err)
	}
	return nil
}
