package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errMissingToken = errors.New("auth: missing bearer token")

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey string

const subjectKey contextKey = "subject"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the Authorization: Bearer header, validates it, and
// stores the identity key in the request context. Without a valid token the
// chain stops with 401; no engine operation ever executes for an
// unresolved identity.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := extractSubject(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext retrieves the authenticated identity key from the
// request context. Returns ("", false) on an unauthenticated request,
// which inside a RequireAuth-protected route means a programming error.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}

// extractSubject reads and validates the bearer token.
func extractSubject(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errMissingToken
	}
	return tokens.Validate(token)
}
