package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/goalraiders/goalraiders/internal/auth"
	"github.com/goalraiders/goalraiders/internal/service"
)

// AuthHandler serves account registration, login, and the Google OAuth
// flow. Successful calls return a bearer token the client sends on every
// /api request.
type AuthHandler struct {
	auth   *service.AuthService
	google *auth.GoogleProvider
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil when the OAuth
// flow is not configured; the Google routes then return 404.
func NewAuthHandler(authService *service.AuthService, google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		google: google,
		logger: logger,
	}
}

// GoogleConfigured reports whether the Google OAuth routes should be
// mounted.
func (h *AuthHandler) GoogleConfigured() bool {
	return h.google != nil
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// HandleRegister creates a password-backed account and returns a token.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: result.Token, User: result.User})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and returns a token.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: result.Token, User: result.User})
}

// HandleGoogleLogin starts the OAuth flow by redirecting the browser to
// Google's consent page. The random state nonce goes into a short-lived
// cookie; the callback checks it to block CSRF on the flow.
//
// HTTP: GET /auth/google/login
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/auth",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback finishes the OAuth flow: check the state nonce,
// trade the code for the Google profile, log the account in (provisioning
// it on first sight), and return a token.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: "invalid OAuth state",
		})
		return
	}

	// The nonce is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Path:   "/auth",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: "missing authorization code",
		})
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "oauth_error",
			Message: "could not verify Google account",
		})
		return
	}

	result, err := h.auth.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: result.Token, User: result.User})
}
