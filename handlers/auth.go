package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"tweet-fleet/config"
	"tweet-fleet/models"
	"tweet-fleet/oauth"
	"tweet-fleet/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Authorizer runs the X authorization-code flow.
type Authorizer interface {
	BeginAuthorization(ctx context.Context) (*models.AuthorizationStart, error)
	CompleteAuthorization(ctx context.Context, code, state string) (*oauth.Result, error)
	Abandon(ctx context.Context, state string) error
}

// SessionIssuer signs session tokens.
type SessionIssuer interface {
	Issue(subject session.Subject) (string, error)
}

// StatusChecker reports whether the static X credential is usable.
type StatusChecker interface {
	CheckAuth() error
}

// AuthHandler serves operator login and the X OAuth endpoints.
type AuthHandler struct {
	sessions     SessionIssuer
	authorizer   Authorizer
	status       StatusChecker
	passwordHash []byte
	frontendURL  string
}

// NewAuthHandler creates an AuthHandler. The operator password is hashed
// once here; an empty password leaves login disabled.
func NewAuthHandler(adminPassword, frontendURL string, sessions SessionIssuer, authorizer Authorizer, status StatusChecker) (*AuthHandler, error) {
	h := &AuthHandler{
		sessions:    sessions,
		authorizer:  authorizer,
		status:      status,
		frontendURL: frontendURL,
	}
	if adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing ADMIN_PASSWORD: %w", err)
		}
		h.passwordHash = hash
	}
	return h, nil
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logRequest(r, "info", "Login request")

	if h.passwordHash == nil {
		logRequest(r, "error", "ADMIN_PASSWORD is not set")
		internalError(w, "Login is not configured")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(r, "error", "Invalid login body", zap.Error(err))
		badRequest(w, "Invalid JSON")
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)); err != nil {
		logRequest(r, "error", "Invalid password")
		unauthorized(w, "Invalid credentials")
		return
	}

	token, err := h.sessions.Issue(session.Admin())
	if err != nil {
		logRequest(r, "error", "Failed to issue session", zap.Error(err))
		internalError(w, "Could not create session")
		return
	}

	logRequest(r, "info", "Login successful")
	writeJSON(w, http.StatusOK, models.LoginResponse{AccessToken: token, TokenType: "bearer"})
}

// TwitterStatus handles GET /auth/twitter.
func (h *AuthHandler) TwitterStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.status.CheckAuth(); err != nil {
		logRequest(r, "error", "Static X credentials unavailable", zap.Error(err))
		unauthorized(w, "Twitter credentials are not configured")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthStatusResponse{Status: "authenticated"})
}

// TwitterAuthorize handles GET /auth/twitter/oauth.
func (h *AuthHandler) TwitterAuthorize(w http.ResponseWriter, r *http.Request) {
	logRequest(r, "info", "OAuth authorization request")

	start, err := h.authorizer.BeginAuthorization(r.Context())
	if err != nil {
		logRequest(r, "error", "Failed to start authorization", zap.Error(err))
		if errors.Is(err, config.ErrMissingConfig) {
			internalError(w, "Twitter OAuth is not configured")
		} else {
			internalError(w, "Could not start authorization")
		}
		return
	}

	writeJSON(w, http.StatusOK, start)
}

// TwitterCallback handles GET /auth/twitter/callback. Every outcome is a
// redirect to the frontend carrying either a session token or an error.
func (h *AuthHandler) TwitterCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code, state := query.Get("code"), query.Get("state")

	if providerErr := query.Get("error"); providerErr != "" {
		logRequest(r, "error", "Authorization denied by provider",
			zap.String("error", providerErr), zap.String("error_description", query.Get("error_description")))
		h.abandon(r, state)
		h.redirect(w, r, url.Values{"error": {"Authorization denied: " + providerErr}})
		return
	}

	if code == "" || state == "" {
		logRequest(r, "error", "Callback without code or state")
		h.abandon(r, state)
		h.redirect(w, r, url.Values{"error": {"Missing authorization code or state"}})
		return
	}

	result, err := h.authorizer.CompleteAuthorization(r.Context(), code, state)
	if err != nil {
		logRequest(r, "error", "Authorization failed", zap.Error(err))
		h.redirect(w, r, url.Values{"error": {callbackMessage(err)}})
		return
	}

	token, err := h.sessions.Issue(session.User(result.User.ID, result.User.Username))
	if err != nil {
		logRequest(r, "error", "Failed to issue session", zap.Error(err))
		h.redirect(w, r, url.Values{"error": {"Could not create session"}})
		return
	}

	logRequest(r, "info", "Authorization completed", zap.Int64("user_id", result.User.ID))
	h.redirect(w, r, url.Values{"token": {token}, "username": {result.User.Username}})
}

// abandon drops the pending attempt for state so a failed callback cannot be
// completed later.
func (h *AuthHandler) abandon(r *http.Request, state string) {
	if state == "" {
		return
	}
	if err := h.authorizer.Abandon(r.Context(), state); err != nil {
		logRequest(r, "error", "Failed to discard authorization state", zap.Error(err))
	}
}

func (h *AuthHandler) redirect(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, h.frontendURL+"/auth/callback?"+params.Encode(), http.StatusFound)
}

// callbackMessage turns an engine error into text safe to show a user.
func callbackMessage(err error) string {
	switch {
	case errors.Is(err, oauth.ErrInvalidState):
		return "Invalid or expired authorization state"
	case errors.Is(err, oauth.ErrTokenExchange):
		return "Token exchange with Twitter failed"
	case errors.Is(err, oauth.ErrUserInfo):
		return "Could not fetch Twitter user"
	case errors.Is(err, config.ErrMissingConfig):
		return "Twitter OAuth is not configured"
	default:
		return "Authorization failed"
	}
}
