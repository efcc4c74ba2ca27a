package handlers

import (
	"context"
	"errors"
	"net/http"

	"tweet-fleet/session"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type contextKey int

const (
	claimsKey contextKey = iota
	subjectKey
)

// SessionVerifier validates bearer session tokens.
type SessionVerifier interface {
	Verify(token string) (*session.Claims, error)
}

// RequireSession rejects requests without a valid session token and stores
// the verified claims and subject on the request context.
func RequireSession(verifier SessionVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := session.BearerToken(r)
			if !ok {
				logRequest(r, "error", "Missing bearer token")
				unauthorized(w, "Not authenticated")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logRequest(r, "error", "Session rejected", zap.Error(err))
				if errors.Is(err, session.ErrExpired) {
					unauthorized(w, "Session expired")
				} else {
					unauthorized(w, "Invalid session")
				}
				return
			}
			subject, err := claims.Principal()
			if err != nil {
				logRequest(r, "error", "Session subject rejected", zap.String("sub", claims.Subject))
				unauthorized(w, "Invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified session claims of the request.
func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*session.Claims)
	return claims, ok
}

// SubjectFromContext returns who the authenticated request acts for.
func SubjectFromContext(ctx context.Context) (session.Subject, bool) {
	subject, ok := ctx.Value(subjectKey).(session.Subject)
	return subject, ok
}
