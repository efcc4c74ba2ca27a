package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tweet-fleet/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AdminSubject is the subject claim of operator sessions.
	AdminSubject = "admin"

	defaultLifetime = time.Hour
)

var (
	ErrExpired = errors.New("session token expired")
	ErrInvalid = errors.New("invalid session token")
)

// Kind distinguishes operator sessions from sessions bound to an OAuth user.
type Kind int

const (
	Administrative Kind = iota
	OAuthUser
)

// Subject identifies who a session acts for.
type Subject struct {
	Kind     Kind
	UserID   int64
	Username string
}

// Admin is the operator subject.
func Admin() Subject {
	return Subject{Kind: Administrative}
}

// User is the subject of a session obtained through the OAuth flow.
func User(id int64, username string) Subject {
	return Subject{Kind: OAuthUser, UserID: id, Username: username}
}

// IsAdministrative reports whether the subject may use the static credential.
func (s Subject) IsAdministrative() bool {
	return s.Kind == Administrative
}

// Claims is the JWT payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Principal decodes the subject claim.
func (c *Claims) Principal() (Subject, error) {
	if c.Subject == AdminSubject {
		return Admin(), nil
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Subject{}, ErrInvalid
	}
	return User(id, c.Username), nil
}

// Service issues and verifies HS256 session tokens.
type Service struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewService creates a session service signing with secret.
func NewService(secret string) *Service {
	return &Service{
		secret:   []byte(secret),
		lifetime: defaultLifetime,
		now:      time.Now,
	}
}

// Issue signs a token for subject valid for one hour from now.
func (s *Service) Issue(subject Subject) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: JWT_SECRET is required", config.ErrMissingConfig)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			ID:        uuid.NewString(),
		},
	}
	if subject.Kind == OAuthUser {
		claims.Subject = strconv.FormatInt(subject.UserID, 10)
		claims.Username = subject.Username
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. Anything that is not a valid,
// unexpired token signed by this service yields ErrInvalid or ErrExpired.
func (s *Service) Verify(token string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", config.ErrMissingConfig)
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpired
	}
	if err != nil {
		return nil, ErrInvalid
	}
	if _, err := claims.Principal(); err != nil {
		return nil, err
	}
	return &claims, nil
}

// SetNow overrides the time function (for testing).
func (s *Service) SetNow(fn func() time.Time) {
	s.now = fn
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
