package session

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tweet-fleet/config"

	"github.com/golang-jwt/jwt/v5"
)

func newTestService(at time.Time) *Service {
	s := NewService("test-signing-secret")
	s.SetNow(func() time.Time { return at })
	return s
}

func TestIssueVerify_Admin(t *testing.T) {
	issuedAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := newTestService(issuedAt)

	token, err := s.Issue(Admin())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != AdminSubject {
		t.Errorf("expected subject admin, got %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("expected jti claim")
	}
	if !claims.ExpiresAt.Time.Equal(issuedAt.Add(time.Hour)) {
		t.Errorf("expected 1h lifetime, got exp %v", claims.ExpiresAt.Time)
	}

	subject, err := claims.Principal()
	if err != nil {
		t.Fatalf("Principal error: %v", err)
	}
	if !subject.IsAdministrative() {
		t.Errorf("expected administrative subject, got %+v", subject)
	}
}

func TestIssueVerify_OAuthUser(t *testing.T) {
	s := newTestService(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	token, err := s.Issue(User(42, "alice"))
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "42" || claims.Username != "alice" {
		t.Errorf("unexpected claims sub=%q username=%q", claims.Subject, claims.Username)
	}

	subject, err := claims.Principal()
	if err != nil {
		t.Fatalf("Principal error: %v", err)
	}
	if subject.Kind != OAuthUser || subject.UserID != 42 || subject.Username != "alice" {
		t.Errorf("unexpected subject %+v", subject)
	}
}

func TestVerify_LifetimeBoundary(t *testing.T) {
	issuedAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := newTestService(issuedAt)

	token, err := s.Issue(Admin())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	s.SetNow(func() time.Time { return issuedAt.Add(59 * time.Minute) })
	if _, err := s.Verify(token); err != nil {
		t.Errorf("expected token valid at T+59m, got %v", err)
	}

	s.SetNow(func() time.Time { return issuedAt.Add(61 * time.Minute) })
	if _, err := s.Verify(token); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired at T+61m, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	token, err := newTestService(now).Issue(Admin())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	other := NewService("another-secret")
	other.SetNow(func() time.Time { return now })
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	s := newTestService(time.Now())

	for _, token := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 300)} {
		if _, err := s.Verify(token); !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify(%q): expected ErrInvalid, got %v", token, err)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := newTestService(now)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   AdminSubject,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-signing-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for HS512 token, got %v", err)
	}
}

func TestVerify_RequiresExpiry(t *testing.T) {
	s := newTestService(time.Now())

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: AdminSubject},
	}).SignedString([]byte("test-signing-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for token without exp, got %v", err)
	}
}

func TestVerify_UnknownSubject(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := newTestService(now)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "root",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("test-signing-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown subject, got %v", err)
	}
}

func TestIssue_MissingSecret(t *testing.T) {
	s := NewService("")
	if _, err := s.Issue(Admin()); !errors.Is(err, config.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		got, ok := BearerToken(req)
		if got != tc.want || ok != tc.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
