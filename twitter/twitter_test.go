package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tweet-fleet/config"
	"tweet-fleet/models"
	"tweet-fleet/session"
)

var staticCreds = Credentials{
	APIKey:            "consumer-key",
	APISecret:         "consumer-secret",
	AccessToken:       "operator-token",
	AccessTokenSecret: "operator-secret",
}

type fakeAPI struct {
	server   *httptest.Server
	status   int
	body     string
	lastAuth string
	lastText string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		status: http.StatusCreated,
		body:   `{"data":{"id":"1790000000000000000","text":"hello"}}`,
	}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2/tweets" {
			http.NotFound(w, r)
			return
		}
		api.lastAuth = r.Header.Get("Authorization")
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		api.lastText = payload["text"]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(api.status)
		w.Write([]byte(api.body))
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) client(creds Credentials) *Client {
	return NewClient(a.server.URL+"/2", creds, a.server.Client())
}

func TestPostOnBehalf_Bearer(t *testing.T) {
	api := newFakeAPI(t)

	tweet, err := api.client(Credentials{}).PostOnBehalf(context.Background(), "hello", "user-token")
	if err != nil {
		t.Fatalf("PostOnBehalf error: %v", err)
	}
	if tweet.ID != "1790000000000000000" || tweet.Text != "hello" {
		t.Errorf("unexpected tweet %+v", tweet)
	}
	if api.lastAuth != "Bearer user-token" {
		t.Errorf("expected bearer auth, got %q", api.lastAuth)
	}
	if api.lastText != "hello" {
		t.Errorf("expected text hello, got %q", api.lastText)
	}
}

func TestPostOnBehalf_StaticOAuth1(t *testing.T) {
	api := newFakeAPI(t)

	if _, err := api.client(staticCreds).PostOnBehalf(context.Background(), "hello", ""); err != nil {
		t.Fatalf("PostOnBehalf error: %v", err)
	}
	if !strings.HasPrefix(api.lastAuth, "OAuth ") {
		t.Fatalf("expected OAuth 1.0a header, got %q", api.lastAuth)
	}
	for _, part := range []string{`oauth_consumer_key="consumer-key"`, `oauth_token="operator-token"`, `oauth_signature=`} {
		if !strings.Contains(api.lastAuth, part) {
			t.Errorf("expected %s in header %q", part, api.lastAuth)
		}
	}
}

func TestPostOnBehalf_StaticMissing(t *testing.T) {
	api := newFakeAPI(t)

	_, err := api.client(Credentials{APIKey: "only-key"}).PostOnBehalf(context.Background(), "hello", "")
	if !errors.Is(err, config.ErrMissingConfig) {
		t.Fatalf("expected ErrMissingConfig, got %v", err)
	}
	if api.lastAuth != "" {
		t.Error("no request should be sent without credentials")
	}
}

func TestPostOnBehalf_Rejected(t *testing.T) {
	api := newFakeAPI(t)
	api.status = http.StatusForbidden
	api.body = `{"title":"Forbidden","detail":"You are not allowed to create a Tweet with duplicate content.","status":403}`

	_, err := api.client(staticCreds).PostOnBehalf(context.Background(), "hello", "")
	var perr *PostError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PostError, got %v", err)
	}
	if perr.Status != http.StatusForbidden {
		t.Errorf("expected 403, got %d", perr.Status)
	}
	if perr.Message != "You are not allowed to create a Tweet with duplicate content." {
		t.Errorf("unexpected message %q", perr.Message)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := map[string]string{
		`{"errors":[{"message":"Rate limit exceeded"}]}`: "Rate limit exceeded",
		`{"title":"Unauthorized"}`:                       "Unauthorized",
		"upstream timeout\n":                             "upstream timeout",
	}
	for body, want := range cases {
		if got := errorMessage([]byte(body)); got != want {
			t.Errorf("errorMessage(%q) = %q, want %q", body, got, want)
		}
	}
}

func TestCheckAuth(t *testing.T) {
	if err := NewClient("", staticCreds, nil).CheckAuth(); err != nil {
		t.Errorf("expected complete credentials to pass, got %v", err)
	}
	if err := NewClient("", Credentials{}, nil).CheckAuth(); !errors.Is(err, config.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

type fakeTokens map[int64]*models.OAuthToken

func (f fakeTokens) GetUserToken(_ context.Context, userID int64) (*models.OAuthToken, error) {
	return f[userID], nil
}

func TestPublish_AdminUsesStaticCredential(t *testing.T) {
	api := newFakeAPI(t)
	p := NewPublisher(api.client(staticCreds), fakeTokens{})

	if _, err := p.Publish(context.Background(), session.Admin(), "hello"); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if !strings.HasPrefix(api.lastAuth, "OAuth ") {
		t.Errorf("expected static OAuth 1.0a credential, got %q", api.lastAuth)
	}
}

func TestPublish_UserUsesStoredToken(t *testing.T) {
	api := newFakeAPI(t)
	expiry := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewPublisher(api.client(staticCreds), fakeTokens{
		7: {UserID: 7, Provider: models.ProviderTwitter, AccessToken: "alice-token", ExpiresAt: &expiry},
	})
	p.SetNow(func() time.Time { return expiry.Add(-time.Second) })

	if _, err := p.Publish(context.Background(), session.User(7, "alice"), "hello"); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if api.lastAuth != "Bearer alice-token" {
		t.Errorf("expected user's bearer token, got %q", api.lastAuth)
	}
}

func TestPublish_UserWithoutToken(t *testing.T) {
	api := newFakeAPI(t)
	p := NewPublisher(api.client(staticCreds), fakeTokens{})

	if _, err := p.Publish(context.Background(), session.User(9, "bob"), "hello"); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if api.lastAuth != "" {
		t.Error("no request should reach X without a credential")
	}
}

func TestPublish_UserTokenExpired(t *testing.T) {
	api := newFakeAPI(t)
	expiry := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewPublisher(api.client(staticCreds), fakeTokens{
		7: {UserID: 7, AccessToken: "stale", ExpiresAt: &expiry},
	})
	p.SetNow(func() time.Time { return expiry.Add(time.Second) })

	if _, err := p.Publish(context.Background(), session.User(7, "alice"), "hello"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
