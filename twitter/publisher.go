package twitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tweet-fleet/models"
	"tweet-fleet/session"
)

var (
	ErrAuthRequired = errors.New("x authorization required")
	ErrTokenExpired = errors.New("x token expired, authorize again")
)

// TokenSource returns a user's stored X token, or nil when there is none.
type TokenSource interface {
	GetUserToken(ctx context.Context, userID int64) (*models.OAuthToken, error)
}

// Publisher decides which credential a session may post with.
type Publisher struct {
	client *Client
	tokens TokenSource
	now    func() time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(client *Client, tokens TokenSource) *Publisher {
	return &Publisher{client: client, tokens: tokens, now: time.Now}
}

// Publish posts text for subject. The operator posts with the static
// credential; an OAuth user posts with their own stored token.
func (p *Publisher) Publish(ctx context.Context, subject session.Subject, text string) (*models.Tweet, error) {
	if subject.IsAdministrative() {
		return p.client.PostOnBehalf(ctx, text, "")
	}

	tok, err := p.tokens.GetUserToken(ctx, subject.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading token for user %d: %w", subject.UserID, err)
	}
	if tok == nil {
		return nil, ErrAuthRequired
	}
	if tok.IsExpiredAt(p.now()) {
		return nil, ErrTokenExpired
	}
	return p.client.PostOnBehalf(ctx, text, tok.AccessToken)
}

// SetNow overrides the time function (for testing).
func (p *Publisher) SetNow(fn func() time.Time) {
	p.now = fn
}
