package models

import "time"

// ProviderTwitter tags tokens issued by X/Twitter.
const ProviderTwitter = "twitter"

// OAuthToken is the single active credential a user holds for a provider.
// ExpiresAt nil means the token never expires.
type OAuthToken struct {
	ID           int64      `json:"id" db:"id"`
	UserID       int64      `json:"user_id" db:"user_id"`
	Provider     string     `json:"provider" db:"provider"`
	AccessToken  string     `json:"-" db:"access_token"`
	RefreshToken *string    `json:"-" db:"refresh_token"`
	TokenSecret  *string    `json:"-" db:"token_secret"` // OAuth 1.0a signing secret
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Scope        *string    `json:"scope,omitempty" db:"scope"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the token is past its expiry right now.
func (t *OAuthToken) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether now is strictly after the token's expiry.
func (t *OAuthToken) IsExpiredAt(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.After(*t.ExpiresAt)
}

// TokenInfo is what the provider's token endpoint handed back.
type TokenInfo struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type"`
	Scope        string     `json:"scope,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// AuthorizationStart is returned by GET /auth/twitter/oauth.
type AuthorizationStart struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}
