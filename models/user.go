package models

import "time"

// User is an account resolved from an X handle on its first successful
// OAuth exchange. Rows are never deleted.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries a freshly issued session token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthStatusResponse is returned by GET /auth/twitter.
type AuthStatusResponse struct {
	Status string `json:"status"`
}
