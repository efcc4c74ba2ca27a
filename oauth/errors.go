package oauth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState  = errors.New("invalid or expired oauth state")
	ErrTokenExchange = errors.New("token exchange failed")
	ErrUserInfo      = errors.New("fetching user info failed")
)

// ProviderError is a rejection from the identity provider. Body is the raw
// response so it can be logged.
type ProviderError struct {
	Kind   error
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%v: provider returned %d: %s", e.Kind, e.Status, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}
