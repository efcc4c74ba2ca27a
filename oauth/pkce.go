package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	verifierBytes = 64 // 86 base64url characters, inside RFC 7636's 43..128
	stateBytes    = 32
)

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// newCodeVerifier returns a PKCE verifier. The flow uses the plain challenge
// method, so the verifier is also sent as the challenge.
func newCodeVerifier() (string, error) {
	return randomToken(verifierBytes)
}

func newState() (string, error) {
	return randomToken(stateBytes)
}
