package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tweet-fleet/models"

	"github.com/jmoiron/sqlx"
)

// Store persists users and their provider tokens.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New creates a Store over an already migrated database.
func New(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// FindOrCreateUser returns the user with exactly this username, creating it
// on first sight. Matching is case-sensitive.
func (s *Store) FindOrCreateUser(ctx context.Context, username string) (models.User, error) {
	var user models.User

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return user, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (username, created_at) VALUES (?, ?) ON CONFLICT (username) DO NOTHING",
		username, s.now())
	if err != nil {
		return user, fmt.Errorf("inserting user %q: %w", username, err)
	}

	err = tx.GetContext(ctx, &user, "SELECT id, username, created_at FROM users WHERE username = ?", username)
	if err != nil {
		return user, fmt.Errorf("loading user %q: %w", username, err)
	}

	if err := tx.Commit(); err != nil {
		return user, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

// ReplaceToken deletes every token the user holds for tok.Provider and
// inserts tok in the same transaction.
func (s *Store) ReplaceToken(ctx context.Context, tok models.OAuthToken) (models.OAuthToken, error) {
	now := s.now()
	tok.CreatedAt = now
	tok.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return tok, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DELETE FROM oauth_tokens WHERE user_id = ? AND provider = ?", tok.UserID, tok.Provider)
	if err != nil {
		return tok, fmt.Errorf("deleting previous %s tokens: %w", tok.Provider, err)
	}

	result, err := tx.NamedExecContext(ctx, `
		INSERT INTO oauth_tokens
			(user_id, provider, access_token, refresh_token, token_secret, expires_at, scope, created_at, updated_at)
		VALUES
			(:user_id, :provider, :access_token, :refresh_token, :token_secret, :expires_at, :scope, :created_at, :updated_at)
	`, tok)
	if err != nil {
		return tok, fmt.Errorf("inserting %s token: %w", tok.Provider, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return tok, fmt.Errorf("reading token id: %w", err)
	}
	tok.ID = id

	if err := tx.Commit(); err != nil {
		return tok, fmt.Errorf("commit: %w", err)
	}
	return tok, nil
}

// GetToken returns the user's token for provider, or nil when none is stored.
func (s *Store) GetToken(ctx context.Context, userID int64, provider string) (*models.OAuthToken, error) {
	var tok models.OAuthToken
	err := s.db.GetContext(ctx, &tok, `
		SELECT id, user_id, provider, access_token, refresh_token, token_secret,
			expires_at, scope, created_at, updated_at
		FROM oauth_tokens WHERE user_id = ? AND provider = ?`, userID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s token for user %d: %w", provider, userID, err)
	}
	return &tok, nil
}
