package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tweet-fleet/models"
)

var ErrUserNotFound = errors.New("user not found")

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT id, username, created_at FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrUserNotFound
	}
	if err != nil {
		return user, fmt.Errorf("loading user %d: %w", id, err)
	}
	return user, nil
}

func (s *Store) CountTokens(ctx context.Context, userID int64, provider string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM oauth_tokens WHERE user_id = ? AND provider = ?", userID, provider)
	if err != nil {
		return 0, fmt.Errorf("counting %s tokens: %w", provider, err)
	}
	return n, nil
}
