package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/contract-bot/internal/database"
)

// UserRepository handles the users allow-list.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// IsAllowed reports whether the user is on the allow-list.
func (r *UserRepository) IsAllowed(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check allow-list: %w", err)
	}
	return exists, nil
}

// Allow adds a user to the allow-list. Adding an existing user is a no-op.
func (r *UserRepository) Allow(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to allow user: %w", err)
	}
	return nil
}

// Revoke removes a user from the allow-list.
func (r *UserRepository) Revoke(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user: %w", err)
	}
	return nil
}
