package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// ReminderSubscriptionRepository persists which chats receive daily reminders.
type ReminderSubscriptionRepository struct {
	db database.PGXDB
}

// NewReminderSubscriptionRepository creates a new ReminderSubscriptionRepository.
func NewReminderSubscriptionRepository(db database.PGXDB) *ReminderSubscriptionRepository {
	return &ReminderSubscriptionRepository{db: db}
}

// Subscribe records a chat subscription. Subscribing twice keeps the first row.
func (r *ReminderSubscriptionRepository) Subscribe(ctx context.Context, chatID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reminder_subscriptions (chat_id, user_id) VALUES ($1, $2)
		ON CONFLICT (chat_id) DO NOTHING
	`, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to subscribe chat: %w", err)
	}
	return nil
}

// Unsubscribe removes a chat subscription.
func (r *ReminderSubscriptionRepository) Unsubscribe(ctx context.Context, chatID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reminder_subscriptions WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe chat: %w", err)
	}
	return nil
}

// List returns all subscriptions.
func (r *ReminderSubscriptionRepository) List(ctx context.Context) ([]models.ReminderSubscription, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chat_id, user_id, created_at FROM reminder_subscriptions ORDER BY created_at, chat_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.ReminderSubscription
	for rows.Next() {
		var s models.ReminderSubscription
		if err := rows.Scan(&s.ChatID, &s.UserID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder subscriptions: %w", err)
	}
	return subs, nil
}
