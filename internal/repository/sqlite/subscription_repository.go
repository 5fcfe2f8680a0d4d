package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vidtube/internal/repository"
)

const createSubscriptionsTable = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subscriber_id TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE(subscriber_id, channel_id),
	FOREIGN KEY(subscriber_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(channel_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_channel_id ON subscriptions(channel_id);
CREATE INDEX IF NOT EXISTS idx_subscriptions_subscriber_id ON subscriptions(subscriber_id);
`

type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSubscriptionsTable); err != nil {
		return fmt.Errorf("create subscriptions table: %w", err)
	}
	return nil
}

// Subscribe records the edge; subscribing twice is a no-op.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT(subscriber_id, channel_id) DO NOTHING`,
		subscriberID,
		channelID,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?`, subscriberID, channelID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
