package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
)

// SubscriptionRepository defines operations for managing channel subscriptions.
type SubscriptionRepository interface {
	// Find returns the subscription of subscriber to channel, or db.ErrNotFound.
	Find(ctx context.Context, subscriberID, channelID uuid.UUID) (*models.Subscription, error)

	// Create inserts a subscription. db.ErrDuplicateKey means the pair already exists.
	Create(ctx context.Context, sub *models.Subscription) error

	// Delete deletes a subscription by ID. db.ErrNotFound means it was
	// already removed.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListSubscribers returns the users subscribed to a channel, newest first.
	ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]models.Subscriber, error)

	// ListChannels returns the channels a user is subscribed to, newest first.
	ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscribedChannel, error)
}

type subscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

func (r *subscriptionRepository) Find(ctx context.Context, subscriberID, channelID uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT id, subscriber_id, channel_id, created_at
		FROM subscriptions
		WHERE subscriber_id = $1 AND channel_id = $2
	`

	sub := &models.Subscription{}
	err := r.pool.QueryRow(ctx, query, subscriberID, channelID).Scan(
		&sub.ID,
		&sub.SubscriberID,
		&sub.ChannelID,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "find subscription")
	}

	return sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT subscriptions_subscriber_channel_key DO NOTHING
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		sub.ID,
		sub.SubscriberID,
		sub.ChannelID,
		sub.CreatedAt,
	).Scan(&sub.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("create subscription: %w", db.ErrDuplicateKey)
	}
	if err != nil {
		return db.WrapError(err, "create subscription")
	}

	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM subscriptions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete subscription")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete subscription: %w", db.ErrNotFound)
	}

	return nil
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]models.Subscriber, error) {
	query := `
		SELECT u.id, u.username, u.email
		FROM subscriptions s
		JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = $1
		ORDER BY s.created_at DESC, u.id
	`

	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, db.WrapError(err, "list subscribers")
	}
	defer rows.Close()

	subscribers := []models.Subscriber{}
	for rows.Next() {
		var s models.Subscriber
		if err := rows.Scan(&s.ID, &s.Username, &s.Email); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "list subscribers")
	}

	return subscribers, nil
}

func (r *subscriptionRepository) ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscribedChannel, error) {
	query := `
		SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at
		FROM subscriptions s
		JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at DESC, u.id
	`

	rows, err := r.pool.Query(ctx, query, subscriberID)
	if err != nil {
		return nil, db.WrapError(err, "list subscribed channels")
	}
	defer rows.Close()

	channels := []models.SubscribedChannel{}
	for rows.Next() {
		var c models.SubscribedChannel
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.AvatarURL, &c.SubscribedAt); err != nil {
			return nil, fmt.Errorf("scan subscribed channel: %w", err)
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "list subscribed channels")
	}

	return channels, nil
}
