package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription records that a subscriber follows a channel.
type Subscription struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SubscriberID uuid.UUID `db:"subscriber_id" json:"subscriber"`
	ChannelID    uuid.UUID `db:"channel_id" json:"channel"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// NewSubscription creates a Subscription with a fresh identifier.
func NewSubscription(subscriberID, channelID uuid.UUID) *Subscription {
	return &Subscription{
		ID:           uuid.New(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now(),
	}
}

// Subscriber is a channel subscriber as listed to the channel owner.
type Subscriber struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// SubscribedChannel is a channel as listed to one of its subscribers.
type SubscribedChannel struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	AvatarURL    string    `json:"avatar"`
	SubscribedAt time.Time `json:"subscribedAt"`
}
