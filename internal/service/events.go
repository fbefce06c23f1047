package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/metrics"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

// Routing keys of the domain events published to the broker.
const (
	EventEngagementToggled   = "engagement.toggled"
	EventSubscriptionToggled = "subscription.toggled"
	EventVideoViewed         = "video.viewed"
)

// Event is a domain event. Type doubles as the routing key.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// NewEvent creates an Event with a fresh identifier.
func NewEvent(eventType string, payload any) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
}

// NopPublisher drops every event. It is used when the broker is disabled.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, *Event) error { return nil }

// EngagementToggledPayload is the body of an engagement.toggled event.
type EngagementToggledPayload struct {
	SubjectKind string    `json:"subjectKind"`
	SubjectID   uuid.UUID `json:"subjectId"`
	ActorID     uuid.UUID `json:"actorId"`
	Action      Action    `json:"action"`
	State       int16     `json:"state"`
}

// SubscriptionToggledPayload is the body of a subscription.toggled event.
type SubscriptionToggledPayload struct {
	SubscriberID uuid.UUID `json:"subscriberId"`
	ChannelID    uuid.UUID `json:"channelId"`
	Action       Action    `json:"action"`
}

// VideoViewedPayload is the body of a video.viewed event.
type VideoViewedPayload struct {
	VideoID  uuid.UUID `json:"videoId"`
	ViewerID uuid.UUID `json:"viewerId"`
	Views    int64     `json:"views"`
}

// publishBestEffort publishes an event after the write it describes has been
// committed. Failures are logged and counted, never returned.
func publishBestEffort(ctx context.Context, publisher EventPublisher, event *Event) {
	err := publisher.Publish(ctx, event)
	metrics.RecordEventPublish(event.Type, err)
	if err != nil {
		logger.Log.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("eventId", event.ID.String()),
			zap.String("eventType", event.Type),
		)
	}
}
