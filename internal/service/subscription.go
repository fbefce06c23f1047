package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/db/repository"
	"github.com/vidshare/engagement-engine/internal/metrics"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

// ChannelSubscribers lists a channel's subscribers for one viewer.
type ChannelSubscribers struct {
	Subscribers     []models.Subscriber `json:"subscribers"`
	SubscriberCount int                 `json:"subscriberCount"`
	IsSubscribed    bool                `json:"isSubscribed"`
}

// SubscriptionService toggles and lists channel subscriptions.
type SubscriptionService struct {
	subs      repository.SubscriptionRepository
	users     repository.UserRepository
	publisher EventPublisher
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository, publisher EventPublisher) *SubscriptionService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &SubscriptionService{
		subs:      subs,
		users:     users,
		publisher: publisher,
	}
}

// ToggleSubscription subscribes subscriber to channel, or unsubscribes when a
// subscription already exists.
func (s *SubscriptionService) ToggleSubscription(ctx context.Context, subscriber, channel uuid.UUID) (*ToggleResult, error) {
	if channel == uuid.Nil {
		return nil, invalid("Channel ID is required")
	}
	if subscriber == uuid.Nil {
		return nil, invalid("subscriber ID is required")
	}
	if subscriber == channel {
		return nil, invalid("cannot subscribe to your own channel")
	}

	if _, err := s.users.GetByID(ctx, channel); err != nil {
		if db.IsNotFound(err) {
			return nil, notFound("channel not found")
		}
		return nil, storage("failed to load channel", err)
	}

	var (
		action Action
		err    error
	)
	for attempt := 0; ; attempt++ {
		action, err = s.toggleOnce(ctx, subscriber, channel)
		if err == nil {
			break
		}
		if !errors.Is(err, errLostRace) {
			return nil, err
		}
		if attempt >= maxRaceRetries {
			metrics.RecordConflict("subscription", false)
			return nil, conflict("subscription changed concurrently, please retry", err)
		}
		metrics.RecordConflict("subscription", true)
	}

	metrics.RecordSubscriptionToggle(string(action))
	publishBestEffort(ctx, s.publisher, NewEvent(EventSubscriptionToggled, SubscriptionToggledPayload{
		SubscriberID: subscriber,
		ChannelID:    channel,
		Action:       action,
	}))

	message := subscriptionMessage(action)
	logger.Log.Info(message,
		zap.String("subscriber", subscriber.String()),
		zap.String("channel", channel.String()),
	)

	return &ToggleResult{Action: action, Message: message}, nil
}

func (s *SubscriptionService) toggleOnce(ctx context.Context, subscriber, channel uuid.UUID) (Action, error) {
	existing, err := s.subs.Find(ctx, subscriber, channel)
	if err != nil && !db.IsNotFound(err) {
		return "", storage("failed to load subscription", err)
	}

	if existing != nil {
		err = s.subs.Delete(ctx, existing.ID)
		if db.IsNotFound(err) {
			return "", lostRace(err)
		}
		if err != nil {
			return "", storage("failed to delete subscription", err)
		}
		return ActionDeleted, nil
	}

	err = s.subs.Create(ctx, models.NewSubscription(subscriber, channel))
	switch {
	case err == nil:
		return ActionCreated, nil
	case db.IsDuplicateKey(err):
		return "", lostRace(err)
	case db.IsForeignKeyViolation(err):
		return "", notFound("user not found")
	default:
		return "", storage("failed to create subscription", err)
	}
}

// ListChannelSubscribers returns the subscribers of channel and whether
// viewer is one of them.
func (s *SubscriptionService) ListChannelSubscribers(ctx context.Context, channel uuid.UUID, viewer *uuid.UUID) (*ChannelSubscribers, error) {
	if channel == uuid.Nil {
		return nil, invalid("Channel ID is required")
	}

	subscribers, err := s.subs.ListSubscribers(ctx, channel)
	if err != nil {
		return nil, storage("failed to list subscribers", err)
	}

	result := &ChannelSubscribers{
		Subscribers:     subscribers,
		SubscriberCount: len(subscribers),
	}
	if viewer != nil {
		for _, sub := range subscribers {
			if sub.ID == *viewer {
				result.IsSubscribed = true
				break
			}
		}
	}

	return result, nil
}

// ListSubscribedChannels returns the channels subscriber follows. An empty
// list is a success.
func (s *SubscriptionService) ListSubscribedChannels(ctx context.Context, subscriber uuid.UUID) ([]models.SubscribedChannel, error) {
	if subscriber == uuid.Nil {
		return nil, invalid("Subscriber ID is required")
	}

	channels, err := s.subs.ListChannels(ctx, subscriber)
	if err != nil {
		return nil, storage("failed to list subscribed channels", err)
	}

	return channels, nil
}
