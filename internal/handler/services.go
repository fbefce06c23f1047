package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/discovery"
	"github.com/vidshare/engagement-engine/internal/service"
)

// EngagementService is the like/dislike surface used by EngagementHandler.
type EngagementService interface {
	ApplyEngagement(ctx context.Context, subject models.SubjectRef, actor uuid.UUID, requested *models.EngagementState) (*service.ToggleResult, error)
	GetEngagementSummary(ctx context.Context, subject models.SubjectRef, viewer *uuid.UUID) (*service.EngagementSummary, error)
}

// SubscriptionService is the subscription surface used by SubscriptionHandler.
type SubscriptionService interface {
	ToggleSubscription(ctx context.Context, subscriber, channel uuid.UUID) (*service.ToggleResult, error)
	ListChannelSubscribers(ctx context.Context, channel uuid.UUID, viewer *uuid.UUID) (*service.ChannelSubscribers, error)
	ListSubscribedChannels(ctx context.Context, subscriber uuid.UUID) ([]models.SubscribedChannel, error)
}

// CatalogService is the video and comment surface used by VideoHandler and
// CommentHandler.
type CatalogService interface {
	ListVideos(ctx context.Context, q discovery.VideoQuery) (*discovery.Page[*models.Video], error)
	ListComments(ctx context.Context, videoID uuid.UUID, q discovery.CommentQuery) (*discovery.Page[*models.Comment], error)
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	PublishVideo(ctx context.Context, owner uuid.UUID, in service.PublishVideoInput) (*models.Video, error)
	AddComment(ctx context.Context, owner, videoID uuid.UUID, content string) (*models.Comment, error)
}

// WatchService records views.
type WatchService interface {
	RecordView(ctx context.Context, videoID, viewerID uuid.UUID) (*models.Video, error)
}

var (
	_ EngagementService   = (*service.EngagementService)(nil)
	_ SubscriptionService = (*service.SubscriptionService)(nil)
	_ CatalogService      = (*service.CatalogService)(nil)
	_ WatchService        = (*service.WatchService)(nil)
)
