package handler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/discovery"
	"github.com/vidshare/engagement-engine/internal/service"
)

type mockEngagementService struct {
	mock.Mock
}

func (m *mockEngagementService) ApplyEngagement(ctx context.Context, subject models.SubjectRef, actor uuid.UUID, requested *models.EngagementState) (*service.ToggleResult, error) {
	args := m.Called(ctx, subject, actor, requested)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ToggleResult), args.Error(1)
}

func (m *mockEngagementService) GetEngagementSummary(ctx context.Context, subject models.SubjectRef, viewer *uuid.UUID) (*service.EngagementSummary, error) {
	args := m.Called(ctx, subject, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EngagementSummary), args.Error(1)
}

type mockSubscriptionService struct {
	mock.Mock
}

func (m *mockSubscriptionService) ToggleSubscription(ctx context.Context, subscriber, channel uuid.UUID) (*service.ToggleResult, error) {
	args := m.Called(ctx, subscriber, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ToggleResult), args.Error(1)
}

func (m *mockSubscriptionService) ListChannelSubscribers(ctx context.Context, channel uuid.UUID, viewer *uuid.UUID) (*service.ChannelSubscribers, error) {
	args := m.Called(ctx, channel, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChannelSubscribers), args.Error(1)
}

func (m *mockSubscriptionService) ListSubscribedChannels(ctx context.Context, subscriber uuid.UUID) ([]models.SubscribedChannel, error) {
	args := m.Called(ctx, subscriber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubscribedChannel), args.Error(1)
}

type mockCatalogService struct {
	mock.Mock
}

func (m *mockCatalogService) ListVideos(ctx context.Context, q discovery.VideoQuery) (*discovery.Page[*models.Video], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discovery.Page[*models.Video]), args.Error(1)
}

func (m *mockCatalogService) ListComments(ctx context.Context, videoID uuid.UUID, q discovery.CommentQuery) (*discovery.Page[*models.Comment], error) {
	args := m.Called(ctx, videoID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discovery.Page[*models.Comment]), args.Error(1)
}

func (m *mockCatalogService) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockCatalogService) PublishVideo(ctx context.Context, owner uuid.UUID, in service.PublishVideoInput) (*models.Video, error) {
	args := m.Called(ctx, owner, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockCatalogService) AddComment(ctx context.Context, owner, videoID uuid.UUID, content string) (*models.Comment, error) {
	args := m.Called(ctx, owner, videoID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

type mockWatchService struct {
	mock.Mock
}

func (m *mockWatchService) RecordView(ctx context.Context, videoID, viewerID uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, videoID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubBroker bool

func (b stubBroker) IsHealthy() bool { return bool(b) }

var errPingFailed = errors.New("connection refused")
