package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/db/repository"
	"github.com/vidshare/engagement-engine/internal/discovery"
)

type mockEngagementRepository struct {
	mock.Mock
}

func (m *mockEngagementRepository) Find(ctx context.Context, subject models.SubjectRef, actor uuid.UUID) (*models.Engagement, error) {
	args := m.Called(ctx, subject, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Engagement), args.Error(1)
}

func (m *mockEngagementRepository) Create(ctx context.Context, e *models.Engagement) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockEngagementRepository) UpdateState(ctx context.Context, id uuid.UUID, from, to models.EngagementState) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockEngagementRepository) Delete(ctx context.Context, id uuid.UUID, state models.EngagementState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *mockEngagementRepository) Counts(ctx context.Context, subject models.SubjectRef) (models.EngagementCounts, error) {
	args := m.Called(ctx, subject)
	return args.Get(0).(models.EngagementCounts), args.Error(1)
}

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Find(ctx context.Context, subscriberID, channelID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, subscriberID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]models.Subscriber, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscriber), args.Error(1)
}

func (m *mockSubscriptionRepository) ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscribedChannel, error) {
	args := m.Called(ctx, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubscribedChannel), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockVideoRepository struct {
	mock.Mock
}

func (m *mockVideoRepository) Create(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockVideoRepository) List(ctx context.Context, plan *discovery.VideoPlan) ([]*models.Video, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Video), args.Error(1)
}

func (m *mockVideoRepository) Count(ctx context.Context, plan *discovery.VideoPlan) (int64, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(int64), args.Error(1)
}

type mockCommentRepository struct {
	mock.Mock
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepository) List(ctx context.Context, plan *discovery.CommentPlan) ([]*models.Comment, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *mockCommentRepository) Count(ctx context.Context, plan *discovery.CommentPlan) (int64, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(int64), args.Error(1)
}

type mockSummaryCache struct {
	mock.Mock
}

func (m *mockSummaryCache) Get(ctx context.Context, subject models.SubjectRef) (CachedCounts, error) {
	args := m.Called(ctx, subject)
	return args.Get(0).(CachedCounts), args.Error(1)
}

func (m *mockSummaryCache) Set(ctx context.Context, subject models.SubjectRef, counts models.EngagementCounts, generation int64) error {
	args := m.Called(ctx, subject, counts, generation)
	return args.Error(0)
}

func (m *mockSummaryCache) Invalidate(ctx context.Context, subject models.SubjectRef) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event *Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var (
	_ repository.EngagementRepository   = (*mockEngagementRepository)(nil)
	_ repository.SubscriptionRepository = (*mockSubscriptionRepository)(nil)
	_ repository.UserRepository         = (*mockUserRepository)(nil)
	_ repository.VideoRepository        = (*mockVideoRepository)(nil)
	_ repository.CommentRepository      = (*mockCommentRepository)(nil)
	_ SummaryCache                      = (*mockSummaryCache)(nil)
	_ EventPublisher                    = (*mockPublisher)(nil)
)
