package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
)

// memEngagementStore is an in-memory EngagementRepository that enforces the
// same (subject, actor) uniqueness and conditional writes as the SQL one.
type memEngagementStore struct {
	mu      sync.Mutex
	records map[string]*models.Engagement
}

func newMemEngagementStore() *memEngagementStore {
	return &memEngagementStore{records: map[string]*models.Engagement{}}
}

func memKey(subject models.SubjectRef, actor uuid.UUID) string {
	return subject.String() + "/" + actor.String()
}

func (s *memEngagementStore) Find(_ context.Context, subject models.SubjectRef, actor uuid.UUID) (*models.Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[memKey(subject, actor)]
	if !ok {
		return nil, fmt.Errorf("find engagement: %w", db.ErrNotFound)
	}
	copied := *e
	return &copied, nil
}

func (s *memEngagementStore) Create(_ context.Context, e *models.Engagement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(e.Subject, e.LikedBy)
	if _, ok := s.records[key]; ok {
		return fmt.Errorf("create engagement: %w", db.ErrDuplicateKey)
	}
	copied := *e
	s.records[key] = &copied
	return nil
}

func (s *memEngagementStore) UpdateState(_ context.Context, id uuid.UUID, from, to models.EngagementState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.records {
		if e.ID == id && e.State == from {
			e.State = to
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("update engagement state: %w", db.ErrNotFound)
}

func (s *memEngagementStore) Delete(_ context.Context, id uuid.UUID, state models.EngagementState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.records {
		if e.ID == id && e.State == state {
			delete(s.records, key)
			return nil
		}
	}
	return fmt.Errorf("delete engagement: %w", db.ErrNotFound)
}

func (s *memEngagementStore) Counts(_ context.Context, subject models.SubjectRef) (models.EngagementCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts models.EngagementCounts
	for _, e := range s.records {
		if e.Subject != subject {
			continue
		}
		switch e.State {
		case models.StateLiked:
			counts.Liked++
		case models.StateDisliked:
			counts.Disliked++
		}
	}
	return counts, nil
}

func (s *memEngagementStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func videoSubject() models.SubjectRef {
	return models.SubjectRef{Kind: models.SubjectVideo, ID: uuid.New()}
}

func TestEngagementService_ApplyEngagement_Validation(t *testing.T) {
	svc := NewEngagementService(new(mockEngagementRepository), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		subject   models.SubjectRef
		actor     uuid.UUID
		requested *models.EngagementState
		wantMsg   string
	}{
		{
			name:    "missing subject id",
			subject: models.SubjectRef{Kind: models.SubjectVideo},
			actor:   uuid.New(),
			wantMsg: "Video ID is required",
		},
		{
			name:    "unknown subject kind",
			subject: models.SubjectRef{Kind: "playlist", ID: uuid.New()},
			actor:   uuid.New(),
			wantMsg: "unsupported subject kind",
		},
		{
			name:    "missing actor",
			subject: videoSubject(),
			wantMsg: "User ID (likedBy) is required",
		},
		{
			name:      "none is not a requestable state",
			subject:   videoSubject(),
			actor:     uuid.New(),
			requested: statePtr(models.StateNone),
			wantMsg:   "state must be 1 (liked) or 2 (disliked)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ApplyEngagement(ctx, tt.subject, tt.actor, tt.requested)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, IsKind(err, InvalidRequest))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestEngagementService_LikeThenRepeatRemoves(t *testing.T) {
	store := newMemEngagementStore()
	svc := NewEngagementService(store, nil, nil)
	ctx := context.Background()

	v42 := videoSubject()
	u1 := uuid.New()

	result, err := svc.ApplyEngagement(ctx, v42, u1, statePtr(models.StateLiked))
	require.NoError(t, err)
	assert.Equal(t, "Video liked", result.Message)
	assert.Equal(t, ActionCreated, result.Action)
	assert.Equal(t, models.StateLiked, result.State)

	record, err := store.Find(ctx, v42, u1)
	require.NoError(t, err)
	assert.Equal(t, models.StateLiked, record.State)
	assert.Equal(t, 1, store.count())

	result, err = svc.ApplyEngagement(ctx, v42, u1, statePtr(models.StateLiked))
	require.NoError(t, err)
	assert.Equal(t, "Video like/dislike removed", result.Message)
	assert.Equal(t, ActionDeleted, result.Action)
	assert.Equal(t, 0, store.count())
}

func TestEngagementService_ThreeCycleReturnsToFirstState(t *testing.T) {
	store := newMemEngagementStore()
	svc := NewEngagementService(store, nil, nil)
	ctx := context.Background()

	subject := videoSubject()
	actor := uuid.New()

	first, err := svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateLiked))
	require.NoError(t, err)
	afterFirst, err := store.Find(ctx, subject, actor)
	require.NoError(t, err)

	_, err = svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateLiked))
	require.NoError(t, err)

	third, err := svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateLiked))
	require.NoError(t, err)
	afterThird, err := store.Find(ctx, subject, actor)
	require.NoError(t, err)

	assert.Equal(t, first.Message, third.Message)
	assert.Equal(t, afterFirst.State, afterThird.State)
	assert.Equal(t, 1, store.count())
}

func TestEngagementService_SwitchKeepsRecordIdentity(t *testing.T) {
	store := newMemEngagementStore()
	svc := NewEngagementService(store, nil, nil)
	ctx := context.Background()

	subject := models.SubjectRef{Kind: models.SubjectComment, ID: uuid.New()}
	actor := uuid.New()

	_, err := svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateLiked))
	require.NoError(t, err)
	before, err := store.Find(ctx, subject, actor)
	require.NoError(t, err)

	result, err := svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateDisliked))
	require.NoError(t, err)
	assert.Equal(t, "Comment disliked", result.Message)
	assert.Equal(t, ActionUpdated, result.Action)

	after, err := store.Find(ctx, subject, actor)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, models.StateDisliked, after.State)
}

func TestEngagementService_AbsentStateDefaultsAndToggles(t *testing.T) {
	store := newMemEngagementStore()
	svc := NewEngagementService(store, nil, nil)
	ctx := context.Background()

	subject := models.SubjectRef{Kind: models.SubjectTweet, ID: uuid.New()}
	actor := uuid.New()

	result, err := svc.ApplyEngagement(ctx, subject, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, "Tweet liked", result.Message)
	assert.Equal(t, models.StateLiked, result.State)

	result, err = svc.ApplyEngagement(ctx, subject, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, "Tweet like/dislike removed", result.Message)
	assert.Equal(t, models.StateNone, result.State)
	assert.Equal(t, 0, store.count())
}

func TestEngagementService_AtMostOneRecordUnderConcurrency(t *testing.T) {
	store := newMemEngagementStore()
	svc := NewEngagementService(store, nil, nil)
	ctx := context.Background()

	subject := videoSubject()
	actor := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state := models.StateLiked
			if i%2 == 0 {
				state = models.StateDisliked
			}
			_, err := svc.ApplyEngagement(ctx, subject, actor, &state)
			if err != nil {
				assert.True(t, IsKind(err, Conflict), "unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.count(), 1)
}

func TestEngagementService_RetriesLostCreateRace(t *testing.T) {
	repo := new(mockEngagementRepository)
	svc := NewEngagementService(repo, nil, nil)
	ctx := context.Background()

	subject := videoSubject()
	actor := uuid.New()
	winner := models.NewEngagement(subject, actor, models.StateLiked)

	repo.On("Find", mock.Anything, subject, actor).Return(nil, fmt.Errorf("find engagement: %w", db.ErrNotFound)).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("create engagement: %w", db.ErrDuplicateKey)).Once()
	repo.On("Find", mock.Anything, subject, actor).Return(winner, nil).Once()
	repo.On("Delete", mock.Anything, winner.ID, models.StateLiked).Return(nil).Once()

	result, err := svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateLiked))
	require.NoError(t, err)
	assert.Equal(t, "Video like/dislike removed", result.Message)

	repo.AssertExpectations(t)
}

func TestEngagementService_ConflictAfterSecondLostRace(t *testing.T) {
	repo := new(mockEngagementRepository)
	svc := NewEngagementService(repo, nil, nil)
	ctx := context.Background()

	subject := videoSubject()
	actor := uuid.New()
	existing := models.NewEngagement(subject, actor, models.StateLiked)

	repo.On("Find", mock.Anything, subject, actor).Return(existing, nil).Twice()
	repo.On("UpdateState", mock.Anything, existing.ID, models.StateLiked, models.StateDisliked).
		Return(fmt.Errorf("update engagement state: %w", db.ErrNotFound)).Twice()

	result, err := svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateDisliked))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsKind(err, Conflict))

	repo.AssertExpectations(t)
}

func TestEngagementService_StorageFailure(t *testing.T) {
	repo := new(mockEngagementRepository)
	publisher := new(mockPublisher)
	svc := NewEngagementService(repo, nil, publisher)
	ctx := context.Background()

	subject := videoSubject()
	actor := uuid.New()
	cause := errors.New("connection refused")

	repo.On("Find", mock.Anything, subject, actor).Return(nil, cause)

	_, err := svc.ApplyEngagement(ctx, subject, actor, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, StorageFailure))
	assert.ErrorIs(t, err, cause)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestEngagementService_UnknownActor(t *testing.T) {
	repo := new(mockEngagementRepository)
	svc := NewEngagementService(repo, nil, nil)

	subject := videoSubject()
	actor := uuid.New()

	repo.On("Find", mock.Anything, subject, actor).Return(nil, db.ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("create engagement: %w", db.ErrForeignKeyViolation))

	_, err := svc.ApplyEngagement(context.Background(), subject, actor, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, NotFound))
	assert.Equal(t, "user not found", err.Error())
}

func TestEngagementService_InvalidatesCacheAndPublishes(t *testing.T) {
	store := newMemEngagementStore()
	cache := new(mockSummaryCache)
	publisher := new(mockPublisher)
	svc := NewEngagementService(store, cache, publisher)

	subject := videoSubject()
	actor := uuid.New()

	cache.On("Invalidate", mock.Anything, subject).Return(nil).Once()
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *Event) bool {
		payload, ok := e.Payload.(EngagementToggledPayload)
		return ok &&
			e.Type == EventEngagementToggled &&
			payload.SubjectID == subject.ID &&
			payload.ActorID == actor &&
			payload.Action == ActionCreated &&
			payload.State == int16(models.StateDisliked)
	})).Return(errors.New("broker down")).Once()

	result, err := svc.ApplyEngagement(context.Background(), subject, actor, statePtr(models.StateDisliked))
	require.NoError(t, err, "publish failures must not fail the toggle")
	assert.Equal(t, "Video disliked", result.Message)

	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestEngagementService_GetEngagementSummary(t *testing.T) {
	store := newMemEngagementStore()
	svc := NewEngagementService(store, nil, nil)
	ctx := context.Background()

	subject := videoSubject()
	liker := uuid.New()
	disliker := uuid.New()
	other := uuid.New()

	_, err := svc.ApplyEngagement(ctx, subject, liker, statePtr(models.StateLiked))
	require.NoError(t, err)
	_, err = svc.ApplyEngagement(ctx, subject, disliker, statePtr(models.StateDisliked))
	require.NoError(t, err)
	_, err = svc.ApplyEngagement(ctx, videoSubject(), other, statePtr(models.StateLiked))
	require.NoError(t, err)

	t.Run("viewer with a like", func(t *testing.T) {
		summary, err := svc.GetEngagementSummary(ctx, subject, &liker)
		require.NoError(t, err)
		assert.Equal(t, &EngagementSummary{LikedCount: 1, DislikedCount: 1, ViewerState: models.StateLiked}, summary)
	})

	t.Run("viewer with a dislike", func(t *testing.T) {
		summary, err := svc.GetEngagementSummary(ctx, subject, &disliker)
		require.NoError(t, err)
		assert.Equal(t, models.StateDisliked, summary.ViewerState)
	})

	t.Run("viewer without a record", func(t *testing.T) {
		summary, err := svc.GetEngagementSummary(ctx, subject, &other)
		require.NoError(t, err)
		assert.Equal(t, models.StateNone, summary.ViewerState)
	})

	t.Run("anonymous viewer", func(t *testing.T) {
		summary, err := svc.GetEngagementSummary(ctx, subject, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StateNone, summary.ViewerState)
		assert.Equal(t, int64(1), summary.LikedCount)
	})
}

func TestEngagementService_GetEngagementSummary_Cache(t *testing.T) {
	repo := new(mockEngagementRepository)
	cache := new(mockSummaryCache)
	svc := NewEngagementService(repo, cache, nil)
	ctx := context.Background()

	subject := videoSubject()
	viewer := uuid.New()

	t.Run("hit skips the count query", func(t *testing.T) {
		cache.On("Get", mock.Anything, subject).Return(CachedCounts{
			Counts:     models.EngagementCounts{Liked: 9, Disliked: 2},
			Generation: 4,
			Hit:        true,
		}, nil).Once()
		repo.On("Find", mock.Anything, subject, viewer).Return(nil, db.ErrNotFound).Once()

		summary, err := svc.GetEngagementSummary(ctx, subject, &viewer)
		require.NoError(t, err)
		assert.Equal(t, int64(9), summary.LikedCount)
		assert.Equal(t, int64(2), summary.DislikedCount)
		repo.AssertNotCalled(t, "Counts", mock.Anything, mock.Anything)
	})

	t.Run("miss fills the cache at the generation it read", func(t *testing.T) {
		counts := models.EngagementCounts{Liked: 3}
		cache.On("Get", mock.Anything, subject).Return(CachedCounts{Generation: 7}, nil).Once()
		repo.On("Counts", mock.Anything, subject).Return(counts, nil).Once()
		cache.On("Set", mock.Anything, subject, counts, int64(7)).Return(nil).Once()

		summary, err := svc.GetEngagementSummary(ctx, subject, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), summary.LikedCount)
	})

	t.Run("cache errors fall back to the store", func(t *testing.T) {
		counts := models.EngagementCounts{Liked: 4, Disliked: 1}
		cache.On("Get", mock.Anything, subject).Return(CachedCounts{}, errors.New("redis down")).Once()
		repo.On("Counts", mock.Anything, subject).Return(counts, nil).Once()
		cache.On("Set", mock.Anything, subject, counts, int64(0)).Return(errors.New("redis down")).Once()

		summary, err := svc.GetEngagementSummary(ctx, subject, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), summary.LikedCount)
	})

	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

// memSummaryCache is an in-memory SummaryCache with the same generation
// guard as the Redis one.
type memSummaryCache struct {
	mu          sync.Mutex
	counts      map[models.SubjectRef]models.EngagementCounts
	generations map[models.SubjectRef]int64
}

func newMemSummaryCache() *memSummaryCache {
	return &memSummaryCache{
		counts:      map[models.SubjectRef]models.EngagementCounts{},
		generations: map[models.SubjectRef]int64{},
	}
}

func (c *memSummaryCache) Get(_ context.Context, subject models.SubjectRef) (CachedCounts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts, ok := c.counts[subject]
	return CachedCounts{Counts: counts, Generation: c.generations[subject], Hit: ok}, nil
}

func (c *memSummaryCache) Set(_ context.Context, subject models.SubjectRef, counts models.EngagementCounts, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[subject] == generation {
		c.counts[subject] = counts
	}
	return nil
}

func (c *memSummaryCache) Invalidate(_ context.Context, subject models.SubjectRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[subject]++
	delete(c.counts, subject)
	return nil
}

// hookedEngagementStore runs afterCounts once, between the count query and
// the caller seeing its result.
type hookedEngagementStore struct {
	*memEngagementStore
	afterCounts func()
}

func (s *hookedEngagementStore) Counts(ctx context.Context, subject models.SubjectRef) (models.EngagementCounts, error) {
	counts, err := s.memEngagementStore.Counts(ctx, subject)
	if hook := s.afterCounts; hook != nil {
		s.afterCounts = nil
		hook()
	}
	return counts, err
}

func TestEngagementService_SummaryNotCachedAcrossToggle(t *testing.T) {
	store := &hookedEngagementStore{memEngagementStore: newMemEngagementStore()}
	svc := NewEngagementService(store, newMemSummaryCache(), nil)
	ctx := context.Background()

	subject := videoSubject()
	actor := uuid.New()

	// The toggle commits and invalidates after the summary has counted but
	// before it stores its totals.
	store.afterCounts = func() {
		_, err := svc.ApplyEngagement(ctx, subject, actor, statePtr(models.StateLiked))
		require.NoError(t, err)
	}

	first, err := svc.GetEngagementSummary(ctx, subject, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.LikedCount)

	second, err := svc.GetEngagementSummary(ctx, subject, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, int64(1), second.LikedCount)

	third, err := svc.GetEngagementSummary(ctx, subject, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), third.LikedCount)
}
