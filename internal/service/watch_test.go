package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/db/repository"
)

// memWatchStore applies writes to a staged copy and keeps them only when the
// transaction function succeeds.
type memWatchStore struct {
	videos map[uuid.UUID]models.Video
	users  map[uuid.UUID]models.User

	failAt    WatchStage
	beginErr  error
	commitErr error
}

func newMemWatchStore() *memWatchStore {
	return &memWatchStore{
		videos: map[uuid.UUID]models.Video{},
		users:  map[uuid.UUID]models.User{},
	}
}

func (s *memWatchStore) InTx(ctx context.Context, fn func(tx repository.WatchTx) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	tx := &memWatchTx{store: s, videos: map[uuid.UUID]models.Video{}, users: map[uuid.UUID]models.User{}}
	if err := fn(tx); err != nil {
		return err
	}
	if s.commitErr != nil {
		return s.commitErr
	}
	for id, v := range tx.videos {
		s.videos[id] = v
	}
	for id, u := range tx.users {
		s.users[id] = u
	}
	return nil
}

type memWatchTx struct {
	store  *memWatchStore
	videos map[uuid.UUID]models.Video
	users  map[uuid.UUID]models.User
}

var errInjected = errors.New("injected failure")

func (t *memWatchTx) LockVideo(_ context.Context, id uuid.UUID) (*models.Video, error) {
	if t.store.failAt == StageLoadVideo {
		return nil, errInjected
	}
	v, ok := t.store.videos[id]
	if !ok {
		return nil, fmt.Errorf("lock video: %w", db.ErrNotFound)
	}
	return &v, nil
}

func (t *memWatchTx) LockUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if t.store.failAt == StageLoadUser {
		return nil, errInjected
	}
	u, ok := t.store.users[id]
	if !ok {
		return nil, fmt.Errorf("lock user: %w", db.ErrNotFound)
	}
	u.WatchHistory = append([]uuid.UUID(nil), u.WatchHistory...)
	return &u, nil
}

func (t *memWatchTx) SaveViews(_ context.Context, videoID uuid.UUID, views int64) error {
	if t.store.failAt == StageIncrementViews {
		return errInjected
	}
	v := t.store.videos[videoID]
	v.Views = views
	t.videos[videoID] = v
	return nil
}

func (t *memWatchTx) SaveHistory(_ context.Context, userID uuid.UUID, history []uuid.UUID) error {
	if t.store.failAt == StageWriteHistory {
		return errInjected
	}
	u := t.store.users[userID]
	u.WatchHistory = history
	t.users[userID] = u
	return nil
}

func seedWatch(store *memWatchStore, views int64, history ...uuid.UUID) (videoID, userID uuid.UUID) {
	videoID, userID = uuid.New(), uuid.New()
	store.videos[videoID] = models.Video{ID: videoID, Views: views}
	store.users[userID] = models.User{ID: userID, WatchHistory: history}
	return videoID, userID
}

func TestWatchService_RecordView(t *testing.T) {
	store := newMemWatchStore()
	other := uuid.New()
	videoID, userID := seedWatch(store, 7, other)
	svc := NewWatchService(store, nil, 200)

	video, err := svc.RecordView(context.Background(), videoID, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), video.Views)
	assert.Equal(t, int64(8), store.videos[videoID].Views)
	assert.Equal(t, []uuid.UUID{videoID, other}, store.users[userID].WatchHistory)
}

func TestWatchService_RecordView_Twice(t *testing.T) {
	store := newMemWatchStore()
	videoID, userID := seedWatch(store, 0)
	svc := NewWatchService(store, nil, 200)
	ctx := context.Background()

	_, err := svc.RecordView(ctx, videoID, userID)
	require.NoError(t, err)
	video, err := svc.RecordView(ctx, videoID, userID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), video.Views)
	assert.Equal(t, []uuid.UUID{videoID}, store.users[userID].WatchHistory)
}

func TestWatchService_RecordView_MovesToFront(t *testing.T) {
	store := newMemWatchStore()
	a, b := uuid.New(), uuid.New()
	videoID, userID := seedWatch(store, 3)
	store.users[userID] = models.User{ID: userID, WatchHistory: []uuid.UUID{a, videoID, b, videoID}}
	svc := NewWatchService(store, nil, 0)

	_, err := svc.RecordView(context.Background(), videoID, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{videoID, a, b}, store.users[userID].WatchHistory)
}

func TestWatchService_RecordView_NotFound(t *testing.T) {
	store := newMemWatchStore()
	videoID, userID := seedWatch(store, 1)
	svc := NewWatchService(store, nil, 200)
	ctx := context.Background()

	_, err := svc.RecordView(ctx, uuid.New(), userID)
	require.Error(t, err)
	assert.True(t, IsKind(err, NotFound))
	assert.Equal(t, "video not found", err.Error())

	_, err = svc.RecordView(ctx, videoID, uuid.New())
	require.Error(t, err)
	assert.True(t, IsKind(err, NotFound))
	assert.Equal(t, "user not found", err.Error())

	assert.Equal(t, int64(1), store.videos[videoID].Views)
}

func TestWatchService_RecordView_InvalidInput(t *testing.T) {
	svc := NewWatchService(newMemWatchStore(), nil, 200)

	_, err := svc.RecordView(context.Background(), uuid.Nil, uuid.New())
	assert.True(t, IsKind(err, InvalidRequest))

	_, err = svc.RecordView(context.Background(), uuid.New(), uuid.Nil)
	assert.True(t, IsKind(err, InvalidRequest))
}

func TestWatchService_RecordView_StageFailures(t *testing.T) {
	stages := []WatchStage{StageBegin, StageLoadVideo, StageLoadUser, StageIncrementViews, StageWriteHistory, StageCommit}

	for _, stage := range stages {
		t.Run(string(stage), func(t *testing.T) {
			store := newMemWatchStore()
			prior := uuid.New()
			videoID, userID := seedWatch(store, 5, prior)
			switch stage {
			case StageBegin:
				store.beginErr = errInjected
			case StageCommit:
				store.commitErr = errInjected
			default:
				store.failAt = stage
			}
			svc := NewWatchService(store, nil, 200)

			_, err := svc.RecordView(context.Background(), videoID, userID)
			require.Error(t, err)
			assert.True(t, IsKind(err, StorageFailure))

			var werr *WatchError
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, stage, werr.Stage)
			assert.Equal(t, "watch update failed at "+string(stage)+": injected failure", werr.Error())
			assert.ErrorIs(t, err, errInjected)

			assert.Equal(t, int64(5), store.videos[videoID].Views)
			assert.Equal(t, []uuid.UUID{prior}, store.users[userID].WatchHistory)
		})
	}
}

func TestWatchService_RecordView_PublishesEvent(t *testing.T) {
	store := newMemWatchStore()
	videoID, userID := seedWatch(store, 0)
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *Event) bool {
		p, ok := e.Payload.(VideoViewedPayload)
		return ok && e.Type == EventVideoViewed && p.VideoID == videoID && p.ViewerID == userID && p.Views == 1
	})).Return(errors.New("broker down"))
	svc := NewWatchService(store, publisher, 200)

	_, err := svc.RecordView(context.Background(), videoID, userID)
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestPrependHistory(t *testing.T) {
	a, b, c, v := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name    string
		history []uuid.UUID
		limit   int
		want    []uuid.UUID
	}{
		{name: "empty", history: nil, limit: 10, want: []uuid.UUID{v}},
		{name: "new entry", history: []uuid.UUID{a, b}, limit: 10, want: []uuid.UUID{v, a, b}},
		{name: "already first", history: []uuid.UUID{v, a}, limit: 10, want: []uuid.UUID{v, a}},
		{name: "duplicates removed", history: []uuid.UUID{a, v, b, v}, limit: 10, want: []uuid.UUID{v, a, b}},
		{name: "truncated", history: []uuid.UUID{a, b, c}, limit: 2, want: []uuid.UUID{v, a}},
		{name: "unlimited", history: []uuid.UUID{a, b, c}, limit: 0, want: []uuid.UUID{v, a, b, c}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrependHistory(tt.history, v, tt.limit))
		})
	}
}

func TestPrependHistory_DoesNotModifyInput(t *testing.T) {
	a, v := uuid.New(), uuid.New()
	history := []uuid.UUID{a, v}

	PrependHistory(history, v, 10)
	assert.Equal(t, []uuid.UUID{a, v}, history)
}

var _ repository.WatchRepository = (*memWatchStore)(nil)
