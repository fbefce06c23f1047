package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/db/repository"
	"github.com/vidshare/engagement-engine/internal/metrics"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

// WatchStage names the step of a view update that failed.
type WatchStage string

// Watch update stages, in execution order.
const (
	StageBegin          WatchStage = "begin"
	StageLoadVideo      WatchStage = "load_video"
	StageLoadUser       WatchStage = "load_user"
	StageIncrementViews WatchStage = "increment_views"
	StageWriteHistory   WatchStage = "write_history"
	StageCommit         WatchStage = "commit"
)

// WatchError reports the stage at which a view update failed. The update is
// transactional, so neither the view count nor the history was changed.
type WatchError struct {
	Stage WatchStage
	Err   error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch update failed at %s: %v", e.Stage, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// WatchService records video views together with the viewer's history.
type WatchService struct {
	watch        repository.WatchRepository
	publisher    EventPublisher
	historyLimit int
}

// NewWatchService creates a new WatchService. historyLimit caps the stored
// history; zero keeps it unbounded.
func NewWatchService(watch repository.WatchRepository, publisher EventPublisher, historyLimit int) *WatchService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &WatchService{
		watch:        watch,
		publisher:    publisher,
		historyLimit: historyLimit,
	}
}

// RecordView increments a video's view count and moves it to the front of the
// viewer's watch history in one transaction.
func (s *WatchService) RecordView(ctx context.Context, videoID, viewerID uuid.UUID) (*models.Video, error) {
	switch {
	case videoID == uuid.Nil:
		return nil, invalid("Invalid videoId format")
	case viewerID == uuid.Nil:
		return nil, invalid("User ID is required")
	}

	var (
		video *models.Video
		stage = StageBegin
	)
	err := s.watch.InTx(ctx, func(tx repository.WatchTx) error {
		var err error

		stage = StageLoadVideo
		video, err = tx.LockVideo(ctx, videoID)
		if err != nil {
			return err
		}

		stage = StageLoadUser
		user, err := tx.LockUser(ctx, viewerID)
		if err != nil {
			return err
		}

		stage = StageIncrementViews
		video.RecordView()
		if err := tx.SaveViews(ctx, video.ID, video.Views); err != nil {
			return err
		}

		stage = StageWriteHistory
		history := PrependHistory(user.WatchHistory, video.ID, s.historyLimit)
		if err := tx.SaveHistory(ctx, user.ID, history); err != nil {
			return err
		}

		stage = StageCommit
		return nil
	})
	if err != nil {
		return nil, s.watchFailure(videoID, viewerID, stage, err)
	}

	metrics.RecordView()
	publishBestEffort(ctx, s.publisher, NewEvent(EventVideoViewed, VideoViewedPayload{
		VideoID:  video.ID,
		ViewerID: viewerID,
		Views:    video.Views,
	}))

	logger.Log.Debug("View recorded",
		zap.String("videoId", video.ID.String()),
		zap.String("viewerId", viewerID.String()),
		zap.Int64("views", video.Views),
	)

	return video, nil
}

func (s *WatchService) watchFailure(videoID, viewerID uuid.UUID, stage WatchStage, err error) error {
	if db.IsNotFound(err) {
		switch stage {
		case StageLoadVideo:
			return notFound("video not found")
		case StageLoadUser:
			return notFound("user not found")
		}
	}

	metrics.RecordWatchFailure(string(stage))
	logger.Log.Error("Failed to record view",
		zap.Error(err),
		zap.String("stage", string(stage)),
		zap.String("videoId", videoID.String()),
		zap.String("viewerId", viewerID.String()),
	)

	return storage("failed to record view", &WatchError{Stage: stage, Err: err})
}

// PrependHistory returns history with videoID moved to index 0 and every other
// occurrence removed. A positive limit truncates the result.
func PrependHistory(history []uuid.UUID, videoID uuid.UUID, limit int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(history)+1)
	out = append(out, videoID)
	for _, id := range history {
		if id != videoID {
			out = append(out, id)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
