package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/db/repository"
	"github.com/vidshare/engagement-engine/internal/discovery"
	"github.com/vidshare/engagement-engine/internal/metrics"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

// PublishVideoInput carries the already-uploaded media locators and metadata
// of a new video.
type PublishVideoInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
}

// CatalogService answers video and comment listings and owns the simple
// catalog writes that feed them.
type CatalogService struct {
	videos   repository.VideoRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	opts     discovery.Options
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(videos repository.VideoRepository, comments repository.CommentRepository, users repository.UserRepository, opts discovery.Options) *CatalogService {
	return &CatalogService{
		videos:   videos,
		comments: comments,
		users:    users,
		opts:     opts,
	}
}

func planError(err error) error {
	switch {
	case errors.Is(err, discovery.ErrInvalidOwner):
		return invalid("Invalid ownerId format")
	case errors.Is(err, discovery.ErrInvalidSort), errors.Is(err, discovery.ErrInvalidSeed):
		return invalid(err.Error())
	default:
		return &Error{Kind: InternalFailure, Message: "failed to plan listing", Cause: err}
	}
}

func listingFailure(what string, err error) error {
	if errors.Is(err, db.ErrQueryTimeout) {
		return storage(what+" exceeded its time budget", err)
	}
	return storage("failed to "+what, err)
}

// ListVideos returns one page of videos. Search listings are ranked by
// relevance tier; other listings page through a seeded sample whose seed is
// returned on the page.
func (s *CatalogService) ListVideos(ctx context.Context, q discovery.VideoQuery) (*discovery.Page[*models.Video], error) {
	plan, err := discovery.BuildVideoPlan(q, s.opts)
	if err != nil {
		return nil, planError(err)
	}

	mode := "sample"
	if plan.Searching() {
		mode = "search"
	}

	start := time.Now()
	videos, err := s.videos.List(ctx, plan)
	var total int64
	if err == nil {
		total, err = s.videos.Count(ctx, plan)
	}
	metrics.RecordDiscoveryQuery("videos", mode, time.Since(start), err)
	if err != nil {
		logger.Log.Error("Video listing failed",
			zap.Error(err),
			zap.String("mode", mode),
			zap.Int("page", plan.Window.Page),
		)
		return nil, listingFailure("list videos", err)
	}

	page := discovery.NewPage(videos, total, plan.Window)
	page.Seed = plan.Seed

	logger.Log.Debug("Videos listed",
		zap.String("mode", mode),
		zap.Int("page", page.CurrentPage),
		zap.Int("items", len(page.Items)),
		zap.Int64("total", total),
	)

	return &page, nil
}

// ListComments returns one page of a video's comments in the requested order.
func (s *CatalogService) ListComments(ctx context.Context, videoID uuid.UUID, q discovery.CommentQuery) (*discovery.Page[*models.Comment], error) {
	if videoID == uuid.Nil {
		return nil, invalid("Invalid videoId format")
	}
	q.VideoID = videoID

	plan, err := discovery.BuildCommentPlan(q, s.opts)
	if err != nil {
		return nil, planError(err)
	}

	start := time.Now()
	comments, err := s.comments.List(ctx, plan)
	var total int64
	if err == nil {
		total, err = s.comments.Count(ctx, plan)
	}
	metrics.RecordDiscoveryQuery("comments", "plain", time.Since(start), err)
	if err != nil {
		logger.Log.Error("Comment listing failed", zap.Error(err), zap.String("videoId", videoID.String()))
		return nil, listingFailure("list comments", err)
	}

	page := discovery.NewPage(comments, total, plan.Window)
	return &page, nil
}

// GetVideo returns a single video.
func (s *CatalogService) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	if id == uuid.Nil {
		return nil, invalid("Invalid videoId format")
	}

	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound("Video not found")
		}
		return nil, storage("failed to load video", err)
	}

	return video, nil
}

// PublishVideo stores a new published video owned by owner.
func (s *CatalogService) PublishVideo(ctx context.Context, owner uuid.UUID, in PublishVideoInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	switch {
	case owner == uuid.Nil:
		return nil, invalid("User ID is required")
	case title == "" || description == "":
		return nil, invalid("Title and description are required")
	case strings.TrimSpace(in.VideoURL) == "":
		return nil, invalid("Video is required")
	case strings.TrimSpace(in.ThumbnailURL) == "":
		return nil, invalid("Thumbnail is required")
	case in.Duration < 0:
		return nil, invalid("duration must not be negative")
	}

	if _, err := s.users.GetByID(ctx, owner); err != nil {
		if db.IsNotFound(err) {
			return nil, notFound("User not found")
		}
		return nil, storage("failed to load owner", err)
	}

	video := models.NewVideo(owner, title, description, in.VideoURL, in.ThumbnailURL, in.Duration)
	if err := s.videos.Create(ctx, video); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, notFound("User not found")
		}
		return nil, storage("Something went wrong while uploading the video", err)
	}

	logger.Log.Info("Video published",
		zap.String("videoId", video.ID.String()),
		zap.String("owner", owner.String()),
	)

	return video, nil
}

// AddComment stores a comment by owner on an existing video.
func (s *CatalogService) AddComment(ctx context.Context, owner, videoID uuid.UUID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)

	switch {
	case videoID == uuid.Nil:
		return nil, invalid("Invalid videoId format")
	case owner == uuid.Nil:
		return nil, invalid("User ID is required")
	case content == "":
		return nil, invalid("comment is required")
	}

	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		if db.IsNotFound(err) {
			return nil, notFound("Video not found")
		}
		return nil, storage("failed to load video", err)
	}

	comment := models.NewComment(videoID, owner, content)
	if err := s.comments.Create(ctx, comment); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, notFound("user not found")
		}
		return nil, storage("Something went wrong while uploading the comment", err)
	}

	return comment, nil
}
