package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/discovery"
)

// VideoRepository defines operations for managing videos.
type VideoRepository interface {
	// Create inserts a new video.
	Create(ctx context.Context, video *models.Video) error

	// GetByID retrieves a single video by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// List runs a discovery plan and returns one page of videos.
	List(ctx context.Context, plan *discovery.VideoPlan) ([]*models.Video, error)

	// Count returns the number of videos matching the plan's filter.
	Count(ctx context.Context, plan *discovery.VideoPlan) (int64, error)
}

type videoRepository struct {
	pool   *pgxpool.Pool
	budget time.Duration
}

// NewVideoRepository creates a new VideoRepository. Listing queries are
// bounded by budget.
func NewVideoRepository(pool *pgxpool.Pool, budget time.Duration) VideoRepository {
	return &videoRepository{pool: pool, budget: budget}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (
			id, title, description, video_url, thumbnail_url, duration,
			views, owner_id, is_published, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.VideoURL,
		video.ThumbnailURL,
		video.Duration,
		video.Views,
		video.OwnerID,
		video.IsPublished,
		video.CreatedAt,
		video.UpdatedAt,
	).Scan(&video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "create video")
	}

	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + discovery.VideoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) List(ctx context.Context, plan *discovery.VideoPlan) ([]*models.Video, error) {
	query, args := plan.SelectSQL()

	var videos []*models.Video
	err := withBudget(ctx, r.pool, r.budget, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return db.WrapError(err, "list videos")
		}
		defer rows.Close()

		videos, err = scanRankedVideos(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	return videos, nil
}

func (r *videoRepository) Count(ctx context.Context, plan *discovery.VideoPlan) (int64, error) {
	query, args := plan.CountSQL()

	var total int64
	err := withBudget(ctx, r.pool, r.budget, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, args...).Scan(&total); err != nil {
			return db.WrapError(err, "count videos")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	video := &models.Video{}
	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.VideoURL,
		&video.ThumbnailURL,
		&video.Duration,
		&video.Views,
		&video.OwnerID,
		&video.IsPublished,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return video, nil
}

// scanRankedVideos scans rows produced by discovery.VideoPlan.SelectSQL,
// which carry a trailing relevance column.
func scanRankedVideos(rows pgx.Rows) ([]*models.Video, error) {
	videos := []*models.Video{}

	for rows.Next() {
		video := &models.Video{}
		err := rows.Scan(
			&video.ID,
			&video.Title,
			&video.Description,
			&video.VideoURL,
			&video.ThumbnailURL,
			&video.Duration,
			&video.Views,
			&video.OwnerID,
			&video.IsPublished,
			&video.CreatedAt,
			&video.UpdatedAt,
			&video.Relevance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate videos")
	}

	return videos, nil
}
