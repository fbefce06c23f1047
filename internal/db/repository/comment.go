package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/discovery"
)

// CommentRepository defines operations for managing comments.
type CommentRepository interface {
	// Create inserts a new comment.
	Create(ctx context.Context, comment *models.Comment) error

	// List runs a comment plan and returns one page of comments.
	List(ctx context.Context, plan *discovery.CommentPlan) ([]*models.Comment, error)

	// Count returns the number of comments matching the plan's filter.
	Count(ctx context.Context, plan *discovery.CommentPlan) (int64, error)
}

type commentRepository struct {
	pool   *pgxpool.Pool
	budget time.Duration
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool, budget time.Duration) CommentRepository {
	return &commentRepository{pool: pool, budget: budget}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, content, video_id, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		comment.ID,
		comment.Content,
		comment.VideoID,
		comment.OwnerID,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.CreatedAt, &comment.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "create comment")
	}

	return nil
}

func (r *commentRepository) List(ctx context.Context, plan *discovery.CommentPlan) ([]*models.Comment, error) {
	query, args := plan.SelectSQL()

	comments := []*models.Comment{}
	err := withBudget(ctx, r.pool, r.budget, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return db.WrapError(err, "list comments")
		}
		defer rows.Close()

		for rows.Next() {
			c := &models.Comment{}
			if err := rows.Scan(&c.ID, &c.Content, &c.VideoID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return fmt.Errorf("scan comment: %w", err)
			}
			comments = append(comments, c)
		}

		if err := rows.Err(); err != nil {
			return db.WrapError(err, "iterate comments")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) Count(ctx context.Context, plan *discovery.CommentPlan) (int64, error) {
	query, args := plan.CountSQL()

	var total int64
	err := withBudget(ctx, r.pool, r.budget, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, args...).Scan(&total); err != nil {
			return db.WrapError(err, "count comments")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}
