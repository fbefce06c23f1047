package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/discovery"
)

// WatchTx is the set of row-locking operations available while recording a
// view. Rows loaded through it stay locked until the transaction ends.
type WatchTx interface {
	// LockVideo loads a video with SELECT ... FOR UPDATE.
	LockVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// LockUser loads a user with SELECT ... FOR UPDATE.
	LockUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	// SaveViews writes a video's view count.
	SaveViews(ctx context.Context, videoID uuid.UUID, views int64) error

	// SaveHistory writes a user's watch history.
	SaveHistory(ctx context.Context, userID uuid.UUID, history []uuid.UUID) error
}

// WatchRepository runs watch activity updates atomically.
type WatchRepository interface {
	// InTx runs fn in one transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(tx WatchTx) error) error
}

type watchRepository struct {
	pool *pgxpool.Pool
}

// NewWatchRepository creates a new WatchRepository.
func NewWatchRepository(pool *pgxpool.Pool) WatchRepository {
	return &watchRepository{pool: pool}
}

func (r *watchRepository) InTx(ctx context.Context, fn func(tx WatchTx) error) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&watchTx{tx: tx})
	})
}

type watchTx struct {
	tx pgx.Tx
}

func (w *watchTx) LockVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + discovery.VideoColumns + ` FROM videos WHERE id = $1 FOR UPDATE`

	video, err := scanVideo(w.tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "lock video")
	}

	return video, nil
}

func (w *watchTx) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, username, email, full_name, avatar_url, watch_history, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	user := &models.User{}
	err := w.tx.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.WatchHistory,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "lock user")
	}

	return user, nil
}

func (w *watchTx) SaveViews(ctx context.Context, videoID uuid.UUID, views int64) error {
	query := `UPDATE videos SET views = $2, updated_at = NOW() WHERE id = $1`

	result, err := w.tx.Exec(ctx, query, videoID, views)
	if err != nil {
		return db.WrapError(err, "save views")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("save views: %w", db.ErrNotFound)
	}

	return nil
}

func (w *watchTx) SaveHistory(ctx context.Context, userID uuid.UUID, history []uuid.UUID) error {
	query := `UPDATE users SET watch_history = $2, updated_at = NOW() WHERE id = $1`

	if history == nil {
		history = []uuid.UUID{}
	}

	result, err := w.tx.Exec(ctx, query, userID, history)
	if err != nil {
		return db.WrapError(err, "save watch history")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("save watch history: %w", db.ErrNotFound)
	}

	return nil
}
