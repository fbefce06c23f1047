package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
)

// EngagementRepository defines operations on like/dislike records. Writes
// are conditional so that concurrent toggles on the same (subject, actor)
// pair never produce more than one record.
type EngagementRepository interface {
	// Find returns the actor's record for the subject, or db.ErrNotFound.
	Find(ctx context.Context, subject models.SubjectRef, actor uuid.UUID) (*models.Engagement, error)

	// Create inserts a record. db.ErrDuplicateKey means another request
	// created the (subject, actor) record first.
	Create(ctx context.Context, e *models.Engagement) error

	// UpdateState moves a record from one state to another. db.ErrNotFound
	// means the record no longer holds the expected state.
	UpdateState(ctx context.Context, id uuid.UUID, from, to models.EngagementState) error

	// Delete removes a record that still holds the expected state.
	// db.ErrNotFound means it was changed or removed concurrently.
	Delete(ctx context.Context, id uuid.UUID, state models.EngagementState) error

	// Counts returns the liked and disliked totals for the subject.
	Counts(ctx context.Context, subject models.SubjectRef) (models.EngagementCounts, error)
}

type engagementRepository struct {
	pool *pgxpool.Pool
}

// NewEngagementRepository creates a new EngagementRepository.
func NewEngagementRepository(pool *pgxpool.Pool) EngagementRepository {
	return &engagementRepository{pool: pool}
}

func (r *engagementRepository) Find(ctx context.Context, subject models.SubjectRef, actor uuid.UUID) (*models.Engagement, error) {
	query := `
		SELECT id, liked_by, state, created_at, updated_at
		FROM likes
		WHERE subject_kind = $1 AND subject_id = $2 AND liked_by = $3
	`

	e := &models.Engagement{Subject: subject}
	var state int16
	err := r.pool.QueryRow(ctx, query, string(subject.Kind), subject.ID, actor).Scan(
		&e.ID,
		&e.LikedBy,
		&state,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "find engagement")
	}
	e.State = models.EngagementState(state)

	return e, nil
}

func (r *engagementRepository) Create(ctx context.Context, e *models.Engagement) error {
	query := `
		INSERT INTO likes (id, subject_kind, subject_id, liked_by, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT likes_subject_actor_key DO NOTHING
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		e.ID,
		string(e.Subject.Kind),
		e.Subject.ID,
		e.LikedBy,
		int16(e.State),
		e.CreatedAt,
		e.UpdatedAt,
	).Scan(&e.CreatedAt, &e.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("create engagement: %w", db.ErrDuplicateKey)
	}
	if err != nil {
		return db.WrapError(err, "create engagement")
	}

	return nil
}

func (r *engagementRepository) UpdateState(ctx context.Context, id uuid.UUID, from, to models.EngagementState) error {
	query := `
		UPDATE likes
		SET state = $3, updated_at = NOW()
		WHERE id = $1 AND state = $2
	`

	result, err := r.pool.Exec(ctx, query, id, int16(from), int16(to))
	if err != nil {
		return db.WrapError(err, "update engagement state")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update engagement state: %w", db.ErrNotFound)
	}

	return nil
}

func (r *engagementRepository) Delete(ctx context.Context, id uuid.UUID, state models.EngagementState) error {
	query := `DELETE FROM likes WHERE id = $1 AND state = $2`

	result, err := r.pool.Exec(ctx, query, id, int16(state))
	if err != nil {
		return db.WrapError(err, "delete engagement")
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete engagement: %w", db.ErrNotFound)
	}

	return nil
}

func (r *engagementRepository) Counts(ctx context.Context, subject models.SubjectRef) (models.EngagementCounts, error) {
	query := `
		SELECT
			count(*) FILTER (WHERE state = 1),
			count(*) FILTER (WHERE state = 2)
		FROM likes
		WHERE subject_kind = $1 AND subject_id = $2
	`

	var counts models.EngagementCounts
	err := r.pool.QueryRow(ctx, query, string(subject.Kind), subject.ID).Scan(&counts.Liked, &counts.Disliked)
	if err != nil {
		return models.EngagementCounts{}, db.WrapError(err, "count engagements")
	}

	return counts, nil
}
