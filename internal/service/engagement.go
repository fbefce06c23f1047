package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/models"
	"github.com/vidshare/engagement-engine/internal/db/repository"
	"github.com/vidshare/engagement-engine/internal/metrics"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

// EngagementSummary is the like/dislike view of one subject for one viewer.
type EngagementSummary struct {
	LikedCount    int64                  `json:"likedCount"`
	DislikedCount int64                  `json:"dislikedCount"`
	ViewerState   models.EngagementState `json:"viewerState"`
}

// EngagementService applies like/dislike toggles and reports summaries.
type EngagementService struct {
	likes     repository.EngagementRepository
	cache     SummaryCache
	publisher EventPublisher
}

// NewEngagementService creates a new EngagementService. A nil cache or
// publisher disables that collaborator.
func NewEngagementService(likes repository.EngagementRepository, cache SummaryCache, publisher EventPublisher) *EngagementService {
	if cache == nil {
		cache = NopSummaryCache{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &EngagementService{
		likes:     likes,
		cache:     cache,
		publisher: publisher,
	}
}

func validateSubject(subject models.SubjectRef) error {
	if !subject.Kind.Valid() {
		return invalid("unsupported subject kind")
	}
	if subject.ID == uuid.Nil {
		return invalid(subject.Kind.Label() + " ID is required")
	}
	return nil
}

// ApplyEngagement runs one like/dislike toggle for actor on subject. A nil
// requested state toggles off the stored state, or likes when nothing is
// stored.
func (s *EngagementService) ApplyEngagement(ctx context.Context, subject models.SubjectRef, actor uuid.UUID, requested *models.EngagementState) (*ToggleResult, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	if actor == uuid.Nil {
		return nil, invalid("User ID (likedBy) is required")
	}
	if requested != nil && !requested.Valid() {
		return nil, invalid("state must be 1 (liked) or 2 (disliked)")
	}

	var (
		t   transition
		err error
	)
	for attempt := 0; ; attempt++ {
		t, err = s.applyOnce(ctx, subject, actor, requested)
		if err == nil {
			break
		}
		if !errors.Is(err, errLostRace) {
			return nil, err
		}
		if attempt >= maxRaceRetries {
			metrics.RecordConflict("engagement", false)
			logger.Log.Warn("Engagement toggle lost repeated write races",
				zap.String("subject", subject.String()),
				zap.String("actor", actor.String()),
			)
			return nil, conflict("engagement changed concurrently, please retry", err)
		}
		metrics.RecordConflict("engagement", true)
		logger.Log.Debug("Engagement toggle lost a write race, re-evaluating",
			zap.String("subject", subject.String()),
			zap.String("actor", actor.String()),
		)
	}

	if err := s.cache.Invalidate(ctx, subject); err != nil {
		logger.Log.Warn("Failed to invalidate engagement summary", zap.Error(err), zap.String("subject", subject.String()))
	}

	metrics.RecordEngagementToggle(string(subject.Kind), string(t.action))
	publishBestEffort(ctx, s.publisher, NewEvent(EventEngagementToggled, EngagementToggledPayload{
		SubjectKind: string(subject.Kind),
		SubjectID:   subject.ID,
		ActorID:     actor,
		Action:      t.action,
		State:       int16(t.state),
	}))

	message := engagementMessage(subject.Kind, t)
	logger.Log.Info(message,
		zap.String("subject", subject.String()),
		zap.String("actor", actor.String()),
		zap.String("action", string(t.action)),
	)

	return &ToggleResult{State: t.state, Action: t.action, Message: message}, nil
}

// applyOnce reads the current record and performs the single conditional
// write the state machine asks for. errLostRace means the read is stale.
func (s *EngagementService) applyOnce(ctx context.Context, subject models.SubjectRef, actor uuid.UUID, requested *models.EngagementState) (transition, error) {
	existing, err := s.likes.Find(ctx, subject, actor)
	if err != nil && !db.IsNotFound(err) {
		return transition{}, storage("failed to load engagement", err)
	}
	if db.IsNotFound(err) {
		existing = nil
	}

	t := nextTransition(existing, requested)

	switch t.action {
	case ActionCreated:
		err = s.likes.Create(ctx, models.NewEngagement(subject, actor, t.state))
		if db.IsDuplicateKey(err) {
			return transition{}, lostRace(err)
		}
		if db.IsForeignKeyViolation(err) {
			return transition{}, notFound("user not found")
		}
	case ActionUpdated:
		err = s.likes.UpdateState(ctx, existing.ID, existing.State, t.state)
		if db.IsNotFound(err) {
			return transition{}, lostRace(err)
		}
	case ActionDeleted:
		err = s.likes.Delete(ctx, existing.ID, existing.State)
		if db.IsNotFound(err) {
			return transition{}, lostRace(err)
		}
	}

	if err != nil {
		return transition{}, storage("failed to save engagement", err)
	}
	return t, nil
}

// GetEngagementSummary returns the subject's like and dislike totals plus the
// viewer's own state, or models.StateNone when viewer is nil or has no record.
func (s *EngagementService) GetEngagementSummary(ctx context.Context, subject models.SubjectRef, viewer *uuid.UUID) (*EngagementSummary, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}

	counts, err := s.counts(ctx, subject)
	if err != nil {
		return nil, err
	}

	summary := &EngagementSummary{
		LikedCount:    counts.Liked,
		DislikedCount: counts.Disliked,
		ViewerState:   models.StateNone,
	}

	if viewer == nil || *viewer == uuid.Nil {
		return summary, nil
	}

	record, err := s.likes.Find(ctx, subject, *viewer)
	switch {
	case err == nil:
		summary.ViewerState = record.State
	case db.IsNotFound(err):
	default:
		return nil, storage("failed to load viewer engagement", err)
	}

	return summary, nil
}

// counts serves totals cache-aside. The generation read before the store
// query keeps a toggle that commits mid-read from being overwritten by the
// older totals.
func (s *EngagementService) counts(ctx context.Context, subject models.SubjectRef) (models.EngagementCounts, error) {
	cached, err := s.cache.Get(ctx, subject)
	if err != nil {
		logger.Log.Warn("Failed to read engagement summary cache", zap.Error(err), zap.String("subject", subject.String()))
	}
	metrics.RecordSummaryCache(cached.Hit)
	if cached.Hit {
		return cached.Counts, nil
	}

	counts, err := s.likes.Counts(ctx, subject)
	if err != nil {
		return models.EngagementCounts{}, storage("failed to count engagements", err)
	}

	if err := s.cache.Set(ctx, subject, counts, cached.Generation); err != nil {
		logger.Log.Warn("Failed to cache engagement summary", zap.Error(err), zap.String("subject", subject.String()))
	}

	return counts, nil
}
