package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidshare/engagement-engine/internal/db/models"
)

const (
	summaryKeyPrefix    = "engagement:summary:"
	generationKeyPrefix = "engagement:summary-gen:"

	// generationTTL outlives any summary TTL; a lapsed generation reads as 0.
	generationTTL = 24 * time.Hour
)

// CachedCounts is the result of a cache lookup. Generation identifies the
// subject's invalidation epoch and must be passed back to Set.
type CachedCounts struct {
	Counts     models.EngagementCounts
	Generation int64
	Hit        bool
}

// SummaryCache caches like/dislike totals per subject. Viewer state is never
// cached.
type SummaryCache interface {
	// Get returns the cached counts, if any, and the current generation.
	Get(ctx context.Context, subject models.SubjectRef) (CachedCounts, error)

	// Set stores counts read after a Get that returned generation. The write
	// is skipped when the subject was invalidated since.
	Set(ctx context.Context, subject models.SubjectRef, counts models.EngagementCounts, generation int64) error

	// Invalidate drops the subject's counts and advances its generation.
	// Called after every toggle.
	Invalidate(ctx context.Context, subject models.SubjectRef) error
}

// RedisSummaryCache stores counts as a Redis hash with a TTL, next to a
// per-subject generation counter.
type RedisSummaryCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisSummaryCache creates a new RedisSummaryCache.
func NewRedisSummaryCache(redisClient *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func summaryKey(subject models.SubjectRef) string {
	return summaryKeyPrefix + string(subject.Kind) + ":" + subject.ID.String()
}

func generationKey(subject models.SubjectRef) string {
	return generationKeyPrefix + string(subject.Kind) + ":" + subject.ID.String()
}

func readGeneration(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get implements SummaryCache.
func (c *RedisSummaryCache) Get(ctx context.Context, subject models.SubjectRef) (CachedCounts, error) {
	var (
		fieldsCmd *redis.MapStringStringCmd
		genCmd    *redis.StringCmd
	)
	_, err := c.redisClient.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		genCmd = pipe.Get(ctx, generationKey(subject))
		fieldsCmd = pipe.HGetAll(ctx, summaryKey(subject))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return CachedCounts{}, fmt.Errorf("failed to read engagement summary: %w", err)
	}

	gen, err := readGeneration(genCmd)
	if err != nil {
		return CachedCounts{}, fmt.Errorf("corrupt summary generation: %w", err)
	}
	result := CachedCounts{Generation: gen}

	fields, err := fieldsCmd.Result()
	if err != nil {
		return result, fmt.Errorf("failed to read engagement summary: %w", err)
	}
	if len(fields) == 0 {
		return result, nil
	}

	liked, err := strconv.ParseInt(fields["liked"], 10, 64)
	if err != nil {
		return result, fmt.Errorf("corrupt cached liked count: %w", err)
	}
	disliked, err := strconv.ParseInt(fields["disliked"], 10, 64)
	if err != nil {
		return result, fmt.Errorf("corrupt cached disliked count: %w", err)
	}

	result.Counts = models.EngagementCounts{Liked: liked, Disliked: disliked}
	result.Hit = true
	return result, nil
}

// errStaleGeneration aborts a Set whose counts predate an invalidation.
var errStaleGeneration = errors.New("summary generation changed")

// Set implements SummaryCache. The generation key is watched, so an
// Invalidate landing between the check and the write aborts the write.
func (c *RedisSummaryCache) Set(ctx context.Context, subject models.SubjectRef, counts models.EngagementCounts, generation int64) error {
	key := summaryKey(subject)
	genKey := generationKey(subject)

	err := c.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "liked", counts.Liked, "disliked", counts.Disliked)
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache engagement summary: %w", err)
	}
	return nil
}

// Invalidate implements SummaryCache.
func (c *RedisSummaryCache) Invalidate(ctx context.Context, subject models.SubjectRef) error {
	genKey := generationKey(subject)

	_, err := c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, summaryKey(subject))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate engagement summary: %w", err)
	}
	return nil
}

// NopSummaryCache never stores anything. It is used when Redis is not configured.
type NopSummaryCache struct{}

// Get implements SummaryCache.
func (NopSummaryCache) Get(context.Context, models.SubjectRef) (CachedCounts, error) {
	return CachedCounts{}, nil
}

// Set implements SummaryCache.
func (NopSummaryCache) Set(context.Context, models.SubjectRef, models.EngagementCounts, int64) error {
	return nil
}

// Invalidate implements SummaryCache.
func (NopSummaryCache) Invalidate(context.Context, models.SubjectRef) error { return nil }
