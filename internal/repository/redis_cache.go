package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	workoutListKeyPrefix   = "user:workouts:"
	workoutDetailKeyPrefix = "workout:detail:"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisCacheRepository implements domain.WorkoutCache using Redis
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository creates a new Redis cache repository
func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
	}
}

// Get retrieves a value from cache by key with OTel tracing
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return ErrCacheMiss
		}
		span.RecordError(err)
		return fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	if err := json.Unmarshal(data, dest); err != nil {
		span.RecordError(err)
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores a value in cache with TTL and OTel tracing
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// Delete removes keys from cache with OTel tracing
func (r *RedisCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, span := otel.Tracer("redis").Start(ctx, "redis.Delete",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))),
	)
	defer span.End()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis delete error: %w", err)
	}

	return nil
}

// GetWorkoutList returns the cached workout list of a user, or nil on a miss
func (r *RedisCacheRepository) GetWorkoutList(ctx context.Context, userID string) ([]*domain.Workout, error) {
	var workouts []*domain.Workout
	if err := r.Get(ctx, workoutListKeyPrefix+userID, &workouts); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	if workouts == nil {
		workouts = []*domain.Workout{}
	}
	return workouts, nil
}

func (r *RedisCacheRepository) SetWorkoutList(ctx context.Context, userID string, workouts []*domain.Workout, ttl time.Duration) error {
	return r.Set(ctx, workoutListKeyPrefix+userID, workouts, ttl)
}

// GetWorkoutDetail returns a cached workout with exercises, or nil on a miss
func (r *RedisCacheRepository) GetWorkoutDetail(ctx context.Context, workoutID string) (*domain.Workout, error) {
	var workout domain.Workout
	if err := r.Get(ctx, workoutDetailKeyPrefix+workoutID, &workout); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &workout, nil
}

func (r *RedisCacheRepository) SetWorkoutDetail(ctx context.Context, workout *domain.Workout, ttl time.Duration) error {
	return r.Set(ctx, workoutDetailKeyPrefix+workout.ID, workout, ttl)
}

func (r *RedisCacheRepository) InvalidateUserWorkouts(ctx context.Context, userID string) error {
	return r.Delete(ctx, workoutListKeyPrefix+userID)
}

func (r *RedisCacheRepository) InvalidateWorkoutDetails(ctx context.Context, workoutIDs ...string) error {
	keys := make([]string, len(workoutIDs))
	for i, id := range workoutIDs {
		keys[i] = workoutDetailKeyPrefix + id
	}
	return r.Delete(ctx, keys...)
}
