// Package rediscache decorates repositories with Redis read-through caches.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Grindin247/decision-system/internal/service"
	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultGoalTTL = 5 * time.Minute

// GoalRepository caches goal lists in front of a backing repository. The
// scoring engine reads the active goal set on every scoring event, so the
// list is the hot path; single-goal reads pass through. Writes invalidate
// the household's cached lists before hitting the backing store response.
type GoalRepository struct {
	inner  service.GoalRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger log.Logger
}

// NewGoalRepository wraps a goal repository with a Redis cache.
func NewGoalRepository(inner service.GoalRepository, client redis.UniversalClient, logger log.Logger) *GoalRepository {
	if logger == nil {
		logger = log.NewNop()
	}

	return &GoalRepository{inner: inner, client: client, ttl: defaultGoalTTL, logger: logger}
}

func goalListKey(householdID uuid.UUID, activeOnly bool) string {
	if activeOnly {
		return fmt.Sprintf("goals:%s:active", householdID)
	}

	return fmt.Sprintf("goals:%s:all", householdID)
}

func (r *GoalRepository) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := r.inner.CreateGoal(ctx, goal); err != nil {
		return err
	}

	r.invalidate(ctx, goal.HouseholdID)

	return nil
}

func (r *GoalRepository) GetGoal(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	return r.inner.GetGoal(ctx, id)
}

func (r *GoalRepository) UpdateGoal(ctx context.Context, goal *model.Goal) error {
	if err := r.inner.UpdateGoal(ctx, goal); err != nil {
		return err
	}

	r.invalidate(ctx, goal.HouseholdID)

	return nil
}

func (r *GoalRepository) ListGoals(ctx context.Context, householdID uuid.UUID, activeOnly bool) ([]model.Goal, error) {
	key := goalListKey(householdID, activeOnly)

	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var goals []model.Goal
		if err := json.Unmarshal(cached, &goals); err == nil {
			return goals, nil
		}

		// Unreadable entry; fall through to the backing store.
		r.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Log(ctx, log.LevelWarn, "goal cache read failed", log.Err(err))
	}

	goals, err := r.inner.ListGoals(ctx, householdID, activeOnly)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(goals); err == nil {
		if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Log(ctx, log.LevelWarn, "goal cache write failed", log.Err(err))
		}
	}

	return goals, nil
}

func (r *GoalRepository) invalidate(ctx context.Context, householdID uuid.UUID) {
	keys := []string{
		goalListKey(householdID, true),
		goalListKey(householdID, false),
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Log(ctx, log.LevelWarn, "goal cache invalidation failed", log.Err(err))
	}
}
