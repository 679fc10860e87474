package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
)

// GoalRepository is an in-memory goal store.
type GoalRepository struct {
	mu    sync.RWMutex
	goals map[uuid.UUID]model.Goal
}

// NewGoalRepository creates an empty in-memory goal store.
func NewGoalRepository() *GoalRepository {
	return &GoalRepository{goals: make(map[uuid.UUID]model.Goal)}
}

func (r *GoalRepository) CreateGoal(_ context.Context, goal *model.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.goals[goal.ID] = *goal

	return nil
}

func (r *GoalRepository) GetGoal(_ context.Context, id uuid.UUID) (*model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goal, ok := r.goals[id]
	if !ok {
		return nil, constant.ErrNotFound
	}

	return &goal, nil
}

func (r *GoalRepository) UpdateGoal(_ context.Context, goal *model.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.goals[goal.ID]; !ok {
		return constant.ErrNotFound
	}

	r.goals[goal.ID] = *goal

	return nil
}

func (r *GoalRepository) ListGoals(_ context.Context, householdID uuid.UUID, activeOnly bool) ([]model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var goals []model.Goal

	for _, goal := range r.goals {
		if goal.HouseholdID != householdID {
			continue
		}

		if activeOnly && !goal.Active {
			continue
		}

		goals = append(goals, goal)
	}

	sort.Slice(goals, func(i, j int) bool { return goals[i].Name < goals[j].Name })

	return goals, nil
}
