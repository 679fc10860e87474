package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalService manages the weighted goal registry. Changing a goal's weight
// or active flag affects future scoring events only; finalized summaries
// keep the weights they were computed with.
type GoalService struct {
	goals GoalRepository
}

// NewGoalService wires a goal service.
func NewGoalService(goals GoalRepository) *GoalService {
	return &GoalService{goals: goals}
}

// GoalInput carries goal create/update fields.
type GoalInput struct {
	Name        string
	Description string
	Weight      decimal.Decimal
	ActionTypes []string
	Active      *bool
}

// Create registers a goal for a household.
func (s *GoalService) Create(ctx context.Context, householdID uuid.UUID, input GoalInput) (*model.Goal, error) {
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	goal := &model.Goal{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Weight:      input.Weight,
		ActionTypes: input.ActionTypes,
		Active:      active,
	}

	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	return goal, nil
}

// Update applies a partial update to a goal.
func (s *GoalService) Update(ctx context.Context, id uuid.UUID, input GoalInput) (*model.Goal, error) {
	goal, err := s.goals.GetGoal(ctx, id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "goal")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		goal.Name = name
	}

	if input.Description != "" {
		goal.Description = input.Description
	}

	if input.Weight.IsPositive() {
		goal.Weight = input.Weight
	}

	if input.ActionTypes != nil {
		goal.ActionTypes = input.ActionTypes
	}

	if input.Active != nil {
		goal.Active = *input.Active
	}

	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	return goal, nil
}

// Get returns one goal.
func (s *GoalService) Get(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	goal, err := s.goals.GetGoal(ctx, id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "goal")
	}

	return goal, nil
}

// List returns a household's goals, optionally only the active ones.
func (s *GoalService) List(ctx context.Context, householdID uuid.UUID, activeOnly bool) ([]model.Goal, error) {
	goals, err := s.goals.ListGoals(ctx, householdID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	return goals, nil
}
