package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionService manages decision records around the scoring and routing
// pipeline.
type DecisionService struct {
	decisions  DecisionRepository
	households HouseholdRepository
}

// NewDecisionService wires a decision service.
func NewDecisionService(decisions DecisionRepository, households HouseholdRepository) *DecisionService {
	return &DecisionService{decisions: decisions, households: households}
}

// DecisionInput carries decision create fields.
type DecisionInput struct {
	HouseholdID       uuid.UUID
	CreatedByMemberID uuid.UUID
	OwnerMemberID     *uuid.UUID
	Title             string
	Description       string
	Cost              *decimal.Decimal
	Urgency           *int
	TargetDate        *time.Time
	Tags              []string
	Notes             string
}

// Create registers a decision in Draft.
func (s *DecisionService) Create(ctx context.Context, input DecisionInput) (*model.Decision, error) {
	if _, err := s.households.GetHousehold(ctx, input.HouseholdID); err != nil {
		return nil, apperr.ValidateBusinessError(err, "household")
	}

	if err := s.requireMember(ctx, input.HouseholdID, input.CreatedByMemberID); err != nil {
		return nil, err
	}

	if input.OwnerMemberID != nil {
		if err := s.requireMember(ctx, input.HouseholdID, *input.OwnerMemberID); err != nil {
			return nil, err
		}
	}

	decision := &model.Decision{
		ID:                uuid.New(),
		HouseholdID:       input.HouseholdID,
		CreatedByMemberID: input.CreatedByMemberID,
		OwnerMemberID:     input.OwnerMemberID,
		Title:             input.Title,
		Description:       input.Description,
		Cost:              input.Cost,
		Urgency:           input.Urgency,
		TargetDate:        input.TargetDate,
		Tags:              input.Tags,
		Notes:             input.Notes,
		Status:            model.StatusDraft,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.decisions.CreateDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("create decision: %w", err)
	}

	return decision, nil
}

// DecisionUpdate carries mutable decision fields. Nil fields are left as
// they are.
type DecisionUpdate struct {
	OwnerMemberID *uuid.UUID
	Title         *string
	Description   *string
	Cost          *decimal.Decimal
	Urgency       *int
	TargetDate    *time.Time
	Tags          *[]string
	Notes         *string
	Status        *model.DecisionStatus
}

// Update applies a partial update. Status writes are restricted to manual
// lifecycle moves (Rejected, Archived, back to Draft); scoring, routing, and
// the roadmap own the rest of the lifecycle.
func (s *DecisionService) Update(ctx context.Context, id uuid.UUID, update DecisionUpdate) (*model.Decision, error) {
	decision, err := s.decisions.GetDecision(ctx, id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "decision")
	}

	if update.OwnerMemberID != nil {
		if err := s.requireMember(ctx, decision.HouseholdID, *update.OwnerMemberID); err != nil {
			return nil, err
		}

		decision.OwnerMemberID = update.OwnerMemberID
	}

	if update.Title != nil {
		decision.Title = *update.Title
	}

	if update.Description != nil {
		decision.Description = *update.Description
	}

	if update.Cost != nil {
		decision.Cost = update.Cost
	}

	if update.Urgency != nil {
		decision.Urgency = update.Urgency
	}

	if update.TargetDate != nil {
		decision.TargetDate = update.TargetDate
	}

	if update.Tags != nil {
		decision.Tags = *update.Tags
	}

	if update.Notes != nil {
		decision.Notes = *update.Notes
	}

	if update.Status != nil {
		switch *update.Status {
		case model.StatusDraft, model.StatusRejected, model.StatusArchived:
			decision.Status = *update.Status
		default:
			return nil, apperr.ValidateBusinessError(constant.ErrInvalidStatusChange, "decision")
		}
	}

	if err := s.decisions.UpdateDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("update decision: %w", err)
	}

	return decision, nil
}

// Get returns one decision.
func (s *DecisionService) Get(ctx context.Context, id uuid.UUID) (*model.Decision, error) {
	decision, err := s.decisions.GetDecision(ctx, id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "decision")
	}

	return decision, nil
}

// List returns decisions, optionally scoped to one household.
func (s *DecisionService) List(ctx context.Context, householdID *uuid.UUID) ([]model.Decision, error) {
	decisions, err := s.decisions.ListDecisions(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}

	return decisions, nil
}

func (s *DecisionService) requireMember(ctx context.Context, householdID, memberID uuid.UUID) error {
	member, err := s.households.GetMember(ctx, memberID)
	if err != nil {
		return apperr.ValidateBusinessError(err, "member")
	}

	if member.HouseholdID != householdID {
		return apperr.ValidateBusinessError(constant.ErrMemberNotInHousehold, "member")
	}

	return nil
}
