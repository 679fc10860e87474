package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/Grindin247/decision-system/pkg/reqctx"
	"github.com/google/uuid"
)

// Event subjects emitted by the roadmap scheduler.
const (
	SubjectRoadmapScheduled = "roadmap.item_scheduled"
	SubjectRoadmapRemoved   = "roadmap.item_removed"
)

// RoadmapService places approved decisions on the household timeline and
// keeps decision lifecycle state in step with roadmap state.
type RoadmapService struct {
	roadmap   RoadmapRepository
	decisions DecisionRepository
	budget    *BudgetService
	events    EventPublisher
}

// NewRoadmapService wires a roadmap scheduler.
func NewRoadmapService(roadmap RoadmapRepository, decisions DecisionRepository, budget *BudgetService, events EventPublisher) *RoadmapService {
	return &RoadmapService{roadmap: roadmap, decisions: decisions, budget: budget, events: events}
}

// ScheduleInput carries roadmap placement inputs. UseBudget spends one
// discretionary slot at placement time; placement fails outright when none
// remains.
type ScheduleInput struct {
	DecisionID   uuid.UUID
	Bucket       string
	StartDate    *time.Time
	EndDate      *time.Time
	Dependencies []uuid.UUID
	UseBudget    bool
	// MemberID optionally names whose allowance to spend. Defaults to the
	// decision's responsible member.
	MemberID *uuid.UUID
}

// Schedule places a decision on the roadmap and moves it to Scheduled.
func (s *RoadmapService) Schedule(ctx context.Context, input ScheduleInput) (*model.RoadmapItem, error) {
	decision, err := s.decisions.GetDecision(ctx, input.DecisionID)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "decision")
	}

	if input.UseBudget {
		memberID := decision.ResponsibleMember()
		if input.MemberID != nil {
			memberID = *input.MemberID
		}

		if _, err := s.budget.Consume(ctx, decision.HouseholdID, memberID, &decision.ID, 1); err != nil {
			return nil, err
		}
	}

	item := &model.RoadmapItem{
		ID:           uuid.New(),
		HouseholdID:  decision.HouseholdID,
		DecisionID:   decision.ID,
		Bucket:       input.Bucket,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Status:       model.RoadmapScheduled,
		Dependencies: input.Dependencies,
		UsedBudget:   input.UseBudget,
	}

	if err := s.roadmap.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create roadmap item: %w", err)
	}

	decision.Status = model.StatusScheduled
	if err := s.decisions.UpdateDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("update decision: %w", err)
	}

	s.publish(ctx, SubjectRoadmapScheduled, item)

	return item, nil
}

// ItemUpdate carries mutable roadmap item fields. Nil fields are left as
// they are; date pointers use ClearStart/ClearEnd to distinguish "unset"
// from "leave alone".
type ItemUpdate struct {
	Bucket       *string
	StartDate    *time.Time
	ClearStart   bool
	EndDate      *time.Time
	ClearEnd     bool
	Status       *model.RoadmapStatus
	Dependencies *[]uuid.UUID
}

// Update applies a partial update to a roadmap item. Marking an item Done
// moves its decision to Done; moving it back reopens the decision as
// Scheduled or In-Progress.
func (s *RoadmapService) Update(ctx context.Context, id uuid.UUID, update ItemUpdate) (*model.RoadmapItem, error) {
	item, err := s.roadmap.GetItem(ctx, id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "roadmap_item")
	}

	if update.Bucket != nil {
		item.Bucket = *update.Bucket
	}

	if update.ClearStart {
		item.StartDate = nil
	} else if update.StartDate != nil {
		item.StartDate = update.StartDate
	}

	if update.ClearEnd {
		item.EndDate = nil
	} else if update.EndDate != nil {
		item.EndDate = update.EndDate
	}

	if update.Dependencies != nil {
		item.Dependencies = *update.Dependencies
	}

	statusChanged := update.Status != nil && *update.Status != item.Status
	if statusChanged {
		item.Status = *update.Status
	}

	if err := s.roadmap.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update roadmap item: %w", err)
	}

	if statusChanged {
		if err := s.syncDecisionStatus(ctx, item); err != nil {
			return nil, err
		}
	}

	return item, nil
}

// Remove deletes a roadmap item. Removing an item that is not Done returns
// one outstanding discretionary slot for its decision and moves the
// decision back to Approved; finished work keeps its consumption.
func (s *RoadmapService) Remove(ctx context.Context, id uuid.UUID) error {
	item, err := s.roadmap.GetItem(ctx, id)
	if err != nil {
		return apperr.ValidateBusinessError(err, "roadmap_item")
	}

	if err := s.roadmap.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete roadmap item: %w", err)
	}

	if item.Status != model.RoadmapDone {
		if err := s.budget.Refund(ctx, item.HouseholdID, item.DecisionID); err != nil {
			return err
		}

		decision, err := s.decisions.GetDecision(ctx, item.DecisionID)
		if err == nil {
			decision.Status = model.StatusApproved
			if err := s.decisions.UpdateDecision(ctx, decision); err != nil {
				return fmt.Errorf("update decision: %w", err)
			}
		}
	}

	s.publish(ctx, SubjectRoadmapRemoved, item)

	return nil
}

// Get returns one roadmap item.
func (s *RoadmapService) Get(ctx context.Context, id uuid.UUID) (*model.RoadmapItem, error) {
	item, err := s.roadmap.GetItem(ctx, id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "roadmap_item")
	}

	return item, nil
}

// List returns roadmap items, optionally scoped to one household.
func (s *RoadmapService) List(ctx context.Context, householdID *uuid.UUID) ([]model.RoadmapItem, error) {
	items, err := s.roadmap.ListItems(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list roadmap items: %w", err)
	}

	return items, nil
}

// Timeline returns the normalized timeline layout for a household.
func (s *RoadmapService) Timeline(ctx context.Context, householdID uuid.UUID) (*Timeline, error) {
	items, err := s.roadmap.ListItems(ctx, &householdID)
	if err != nil {
		return nil, fmt.Errorf("list roadmap items: %w", err)
	}

	timeline := NormalizeTimeline(items)

	return &timeline, nil
}

func (s *RoadmapService) syncDecisionStatus(ctx context.Context, item *model.RoadmapItem) error {
	decision, err := s.decisions.GetDecision(ctx, item.DecisionID)
	if err != nil {
		return apperr.ValidateBusinessError(err, "decision")
	}

	switch item.Status {
	case model.RoadmapScheduled:
		decision.Status = model.StatusScheduled
	case model.RoadmapInProgress:
		decision.Status = model.StatusInProgress
	case model.RoadmapDone:
		decision.Status = model.StatusDone
	}

	if err := s.decisions.UpdateDecision(ctx, decision); err != nil {
		return fmt.Errorf("update decision: %w", err)
	}

	return nil
}

func (s *RoadmapService) publish(ctx context.Context, subject string, item *model.RoadmapItem) {
	if s.events == nil {
		return
	}

	payload := map[string]any{
		"roadmap_item_id": item.ID,
		"decision_id":     item.DecisionID,
		"status":          item.Status,
	}

	if err := s.events.Publish(ctx, subject, payload); err != nil {
		reqctx.LoggerFrom(ctx).Log(ctx, log.LevelWarn, "publish roadmap event failed", log.Err(err))
	}
}
