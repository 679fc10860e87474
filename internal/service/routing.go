package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/Grindin247/decision-system/pkg/reqctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubjectDecisionRouted is the event subject emitted after routing.
const SubjectDecisionRouted = "decision.routed"

// RoutingService decides what happens to a scored decision: approval at or
// above the threshold, approval via discretionary budget, or the manual
// review queue. It is the only component that asks the budget ledger to
// consume; the scoring engine never does.
type RoutingService struct {
	decisions DecisionRepository
	budget    *BudgetService
	events    EventPublisher
}

// NewRoutingService wires a routing coordinator.
func NewRoutingService(decisions DecisionRepository, budget *BudgetService, events EventPublisher) *RoutingService {
	return &RoutingService{decisions: decisions, budget: budget, events: events}
}

// RouteRequest carries routing inputs. UseBudget permits spending one
// discretionary slot when the score falls below the threshold; without it a
// below-threshold decision always queues.
type RouteRequest struct {
	UseBudget bool
	// MemberID optionally names whose allowance to spend. Defaults to the
	// decision's responsible member.
	MemberID *uuid.UUID
}

// RouteResult reports the routing outcome for a decision.
type RouteResult struct {
	Decision      *model.Decision      `json:"decision"`
	Status        model.DecisionStatus `json:"status"`
	Reason        string               `json:"reason"`
	WeightedTotal decimal.Decimal      `json:"weighted_total_1_to_5"`
	Threshold     decimal.Decimal      `json:"threshold_used"`
	// LedgerEntryID and BudgetRemaining are set only when a discretionary
	// slot was consumed.
	LedgerEntryID   *uuid.UUID       `json:"ledger_entry_id,omitempty"`
	BudgetRemaining *int             `json:"budget_remaining,omitempty"`
	QueueItem       *model.QueueItem `json:"queue_item,omitempty"`
}

// RouteDecision routes a decision from its latest score summary.
//
// At or above the threshold the decision is approved outright. Below it,
// UseBudget spends one slot of the responsible member's allowance when any
// remains; an exhausted allowance or an unset flag sends the decision to
// the manual review queue with a reason naming which gate failed.
func (s *RoutingService) RouteDecision(ctx context.Context, decisionID uuid.UUID, req RouteRequest) (*RouteResult, error) {
	decision, err := s.decisions.GetDecision(ctx, decisionID)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "decision")
	}

	if decision.ScoreVersion == 0 {
		return nil, apperr.ValidateBusinessError(constant.ErrDecisionNotScored, "decision")
	}

	summary, err := s.decisions.GetScoreSummary(ctx, decisionID, decision.ScoreVersion)
	if err != nil {
		return nil, fmt.Errorf("get score summary: %w", err)
	}

	result := &RouteResult{
		Decision:      decision,
		WeightedTotal: summary.WeightedTotal,
		Threshold:     summary.Threshold,
	}

	switch {
	case summary.Route == model.RouteAutoApprove:
		s.approve(decision, result, constant.ReasonAutoApproved)

	case req.UseBudget:
		memberID := decision.ResponsibleMember()
		if req.MemberID != nil {
			memberID = *req.MemberID
		}

		consumed, err := s.budget.Consume(ctx, decision.HouseholdID, memberID, &decision.ID, 1)

		switch {
		case err == nil:
			s.approve(decision, result, constant.ReasonDiscretionaryBudget)
			result.LedgerEntryID = &consumed.EntryID
			result.BudgetRemaining = &consumed.Remaining

		case errors.Is(err, constant.ErrBudgetExhausted):
			if err := s.queue(ctx, decision, result, constant.ReasonBudgetExhausted); err != nil {
				return nil, err
			}

		default:
			return nil, err
		}

	default:
		if err := s.queue(ctx, decision, result, constant.ReasonScoreBelowThreshold); err != nil {
			return nil, err
		}
	}

	if err := s.decisions.UpdateDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("update decision: %w", err)
	}

	s.publishRouted(ctx, decision, result)

	return result, nil
}

func (s *RoutingService) approve(decision *model.Decision, result *RouteResult, reason string) {
	decision.Status = model.StatusApproved
	result.Status = model.StatusApproved
	result.Reason = reason
}

func (s *RoutingService) queue(ctx context.Context, decision *model.Decision, result *RouteResult, reason string) error {
	priority := constant.DefaultUrgency
	if decision.Urgency != nil {
		priority = *decision.Urgency
	}

	item, err := s.decisions.UpsertQueueItem(ctx, decision.ID, priority, decision.TargetDate)
	if err != nil {
		return fmt.Errorf("upsert queue item: %w", err)
	}

	decision.Status = model.StatusQueued
	result.Status = model.StatusQueued
	result.Reason = reason
	result.QueueItem = item

	return nil
}

func (s *RoutingService) publishRouted(ctx context.Context, decision *model.Decision, result *RouteResult) {
	if s.events == nil {
		return
	}

	payload := map[string]any{
		"decision_id": decision.ID,
		"status":      result.Status,
		"reason":      result.Reason,
	}

	// Routing already committed; a publish failure must not undo it.
	if err := s.events.Publish(ctx, SubjectDecisionRouted, payload); err != nil {
		reqctx.LoggerFrom(ctx).Log(ctx, log.LevelWarn, "publish routed event failed", log.Err(err))
	}
}
