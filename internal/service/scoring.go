package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/Grindin247/decision-system/pkg/reqctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubjectDecisionScored is the event subject emitted after a scoring event.
const SubjectDecisionScored = "decision.scored"

// GoalScoreInput is one caller-supplied rating in a scoring request.
type GoalScoreInput struct {
	GoalID    uuid.UUID
	Score     decimal.Decimal
	Rationale string
}

// ScoreRequest is the full input of one scoring event.
type ScoreRequest struct {
	GoalScores []GoalScoreInput
	Threshold  decimal.Decimal
	ComputedBy model.ComputedBy
}

// ScoringService computes weighted score summaries. It owns no mutable
// state beyond the append-only summary history; it never touches the budget
// ledger, so re-scoring can never double-consume allowance.
type ScoringService struct {
	goals     GoalRepository
	decisions DecisionRepository
	events    EventPublisher
}

// NewScoringService wires a scoring service.
func NewScoringService(goals GoalRepository, decisions DecisionRepository, events EventPublisher) *ScoringService {
	return &ScoringService{goals: goals, decisions: decisions, events: events}
}

// weightedScore is one (weight, score) pair entering the weighted average.
type weightedScore struct {
	weight decimal.Decimal
	score  decimal.Decimal
}

// computeWeightedTotal returns the weight-normalized average on the 1-5
// scale, rounded to two places, plus its 0-100 affine rescale. The rescale
// is derived from the rounded 1-5 value so the two stay consistent by
// construction.
func computeWeightedTotal(scores []weightedScore) (decimal.Decimal, decimal.Decimal, error) {
	totalWeight := decimal.Zero
	weightedSum := decimal.Zero

	for _, ws := range scores {
		totalWeight = totalWeight.Add(ws.weight)
		weightedSum = weightedSum.Add(ws.weight.Mul(ws.score))
	}

	if !totalWeight.IsPositive() {
		return decimal.Zero, decimal.Zero, constant.ErrNoActiveGoals
	}

	total := weightedSum.Div(totalWeight).Round(2)
	pct := total.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(25)).Round(2)

	return total, pct, nil
}

// routeFor applies the inclusive threshold comparison.
func routeFor(total, threshold decimal.Decimal) model.Route {
	if total.GreaterThanOrEqual(threshold) {
		return model.RouteAutoApprove
	}

	return model.RouteRequiresBudget
}

// Score computes the weighted summary for a decision and appends it as a
// new immutable version.
//
// The supplied goal scores must cover exactly the set of currently active
// goals of the decision's household: a missing active goal fails with
// incomplete_score_set, an id outside the active set with unknown_goal, and
// an out-of-range score with score_out_of_range. No state changes on
// failure.
func (s *ScoringService) Score(ctx context.Context, decisionID uuid.UUID, req ScoreRequest) (*model.ScoreSummary, *model.Decision, error) {
	decision, err := s.decisions.GetDecision(ctx, decisionID)
	if err != nil {
		return nil, nil, apperr.ValidateBusinessError(err, "decision")
	}

	activeGoals, err := s.goals.ListGoals(ctx, decision.HouseholdID, true)
	if err != nil {
		return nil, nil, fmt.Errorf("list active goals: %w", err)
	}

	if len(activeGoals) == 0 {
		return nil, nil, apperr.ValidateBusinessError(constant.ErrNoActiveGoals, "goal")
	}

	goalsByID := make(map[uuid.UUID]model.Goal, len(activeGoals))
	for _, goal := range activeGoals {
		goalsByID[goal.ID] = goal
	}

	seen := make(map[uuid.UUID]bool, len(req.GoalScores))
	weighted := make([]weightedScore, 0, len(req.GoalScores))
	goalScores := make([]model.GoalScore, 0, len(req.GoalScores))

	minScore := decimal.NewFromInt(constant.MinScore)
	maxScore := decimal.NewFromInt(constant.MaxScore)

	for _, input := range req.GoalScores {
		goal, ok := goalsByID[input.GoalID]
		if !ok {
			return nil, nil, apperr.ValidateBusinessError(constant.ErrUnknownGoal, "goal")
		}

		if seen[input.GoalID] {
			return nil, nil, apperr.ValidateBusinessError(constant.ErrUnknownGoal, "goal")
		}

		seen[input.GoalID] = true

		if input.Score.LessThan(minScore) || input.Score.GreaterThan(maxScore) {
			return nil, nil, apperr.ValidateBusinessError(constant.ErrScoreOutOfRange, "score")
		}

		weighted = append(weighted, weightedScore{weight: goal.Weight, score: input.Score})
		goalScores = append(goalScores, model.GoalScore{
			GoalID:     goal.ID,
			GoalName:   goal.Name,
			GoalWeight: goal.Weight,
			Score:      input.Score,
			Rationale:  input.Rationale,
			ComputedBy: req.ComputedBy,
		})
	}

	if len(seen) != len(activeGoals) {
		return nil, nil, apperr.ValidateBusinessError(constant.ErrIncompleteScoreSet, "goal")
	}

	total, pct, err := computeWeightedTotal(weighted)
	if err != nil {
		return nil, nil, apperr.ValidateBusinessError(err, "goal")
	}

	summary := &model.ScoreSummary{
		DecisionID:    decision.ID,
		Version:       decision.ScoreVersion + 1,
		GoalScores:    goalScores,
		WeightedTotal: total,
		NormalizedPct: pct,
		Threshold:     req.Threshold,
		Route:         routeFor(total, req.Threshold),
		ComputedAt:    time.Now().UTC(),
	}

	if err := s.decisions.AppendScoreSummary(ctx, summary); err != nil {
		return nil, nil, fmt.Errorf("append score summary: %w", err)
	}

	decision.ScoreVersion = summary.Version
	decision.Status = model.StatusScored

	if err := s.decisions.UpdateDecision(ctx, decision); err != nil {
		return nil, nil, fmt.Errorf("update decision after scoring: %w", err)
	}

	s.publishScored(ctx, decision, summary)

	return summary, decision, nil
}

// CurrentSummary returns the decision's latest score summary, or
// decision_not_scored when it has none.
func (s *ScoringService) CurrentSummary(ctx context.Context, decision *model.Decision) (*model.ScoreSummary, error) {
	if decision.ScoreVersion == 0 {
		return nil, apperr.ValidateBusinessError(constant.ErrDecisionNotScored, "decision")
	}

	summary, err := s.decisions.GetScoreSummary(ctx, decision.ID, decision.ScoreVersion)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "score_summary")
	}

	return summary, nil
}

func (s *ScoringService) publishScored(ctx context.Context, decision *model.Decision, summary *model.ScoreSummary) {
	if s.events == nil {
		return
	}

	payload := map[string]any{
		"decision_id":           decision.ID,
		"version":               summary.Version,
		"weighted_total_1_to_5": summary.WeightedTotal,
		"threshold_1_to_5":      summary.Threshold,
		"route":                 summary.Route,
	}

	if err := s.events.Publish(ctx, SubjectDecisionScored, payload); err != nil {
		reqctx.LoggerFrom(ctx).Log(ctx, log.LevelWarn, "publish scored event failed", log.Err(err))
	}
}
