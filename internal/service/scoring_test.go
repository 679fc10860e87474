//go:build unit

package service

import (
	"context"
	"testing"

	"github.com/Grindin247/decision-system/internal/repository/memory"
	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	households *memory.HouseholdRepository
	goals      *memory.GoalRepository
	decisions  *memory.DecisionRepository
	budgets    *memory.BudgetRepository
	roadmap    *memory.RoadmapRepository

	household model.Household
	alice     model.Member
	bob       model.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()

	f := &fixture{
		households: memory.NewHouseholdRepository(),
		goals:      memory.NewGoalRepository(),
		decisions:  memory.NewDecisionRepository(),
		budgets:    memory.NewBudgetRepository(),
		roadmap:    memory.NewRoadmapRepository(),
	}

	f.household = model.Household{ID: uuid.New(), Name: "casa"}
	require.NoError(t, f.households.CreateHousehold(ctx, &f.household))

	f.alice = model.Member{
		ID:          uuid.New(),
		HouseholdID: f.household.ID,
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Role:        model.RoleAdmin,
	}
	require.NoError(t, f.households.AddMember(ctx, &f.alice))

	f.bob = model.Member{
		ID:          uuid.New(),
		HouseholdID: f.household.ID,
		Email:       "bob@example.com",
		DisplayName: "Bob",
		Role:        model.RoleEditor,
	}
	require.NoError(t, f.households.AddMember(ctx, &f.bob))

	return f
}

func (f *fixture) addGoal(t *testing.T, name string, weight float64, active bool) model.Goal {
	t.Helper()

	goal := model.Goal{
		ID:          uuid.New(),
		HouseholdID: f.household.ID,
		Name:        name,
		Weight:      decimal.NewFromFloat(weight),
		Active:      active,
	}
	require.NoError(t, f.goals.CreateGoal(context.Background(), &goal))

	return goal
}

func (f *fixture) addDecision(t *testing.T, title string) model.Decision {
	t.Helper()

	decision := model.Decision{
		ID:                uuid.New(),
		HouseholdID:       f.household.ID,
		CreatedByMemberID: f.alice.ID,
		Title:             title,
		Status:            model.StatusDraft,
	}
	require.NoError(t, f.decisions.CreateDecision(context.Background(), &decision))

	return decision
}

func score(goalID uuid.UUID, value float64) GoalScoreInput {
	return GoalScoreInput{GoalID: goalID, Score: decimal.NewFromFloat(value)}
}

func TestComputeWeightedTotal(t *testing.T) {
	tests := []struct {
		name          string
		scores        []weightedScore
		expectedTotal string
		expectedPct   string
	}{
		{
			name: "exact average",
			scores: []weightedScore{
				{weight: decimal.NewFromInt(2), score: decimal.NewFromInt(5)},
				{weight: decimal.NewFromInt(1), score: decimal.NewFromInt(3)},
				{weight: decimal.NewFromInt(1), score: decimal.NewFromInt(3)},
			},
			expectedTotal: "4.00",
			expectedPct:   "75.00",
		},
		{
			name: "repeating decimal rounds to two places",
			scores: []weightedScore{
				{weight: decimal.NewFromInt(1), score: decimal.NewFromInt(4)},
				{weight: decimal.NewFromInt(1), score: decimal.NewFromInt(4)},
				{weight: decimal.NewFromInt(1), score: decimal.NewFromInt(3)},
			},
			expectedTotal: "3.67",
			expectedPct:   "66.75",
		},
		{
			name: "single goal",
			scores: []weightedScore{
				{weight: decimal.NewFromFloat(2.5), score: decimal.NewFromInt(1)},
			},
			expectedTotal: "1.00",
			expectedPct:   "0.00",
		},
		{
			name: "maximum scores",
			scores: []weightedScore{
				{weight: decimal.NewFromInt(3), score: decimal.NewFromInt(5)},
				{weight: decimal.NewFromInt(7), score: decimal.NewFromInt(5)},
			},
			expectedTotal: "5.00",
			expectedPct:   "100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, pct, err := computeWeightedTotal(tt.scores)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTotal, total.StringFixed(2))
			assert.Equal(t, tt.expectedPct, pct.StringFixed(2))
		})
	}
}

func TestComputeWeightedTotal_ZeroWeight(t *testing.T) {
	_, _, err := computeWeightedTotal(nil)
	assert.ErrorIs(t, err, constant.ErrNoActiveGoals)

	_, _, err = computeWeightedTotal([]weightedScore{
		{weight: decimal.Zero, score: decimal.NewFromInt(5)},
	})
	assert.ErrorIs(t, err, constant.ErrNoActiveGoals)
}

func TestRouteFor_InclusiveBoundary(t *testing.T) {
	threshold := decimal.NewFromFloat(4.0)

	assert.Equal(t, model.RouteAutoApprove, routeFor(decimal.NewFromFloat(4.00), threshold))
	assert.Equal(t, model.RouteAutoApprove, routeFor(decimal.NewFromFloat(4.01), threshold))
	assert.Equal(t, model.RouteRequiresBudget, routeFor(decimal.NewFromFloat(3.99), threshold))
}

func TestScoringService_Score(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewScoringService(f.goals, f.decisions, nil)

	health := f.addGoal(t, "health", 2, true)
	savings := f.addGoal(t, "savings", 1, true)
	f.addGoal(t, "retired goal", 5, false)

	decision := f.addDecision(t, "new bikes")

	summary, updated, err := svc.Score(ctx, decision.ID, ScoreRequest{
		GoalScores: []GoalScoreInput{score(health.ID, 5), score(savings.ID, 3)},
		Threshold:  decimal.NewFromFloat(4.0),
		ComputedBy: model.ComputedByHuman,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Version)
	assert.Equal(t, "4.33", summary.WeightedTotal.StringFixed(2))
	assert.Equal(t, "83.25", summary.NormalizedPct.StringFixed(2))
	assert.Equal(t, model.RouteAutoApprove, summary.Route)
	assert.Len(t, summary.GoalScores, 2)
	assert.Equal(t, model.StatusScored, updated.Status)
	assert.Equal(t, 1, updated.ScoreVersion)
}

func TestScoringService_Score_VersionsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewScoringService(f.goals, f.decisions, nil)

	goal := f.addGoal(t, "comfort", 1, true)
	decision := f.addDecision(t, "couch")

	req := ScoreRequest{
		GoalScores: []GoalScoreInput{score(goal.ID, 3)},
		Threshold:  decimal.NewFromFloat(4.0),
		ComputedBy: model.ComputedByHuman,
	}

	first, _, err := svc.Score(ctx, decision.ID, req)
	require.NoError(t, err)

	req.GoalScores = []GoalScoreInput{score(goal.ID, 5)}

	second, _, err := svc.Score(ctx, decision.ID, req)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	// Earlier versions stay readable after a re-score.
	kept, err := f.decisions.GetScoreSummary(ctx, decision.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "3.00", kept.WeightedTotal.StringFixed(2))
}

func TestScoringService_Score_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewScoringService(f.goals, f.decisions, nil)

	health := f.addGoal(t, "health", 2, true)
	savings := f.addGoal(t, "savings", 1, true)

	decision := f.addDecision(t, "trampoline")
	threshold := decimal.NewFromFloat(4.0)

	tests := []struct {
		name     string
		scores   []GoalScoreInput
		expected error
	}{
		{
			name:     "missing active goal",
			scores:   []GoalScoreInput{score(health.ID, 4)},
			expected: constant.ErrIncompleteScoreSet,
		},
		{
			name:     "unknown goal id",
			scores:   []GoalScoreInput{score(health.ID, 4), score(uuid.New(), 4)},
			expected: constant.ErrUnknownGoal,
		},
		{
			name:     "duplicate goal id",
			scores:   []GoalScoreInput{score(health.ID, 4), score(health.ID, 5)},
			expected: constant.ErrUnknownGoal,
		},
		{
			name:     "score above range",
			scores:   []GoalScoreInput{score(health.ID, 6), score(savings.ID, 4)},
			expected: constant.ErrScoreOutOfRange,
		},
		{
			name:     "score below range",
			scores:   []GoalScoreInput{score(health.ID, 0.5), score(savings.ID, 4)},
			expected: constant.ErrScoreOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Score(ctx, decision.ID, ScoreRequest{
				GoalScores: tt.scores,
				Threshold:  threshold,
				ComputedBy: model.ComputedByHuman,
			})

			assert.ErrorIs(t, err, tt.expected)
		})
	}

	// Nothing was written by the failed attempts.
	current, err := f.decisions.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.ScoreVersion)
	assert.Equal(t, model.StatusDraft, current.Status)
}

func TestScoringService_Score_NoActiveGoals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewScoringService(f.goals, f.decisions, nil)

	f.addGoal(t, "paused", 1, false)
	decision := f.addDecision(t, "anything")

	_, _, err := svc.Score(ctx, decision.ID, ScoreRequest{
		GoalScores: []GoalScoreInput{},
		Threshold:  decimal.NewFromFloat(4.0),
		ComputedBy: model.ComputedByHuman,
	})

	assert.ErrorIs(t, err, constant.ErrNoActiveGoals)
}

func TestScoringService_CurrentSummary_NotScored(t *testing.T) {
	f := newFixture(t)
	svc := NewScoringService(f.goals, f.decisions, nil)

	decision := f.addDecision(t, "unscored")

	_, err := svc.CurrentSummary(context.Background(), &decision)
	assert.ErrorIs(t, err, constant.ErrDecisionNotScored)
}
