//go:build unit

package service

import (
	"context"
	"testing"
	"time"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roadmapFixture(t *testing.T) (*fixture, *RoadmapService, *BudgetService) {
	t.Helper()

	f := newFixture(t)
	budget := NewBudgetService(f.budgets, f.households)
	roadmap := NewRoadmapService(f.roadmap, f.decisions, budget, nil)

	return f, roadmap, budget
}

func TestRoadmapService_Schedule(t *testing.T) {
	ctx := context.Background()
	f, roadmap, _ := roadmapFixture(t)

	decision := f.addDecision(t, "paint the fence")
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	item, err := roadmap.Schedule(ctx, ScheduleInput{
		DecisionID: decision.ID,
		Bucket:     "next",
		StartDate:  &start,
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoadmapScheduled, item.Status)
	assert.Equal(t, f.household.ID, item.HouseholdID)
	assert.False(t, item.UsedBudget)

	updated, err := f.decisions.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, updated.Status)
}

func TestRoadmapService_ScheduleWithBudget(t *testing.T) {
	ctx := context.Background()
	f, roadmap, budget := roadmapFixture(t)

	decision := f.addDecision(t, "hot tub")

	item, err := roadmap.Schedule(ctx, ScheduleInput{
		DecisionID: decision.ID,
		Bucket:     "later",
		UseBudget:  true,
	})
	require.NoError(t, err)
	assert.True(t, item.UsedBudget)

	summary, err := budget.GetSummary(ctx, f.household.ID)
	require.NoError(t, err)

	for _, member := range summary.Members {
		if member.MemberID == f.alice.ID {
			assert.Equal(t, 1, member.Used)
		}
	}
}

func TestRoadmapService_ScheduleWithBudget_Exhausted(t *testing.T) {
	ctx := context.Background()
	f, roadmap, budget := roadmapFixture(t)

	// Drain the creator's allowance first.
	for range 2 {
		drain := f.addDecision(t, "drain")
		_, err := budget.Consume(ctx, f.household.ID, f.alice.ID, &drain.ID, 1)
		require.NoError(t, err)
	}

	decision := f.addDecision(t, "over budget")

	_, err := roadmap.Schedule(ctx, ScheduleInput{
		DecisionID: decision.ID,
		Bucket:     "now",
		UseBudget:  true,
	})
	assert.ErrorIs(t, err, constant.ErrBudgetExhausted)

	// Placement failed wholesale; no item exists and the decision is
	// untouched.
	items, listErr := roadmap.List(ctx, &f.household.ID)
	require.NoError(t, listErr)
	assert.Empty(t, items)
}

func TestRoadmapService_StatusSyncsDecision(t *testing.T) {
	ctx := context.Background()
	f, roadmap, _ := roadmapFixture(t)

	decision := f.addDecision(t, "garden shed")

	item, err := roadmap.Schedule(ctx, ScheduleInput{DecisionID: decision.ID, Bucket: "now"})
	require.NoError(t, err)

	done := model.RoadmapDone

	_, err = roadmap.Update(ctx, item.ID, ItemUpdate{Status: &done})
	require.NoError(t, err)

	updated, err := f.decisions.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, updated.Status)
}

func TestRoadmapService_RemoveRefundsOutstandingConsumption(t *testing.T) {
	ctx := context.Background()
	f, roadmap, budget := roadmapFixture(t)

	decision := f.addDecision(t, "sauna")

	item, err := roadmap.Schedule(ctx, ScheduleInput{
		DecisionID: decision.ID,
		Bucket:     "later",
		UseBudget:  true,
	})
	require.NoError(t, err)

	require.NoError(t, roadmap.Remove(ctx, item.ID))

	summary, err := budget.GetSummary(ctx, f.household.ID)
	require.NoError(t, err)

	for _, member := range summary.Members {
		if member.MemberID == f.alice.ID {
			assert.Equal(t, 0, member.Used)
			assert.Equal(t, 2, member.Remaining)
		}
	}

	updated, err := f.decisions.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
}

func TestRoadmapService_RemoveDoneItemKeepsConsumption(t *testing.T) {
	ctx := context.Background()
	f, roadmap, budget := roadmapFixture(t)

	decision := f.addDecision(t, "finished project")

	item, err := roadmap.Schedule(ctx, ScheduleInput{
		DecisionID: decision.ID,
		Bucket:     "now",
		UseBudget:  true,
	})
	require.NoError(t, err)

	done := model.RoadmapDone

	_, err = roadmap.Update(ctx, item.ID, ItemUpdate{Status: &done})
	require.NoError(t, err)

	require.NoError(t, roadmap.Remove(ctx, item.ID))

	summary, err := budget.GetSummary(ctx, f.household.ID)
	require.NoError(t, err)

	for _, member := range summary.Members {
		if member.MemberID == f.alice.ID {
			assert.Equal(t, 1, member.Used)
		}
	}
}
