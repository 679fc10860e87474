//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupConnection starts a disposable PostgreSQL container, connects through
// the resolver, and runs the real migrations. The container is terminated via
// t.Cleanup.
func setupConnection(t *testing.T) *Connection {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn := &Connection{
		ConnectionStringPrimary: dsn,
		DatabaseName:            "testdb",
		MigrationsPath:          "../../../migrations",
		Logger:                  log.NewNop(),
	}

	require.NoError(t, conn.Connect(ctx), "Connect() should run migrations and ping")
	t.Cleanup(func() {
		require.NoError(t, conn.Close())
	})

	return conn
}

// seedHousehold inserts a household with one member and returns both.
func seedHousehold(t *testing.T, conn *Connection) (model.Household, model.Member) {
	t.Helper()

	ctx := context.Background()
	repo := NewHouseholdRepository(conn)

	household := model.Household{ID: uuid.New(), Name: "casa", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateHousehold(ctx, &household))

	member := model.Member{
		ID:          uuid.New(),
		HouseholdID: household.ID,
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Role:        model.RoleAdmin,
	}
	require.NoError(t, repo.AddMember(ctx, &member))

	return household, member
}

// ---------------------------------------------------------------------------
// TestIntegration_HouseholdRepository
// ---------------------------------------------------------------------------

func TestIntegration_HouseholdRepository(t *testing.T) {
	conn := setupConnection(t)
	ctx := context.Background()
	repo := NewHouseholdRepository(conn)

	household, member := seedHousehold(t, conn)

	got, err := repo.GetHousehold(ctx, household.ID)
	require.NoError(t, err)
	assert.Equal(t, household.Name, got.Name)

	_, err = repo.GetHousehold(ctx, uuid.New())
	assert.ErrorIs(t, err, constant.ErrNotFound)

	gotMember, err := repo.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.Email, gotMember.Email)
	assert.Equal(t, model.RoleAdmin, gotMember.Role)

	members, err := repo.ListMembers(ctx, household.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	households, err := repo.ListHouseholds(ctx)
	require.NoError(t, err)
	assert.Len(t, households, 1)
}

// ---------------------------------------------------------------------------
// TestIntegration_GoalRepository
// ---------------------------------------------------------------------------

func TestIntegration_GoalRepository(t *testing.T) {
	conn := setupConnection(t)
	ctx := context.Background()
	repo := NewGoalRepository(conn)

	household, _ := seedHousehold(t, conn)

	goal := model.Goal{
		ID:          uuid.New(),
		HouseholdID: household.ID,
		Name:        "financial health",
		Description: "keeps the budget sane",
		Weight:      decimal.NewFromFloat(2.5),
		ActionTypes: []string{"purchase", "subscription"},
		Active:      true,
	}
	require.NoError(t, repo.CreateGoal(ctx, &goal))

	retired := model.Goal{
		ID:          uuid.New(),
		HouseholdID: household.ID,
		Name:        "old goal",
		Weight:      decimal.NewFromInt(1),
		Active:      false,
	}
	require.NoError(t, repo.CreateGoal(ctx, &retired))

	got, err := repo.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.True(t, got.Weight.Equal(goal.Weight), "weight should round-trip exactly")
	assert.Equal(t, []string{"purchase", "subscription"}, got.ActionTypes)

	active, err := repo.ListGoals(ctx, household.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, goal.ID, active[0].ID)

	all, err := repo.ListGoals(ctx, household.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	goal.Active = false
	require.NoError(t, repo.UpdateGoal(ctx, &goal))

	active, err = repo.ListGoals(ctx, household.ID, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

// ---------------------------------------------------------------------------
// TestIntegration_DecisionRepository
// ---------------------------------------------------------------------------

func TestIntegration_DecisionRepository(t *testing.T) {
	conn := setupConnection(t)
	ctx := context.Background()
	repo := NewDecisionRepository(conn)

	household, member := seedHousehold(t, conn)

	cost := decimal.NewFromFloat(1299.99)
	urgency := 4
	target := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	decision := model.Decision{
		ID:                uuid.New(),
		HouseholdID:       household.ID,
		CreatedByMemberID: member.ID,
		Title:             "new couch",
		Description:       "the old one is collapsing",
		Cost:              &cost,
		Urgency:           &urgency,
		TargetDate:        &target,
		Tags:              []string{"furniture", "living-room"},
		Status:            model.StatusDraft,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, repo.CreateDecision(ctx, &decision))

	// Nullable columns must survive a round trip in both directions.
	bare := model.Decision{
		ID:                uuid.New(),
		HouseholdID:       household.ID,
		CreatedByMemberID: member.ID,
		Title:             "bare decision",
		Status:            model.StatusDraft,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, repo.CreateDecision(ctx, &bare))

	got, err := repo.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Cost)
	assert.True(t, got.Cost.Equal(cost))
	require.NotNil(t, got.Urgency)
	assert.Equal(t, 4, *got.Urgency)
	require.NotNil(t, got.TargetDate)
	assert.Equal(t, []string{"furniture", "living-room"}, got.Tags)

	gotBare, err := repo.GetDecision(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, gotBare.Cost)
	assert.Nil(t, gotBare.Urgency)
	assert.Nil(t, gotBare.TargetDate)
	assert.Nil(t, gotBare.OwnerMemberID)

	got.Status = model.StatusScored
	got.ScoreVersion = 1
	require.NoError(t, repo.UpdateDecision(ctx, got))

	updated, err := repo.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusScored, updated.Status)
	assert.Equal(t, 1, updated.ScoreVersion)

	listed, err := repo.ListDecisions(ctx, &household.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	missing := model.Decision{ID: uuid.New(), Title: "ghost"}
	assert.ErrorIs(t, repo.UpdateDecision(ctx, &missing), constant.ErrNotFound)
}

// ---------------------------------------------------------------------------
// TestIntegration_ScoreSummariesAndQueue
// ---------------------------------------------------------------------------

func TestIntegration_ScoreSummariesAndQueue(t *testing.T) {
	conn := setupConnection(t)
	ctx := context.Background()
	repo := NewDecisionRepository(conn)

	household, member := seedHousehold(t, conn)

	decision := model.Decision{
		ID:                uuid.New(),
		HouseholdID:       household.ID,
		CreatedByMemberID: member.ID,
		Title:             "e-bike",
		Status:            model.StatusDraft,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, repo.CreateDecision(ctx, &decision))

	summary := model.ScoreSummary{
		DecisionID: decision.ID,
		Version:    1,
		GoalScores: []model.GoalScore{{
			GoalID:     uuid.New(),
			GoalName:   "health",
			GoalWeight: decimal.NewFromInt(2),
			Score:      decimal.NewFromInt(4),
			ComputedBy: model.ComputedByHuman,
		}},
		WeightedTotal: decimal.RequireFromString("4.00"),
		NormalizedPct: decimal.RequireFromString("75.00"),
		Threshold:     decimal.RequireFromString("4.0"),
		Route:         model.RouteAutoApprove,
		ComputedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.AppendScoreSummary(ctx, &summary))

	got, err := repo.GetScoreSummary(ctx, decision.ID, 1)
	require.NoError(t, err)
	assert.True(t, got.WeightedTotal.Equal(summary.WeightedTotal))
	assert.Equal(t, model.RouteAutoApprove, got.Route)
	require.Len(t, got.GoalScores, 1)
	assert.Equal(t, "health", got.GoalScores[0].GoalName)

	_, err = repo.GetScoreSummary(ctx, decision.ID, 2)
	assert.ErrorIs(t, err, constant.ErrNotFound)

	// First enqueue takes rank 1; re-queueing keeps the rank but refreshes
	// priority and due date.
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	item, err := repo.UpsertQueueItem(ctx, decision.ID, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Rank)

	again, err := repo.UpsertQueueItem(ctx, decision.ID, 5, &due)
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, 1, again.Rank)
	assert.Equal(t, 5, again.Priority)
}

// ---------------------------------------------------------------------------
// TestIntegration_BudgetRepository
// ---------------------------------------------------------------------------

func TestIntegration_BudgetRepository(t *testing.T) {
	conn := setupConnection(t)
	ctx := context.Background()
	repo := NewBudgetRepository(conn)

	household, member := seedHousehold(t, conn)

	_, err := repo.GetPolicy(ctx, household.ID)
	assert.ErrorIs(t, err, constant.ErrNotFound)

	policy := model.BudgetPolicy{
		HouseholdID:      household.ID,
		Threshold:        decimal.RequireFromString("3.5"),
		PeriodDays:       30,
		DefaultAllowance: 2,
	}
	require.NoError(t, repo.SavePolicy(ctx, &policy))

	// SavePolicy is an upsert.
	policy.DefaultAllowance = 4
	require.NoError(t, repo.SavePolicy(ctx, &policy))

	got, err := repo.GetPolicy(ctx, household.ID)
	require.NoError(t, err)
	assert.True(t, got.Threshold.Equal(policy.Threshold))
	assert.Equal(t, 4, got.DefaultAllowance)

	require.NoError(t, repo.ReplaceOverrides(ctx, household.ID, map[uuid.UUID]int{member.ID: 1}))

	overrides, err := repo.GetOverrides(ctx, household.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{member.ID: 1}, overrides)

	require.NoError(t, repo.ReplaceOverrides(ctx, household.ID, nil))

	overrides, err = repo.GetOverrides(ctx, household.ID)
	require.NoError(t, err)
	assert.Empty(t, overrides)

	now := time.Now().UTC().Truncate(time.Microsecond)
	period := model.BudgetPeriod{
		ID:          uuid.New(),
		HouseholdID: household.ID,
		Start:       now,
		End:         now.AddDate(0, 0, 30),
	}
	require.NoError(t, repo.SavePeriod(ctx, &period))

	active, err := repo.ActivePeriod(ctx, household.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, period.ID, active.ID)

	_, err = repo.ActivePeriod(ctx, household.ID, now.AddDate(0, 0, 31))
	assert.ErrorIs(t, err, constant.ErrNotFound)

	entry := model.LedgerEntry{
		ID:        uuid.New(),
		MemberID:  member.ID,
		PeriodID:  period.ID,
		Delta:     4,
		Reason:    model.ReasonPeriodAllocation,
		CreatedAt: now,
	}
	require.NoError(t, repo.AppendEntry(ctx, &entry))

	decisionID := uuid.New()
	debit := model.LedgerEntry{
		ID:         uuid.New(),
		MemberID:   member.ID,
		PeriodID:   period.ID,
		Delta:      -1,
		Reason:     model.ReasonConsumption,
		DecisionID: &decisionID,
		CreatedAt:  now.Add(time.Minute),
	}
	require.NoError(t, repo.AppendEntry(ctx, &debit))

	entries, err := repo.ListEntries(ctx, period.ID, member.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ReasonPeriodAllocation, entries[0].Reason)
	assert.Equal(t, model.ReasonConsumption, entries[1].Reason)
	require.NotNil(t, entries[1].DecisionID)
	assert.Equal(t, decisionID, *entries[1].DecisionID)

	byDecision, err := repo.ListEntriesForDecision(ctx, decisionID)
	require.NoError(t, err)
	assert.Len(t, byDecision, 1)

	// Closing truncates the period at the cutover instant.
	cutover := now.Add(2 * time.Hour)
	require.NoError(t, repo.ClosePeriod(ctx, period.ID, cutover))

	_, err = repo.ActivePeriod(ctx, household.ID, cutover.Add(time.Minute))
	assert.ErrorIs(t, err, constant.ErrNotFound)
}

// ---------------------------------------------------------------------------
// TestIntegration_BudgetRepository_InTransaction
// ---------------------------------------------------------------------------

func TestIntegration_BudgetRepository_InTransaction(t *testing.T) {
	conn := setupConnection(t)
	ctx := context.Background()
	repo := NewBudgetRepository(conn)

	household, member := seedHousehold(t, conn)

	err := repo.InTransaction(ctx, uuid.New(), func(ctx context.Context) error {
		t.Fatal("fn must not run for an unknown household")
		return nil
	})
	assert.ErrorIs(t, err, constant.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	period := model.BudgetPeriod{
		ID:          uuid.New(),
		HouseholdID: household.ID,
		Start:       now,
		End:         now.AddDate(0, 0, 30),
	}

	// Writes made inside the unit of work are visible to reads in the same
	// unit of work before commit.
	err = repo.InTransaction(ctx, household.ID, func(ctx context.Context) error {
		if err := repo.SavePeriod(ctx, &period); err != nil {
			return err
		}

		entry := model.LedgerEntry{
			ID:        uuid.New(),
			MemberID:  member.ID,
			PeriodID:  period.ID,
			Delta:     2,
			Reason:    model.ReasonPeriodAllocation,
			CreatedAt: now,
		}
		if err := repo.AppendEntry(ctx, &entry); err != nil {
			return err
		}

		entries, err := repo.ListEntries(ctx, period.ID, member.ID)
		if err != nil {
			return err
		}

		require.Len(t, entries, 1)

		return nil
	})
	require.NoError(t, err)

	// An error from fn rolls everything back.
	boom := errors.New("boom")
	err = repo.InTransaction(ctx, household.ID, func(ctx context.Context) error {
		debit := model.LedgerEntry{
			ID:        uuid.New(),
			MemberID:  member.ID,
			PeriodID:  period.ID,
			Delta:     -1,
			Reason:    model.ReasonConsumption,
			CreatedAt: now.Add(time.Minute),
		}
		if err := repo.AppendEntry(ctx, &debit); err != nil {
			return err
		}

		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := repo.ListEntries(ctx, period.ID, member.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rolled-back consumption must not persist")

	// The household row lock serializes concurrent units of work: each
	// writer sees the other's committed entries, never a stale count.
	var wg sync.WaitGroup

	errs := make([]error, 4)

	for i := range errs {
		wg.Add(1)

		go func(slot int) {
			defer wg.Done()

			errs[slot] = repo.InTransaction(ctx, household.ID, func(ctx context.Context) error {
				entries, err := repo.ListEntries(ctx, period.ID, member.ID)
				if err != nil {
					return err
				}

				return repo.AppendEntry(ctx, &model.LedgerEntry{
					ID:        uuid.New(),
					MemberID:  member.ID,
					PeriodID:  period.ID,
					Delta:     -1,
					Reason:    model.ReasonConsumption,
					CreatedAt: now.Add(time.Duration(len(entries)) * time.Second),
				})
			})
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	entries, err = repo.ListEntries(ctx, period.ID, member.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

// ---------------------------------------------------------------------------
// TestIntegration_RoadmapRepository
// ---------------------------------------------------------------------------

func TestIntegration_RoadmapRepository(t *testing.T) {
	conn := setupConnection(t)
	ctx := context.Background()
	roadmap := NewRoadmapRepository(conn)
	decisions := NewDecisionRepository(conn)

	household, member := seedHousehold(t, conn)

	makeDecision := func(title string) model.Decision {
		d := model.Decision{
			ID:                uuid.New(),
			HouseholdID:       household.ID,
			CreatedByMemberID: member.ID,
			Title:             title,
			Status:            model.StatusApproved,
			CreatedAt:         time.Now().UTC(),
		}
		require.NoError(t, decisions.CreateDecision(ctx, &d))

		return d
	}

	first := makeDecision("first")
	second := makeDecision("second")

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)

	itemA := model.RoadmapItem{
		ID:           uuid.New(),
		HouseholdID:  household.ID,
		DecisionID:   first.ID,
		Bucket:       "now",
		StartDate:    &start,
		EndDate:      &end,
		Status:       model.RoadmapScheduled,
		Dependencies: []uuid.UUID{},
		UsedBudget:   true,
	}
	require.NoError(t, roadmap.CreateItem(ctx, &itemA))

	itemB := model.RoadmapItem{
		ID:           uuid.New(),
		HouseholdID:  household.ID,
		DecisionID:   second.ID,
		Bucket:       "later",
		Status:       model.RoadmapScheduled,
		Dependencies: []uuid.UUID{itemA.ID},
	}
	require.NoError(t, roadmap.CreateItem(ctx, &itemB))

	got, err := roadmap.GetItem(ctx, itemB.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Equal(t, []uuid.UUID{itemA.ID}, got.Dependencies)

	gotA, err := roadmap.GetItem(ctx, itemA.ID)
	require.NoError(t, err)
	assert.True(t, gotA.UsedBudget)
	require.NotNil(t, gotA.StartDate)

	// Listing preserves insertion order.
	items, err := roadmap.ListItems(ctx, &household.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, itemA.ID, items[0].ID)
	assert.Equal(t, itemB.ID, items[1].ID)

	gotA.Status = model.RoadmapDone
	gotA.EndDate = nil
	require.NoError(t, roadmap.UpdateItem(ctx, gotA))

	updated, err := roadmap.GetItem(ctx, itemA.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoadmapDone, updated.Status)
	assert.Nil(t, updated.EndDate)

	require.NoError(t, roadmap.DeleteItem(ctx, itemB.ID))
	assert.ErrorIs(t, roadmap.DeleteItem(ctx, itemB.ID), constant.ErrNotFound)

	_, err = roadmap.GetItem(ctx, itemB.ID)
	assert.ErrorIs(t, err, constant.ErrNotFound)
}
