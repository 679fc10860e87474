//go:build unit

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBudgetService(f *fixture) *BudgetService {
	return NewBudgetService(f.budgets, f.households)
}

func TestBudgetService_GetSummary_Defaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	summary, err := svc.GetSummary(ctx, f.household.ID)
	require.NoError(t, err)

	assert.True(t, summary.Threshold.Equal(decimal.NewFromFloat(4.0)))
	assert.Equal(t, 90, summary.PeriodDays)
	assert.Equal(t, 2, summary.DefaultAllowance)
	assert.Equal(t, 90, int(summary.PeriodEnd.Sub(summary.PeriodStart).Hours()/24))
	require.Len(t, summary.Members, 2)

	for _, member := range summary.Members {
		assert.Equal(t, 2, member.Allowance)
		assert.Equal(t, 0, member.Used)
		assert.Equal(t, 2, member.Remaining)
	}
}

func TestBudgetService_GetSummary_UnknownHousehold(t *testing.T) {
	f := newFixture(t)
	svc := newBudgetService(f)

	_, err := svc.GetSummary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, constant.ErrNotFound)
}

func TestBudgetService_Consume_StrictExhaustion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	decisionA, decisionB, decisionC := uuid.New(), uuid.New(), uuid.New()

	first, err := svc.Consume(ctx, f.household.ID, f.alice.ID, &decisionA, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Remaining)

	second, err := svc.Consume(ctx, f.household.ID, f.alice.ID, &decisionB, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Remaining)

	// Third consumption must be rejected outright, never go negative.
	_, err = svc.Consume(ctx, f.household.ID, f.alice.ID, &decisionC, 1)
	assert.ErrorIs(t, err, constant.ErrBudgetExhausted)

	summary, err := svc.GetSummary(ctx, f.household.ID)
	require.NoError(t, err)

	for _, member := range summary.Members {
		if member.MemberID == f.alice.ID {
			assert.Equal(t, 2, member.Used)
			assert.Equal(t, 0, member.Remaining)
		} else {
			// Other members are unaffected.
			assert.Equal(t, 0, member.Used)
		}
	}
}

func TestBudgetService_Consume_ConcurrentStrictness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	_, err := svc.SetPolicy(ctx, f.household.ID, PolicyUpdate{
		Threshold:        decimal.NewFromFloat(4.0),
		PeriodDays:       90,
		DefaultAllowance: 1,
	})
	require.NoError(t, err)

	const callers = 8

	var wg sync.WaitGroup

	errs := make([]error, callers)

	for i := range errs {
		wg.Add(1)

		go func(slot int) {
			defer wg.Done()

			decisionID := uuid.New()
			_, errs[slot] = svc.Consume(ctx, f.household.ID, f.alice.ID, &decisionID, 1)
		}(i)
	}

	wg.Wait()

	succeeded, exhausted := 0, 0

	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, constant.ErrBudgetExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected consume error: %v", err)
		}
	}

	// The last unit is handed out exactly once.
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, exhausted)

	summary, err := svc.GetSummary(ctx, f.household.ID)
	require.NoError(t, err)

	for _, member := range summary.Members {
		if member.MemberID == f.alice.ID {
			assert.Equal(t, 1, member.Used)
			assert.Equal(t, 0, member.Remaining)
		}
	}
}

func TestBudgetService_Consume_MemberFromOtherHousehold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	other := model.Household{ID: uuid.New(), Name: "other"}
	require.NoError(t, f.households.CreateHousehold(ctx, &other))

	stranger := model.Member{ID: uuid.New(), HouseholdID: other.ID, DisplayName: "Zoe", Role: model.RoleViewer}
	require.NoError(t, f.households.AddMember(ctx, &stranger))

	_, err := svc.Consume(ctx, f.household.ID, stranger.ID, nil, 1)
	assert.ErrorIs(t, err, constant.ErrMemberNotInHousehold)
}

func TestBudgetService_Refund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	decisionID := uuid.New()

	_, err := svc.Consume(ctx, f.household.ID, f.alice.ID, &decisionID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Refund(ctx, f.household.ID, decisionID))

	// A second refund for the same decision is a no-op.
	require.NoError(t, svc.Refund(ctx, f.household.ID, decisionID))

	summary, err := svc.GetSummary(ctx, f.household.ID)
	require.NoError(t, err)

	for _, member := range summary.Members {
		if member.MemberID == f.alice.ID {
			assert.Equal(t, 0, member.Used)
			assert.Equal(t, 2, member.Remaining)
		}
	}
}

func TestBudgetService_SetPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	summary, err := svc.SetPolicy(ctx, f.household.ID, PolicyUpdate{
		Threshold:        decimal.NewFromFloat(3.5),
		PeriodDays:       30,
		DefaultAllowance: 5,
		Overrides:        map[uuid.UUID]int{f.bob.ID: 1},
	})
	require.NoError(t, err)

	assert.True(t, summary.Threshold.Equal(decimal.NewFromFloat(3.5)))
	assert.Equal(t, 30, summary.PeriodDays)

	for _, member := range summary.Members {
		switch member.MemberID {
		case f.alice.ID:
			assert.Equal(t, 5, member.Allowance)
		case f.bob.ID:
			assert.Equal(t, 1, member.Allowance)
		}
	}
}

func TestBudgetService_SetPolicy_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	tests := []struct {
		name     string
		update   PolicyUpdate
		expected error
	}{
		{
			name:     "threshold above range",
			update:   PolicyUpdate{Threshold: decimal.NewFromFloat(5.5), PeriodDays: 90, DefaultAllowance: 2},
			expected: constant.ErrInvalidPolicy,
		},
		{
			name:     "threshold below range",
			update:   PolicyUpdate{Threshold: decimal.NewFromFloat(0.5), PeriodDays: 90, DefaultAllowance: 2},
			expected: constant.ErrInvalidPolicy,
		},
		{
			name:     "period too short",
			update:   PolicyUpdate{Threshold: decimal.NewFromFloat(4), PeriodDays: 3, DefaultAllowance: 2},
			expected: constant.ErrInvalidPolicy,
		},
		{
			name:     "negative allowance",
			update:   PolicyUpdate{Threshold: decimal.NewFromFloat(4), PeriodDays: 90, DefaultAllowance: -1},
			expected: constant.ErrInvalidPolicy,
		},
		{
			name: "override out of range",
			update: PolicyUpdate{
				Threshold: decimal.NewFromFloat(4), PeriodDays: 90, DefaultAllowance: 2,
				Overrides: map[uuid.UUID]int{uuid.New(): 99},
			},
			expected: constant.ErrInvalidPolicy,
		},
		{
			name: "override for unknown member",
			update: PolicyUpdate{
				Threshold: decimal.NewFromFloat(4), PeriodDays: 90, DefaultAllowance: 2,
				Overrides: map[uuid.UUID]int{uuid.New(): 3},
			},
			expected: constant.ErrMemberNotInHousehold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetPolicy(ctx, f.household.ID, tt.update)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestBudgetService_ResetPeriod_NoRollover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newBudgetService(f).WithClock(func() time.Time { return current })

	decisionID := uuid.New()

	_, err := svc.Consume(ctx, f.household.ID, f.alice.ID, &decisionID, 2)
	require.NoError(t, err)

	// Advance an hour and reset; usage must not carry over, nor may the
	// unused allowance of other members accumulate.
	current = current.Add(time.Hour)

	summary, err := svc.ResetPeriod(ctx, f.household.ID)
	require.NoError(t, err)

	assert.Equal(t, current, summary.PeriodStart)
	assert.Equal(t, current.AddDate(0, 0, 90), summary.PeriodEnd)

	for _, member := range summary.Members {
		assert.Equal(t, 2, member.Allowance)
		assert.Equal(t, 0, member.Used)
		assert.Equal(t, 2, member.Remaining)
	}
}

func TestBudgetService_PolicyAllowanceChangeAppliesInPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newBudgetService(f)

	decisionID := uuid.New()

	_, err := svc.Consume(ctx, f.household.ID, f.alice.ID, &decisionID, 1)
	require.NoError(t, err)

	summary, err := svc.SetPolicy(ctx, f.household.ID, PolicyUpdate{
		Threshold:        decimal.NewFromFloat(4.0),
		PeriodDays:       90,
		DefaultAllowance: 4,
	})
	require.NoError(t, err)

	// Usage survives the adjustment; only the ceiling moves.
	for _, member := range summary.Members {
		if member.MemberID == f.alice.ID {
			assert.Equal(t, 4, member.Allowance)
			assert.Equal(t, 1, member.Used)
			assert.Equal(t, 3, member.Remaining)
		}
	}
}
