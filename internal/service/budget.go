package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetService owns per-member allowance, usage, and period boundaries for
// every household. All writes for a household are serialized twice over: a
// per-household mutex orders callers inside the process, and the repository
// transaction holds a row lock on the household so two instances can never
// both consume the last remaining unit.
type BudgetService struct {
	budgets    BudgetRepository
	households HouseholdRepository
	now        func() time.Time

	locks sync.Map // household id -> *sync.Mutex
}

// NewBudgetService wires a budget ledger service.
func NewBudgetService(budgets BudgetRepository, households HouseholdRepository) *BudgetService {
	return &BudgetService{
		budgets:    budgets,
		households: households,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *BudgetService) WithClock(now func() time.Time) *BudgetService {
	s.now = now
	return s
}

func (s *BudgetService) lockFor(householdID uuid.UUID) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(householdID, &sync.Mutex{})

	mu, ok := actual.(*sync.Mutex)
	if !ok {
		// LoadOrStore only ever stores *sync.Mutex.
		panic("budget lock map holds unexpected type")
	}

	return mu
}

// inTx runs fn under the repository's household transaction. The repository
// lock step reports a missing household as the bare not-found sentinel;
// anything raised inside fn arrives already wrapped.
func (s *BudgetService) inTx(ctx context.Context, householdID uuid.UUID, fn func(ctx context.Context) error) error {
	err := s.budgets.InTransaction(ctx, householdID, fn)
	if err == nil {
		return nil
	}

	var business apperr.Response
	if errors.Is(err, constant.ErrNotFound) && !errors.As(err, &business) {
		return apperr.ValidateBusinessError(constant.ErrNotFound, "household")
	}

	return err
}

// PolicyUpdate carries a policy write plus optional per-member allowance
// overrides. Overrides replace the existing override set wholesale.
type PolicyUpdate struct {
	Threshold        decimal.Decimal
	PeriodDays       int
	DefaultAllowance int
	Overrides        map[uuid.UUID]int
}

func (u PolicyUpdate) validate() error {
	minThreshold := decimal.NewFromFloat(constant.MinThreshold)
	maxThreshold := decimal.NewFromFloat(constant.MaxThreshold)

	if u.Threshold.LessThan(minThreshold) || u.Threshold.GreaterThan(maxThreshold) {
		return constant.ErrInvalidPolicy
	}

	if u.PeriodDays < constant.MinPeriodDays || u.PeriodDays > constant.MaxPeriodDays {
		return constant.ErrInvalidPolicy
	}

	if u.DefaultAllowance < 0 || u.DefaultAllowance > constant.MaxAllowance {
		return constant.ErrInvalidPolicy
	}

	for _, allowance := range u.Overrides {
		if allowance < 0 || allowance > constant.MaxAllowance {
			return constant.ErrInvalidPolicy
		}
	}

	return nil
}

// GetSummary returns policy, active period, and per-member allowance state,
// creating the default policy and the first period on demand.
func (s *BudgetService) GetSummary(ctx context.Context, householdID uuid.UUID) (*model.BudgetSummary, error) {
	mu := s.lockFor(householdID)
	mu.Lock()
	defer mu.Unlock()

	var summary *model.BudgetSummary

	err := s.inTx(ctx, householdID, func(ctx context.Context) error {
		policy, period, err := s.ensurePolicyAndPeriod(ctx, householdID)
		if err != nil {
			return err
		}

		summary, err = s.buildSummary(ctx, policy, period)

		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// SetPolicy validates and stores the policy and allowance overrides.
//
// Allowance changes apply immediately inside the current period through
// policy_adjustment ledger entries; usage and the period clock are left
// untouched. Only ResetPeriod reallocates from scratch.
func (s *BudgetService) SetPolicy(ctx context.Context, householdID uuid.UUID, update PolicyUpdate) (*model.BudgetSummary, error) {
	if err := update.validate(); err != nil {
		return nil, apperr.ValidateBusinessError(err, "budget_policy")
	}

	mu := s.lockFor(householdID)
	mu.Lock()
	defer mu.Unlock()

	var summary *model.BudgetSummary

	err := s.inTx(ctx, householdID, func(ctx context.Context) error {
		members, err := s.householdMembers(ctx, householdID)
		if err != nil {
			return err
		}

		memberIDs := make(map[uuid.UUID]bool, len(members))
		for _, member := range members {
			memberIDs[member.ID] = true
		}

		for memberID := range update.Overrides {
			if !memberIDs[memberID] {
				return apperr.ValidateBusinessError(constant.ErrMemberNotInHousehold, "member")
			}
		}

		policy := &model.BudgetPolicy{
			HouseholdID:      householdID,
			Threshold:        update.Threshold,
			PeriodDays:       update.PeriodDays,
			DefaultAllowance: update.DefaultAllowance,
		}

		if err := s.budgets.SavePolicy(ctx, policy); err != nil {
			return fmt.Errorf("save policy: %w", err)
		}

		if err := s.budgets.ReplaceOverrides(ctx, householdID, update.Overrides); err != nil {
			return fmt.Errorf("replace overrides: %w", err)
		}

		period, err := s.ensurePeriod(ctx, policy)
		if err != nil {
			return err
		}

		// Adjust each member's in-period allowance to the new target.
		for _, member := range members {
			if err := s.ensureAllocation(ctx, policy, period, member.ID); err != nil {
				return err
			}

			state, err := s.memberState(ctx, period.ID, member.ID)
			if err != nil {
				return err
			}

			target := s.allowanceFor(member.ID, policy, update.Overrides)
			if delta := target - state.allowance; delta != 0 {
				entry := &model.LedgerEntry{
					ID:        uuid.New(),
					MemberID:  member.ID,
					PeriodID:  period.ID,
					Delta:     delta,
					Reason:    model.ReasonPolicyAdjustment,
					CreatedAt: s.now(),
				}
				if err := s.budgets.AppendEntry(ctx, entry); err != nil {
					return fmt.Errorf("append adjustment entry: %w", err)
				}
			}
		}

		summary, err = s.buildSummary(ctx, policy, period)

		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// ResetPeriod ends the current period immediately, opens a fresh one of
// policy length, and reallocates every member's allowance from policy.
// Usage starts at zero; unused allowance does not carry forward.
func (s *BudgetService) ResetPeriod(ctx context.Context, householdID uuid.UUID) (*model.BudgetSummary, error) {
	mu := s.lockFor(householdID)
	mu.Lock()
	defer mu.Unlock()

	var summary *model.BudgetSummary

	err := s.inTx(ctx, householdID, func(ctx context.Context) error {
		policy, period, err := s.ensurePolicyAndPeriod(ctx, householdID)
		if err != nil {
			return err
		}

		resetAt := s.now()

		if err := s.budgets.ClosePeriod(ctx, period.ID, resetAt); err != nil {
			return fmt.Errorf("close period: %w", err)
		}

		fresh, err := s.openPeriod(ctx, policy, resetAt)
		if err != nil {
			return err
		}

		summary, err = s.buildSummary(ctx, policy, fresh)

		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// ConsumeResult reports a successful allowance consumption.
type ConsumeResult struct {
	EntryID   uuid.UUID
	Remaining int
}

// Consume debits one or more decision slots from a member's allowance in
// the current period. Strict mode: when the remaining allowance is smaller
// than the requested amount the call fails with budget_exhausted and
// nothing is written. The allowance is a hard ceiling, not a soft target.
func (s *BudgetService) Consume(ctx context.Context, householdID, memberID uuid.UUID, decisionID *uuid.UUID, amount int) (*ConsumeResult, error) {
	if amount <= 0 {
		amount = 1
	}

	mu := s.lockFor(householdID)
	mu.Lock()
	defer mu.Unlock()

	var result *ConsumeResult

	err := s.inTx(ctx, householdID, func(ctx context.Context) error {
		member, err := s.households.GetMember(ctx, memberID)
		if err != nil {
			return apperr.ValidateBusinessError(err, "member")
		}

		if member.HouseholdID != householdID {
			return apperr.ValidateBusinessError(constant.ErrMemberNotInHousehold, "member")
		}

		policy, period, err := s.ensurePolicyAndPeriod(ctx, householdID)
		if err != nil {
			return err
		}

		if err := s.ensureAllocation(ctx, policy, period, memberID); err != nil {
			return err
		}

		state, err := s.memberState(ctx, period.ID, memberID)
		if err != nil {
			return err
		}

		if state.remaining() < amount {
			return apperr.ValidateBusinessError(constant.ErrBudgetExhausted, "budget")
		}

		entry := &model.LedgerEntry{
			ID:         uuid.New(),
			MemberID:   memberID,
			PeriodID:   period.ID,
			Delta:      -amount,
			Reason:     model.ReasonConsumption,
			DecisionID: decisionID,
			CreatedAt:  s.now(),
		}

		if err := s.budgets.AppendEntry(ctx, entry); err != nil {
			return fmt.Errorf("append consumption entry: %w", err)
		}

		result = &ConsumeResult{EntryID: entry.ID, Remaining: state.remaining() - amount}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Refund returns one consumed slot for a decision, matching the latest
// outstanding consumption. A decision with no outstanding consumption is a
// no-op; refunds never exceed consumptions.
func (s *BudgetService) Refund(ctx context.Context, householdID, decisionID uuid.UUID) error {
	mu := s.lockFor(householdID)
	mu.Lock()
	defer mu.Unlock()

	return s.inTx(ctx, householdID, func(ctx context.Context) error {
		entries, err := s.budgets.ListEntriesForDecision(ctx, decisionID)
		if err != nil {
			return fmt.Errorf("list ledger entries for decision: %w", err)
		}

		var debits []model.LedgerEntry

		refunds := 0

		for _, entry := range entries {
			switch entry.Reason {
			case model.ReasonConsumption:
				debits = append(debits, entry)
			case model.ReasonRefund:
				refunds++
			case model.ReasonPeriodAllocation, model.ReasonPolicyAdjustment:
			}
		}

		if len(debits) <= refunds {
			return nil
		}

		sort.Slice(debits, func(i, j int) bool { return debits[i].CreatedAt.After(debits[j].CreatedAt) })
		latest := debits[0]

		entry := &model.LedgerEntry{
			ID:         uuid.New(),
			MemberID:   latest.MemberID,
			PeriodID:   latest.PeriodID,
			Delta:      -latest.Delta,
			Reason:     model.ReasonRefund,
			DecisionID: &decisionID,
			CreatedAt:  s.now(),
		}

		if err := s.budgets.AppendEntry(ctx, entry); err != nil {
			return fmt.Errorf("append refund entry: %w", err)
		}

		return nil
	})
}

// Threshold returns the household's routing threshold, materializing the
// default policy when none is saved yet.
func (s *BudgetService) Threshold(ctx context.Context, householdID uuid.UUID) (decimal.Decimal, error) {
	mu := s.lockFor(householdID)
	mu.Lock()
	defer mu.Unlock()

	policy, err := s.ensurePolicy(ctx, householdID)
	if err != nil {
		return decimal.Zero, err
	}

	return policy.Threshold, nil
}

// ---------------------------------------------------------------------------
// internals (callers hold the household lock)
// ---------------------------------------------------------------------------

// memberLedgerState is the derived allowance state of one member in one
// period.
type memberLedgerState struct {
	allowance int
	used      int
}

func (m memberLedgerState) remaining() int {
	return m.allowance - m.used
}

func (s *BudgetService) ensurePolicy(ctx context.Context, householdID uuid.UUID) (*model.BudgetPolicy, error) {
	policy, err := s.budgets.GetPolicy(ctx, householdID)
	if err == nil {
		return policy, nil
	}

	if !errors.Is(err, constant.ErrNotFound) {
		return nil, fmt.Errorf("get policy: %w", err)
	}

	if _, err := s.households.GetHousehold(ctx, householdID); err != nil {
		return nil, apperr.ValidateBusinessError(err, "household")
	}

	policy = &model.BudgetPolicy{
		HouseholdID:      householdID,
		Threshold:        decimal.NewFromFloat(constant.DefaultThreshold),
		PeriodDays:       constant.DefaultPeriodDays,
		DefaultAllowance: constant.DefaultAllowance,
	}

	if err := s.budgets.SavePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("save default policy: %w", err)
	}

	return policy, nil
}

func (s *BudgetService) ensurePeriod(ctx context.Context, policy *model.BudgetPolicy) (*model.BudgetPeriod, error) {
	period, err := s.budgets.ActivePeriod(ctx, policy.HouseholdID, s.now())
	if err == nil {
		return period, nil
	}

	if !errors.Is(err, constant.ErrNotFound) {
		return nil, fmt.Errorf("active period: %w", err)
	}

	return s.openPeriod(ctx, policy, s.now())
}

func (s *BudgetService) ensurePolicyAndPeriod(ctx context.Context, householdID uuid.UUID) (*model.BudgetPolicy, *model.BudgetPeriod, error) {
	policy, err := s.ensurePolicy(ctx, householdID)
	if err != nil {
		return nil, nil, err
	}

	period, err := s.ensurePeriod(ctx, policy)
	if err != nil {
		return nil, nil, err
	}

	return policy, period, nil
}

// openPeriod creates a period starting at the given instant and allocates
// every member's allowance from policy and overrides.
func (s *BudgetService) openPeriod(ctx context.Context, policy *model.BudgetPolicy, start time.Time) (*model.BudgetPeriod, error) {
	period := &model.BudgetPeriod{
		ID:          uuid.New(),
		HouseholdID: policy.HouseholdID,
		Start:       start,
		End:         start.AddDate(0, 0, policy.PeriodDays),
	}

	if err := s.budgets.SavePeriod(ctx, period); err != nil {
		return nil, fmt.Errorf("save period: %w", err)
	}

	members, err := s.householdMembers(ctx, policy.HouseholdID)
	if err != nil {
		return nil, err
	}

	overrides, err := s.budgets.GetOverrides(ctx, policy.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("get overrides: %w", err)
	}

	for _, member := range members {
		entry := &model.LedgerEntry{
			ID:        uuid.New(),
			MemberID:  member.ID,
			PeriodID:  period.ID,
			Delta:     s.allowanceFor(member.ID, policy, overrides),
			Reason:    model.ReasonPeriodAllocation,
			CreatedAt: s.now(),
		}
		if err := s.budgets.AppendEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("append allocation entry: %w", err)
		}
	}

	return period, nil
}

// ensureAllocation backfills the allocation entry for a member added after
// the period opened.
func (s *BudgetService) ensureAllocation(ctx context.Context, policy *model.BudgetPolicy, period *model.BudgetPeriod, memberID uuid.UUID) error {
	entries, err := s.budgets.ListEntries(ctx, period.ID, memberID)
	if err != nil {
		return fmt.Errorf("list ledger entries: %w", err)
	}

	for _, entry := range entries {
		if entry.Reason == model.ReasonPeriodAllocation {
			return nil
		}
	}

	overrides, err := s.budgets.GetOverrides(ctx, policy.HouseholdID)
	if err != nil {
		return fmt.Errorf("get overrides: %w", err)
	}

	entry := &model.LedgerEntry{
		ID:        uuid.New(),
		MemberID:  memberID,
		PeriodID:  period.ID,
		Delta:     s.allowanceFor(memberID, policy, overrides),
		Reason:    model.ReasonPeriodAllocation,
		CreatedAt: s.now(),
	}

	return s.budgets.AppendEntry(ctx, entry)
}

func (s *BudgetService) allowanceFor(memberID uuid.UUID, policy *model.BudgetPolicy, overrides map[uuid.UUID]int) int {
	if allowance, ok := overrides[memberID]; ok {
		return allowance
	}

	return policy.DefaultAllowance
}

func (s *BudgetService) memberState(ctx context.Context, periodID, memberID uuid.UUID) (memberLedgerState, error) {
	entries, err := s.budgets.ListEntries(ctx, periodID, memberID)
	if err != nil {
		return memberLedgerState{}, fmt.Errorf("list ledger entries: %w", err)
	}

	var state memberLedgerState

	consumed, refunded := 0, 0

	for _, entry := range entries {
		switch entry.Reason {
		case model.ReasonPeriodAllocation, model.ReasonPolicyAdjustment:
			state.allowance += entry.Delta
		case model.ReasonConsumption:
			consumed += -entry.Delta
		case model.ReasonRefund:
			refunded += entry.Delta
		}
	}

	state.used = consumed - refunded
	if state.used < 0 {
		state.used = 0
	}

	return state, nil
}

func (s *BudgetService) householdMembers(ctx context.Context, householdID uuid.UUID) ([]model.Member, error) {
	if _, err := s.households.GetHousehold(ctx, householdID); err != nil {
		return nil, apperr.ValidateBusinessError(err, "household")
	}

	members, err := s.households.ListMembers(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

func (s *BudgetService) buildSummary(ctx context.Context, policy *model.BudgetPolicy, period *model.BudgetPeriod) (*model.BudgetSummary, error) {
	members, err := s.householdMembers(ctx, policy.HouseholdID)
	if err != nil {
		return nil, err
	}

	summary := &model.BudgetSummary{
		HouseholdID:      policy.HouseholdID,
		Threshold:        policy.Threshold,
		PeriodDays:       policy.PeriodDays,
		DefaultAllowance: policy.DefaultAllowance,
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		Members:          make([]model.MemberBudget, 0, len(members)),
	}

	for _, member := range members {
		if err := s.ensureAllocation(ctx, policy, period, member.ID); err != nil {
			return nil, err
		}

		state, err := s.memberState(ctx, period.ID, member.ID)
		if err != nil {
			return nil, err
		}

		remaining := state.remaining()
		if remaining < 0 {
			remaining = 0
		}

		summary.Members = append(summary.Members, model.MemberBudget{
			MemberID:    member.ID,
			DisplayName: member.DisplayName,
			Role:        member.Role,
			Allowance:   state.allowance,
			Used:        state.used,
			Remaining:   remaining,
		})
	}

	return summary, nil
}
