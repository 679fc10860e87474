package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
)

// BudgetRepository is an in-memory policy, period, override, and ledger
// store. The ledger slice is append-only.
type BudgetRepository struct {
	mu        sync.RWMutex
	policies  map[uuid.UUID]model.BudgetPolicy // keyed by household id
	overrides map[uuid.UUID]map[uuid.UUID]int  // household id -> member id -> allowance
	periods   map[uuid.UUID]model.BudgetPeriod // keyed by period id
	entries   []model.LedgerEntry
}

// NewBudgetRepository creates an empty in-memory budget store.
func NewBudgetRepository() *BudgetRepository {
	return &BudgetRepository{
		policies:  make(map[uuid.UUID]model.BudgetPolicy),
		overrides: make(map[uuid.UUID]map[uuid.UUID]int),
		periods:   make(map[uuid.UUID]model.BudgetPeriod),
	}
}

// InTransaction runs fn directly. The store is process-local, so the
// caller's per-household mutex is the only serialization needed.
func (r *BudgetRepository) InTransaction(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *BudgetRepository) GetPolicy(_ context.Context, householdID uuid.UUID) (*model.BudgetPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, ok := r.policies[householdID]
	if !ok {
		return nil, constant.ErrNotFound
	}

	return &policy, nil
}

func (r *BudgetRepository) SavePolicy(_ context.Context, policy *model.BudgetPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.policies[policy.HouseholdID] = *policy

	return nil
}

func (r *BudgetRepository) GetOverrides(_ context.Context, householdID uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overrides := make(map[uuid.UUID]int, len(r.overrides[householdID]))
	for memberID, allowance := range r.overrides[householdID] {
		overrides[memberID] = allowance
	}

	return overrides, nil
}

func (r *BudgetRepository) ReplaceOverrides(_ context.Context, householdID uuid.UUID, overrides map[uuid.UUID]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replacement := make(map[uuid.UUID]int, len(overrides))
	for memberID, allowance := range overrides {
		replacement[memberID] = allowance
	}

	r.overrides[householdID] = replacement

	return nil
}

func (r *BudgetRepository) ActivePeriod(_ context.Context, householdID uuid.UUID, at time.Time) (*model.BudgetPeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, period := range r.periods {
		if period.HouseholdID == householdID && period.Contains(at) {
			return &period, nil
		}
	}

	return nil, constant.ErrNotFound
}

func (r *BudgetRepository) SavePeriod(_ context.Context, period *model.BudgetPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.periods[period.ID] = *period

	return nil
}

func (r *BudgetRepository) ClosePeriod(_ context.Context, periodID uuid.UUID, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	period, ok := r.periods[periodID]
	if !ok {
		return constant.ErrNotFound
	}

	period.End = end
	r.periods[periodID] = period

	return nil
}

func (r *BudgetRepository) AppendEntry(_ context.Context, entry *model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, *entry)

	return nil
}

func (r *BudgetRepository) ListEntries(_ context.Context, periodID, memberID uuid.UUID) ([]model.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []model.LedgerEntry

	for _, entry := range r.entries {
		if entry.PeriodID == periodID && entry.MemberID == memberID {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func (r *BudgetRepository) ListEntriesForDecision(_ context.Context, decisionID uuid.UUID) ([]model.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []model.LedgerEntry

	for _, entry := range r.entries {
		if entry.DecisionID != nil && *entry.DecisionID == decisionID {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
