// Package service implements the scoring engine, the discretionary budget
// ledger, the routing coordinator, and the roadmap scheduler, plus the thin
// management services around households, goals, and decisions.
//
// Repositories are consumed through the interfaces below; implementations
// live under internal/repository.
package service

import (
	"context"
	"time"

	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
)

// HouseholdRepository persists households and their members.
type HouseholdRepository interface {
	CreateHousehold(ctx context.Context, household *model.Household) error
	GetHousehold(ctx context.Context, id uuid.UUID) (*model.Household, error)
	ListHouseholds(ctx context.Context) ([]model.Household, error)
	AddMember(ctx context.Context, member *model.Member) error
	GetMember(ctx context.Context, id uuid.UUID) (*model.Member, error)
	ListMembers(ctx context.Context, householdID uuid.UUID) ([]model.Member, error)
}

// GoalRepository persists weighted goals. The scoring engine consumes it
// read-only through ListGoals with activeOnly=true.
type GoalRepository interface {
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoal(ctx context.Context, id uuid.UUID) (*model.Goal, error)
	UpdateGoal(ctx context.Context, goal *model.Goal) error
	ListGoals(ctx context.Context, householdID uuid.UUID, activeOnly bool) ([]model.Goal, error)
}

// DecisionRepository persists decisions, their append-only score summaries,
// and the manual-review queue.
type DecisionRepository interface {
	CreateDecision(ctx context.Context, decision *model.Decision) error
	GetDecision(ctx context.Context, id uuid.UUID) (*model.Decision, error)
	UpdateDecision(ctx context.Context, decision *model.Decision) error
	ListDecisions(ctx context.Context, householdID *uuid.UUID) ([]model.Decision, error)

	// AppendScoreSummary stores a new summary version; versions are never
	// overwritten.
	AppendScoreSummary(ctx context.Context, summary *model.ScoreSummary) error
	GetScoreSummary(ctx context.Context, decisionID uuid.UUID, version int) (*model.ScoreSummary, error)

	// UpsertQueueItem creates the queue item for a decision if absent,
	// assigning the next rank, and returns it either way.
	UpsertQueueItem(ctx context.Context, decisionID uuid.UUID, priority int, dueDate *time.Time) (*model.QueueItem, error)
}

// BudgetRepository persists policy, periods, allowance overrides, and the
// append-only discretionary ledger.
type BudgetRepository interface {
	// InTransaction runs fn with every repository call inside one unit of
	// work holding an exclusive lock on the household, so that two
	// concurrent ledger writers cannot interleave even across processes.
	// A missing household surfaces as constant.ErrNotFound.
	InTransaction(ctx context.Context, householdID uuid.UUID, fn func(ctx context.Context) error) error

	GetPolicy(ctx context.Context, householdID uuid.UUID) (*model.BudgetPolicy, error)
	SavePolicy(ctx context.Context, policy *model.BudgetPolicy) error

	GetOverrides(ctx context.Context, householdID uuid.UUID) (map[uuid.UUID]int, error)
	ReplaceOverrides(ctx context.Context, householdID uuid.UUID, overrides map[uuid.UUID]int) error

	ActivePeriod(ctx context.Context, householdID uuid.UUID, at time.Time) (*model.BudgetPeriod, error)
	SavePeriod(ctx context.Context, period *model.BudgetPeriod) error
	ClosePeriod(ctx context.Context, periodID uuid.UUID, end time.Time) error

	AppendEntry(ctx context.Context, entry *model.LedgerEntry) error
	ListEntries(ctx context.Context, periodID, memberID uuid.UUID) ([]model.LedgerEntry, error)
	ListEntriesForDecision(ctx context.Context, decisionID uuid.UUID) ([]model.LedgerEntry, error)
}

// RoadmapRepository persists roadmap items.
type RoadmapRepository interface {
	CreateItem(ctx context.Context, item *model.RoadmapItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*model.RoadmapItem, error)
	UpdateItem(ctx context.Context, item *model.RoadmapItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, householdID *uuid.UUID) ([]model.RoadmapItem, error)
}

// EventPublisher emits domain events. Publishing is best effort: failures
// are logged, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
