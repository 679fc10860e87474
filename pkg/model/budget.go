package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerReason classifies a discretionary ledger entry.
type LedgerReason string

// Ledger entry reasons. Allocation and adjustment entries build a member's
// allowance; consumption and refund entries build usage.
const (
	ReasonPeriodAllocation LedgerReason = "period_allocation"
	ReasonPolicyAdjustment LedgerReason = "policy_adjustment"
	ReasonConsumption      LedgerReason = "consumption"
	ReasonRefund           LedgerReason = "refund"
)

// BudgetPolicy governs routing and allowance for one household.
type BudgetPolicy struct {
	HouseholdID      uuid.UUID       `json:"household_id"`
	Threshold        decimal.Decimal `json:"threshold_1_to_5"`
	PeriodDays       int             `json:"period_days"`
	DefaultAllowance int             `json:"default_allowance"`
}

// BudgetPeriod is a fixed-length window over which allowance usage
// accumulates. End is exclusive: the period covers [Start, End).
type BudgetPeriod struct {
	ID          uuid.UUID `json:"id"`
	HouseholdID uuid.UUID `json:"household_id"`
	Start       time.Time `json:"start_date"`
	End         time.Time `json:"end_date"`
}

// Contains reports whether the instant falls inside the period.
func (p BudgetPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// LedgerEntry is one signed movement on a member's discretionary allowance
// inside a period. The ledger is append-only.
type LedgerEntry struct {
	ID         uuid.UUID    `json:"id"`
	MemberID   uuid.UUID    `json:"member_id"`
	PeriodID   uuid.UUID    `json:"period_id"`
	Delta      int          `json:"delta"`
	Reason     LedgerReason `json:"reason"`
	DecisionID *uuid.UUID   `json:"decision_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// MemberBudget is the derived allowance state for one member in the current
// period. Remaining is floored at zero for presentation; strict consumption
// means it never goes negative internally either.
type MemberBudget struct {
	MemberID    uuid.UUID `json:"member_id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	Allowance   int       `json:"allowance"`
	Used        int       `json:"used"`
	Remaining   int       `json:"remaining"`
}

// BudgetSummary is the full budget view for a household: policy, active
// period, and per-member allowance state.
type BudgetSummary struct {
	HouseholdID      uuid.UUID       `json:"household_id"`
	Threshold        decimal.Decimal `json:"threshold_1_to_5"`
	PeriodDays       int             `json:"period_days"`
	DefaultAllowance int             `json:"default_allowance"`
	PeriodStart      time.Time       `json:"period_start_date"`
	PeriodEnd        time.Time       `json:"period_end_date"`
	Members          []MemberBudget  `json:"members"`
}
