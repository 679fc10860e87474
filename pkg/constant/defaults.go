package constant

// Budget policy defaults applied when a household has no saved policy.
const (
	// DefaultThreshold is the weighted-total cutoff for automatic approval.
	DefaultThreshold = 4.0
	// DefaultPeriodDays is the length of a discretionary budget period.
	DefaultPeriodDays = 90
	// DefaultAllowance is the per-member decision-slot allowance per period.
	DefaultAllowance = 2
)

// Budget policy validation bounds.
const (
	MinThreshold   = 1.0
	MaxThreshold   = 5.0
	MinPeriodDays  = 7
	MaxPeriodDays  = 365
	MaxAllowance   = 50
	MinScore       = 1
	MaxScore       = 5
	DefaultUrgency = 3
)

// Routing reason codes attached to a routing outcome so a queued decision is
// distinguishable from one queued for budget exhaustion.
const (
	ReasonAutoApproved        = "auto_approved"
	ReasonDiscretionaryBudget = "discretionary_budget"
	ReasonScoreBelowThreshold = "score_below_threshold"
	ReasonBudgetExhausted     = "budget_exhausted"
)
