package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComputedBy records whether a score was produced by a person or by an
// automated scorer.
type ComputedBy string

// Score provenance values.
const (
	ComputedByHuman     ComputedBy = "human"
	ComputedByAutomated ComputedBy = "automated"
)

// Valid reports whether the provenance value is known.
func (c ComputedBy) Valid() bool {
	return c == ComputedByHuman || c == ComputedByAutomated
}

// Route is the outcome of comparing a weighted total against the household
// threshold.
type Route string

// Routing outcomes. The threshold comparison is inclusive: a total exactly
// equal to the threshold auto-approves.
const (
	RouteAutoApprove    Route = "auto_approve"
	RouteRequiresBudget Route = "requires_budget"
)

// GoalScore is one member's (or scorer's) 1-5 rating of a decision against a
// single goal. Immutable once attached to a finalized summary.
type GoalScore struct {
	GoalID     uuid.UUID       `json:"goal_id"`
	GoalName   string          `json:"goal_name"`
	GoalWeight decimal.Decimal `json:"goal_weight"`
	Score      decimal.Decimal `json:"score_1_to_5"`
	Rationale  string          `json:"rationale"`
	ComputedBy ComputedBy      `json:"computed_by"`
}

// ScoreSummary is the immutable, versioned result of one scoring event.
// Re-scoring a decision appends a new summary with a higher version; prior
// versions are retained for audit.
type ScoreSummary struct {
	DecisionID    uuid.UUID       `json:"decision_id"`
	Version       int             `json:"version"`
	GoalScores    []GoalScore     `json:"goal_scores"`
	WeightedTotal decimal.Decimal `json:"weighted_total_1_to_5"`
	NormalizedPct decimal.Decimal `json:"weighted_total_0_to_100"`
	Threshold     decimal.Decimal `json:"threshold_used"`
	Route         Route           `json:"route"`
	ComputedAt    time.Time       `json:"computed_at"`
}
