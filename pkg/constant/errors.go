// Package constant holds the error code sentinels and the numeric defaults
// shared across the service.
package constant

import "errors"

var (
	// ErrScoreOutOfRange is returned when a per-goal score falls outside the
	// closed interval [1,5]. Scores are never clamped.
	ErrScoreOutOfRange = errors.New("score_out_of_range")
	// ErrIncompleteScoreSet is returned when a scoring request is missing at
	// least one currently active goal of the household.
	ErrIncompleteScoreSet = errors.New("incomplete_score_set")
	// ErrUnknownGoal is returned when a scoring request references a goal id
	// outside the household's active goal set.
	ErrUnknownGoal = errors.New("unknown_goal")
	// ErrNoActiveGoals is returned when scoring is attempted with no active
	// goals; a zero total weight is undefined, not a neutral score.
	ErrNoActiveGoals = errors.New("no_active_goals")
	// ErrInvalidPolicy is returned when a budget policy update carries an
	// out-of-range threshold, period length, or allowance.
	ErrInvalidPolicy = errors.New("invalid_policy")
	// ErrBudgetExhausted is returned when a consumption would exceed the
	// member's allowance for the current period. An expected business
	// outcome, not a system fault.
	ErrBudgetExhausted = errors.New("budget_exhausted")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrMemberNotInHousehold is returned when an operation references a
	// member that does not belong to the target household.
	ErrMemberNotInHousehold = errors.New("member_not_in_household")
	// ErrDecisionNotScored is returned when routing is requested for a
	// decision that has no score summary yet.
	ErrDecisionNotScored = errors.New("decision_not_scored")
	// ErrInvalidStatusChange is returned when a direct status write targets
	// a state owned by scoring, routing, or the roadmap.
	ErrInvalidStatusChange = errors.New("invalid_status_change")
	// ErrRetryable is returned on a transient write conflict under true
	// contention; the caller may resubmit.
	ErrRetryable = errors.New("retryable_conflict")
)
