// Package apperr maps error code sentinels to business error responses with
// a code, title, and caller-facing message.
package apperr

import (
	"errors"

	"github.com/Grindin247/decision-system/pkg/constant"
)

// Response represents a business error with code, title, and message.
type Response struct {
	EntityType string `json:"entity_type,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"-"`
}

func (e Response) Error() string {
	return e.Message
}

// Unwrap exposes the underlying sentinel for errors.Is checks.
func (e Response) Unwrap() error {
	return e.Err
}

// ValidateBusinessError validates the error and returns the appropriate
// business error with code, title, and message. Unknown errors pass through
// unchanged.
func ValidateBusinessError(err error, entityType string) error {
	errorMap := map[error]error{
		constant.ErrScoreOutOfRange: Response{
			EntityType: entityType,
			Code:       constant.ErrScoreOutOfRange.Error(),
			Title:      "Score Out Of Range",
			Message:    "Each goal score must lie between 1 and 5. Please correct the scores and try again.",
			Err:        constant.ErrScoreOutOfRange,
		},
		constant.ErrIncompleteScoreSet: Response{
			EntityType: entityType,
			Code:       constant.ErrIncompleteScoreSet.Error(),
			Title:      "Incomplete Score Set",
			Message:    "Every active goal of the household must be scored. Please supply a score for each active goal and try again.",
			Err:        constant.ErrIncompleteScoreSet,
		},
		constant.ErrUnknownGoal: Response{
			EntityType: entityType,
			Code:       constant.ErrUnknownGoal.Error(),
			Title:      "Unknown Goal",
			Message:    "One or more scored goals do not exist, are inactive, or belong to another household. Please review the goal ids and try again.",
			Err:        constant.ErrUnknownGoal,
		},
		constant.ErrNoActiveGoals: Response{
			EntityType: entityType,
			Code:       constant.ErrNoActiveGoals.Error(),
			Title:      "No Active Goals",
			Message:    "The household has no active goals, so a weighted score is undefined. Activate at least one goal and try again.",
			Err:        constant.ErrNoActiveGoals,
		},
		constant.ErrInvalidPolicy: Response{
			EntityType: entityType,
			Code:       constant.ErrInvalidPolicy.Error(),
			Title:      "Invalid Budget Policy",
			Message:    "The budget policy is out of range. The threshold must lie between 1 and 5, the period between 7 and 365 days, and allowances must not be negative.",
			Err:        constant.ErrInvalidPolicy,
		},
		constant.ErrBudgetExhausted: Response{
			EntityType: entityType,
			Code:       constant.ErrBudgetExhausted.Error(),
			Title:      "Discretionary Budget Exhausted",
			Message:    "The member has no discretionary allowance left in the current period. The decision was queued for manual review.",
			Err:        constant.ErrBudgetExhausted,
		},
		constant.ErrNotFound: Response{
			EntityType: entityType,
			Code:       constant.ErrNotFound.Error(),
			Title:      "Entity Not Found",
			Message:    "The requested entity does not exist.",
			Err:        constant.ErrNotFound,
		},
		constant.ErrMemberNotInHousehold: Response{
			EntityType: entityType,
			Code:       constant.ErrMemberNotInHousehold.Error(),
			Title:      "Member Not In Household",
			Message:    "The referenced member does not belong to the target household. Please review the member id and try again.",
			Err:        constant.ErrMemberNotInHousehold,
		},
		constant.ErrDecisionNotScored: Response{
			EntityType: entityType,
			Code:       constant.ErrDecisionNotScored.Error(),
			Title:      "Decision Not Scored",
			Message:    "The decision has no score summary yet. Score the decision before routing it.",
			Err:        constant.ErrDecisionNotScored,
		},
		constant.ErrInvalidStatusChange: Response{
			EntityType: entityType,
			Code:       constant.ErrInvalidStatusChange.Error(),
			Title:      "Invalid Status Change",
			Message:    "The status cannot be set directly. Scoring, routing, and the roadmap manage this part of the lifecycle.",
			Err:        constant.ErrInvalidStatusChange,
		},
		constant.ErrRetryable: Response{
			EntityType: entityType,
			Code:       constant.ErrRetryable.Error(),
			Title:      "Transient Conflict",
			Message:    "The operation hit a transient write conflict. Please resubmit the request.",
			Err:        constant.ErrRetryable,
		},
	}

	for sentinel, mapped := range errorMap {
		if errors.Is(err, sentinel) {
			return mapped
		}
	}

	return err
}
