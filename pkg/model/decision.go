package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionStatus is the lifecycle state of a decision.
type DecisionStatus string

// Decision lifecycle states. Routing moves decisions between Scored,
// Approved, and Queued; roadmap placement moves them to Scheduled and
// onwards.
const (
	StatusDraft      DecisionStatus = "Draft"
	StatusScored     DecisionStatus = "Scored"
	StatusApproved   DecisionStatus = "Approved"
	StatusQueued     DecisionStatus = "Queued"
	StatusScheduled  DecisionStatus = "Scheduled"
	StatusInProgress DecisionStatus = "In-Progress"
	StatusDone       DecisionStatus = "Done"
	StatusRejected   DecisionStatus = "Rejected"
	StatusArchived   DecisionStatus = "Archived"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s DecisionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScored, StatusApproved, StatusQueued,
		StatusScheduled, StatusInProgress, StatusDone, StatusRejected, StatusArchived:
		return true
	}

	return false
}

// Decision is a proposed household action subject to scoring and routing.
type Decision struct {
	ID                uuid.UUID        `json:"id"`
	HouseholdID       uuid.UUID        `json:"household_id"`
	CreatedByMemberID uuid.UUID        `json:"created_by_member_id"`
	OwnerMemberID     *uuid.UUID       `json:"owner_member_id,omitempty"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Cost              *decimal.Decimal `json:"cost,omitempty"`
	Urgency           *int             `json:"urgency,omitempty"`
	TargetDate        *time.Time       `json:"target_date,omitempty"`
	Tags              []string         `json:"tags"`
	Notes             string           `json:"notes"`
	Status            DecisionStatus   `json:"status"`
	ScoreVersion      int              `json:"score_version"`
	CreatedAt         time.Time        `json:"created_at"`
}

// ResponsibleMember returns the member whose allowance a discretionary
// approval consumes: the owner when one is set, otherwise the creator.
func (d *Decision) ResponsibleMember() uuid.UUID {
	if d.OwnerMemberID != nil {
		return *d.OwnerMemberID
	}

	return d.CreatedByMemberID
}

// QueueItem holds a queued decision waiting for manual review, ranked in
// arrival order.
type QueueItem struct {
	ID         uuid.UUID  `json:"id"`
	DecisionID uuid.UUID  `json:"decision_id"`
	Priority   int        `json:"priority"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	Rank       int        `json:"rank"`
}
