package model

import (
	"time"

	"github.com/google/uuid"
)

// RoadmapStatus is the execution state of a roadmap item.
type RoadmapStatus string

// Roadmap item states.
const (
	RoadmapScheduled  RoadmapStatus = "Scheduled"
	RoadmapInProgress RoadmapStatus = "In-Progress"
	RoadmapDone       RoadmapStatus = "Done"
)

// Valid reports whether the status is one of the known roadmap states.
func (s RoadmapStatus) Valid() bool {
	switch s {
	case RoadmapScheduled, RoadmapInProgress, RoadmapDone:
		return true
	}

	return false
}

// RoadmapItem schedules an approved decision on the household timeline.
// Both dates are optional; an item with neither is unscheduled.
type RoadmapItem struct {
	ID           uuid.UUID     `json:"id"`
	HouseholdID  uuid.UUID     `json:"household_id"`
	DecisionID   uuid.UUID     `json:"decision_id"`
	Bucket       string        `json:"bucket"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	Status       RoadmapStatus `json:"status"`
	Dependencies []uuid.UUID   `json:"dependencies"`
	UsedBudget   bool          `json:"uses_discretionary_budget"`
}
