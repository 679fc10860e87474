package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Goal is a weighted household priority used as a scoring dimension.
// Weight is a positive real number and is NOT normalized to sum to 1 across
// the household; normalization happens at scoring time.
type Goal struct {
	ID          uuid.UUID       `json:"id"`
	HouseholdID uuid.UUID       `json:"household_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Weight      decimal.Decimal `json:"weight"`
	ActionTypes []string        `json:"action_types"`
	Active      bool            `json:"active"`
}
