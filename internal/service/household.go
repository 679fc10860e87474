package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
)

// HouseholdService manages households and their members.
type HouseholdService struct {
	households HouseholdRepository
}

// NewHouseholdService wires a household service.
func NewHouseholdService(households HouseholdRepository) *HouseholdService {
	return &HouseholdService{households: households}
}

// Create registers a new household.
func (s *HouseholdService) Create(ctx context.Context, name string) (*model.Household, error) {
	household := &model.Household{
		ID:   uuid.New(),
		Name: strings.TrimSpace(name),
	}

	if err := s.households.CreateHousehold(ctx, household); err != nil {
		return nil, fmt.Errorf("create household: %w", err)
	}

	return household, nil
}

// Get returns one household.
func (s *HouseholdService) Get(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	household, err := s.households.GetHousehold(ctx, id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "household")
	}

	return household, nil
}

// List returns all households.
func (s *HouseholdService) List(ctx context.Context) ([]model.Household, error) {
	households, err := s.households.ListHouseholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}

	return households, nil
}

// AddMember registers a member in a household. New members pick up the
// default allowance on their first ledger touch in the current period.
func (s *HouseholdService) AddMember(ctx context.Context, householdID uuid.UUID, email, displayName string, role model.Role) (*model.Member, error) {
	if _, err := s.households.GetHousehold(ctx, householdID); err != nil {
		return nil, apperr.ValidateBusinessError(err, "household")
	}

	if !role.Valid() {
		role = model.RoleViewer
	}

	member := &model.Member{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
		Role:        role,
	}

	if err := s.households.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	return member, nil
}

// Members returns a household's members.
func (s *HouseholdService) Members(ctx context.Context, householdID uuid.UUID) ([]model.Member, error) {
	if _, err := s.households.GetHousehold(ctx, householdID); err != nil {
		return nil, apperr.ValidateBusinessError(err, "household")
	}

	members, err := s.households.ListMembers(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}
