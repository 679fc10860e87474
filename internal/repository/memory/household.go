// Package memory provides in-memory repository implementations backing unit
// tests and dependency-free local runs. All stores copy on read and write
// and are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
)

// HouseholdRepository is an in-memory household and member store.
type HouseholdRepository struct {
	mu         sync.RWMutex
	households map[uuid.UUID]model.Household
	members    map[uuid.UUID]model.Member
}

// NewHouseholdRepository creates an empty in-memory household store.
func NewHouseholdRepository() *HouseholdRepository {
	return &HouseholdRepository{
		households: make(map[uuid.UUID]model.Household),
		members:    make(map[uuid.UUID]model.Member),
	}
}

func (r *HouseholdRepository) CreateHousehold(_ context.Context, household *model.Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.households[household.ID] = *household

	return nil
}

func (r *HouseholdRepository) GetHousehold(_ context.Context, id uuid.UUID) (*model.Household, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	household, ok := r.households[id]
	if !ok {
		return nil, constant.ErrNotFound
	}

	return &household, nil
}

func (r *HouseholdRepository) ListHouseholds(_ context.Context) ([]model.Household, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	households := make([]model.Household, 0, len(r.households))
	for _, household := range r.households {
		households = append(households, household)
	}

	sort.Slice(households, func(i, j int) bool {
		return households[i].CreatedAt.Before(households[j].CreatedAt)
	})

	return households, nil
}

func (r *HouseholdRepository) AddMember(_ context.Context, member *model.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.households[member.HouseholdID]; !ok {
		return constant.ErrNotFound
	}

	r.members[member.ID] = *member

	return nil
}

func (r *HouseholdRepository) GetMember(_ context.Context, id uuid.UUID) (*model.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.members[id]
	if !ok {
		return nil, constant.ErrNotFound
	}

	return &member, nil
}

func (r *HouseholdRepository) ListMembers(_ context.Context, householdID uuid.UUID) ([]model.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []model.Member

	for _, member := range r.members {
		if member.HouseholdID == householdID {
			members = append(members, member)
		}
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].DisplayName < members[j].DisplayName
	})

	return members, nil
}
