package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
)

// RoadmapRepository is an in-memory roadmap item store.
type RoadmapRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]model.RoadmapItem
	order map[uuid.UUID]int
	seq   int
}

// NewRoadmapRepository creates an empty in-memory roadmap store.
func NewRoadmapRepository() *RoadmapRepository {
	return &RoadmapRepository{
		items: make(map[uuid.UUID]model.RoadmapItem),
		order: make(map[uuid.UUID]int),
	}
}

func (r *RoadmapRepository) CreateItem(_ context.Context, item *model.RoadmapItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = *item
	r.seq++
	r.order[item.ID] = r.seq

	return nil
}

func (r *RoadmapRepository) GetItem(_ context.Context, id uuid.UUID) (*model.RoadmapItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, constant.ErrNotFound
	}

	return &item, nil
}

func (r *RoadmapRepository) UpdateItem(_ context.Context, item *model.RoadmapItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return constant.ErrNotFound
	}

	r.items[item.ID] = *item

	return nil
}

func (r *RoadmapRepository) DeleteItem(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return constant.ErrNotFound
	}

	delete(r.items, id)
	delete(r.order, id)

	return nil
}

func (r *RoadmapRepository) ListItems(_ context.Context, householdID *uuid.UUID) ([]model.RoadmapItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []model.RoadmapItem

	for _, item := range r.items {
		if householdID != nil && item.HouseholdID != *householdID {
			continue
		}

		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return r.order[items[i].ID] < r.order[items[j].ID] })

	return items, nil
}
