package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/google/uuid"
)

type summaryKey struct {
	decisionID uuid.UUID
	version    int
}

// DecisionRepository is an in-memory decision, score-summary, and queue
// store.
type DecisionRepository struct {
	mu        sync.RWMutex
	decisions map[uuid.UUID]model.Decision
	summaries map[summaryKey]model.ScoreSummary
	queue     map[uuid.UUID]model.QueueItem // keyed by decision id
	nextRank  int
}

// NewDecisionRepository creates an empty in-memory decision store.
func NewDecisionRepository() *DecisionRepository {
	return &DecisionRepository{
		decisions: make(map[uuid.UUID]model.Decision),
		summaries: make(map[summaryKey]model.ScoreSummary),
		queue:     make(map[uuid.UUID]model.QueueItem),
		nextRank:  1,
	}
}

func (r *DecisionRepository) CreateDecision(_ context.Context, decision *model.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.decisions[decision.ID] = *decision

	return nil
}

func (r *DecisionRepository) GetDecision(_ context.Context, id uuid.UUID) (*model.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decision, ok := r.decisions[id]
	if !ok {
		return nil, constant.ErrNotFound
	}

	return &decision, nil
}

func (r *DecisionRepository) UpdateDecision(_ context.Context, decision *model.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.decisions[decision.ID]; !ok {
		return constant.ErrNotFound
	}

	r.decisions[decision.ID] = *decision

	return nil
}

func (r *DecisionRepository) ListDecisions(_ context.Context, householdID *uuid.UUID) ([]model.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var decisions []model.Decision

	for _, decision := range r.decisions {
		if householdID != nil && decision.HouseholdID != *householdID {
			continue
		}

		decisions = append(decisions, decision)
	}

	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].CreatedAt.Before(decisions[j].CreatedAt)
	})

	return decisions, nil
}

func (r *DecisionRepository) AppendScoreSummary(_ context.Context, summary *model.ScoreSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := summaryKey{decisionID: summary.DecisionID, version: summary.Version}
	if _, ok := r.summaries[key]; ok {
		return constant.ErrRetryable
	}

	r.summaries[key] = *summary

	return nil
}

func (r *DecisionRepository) GetScoreSummary(_ context.Context, decisionID uuid.UUID, version int) (*model.ScoreSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary, ok := r.summaries[summaryKey{decisionID: decisionID, version: version}]
	if !ok {
		return nil, constant.ErrNotFound
	}

	return &summary, nil
}

func (r *DecisionRepository) UpsertQueueItem(_ context.Context, decisionID uuid.UUID, priority int, dueDate *time.Time) (*model.QueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.queue[decisionID]; ok {
		item.Priority = priority
		item.DueDate = dueDate
		r.queue[decisionID] = item

		return &item, nil
	}

	item := model.QueueItem{
		ID:         uuid.New(),
		DecisionID: decisionID,
		Priority:   priority,
		DueDate:    dueDate,
		Rank:       r.nextRank,
	}
	r.nextRank++
	r.queue[decisionID] = item

	return &item, nil
}
