package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionRepository persists decisions, score summaries, and the review
// queue in postgres. Score summaries are append-only; the primary key on
// (decision_id, version) rejects duplicate versions.
type DecisionRepository struct {
	conn *Connection
}

// NewDecisionRepository creates a postgres decision repository.
func NewDecisionRepository(conn *Connection) *DecisionRepository {
	return &DecisionRepository{conn: conn}
}

func (r *DecisionRepository) db() (dbresolver.DB, error) {
	return r.conn.DB()
}

func (r *DecisionRepository) CreateDecision(ctx context.Context, decision *model.Decision) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	tags, err := json.Marshal(decision.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO decisions (id, household_id, created_by_member_id, owner_member_id,
		     title, description, cost, urgency, target_date, tags, notes, status,
		     score_version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		decision.ID, decision.HouseholdID, decision.CreatedByMemberID, decision.OwnerMemberID,
		decision.Title, decision.Description, decision.Cost, decision.Urgency,
		decision.TargetDate, tags, decision.Notes, decision.Status,
		decision.ScoreVersion, decision.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}

	return nil
}

func (r *DecisionRepository) GetDecision(ctx context.Context, id uuid.UUID) (*model.Decision, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT id, household_id, created_by_member_id, owner_member_id, title,
		    description, cost, urgency, target_date, tags, notes, status,
		    score_version, created_at
		 FROM decisions WHERE id = $1`, id)

	decision, err := scanDecision(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	return decision, err
}

func (r *DecisionRepository) UpdateDecision(ctx context.Context, decision *model.Decision) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	tags, err := json.Marshal(decision.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE decisions SET owner_member_id = $2, title = $3, description = $4,
		    cost = $5, urgency = $6, target_date = $7, tags = $8, notes = $9,
		    status = $10, score_version = $11
		 WHERE id = $1`,
		decision.ID, decision.OwnerMemberID, decision.Title, decision.Description,
		decision.Cost, decision.Urgency, decision.TargetDate, tags, decision.Notes,
		decision.Status, decision.ScoreVersion)
	if err != nil {
		return fmt.Errorf("update decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update decision: %w", err)
	}

	if affected == 0 {
		return constant.ErrNotFound
	}

	return nil
}

func (r *DecisionRepository) ListDecisions(ctx context.Context, householdID *uuid.UUID) ([]model.Decision, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, household_id, created_by_member_id, owner_member_id, title,
	    description, cost, urgency, target_date, tags, notes, status,
	    score_version, created_at
	 FROM decisions`

	var args []any

	if householdID != nil {
		query += ` WHERE household_id = $1`
		args = append(args, *householdID)
	}

	query += ` ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select decisions: %w", err)
	}
	defer rows.Close()

	var decisions []model.Decision

	for rows.Next() {
		decision, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, err
		}

		decisions = append(decisions, *decision)
	}

	return decisions, rows.Err()
}

func (r *DecisionRepository) AppendScoreSummary(ctx context.Context, summary *model.ScoreSummary) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	goalScores, err := json.Marshal(summary.GoalScores)
	if err != nil {
		return fmt.Errorf("marshal goal scores: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO score_summaries (decision_id, version, goal_scores,
		     weighted_total, normalized_pct, threshold, route, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		summary.DecisionID, summary.Version, goalScores,
		summary.WeightedTotal, summary.NormalizedPct, summary.Threshold,
		summary.Route, summary.ComputedAt)
	if err != nil {
		return fmt.Errorf("insert score summary: %w", err)
	}

	return nil
}

func (r *DecisionRepository) GetScoreSummary(ctx context.Context, decisionID uuid.UUID, version int) (*model.ScoreSummary, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	var (
		summary    model.ScoreSummary
		goalScores []byte
	)

	err = db.QueryRowContext(ctx,
		`SELECT decision_id, version, goal_scores, weighted_total, normalized_pct,
		    threshold, route, computed_at
		 FROM score_summaries WHERE decision_id = $1 AND version = $2`,
		decisionID, version).
		Scan(&summary.DecisionID, &summary.Version, &goalScores,
			&summary.WeightedTotal, &summary.NormalizedPct, &summary.Threshold,
			&summary.Route, &summary.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("select score summary: %w", err)
	}

	if err := json.Unmarshal(goalScores, &summary.GoalScores); err != nil {
		return nil, fmt.Errorf("unmarshal goal scores: %w", err)
	}

	return &summary, nil
}

func (r *DecisionRepository) UpsertQueueItem(ctx context.Context, decisionID uuid.UUID, priority int, dueDate *time.Time) (*model.QueueItem, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	item := model.QueueItem{DecisionID: decisionID, Priority: priority, DueDate: dueDate}

	// New items take the next rank; re-queueing keeps the original rank.
	err = db.QueryRowContext(ctx,
		`INSERT INTO queue_items (id, decision_id, priority, due_date, rank)
		 VALUES ($1, $2, $3, $4,
		     (SELECT COALESCE(MAX(rank), 0) + 1 FROM queue_items))
		 ON CONFLICT (decision_id) DO UPDATE
		     SET priority = EXCLUDED.priority, due_date = EXCLUDED.due_date
		 RETURNING id, rank`,
		uuid.New(), decisionID, priority, dueDate).
		Scan(&item.ID, &item.Rank)
	if err != nil {
		return nil, fmt.Errorf("upsert queue item: %w", err)
	}

	return &item, nil
}

// scanDecision scans one decision row through either row.Scan or rows.Scan.
func scanDecision(scan func(...any) error) (*model.Decision, error) {
	var (
		decision model.Decision
		owner    uuid.NullUUID
		cost     decimal.NullDecimal
		urgency  sql.NullInt64
		target   sql.NullTime
		tags     []byte
	)

	err := scan(&decision.ID, &decision.HouseholdID, &decision.CreatedByMemberID,
		&owner, &decision.Title, &decision.Description, &cost, &urgency,
		&target, &tags, &decision.Notes, &decision.Status,
		&decision.ScoreVersion, &decision.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan decision: %w", err)
	}

	if owner.Valid {
		decision.OwnerMemberID = &owner.UUID
	}

	if cost.Valid {
		decision.Cost = &cost.Decimal
	}

	if urgency.Valid {
		value := int(urgency.Int64)
		decision.Urgency = &value
	}

	if target.Valid {
		decision.TargetDate = &target.Time
	}

	if err := json.Unmarshal(tags, &decision.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}

	return &decision, nil
}
