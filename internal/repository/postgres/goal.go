package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
)

// GoalRepository persists goals in postgres.
type GoalRepository struct {
	conn *Connection
}

// NewGoalRepository creates a postgres goal repository.
func NewGoalRepository(conn *Connection) *GoalRepository {
	return &GoalRepository{conn: conn}
}

func (r *GoalRepository) db() (dbresolver.DB, error) {
	return r.conn.DB()
}

func (r *GoalRepository) CreateGoal(ctx context.Context, goal *model.Goal) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	actionTypes, err := json.Marshal(goal.ActionTypes)
	if err != nil {
		return fmt.Errorf("marshal action types: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO goals (id, household_id, name, description, weight, action_types, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		goal.ID, goal.HouseholdID, goal.Name, goal.Description, goal.Weight, actionTypes, goal.Active)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	return nil
}

func (r *GoalRepository) GetGoal(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	var (
		goal        model.Goal
		actionTypes []byte
	)

	err = db.QueryRowContext(ctx,
		`SELECT id, household_id, name, description, weight, action_types, active
		 FROM goals WHERE id = $1`, id).
		Scan(&goal.ID, &goal.HouseholdID, &goal.Name, &goal.Description,
			&goal.Weight, &actionTypes, &goal.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("select goal: %w", err)
	}

	if err := json.Unmarshal(actionTypes, &goal.ActionTypes); err != nil {
		return nil, fmt.Errorf("unmarshal action types: %w", err)
	}

	return &goal, nil
}

func (r *GoalRepository) UpdateGoal(ctx context.Context, goal *model.Goal) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	actionTypes, err := json.Marshal(goal.ActionTypes)
	if err != nil {
		return fmt.Errorf("marshal action types: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE goals SET name = $2, description = $3, weight = $4, action_types = $5, active = $6
		 WHERE id = $1`,
		goal.ID, goal.Name, goal.Description, goal.Weight, actionTypes, goal.Active)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	if affected == 0 {
		return constant.ErrNotFound
	}

	return nil
}

func (r *GoalRepository) ListGoals(ctx context.Context, householdID uuid.UUID, activeOnly bool) ([]model.Goal, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, household_id, name, description, weight, action_types, active
	 FROM goals WHERE household_id = $1`

	if activeOnly {
		query += ` AND active`
	}

	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("select goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal

	for rows.Next() {
		var (
			goal        model.Goal
			actionTypes []byte
		)

		if err := rows.Scan(&goal.ID, &goal.HouseholdID, &goal.Name, &goal.Description,
			&goal.Weight, &actionTypes, &goal.Active); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}

		if err := json.Unmarshal(actionTypes, &goal.ActionTypes); err != nil {
			return nil, fmt.Errorf("unmarshal action types: %w", err)
		}

		goals = append(goals, goal)
	}

	return goals, rows.Err()
}
