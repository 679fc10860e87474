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

// RoadmapRepository persists roadmap items in postgres.
type RoadmapRepository struct {
	conn *Connection
}

// NewRoadmapRepository creates a postgres roadmap repository.
func NewRoadmapRepository(conn *Connection) *RoadmapRepository {
	return &RoadmapRepository{conn: conn}
}

func (r *RoadmapRepository) db() (dbresolver.DB, error) {
	return r.conn.DB()
}

func (r *RoadmapRepository) CreateItem(ctx context.Context, item *model.RoadmapItem) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	dependencies, err := json.Marshal(item.Dependencies)
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO roadmap_items (id, household_id, decision_id, bucket, start_date,
		     end_date, status, dependencies, used_budget)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.HouseholdID, item.DecisionID, item.Bucket, item.StartDate,
		item.EndDate, item.Status, dependencies, item.UsedBudget)
	if err != nil {
		return fmt.Errorf("insert roadmap item: %w", err)
	}

	return nil
}

func (r *RoadmapRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.RoadmapItem, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT id, household_id, decision_id, bucket, start_date, end_date, status,
		    dependencies, used_budget
		 FROM roadmap_items WHERE id = $1`, id)

	item, err := scanRoadmapItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	return item, err
}

func (r *RoadmapRepository) UpdateItem(ctx context.Context, item *model.RoadmapItem) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	dependencies, err := json.Marshal(item.Dependencies)
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE roadmap_items SET bucket = $2, start_date = $3, end_date = $4,
		    status = $5, dependencies = $6
		 WHERE id = $1`,
		item.ID, item.Bucket, item.StartDate, item.EndDate, item.Status, dependencies)
	if err != nil {
		return fmt.Errorf("update roadmap item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update roadmap item: %w", err)
	}

	if affected == 0 {
		return constant.ErrNotFound
	}

	return nil
}

func (r *RoadmapRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM roadmap_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete roadmap item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete roadmap item: %w", err)
	}

	if affected == 0 {
		return constant.ErrNotFound
	}

	return nil
}

func (r *RoadmapRepository) ListItems(ctx context.Context, householdID *uuid.UUID) ([]model.RoadmapItem, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, household_id, decision_id, bucket, start_date, end_date, status,
	    dependencies, used_budget
	 FROM roadmap_items`

	var args []any

	if householdID != nil {
		query += ` WHERE household_id = $1`
		args = append(args, *householdID)
	}

	query += ` ORDER BY position`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select roadmap items: %w", err)
	}
	defer rows.Close()

	var items []model.RoadmapItem

	for rows.Next() {
		item, err := scanRoadmapItem(rows.Scan)
		if err != nil {
			return nil, err
		}

		items = append(items, *item)
	}

	return items, rows.Err()
}

func scanRoadmapItem(scan func(...any) error) (*model.RoadmapItem, error) {
	var (
		item         model.RoadmapItem
		start, end   sql.NullTime
		dependencies []byte
	)

	err := scan(&item.ID, &item.HouseholdID, &item.DecisionID, &item.Bucket,
		&start, &end, &item.Status, &dependencies, &item.UsedBudget)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan roadmap item: %w", err)
	}

	if start.Valid {
		item.StartDate = &start.Time
	}

	if end.Valid {
		item.EndDate = &end.Time
	}

	if err := json.Unmarshal(dependencies, &item.Dependencies); err != nil {
		return nil, fmt.Errorf("unmarshal dependencies: %w", err)
	}

	return &item, nil
}
