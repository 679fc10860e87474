package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
)

// HouseholdRepository persists households and members in postgres.
type HouseholdRepository struct {
	conn *Connection
}

// NewHouseholdRepository creates a postgres household repository.
func NewHouseholdRepository(conn *Connection) *HouseholdRepository {
	return &HouseholdRepository{conn: conn}
}

func (r *HouseholdRepository) db() (dbresolver.DB, error) {
	return r.conn.DB()
}

func (r *HouseholdRepository) CreateHousehold(ctx context.Context, household *model.Household) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO households (id, name, created_at) VALUES ($1, $2, $3)`,
		household.ID, household.Name, household.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert household: %w", err)
	}

	return nil
}

func (r *HouseholdRepository) GetHousehold(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	var household model.Household

	err = db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM households WHERE id = $1`, id).
		Scan(&household.ID, &household.Name, &household.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("select household: %w", err)
	}

	return &household, nil
}

func (r *HouseholdRepository) ListHouseholds(ctx context.Context) ([]model.Household, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at FROM households ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select households: %w", err)
	}
	defer rows.Close()

	var households []model.Household

	for rows.Next() {
		var household model.Household

		if err := rows.Scan(&household.ID, &household.Name, &household.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}

		households = append(households, household)
	}

	return households, rows.Err()
}

func (r *HouseholdRepository) AddMember(ctx context.Context, member *model.Member) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO members (id, household_id, email, display_name, role)
		 VALUES ($1, $2, $3, $4, $5)`,
		member.ID, member.HouseholdID, member.Email, member.DisplayName, member.Role)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}

	return nil
}

func (r *HouseholdRepository) GetMember(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	var member model.Member

	err = db.QueryRowContext(ctx,
		`SELECT id, household_id, email, display_name, role FROM members WHERE id = $1`, id).
		Scan(&member.ID, &member.HouseholdID, &member.Email, &member.DisplayName, &member.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("select member: %w", err)
	}

	return &member, nil
}

func (r *HouseholdRepository) ListMembers(ctx context.Context, householdID uuid.UUID) ([]model.Member, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, household_id, email, display_name, role
		 FROM members WHERE household_id = $1 ORDER BY display_name`, householdID)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()

	var members []model.Member

	for rows.Next() {
		var member model.Member

		if err := rows.Scan(&member.ID, &member.HouseholdID, &member.Email, &member.DisplayName, &member.Role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}

		members = append(members, member)
	}

	return members, rows.Err()
}
