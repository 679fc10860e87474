package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/Grindin247/decision-system/pkg/model"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
)

// BudgetRepository persists policies, periods, overrides, and the ledger in
// postgres. Ledger rows are insert-only.
type BudgetRepository struct {
	conn *Connection
}

// NewBudgetRepository creates a postgres budget repository.
func NewBudgetRepository(conn *Connection) *BudgetRepository {
	return &BudgetRepository{conn: conn}
}

func (r *BudgetRepository) db() (dbresolver.DB, error) {
	return r.conn.DB()
}

// querier is satisfied by the resolver and by dbresolver.Tx, so every
// method can run either standalone or inside an InTransaction unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type budgetTxKey struct{}

func txFromContext(ctx context.Context) (dbresolver.Tx, bool) {
	tx, ok := ctx.Value(budgetTxKey{}).(dbresolver.Tx)
	return tx, ok
}

// q returns the transaction carried by ctx when present, else the resolver.
// Statements issued through a transaction always hit the primary, which
// keeps ledger reads inside InTransaction off the replicas.
func (r *BudgetRepository) q(ctx context.Context) (querier, error) {
	if tx, ok := txFromContext(ctx); ok {
		return tx, nil
	}

	return r.db()
}

// InTransaction opens a primary-side transaction, takes a row lock on the
// household, and runs fn with the transaction carried in ctx. The lock
// serializes concurrent ledger writers for the household across instances;
// the replica-routed read path never sees uncommitted ledger state.
func (r *BudgetRepository) InTransaction(ctx context.Context, householdID uuid.UUID, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	db, err := r.db()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM households WHERE id = $1 FOR UPDATE`, householdID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return constant.ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("lock household: %w", err)
	}

	if err := fn(context.WithValue(ctx, budgetTxKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BudgetRepository) GetPolicy(ctx context.Context, householdID uuid.UUID) (*model.BudgetPolicy, error) {
	db, err := r.q(ctx)
	if err != nil {
		return nil, err
	}

	var policy model.BudgetPolicy

	err = db.QueryRowContext(ctx,
		`SELECT household_id, threshold, period_days, default_allowance
		 FROM budget_policies WHERE household_id = $1`, householdID).
		Scan(&policy.HouseholdID, &policy.Threshold, &policy.PeriodDays, &policy.DefaultAllowance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("select budget policy: %w", err)
	}

	return &policy, nil
}

func (r *BudgetRepository) SavePolicy(ctx context.Context, policy *model.BudgetPolicy) error {
	db, err := r.q(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO budget_policies (household_id, threshold, period_days, default_allowance)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (household_id) DO UPDATE
		     SET threshold = EXCLUDED.threshold,
		         period_days = EXCLUDED.period_days,
		         default_allowance = EXCLUDED.default_allowance`,
		policy.HouseholdID, policy.Threshold, policy.PeriodDays, policy.DefaultAllowance)
	if err != nil {
		return fmt.Errorf("upsert budget policy: %w", err)
	}

	return nil
}

func (r *BudgetRepository) GetOverrides(ctx context.Context, householdID uuid.UUID) (map[uuid.UUID]int, error) {
	db, err := r.q(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT member_id, allowance FROM allowance_overrides WHERE household_id = $1`,
		householdID)
	if err != nil {
		return nil, fmt.Errorf("select allowance overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[uuid.UUID]int)

	for rows.Next() {
		var (
			memberID  uuid.UUID
			allowance int
		)

		if err := rows.Scan(&memberID, &allowance); err != nil {
			return nil, fmt.Errorf("scan allowance override: %w", err)
		}

		overrides[memberID] = allowance
	}

	return overrides, rows.Err()
}

func (r *BudgetRepository) ReplaceOverrides(ctx context.Context, householdID uuid.UUID, overrides map[uuid.UUID]int) error {
	if tx, ok := txFromContext(ctx); ok {
		return replaceOverrides(ctx, tx, householdID, overrides)
	}

	db, err := r.db()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := replaceOverrides(ctx, tx, householdID, overrides); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceOverrides(ctx context.Context, tx dbresolver.Tx, householdID uuid.UUID, overrides map[uuid.UUID]int) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM allowance_overrides WHERE household_id = $1`, householdID); err != nil {
		return fmt.Errorf("delete allowance overrides: %w", err)
	}

	for memberID, allowance := range overrides {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO allowance_overrides (household_id, member_id, allowance)
			 VALUES ($1, $2, $3)`, householdID, memberID, allowance); err != nil {
			return fmt.Errorf("insert allowance override: %w", err)
		}
	}

	return nil
}

func (r *BudgetRepository) ActivePeriod(ctx context.Context, householdID uuid.UUID, at time.Time) (*model.BudgetPeriod, error) {
	db, err := r.q(ctx)
	if err != nil {
		return nil, err
	}

	var period model.BudgetPeriod

	err = db.QueryRowContext(ctx,
		`SELECT id, household_id, start_date, end_date
		 FROM budget_periods
		 WHERE household_id = $1 AND start_date <= $2 AND end_date > $2
		 ORDER BY start_date DESC LIMIT 1`, householdID, at).
		Scan(&period.ID, &period.HouseholdID, &period.Start, &period.End)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("select active period: %w", err)
	}

	return &period, nil
}

func (r *BudgetRepository) SavePeriod(ctx context.Context, period *model.BudgetPeriod) error {
	db, err := r.q(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO budget_periods (id, household_id, start_date, end_date)
		 VALUES ($1, $2, $3, $4)`,
		period.ID, period.HouseholdID, period.Start, period.End)
	if err != nil {
		return fmt.Errorf("insert budget period: %w", err)
	}

	return nil
}

func (r *BudgetRepository) ClosePeriod(ctx context.Context, periodID uuid.UUID, end time.Time) error {
	db, err := r.q(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE budget_periods SET end_date = $2 WHERE id = $1`, periodID, end)
	if err != nil {
		return fmt.Errorf("close budget period: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close budget period: %w", err)
	}

	if affected == 0 {
		return constant.ErrNotFound
	}

	return nil
}

func (r *BudgetRepository) AppendEntry(ctx context.Context, entry *model.LedgerEntry) error {
	db, err := r.q(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, member_id, period_id, delta, reason, decision_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.MemberID, entry.PeriodID, entry.Delta, entry.Reason,
		entry.DecisionID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	return nil
}

func (r *BudgetRepository) ListEntries(ctx context.Context, periodID, memberID uuid.UUID) ([]model.LedgerEntry, error) {
	db, err := r.q(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, member_id, period_id, delta, reason, decision_id, created_at
		 FROM ledger_entries
		 WHERE period_id = $1 AND member_id = $2 ORDER BY created_at`,
		periodID, memberID)
	if err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *BudgetRepository) ListEntriesForDecision(ctx context.Context, decisionID uuid.UUID) ([]model.LedgerEntry, error) {
	db, err := r.q(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, member_id, period_id, delta, reason, decision_id, created_at
		 FROM ledger_entries WHERE decision_id = $1 ORDER BY created_at`,
		decisionID)
	if err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry

	for rows.Next() {
		var (
			entry      model.LedgerEntry
			decisionID uuid.NullUUID
		)

		if err := rows.Scan(&entry.ID, &entry.MemberID, &entry.PeriodID, &entry.Delta,
			&entry.Reason, &decisionID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}

		if decisionID.Valid {
			entry.DecisionID = &decisionID.UUID
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
