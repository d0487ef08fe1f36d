package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

const expenseColumns = `
	id, group_id, title, description, category, amount, currency,
	creator_id, split_type, status, date, created_at, updated_at
`

// expenseRepository implements domain.ExpenseRepository
type expenseRepository struct {
	db *DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *DB) domain.ExpenseRepository {
	return &expenseRepository{db: db}
}

// Create creates a new expense with all its splits in a database transaction
func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	insertQuery := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = dbTx.ExecContext(ctx, insertQuery,
		expense.ID,
		expense.GroupID,
		expense.Title,
		expense.Description,
		expense.Category,
		expense.Amount.String(),
		expense.Currency,
		expense.CreatorID,
		string(expense.SplitType),
		string(expense.Status),
		expense.Date,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, dbTx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an active expense with its splits
func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND status = $2`

	expense, err := scanExpense(r.db.QueryRowContext(ctx, query, id, string(domain.ExpenseStatusActive)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("expense %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get expense by ID: %w", err)
	}

	if err := r.attachSplits(ctx, []*domain.Expense{expense}); err != nil {
		return nil, err
	}

	return expense, nil
}

// Update replaces the expense fields and its whole split set in a database transaction
func (r *expenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	updateQuery := `
		UPDATE expenses
		SET title = $2, description = $3, category = $4, amount = $5,
		    currency = $6, split_type = $7, date = $8, updated_at = $9
		WHERE id = $1 AND status = $10
	`

	res, err := dbTx.ExecContext(ctx, updateQuery,
		expense.ID,
		expense.Title,
		expense.Description,
		expense.Category,
		expense.Amount.String(),
		expense.Currency,
		string(expense.SplitType),
		expense.Date,
		expense.UpdatedAt,
		string(domain.ExpenseStatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, domain.ErrNotFound)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expense.ID); err != nil {
		return fmt.Errorf("failed to delete expense splits: %w", err)
	}

	if err := insertSplits(ctx, dbTx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete soft-deletes an expense
func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE expenses SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`

	res, err := r.db.ExecContext(ctx, query, id, string(domain.ExpenseStatusDeleted), string(domain.ExpenseStatusActive))
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByGroup retrieves a page of active expenses, newest first
func (r *expenseRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE group_id = $1 AND status = $2
		ORDER BY date DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`

	return r.queryExpenses(ctx, query, groupID, string(domain.ExpenseStatusActive), limit, offset)
}

// CountByGroup returns the number of active expenses in a group
func (r *expenseRepository) CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM expenses WHERE group_id = $1 AND status = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, groupID, string(domain.ExpenseStatusActive)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	return count, nil
}

// ListActiveByGroup retrieves every active expense of a group with its splits
func (r *expenseRepository) ListActiveByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE group_id = $1 AND status = $2
		ORDER BY created_at ASC
	`

	return r.queryExpenses(ctx, query, groupID, string(domain.ExpenseStatusActive))
}

func (r *expenseRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]*domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*domain.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	if err := r.attachSplits(ctx, expenses); err != nil {
		return nil, err
	}

	return expenses, nil
}

// attachSplits loads the split sets of all expenses in one query
func (r *expenseRepository) attachSplits(ctx context.Context, expenses []*domain.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Expense, len(expenses))
	ids := make([]string, 0, len(expenses))
	for _, e := range expenses {
		e.Splits = make([]domain.ExpenseSplit, 0)
		byID[e.ID] = e
		ids = append(ids, e.ID.String())
	}

	query := `
		SELECT expense_id, user_id, amount, split_type, percentage
		FROM expense_splits
		WHERE expense_id = ANY($1::uuid[])
		ORDER BY expense_id, position
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			expenseID     uuid.UUID
			split         domain.ExpenseSplit
			amountStr     string
			percentageStr sql.NullString
		)

		if err := rows.Scan(&expenseID, &split.UserID, &amountStr, &split.Type, &percentageStr); err != nil {
			return fmt.Errorf("failed to scan expense split: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("failed to parse split amount: %w", err)
		}
		split.Amount = amount

		if percentageStr.Valid {
			pct, err := decimal.NewFromString(percentageStr.String)
			if err != nil {
				return fmt.Errorf("failed to parse split percentage: %w", err)
			}
			split.Percentage = &pct
		}

		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating expense splits: %w", err)
	}

	return nil
}

func insertSplits(ctx context.Context, dbTx *sql.Tx, expenseID uuid.UUID, splits []domain.ExpenseSplit) error {
	insertQuery := `
		INSERT INTO expense_splits (expense_id, position, user_id, amount, split_type, percentage)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i, split := range splits {
		var percentage any
		if split.Percentage != nil {
			percentage = split.Percentage.String()
		}

		_, err := dbTx.ExecContext(ctx, insertQuery,
			expenseID,
			i,
			split.UserID,
			split.Amount.String(),
			string(split.Type),
			percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var (
		e         domain.Expense
		amountStr string
	)

	err := row.Scan(
		&e.ID,
		&e.GroupID,
		&e.Title,
		&e.Description,
		&e.Category,
		&amountStr,
		&e.Currency,
		&e.CreatorID,
		&e.SplitType,
		&e.Status,
		&e.Date,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expense amount: %w", err)
	}
	e.Amount = amount

	return &e, nil
}
