package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/simaogato/partio-backend/internal/domain"
)

// expenseRepository implements domain.ExpenseRepository
type expenseRepository struct {
	store *Store
}

// NewExpenseRepository creates a new expense repository over store
func NewExpenseRepository(store *Store) domain.ExpenseRepository {
	return &expenseRepository{store: store}
}

func (r *expenseRepository) Create(_ context.Context, expense *domain.Expense) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[expense.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", expense.GroupID, domain.ErrNotFound)
	}
	if _, ok := r.store.expenses[expense.ID]; ok {
		return fmt.Errorf("expense %s: %w", expense.ID, domain.ErrConflict)
	}

	r.store.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (r *expenseRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Expense, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.expenses[id]
	if !ok || e.Status != domain.ExpenseStatusActive {
		return nil, fmt.Errorf("expense %s: %w", id, domain.ErrNotFound)
	}
	return cloneExpense(e), nil
}

func (r *expenseRepository) Update(_ context.Context, expense *domain.Expense) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.expenses[expense.ID]
	if !ok || e.Status != domain.ExpenseStatusActive {
		return fmt.Errorf("expense %s: %w", expense.ID, domain.ErrNotFound)
	}

	r.store.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (r *expenseRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.expenses[id]
	if !ok || e.Status != domain.ExpenseStatusActive {
		return fmt.Errorf("expense %s: %w", id, domain.ErrNotFound)
	}

	e.Status = domain.ExpenseStatusDeleted
	return nil
}

func (r *expenseRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*domain.Expense, error) {
	all, err := r.ListActiveByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Date.Equal(all[j].Date) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Date.After(all[j].Date)
	})

	if offset >= len(all) {
		return []*domain.Expense{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *expenseRepository) CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	all, err := r.ListActiveByGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// ListActiveByGroup returns the active expenses in creation order
func (r *expenseRepository) ListActiveByGroup(_ context.Context, groupID uuid.UUID) ([]*domain.Expense, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.Expense
	for _, e := range r.store.expenses {
		if e.GroupID == groupID && e.Status == domain.ExpenseStatusActive {
			out = append(out, cloneExpense(e))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
