// Package memory provides in-process implementations of the domain
// repositories. Data lives for the lifetime of the process.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/simaogato/partio-backend/internal/domain"
)

// Store is the shared state behind the memory repositories
type Store struct {
	mu       sync.RWMutex
	groups   map[uuid.UUID]domain.Group
	members  map[uuid.UUID][]domain.GroupMember
	expenses map[uuid.UUID]*domain.Expense
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		groups:   make(map[uuid.UUID]domain.Group),
		members:  make(map[uuid.UUID][]domain.GroupMember),
		expenses: make(map[uuid.UUID]*domain.Expense),
	}
}

func cloneExpense(e *domain.Expense) *domain.Expense {
	out := *e
	out.Splits = make([]domain.ExpenseSplit, len(e.Splits))
	copy(out.Splits, e.Splits)
	for i, split := range out.Splits {
		if split.Percentage != nil {
			pct := *split.Percentage
			out.Splits[i].Percentage = &pct
		}
	}
	return &out
}
