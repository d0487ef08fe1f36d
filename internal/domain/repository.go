package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GroupRepository defines the interface for group and membership persistence operations
type GroupRepository interface {
	// Create creates a new group
	Create(ctx context.Context, group *Group) error

	// GetByID retrieves a group by its ID
	// Returns an error wrapping ErrNotFound if the group does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)

	// ListByMember retrieves the groups a user is an active member of, newest first
	ListByMember(ctx context.Context, userID string) ([]Group, error)

	// Delete removes a group together with its memberships and expenses
	Delete(ctx context.Context, id uuid.UUID) error

	// AddMember adds a user to a group
	AddMember(ctx context.Context, member *GroupMember) error

	// ListMembers retrieves the active members of a group in join order
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]GroupMember, error)

	// IsMember reports whether the user is an active member of the group
	IsMember(ctx context.Context, groupID uuid.UUID, userID string) (bool, error)
}

// ExpenseRepository defines the interface for expense persistence operations.
// Implementations store an expense and its split set atomically.
type ExpenseRepository interface {
	// Create creates a new expense with all its splits
	Create(ctx context.Context, expense *Expense) error

	// GetByID retrieves an active expense with its splits
	// Returns an error wrapping ErrNotFound if the expense does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// Update replaces the expense fields and its whole split set
	Update(ctx context.Context, expense *Expense) error

	// Delete soft-deletes an expense
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByGroup retrieves a paginated list of active expenses, newest first
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Expense, error)

	// CountByGroup returns the number of active expenses in a group
	CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error)

	// ListActiveByGroup retrieves every active expense of a group with its splits
	ListActiveByGroup(ctx context.Context, groupID uuid.UUID) ([]*Expense, error)
}

// Cache is the injected caching capability used for derived group data.
// Implementations must treat misses as (false, nil).
type Cache interface {
	// Get decodes the cached value for key into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// InvalidatePrefix removes every key starting with prefix
	InvalidatePrefix(ctx context.Context, prefix string) error
}
