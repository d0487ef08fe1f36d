package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CacheTTL holds the expiry of each cached key family
type CacheTTL struct {
	Balances    time.Duration
	Settlements time.Duration
	Expenses    time.Duration
	Groups      time.Duration
}

// DefaultCacheTTL is used when no TTLs are configured
var DefaultCacheTTL = CacheTTL{
	Balances:    2 * time.Minute,
	Settlements: time.Minute,
	Expenses:    2 * time.Minute,
	Groups:      5 * time.Minute,
}

// GroupCachePrefix covers every derived value cached for a group
func GroupCachePrefix(groupID uuid.UUID) string {
	return fmt.Sprintf("group:%s:", groupID)
}

// GroupBalancesKey is the cache key of a group's balance snapshot
func GroupBalancesKey(groupID uuid.UUID) string {
	return GroupCachePrefix(groupID) + "balances"
}

// GroupSettlementsKey is the cache key of a group's settlement suggestions
func GroupSettlementsKey(groupID uuid.UUID) string {
	return GroupCachePrefix(groupID) + "settlements"
}

// GroupExpensesPrefix covers every cached expense page of a group
func GroupExpensesPrefix(groupID uuid.UUID) string {
	return fmt.Sprintf("expenses:group:%s:", groupID)
}

// GroupExpensesPageKey is the cache key of one expense page
func GroupExpensesPageKey(groupID uuid.UUID, page, limit int) string {
	return fmt.Sprintf("%spage:%d:limit:%d", GroupExpensesPrefix(groupID), page, limit)
}

// UserGroupsKey is the cache key of a user's group list
func UserGroupsKey(userID string) string {
	return fmt.Sprintf("user:%s:groups", userID)
}
