package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemberRole represents the role of a member within a group
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// MemberStatus represents whether a membership is still in effect
type MemberStatus string

const (
	MemberStatusActive MemberStatus = "ACTIVE"
	MemberStatusLeft   MemberStatus = "LEFT"
)

// Group represents a set of users sharing expenses in a single currency
type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate ensures the group adheres to domain rules
func (g *Group) Validate() error {
	if len(strings.TrimSpace(g.Name)) < 2 {
		return NewValidationError("group name must have at least 2 characters")
	}

	if g.OwnerID == "" {
		return NewValidationError("group must have an owner")
	}

	if g.Currency == "" {
		return NewValidationError("group currency cannot be empty")
	}

	return nil
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	GroupID  uuid.UUID    `json:"groupId"`
	UserID   string       `json:"userId"`
	Name     string       `json:"name"`
	Email    string       `json:"email,omitempty"`
	Role     MemberRole   `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// GroupBalance is a member's net position in a group: paid minus owed.
// Positive means the member is owed money, negative means they owe.
// Derived on demand, never the source of truth.
type GroupBalance struct {
	UserID   string          `json:"userId"`
	UserName string          `json:"userName"`
	Balance  decimal.Decimal `json:"balance"`
}

// SettlementSuggestion is a proposed payer -> receiver transfer derived
// from a balance snapshot. It is never persisted as ledger truth.
type SettlementSuggestion struct {
	PayerID    string          `json:"payerId"`
	ReceiverID string          `json:"receiverId"`
	Amount     decimal.Decimal `json:"amount"`
}
