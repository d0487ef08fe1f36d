package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitType represents the division policy of an expense
type SplitType string

const (
	SplitTypeEqual      SplitType = "EQUAL"
	SplitTypeExact      SplitType = "EXACT"
	SplitTypePercentage SplitType = "PERCENTAGE"
)

// Valid reports whether t is one of the supported division policies
func (t SplitType) Valid() bool {
	switch t {
	case SplitTypeEqual, SplitTypeExact, SplitTypePercentage:
		return true
	default:
		return false
	}
}

// ExpenseStatus represents the lifecycle state of a stored expense
type ExpenseStatus string

const (
	ExpenseStatusActive  ExpenseStatus = "ACTIVE"
	ExpenseStatusDeleted ExpenseStatus = "DELETED"
)

// SplitTolerance is the slack allowed when reconciling a computed sum
// against an expected total
var SplitTolerance = decimal.RequireFromString("0.01")

// ExpenseMember is a participant of a split, identified by ID
type ExpenseMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ExpenseSplit is one member's allocated share of an expense.
// A split set is replaced as a whole on update, never mutated in place.
type ExpenseSplit struct {
	UserID     string           `json:"userId"`
	Amount     decimal.Decimal  `json:"amount"`
	Type       SplitType        `json:"type"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"` // Only for PERCENTAGE
}

// CustomSplit is the caller-supplied value for one member of an EXACT or
// PERCENTAGE split. Amount is read for EXACT, Percentage for PERCENTAGE.
type CustomSplit struct {
	UserID     string           `json:"userId"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

// Expense represents an expense paid up front by its creator and owed
// by the members of its split set
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	GroupID     uuid.UUID       `json:"groupId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CreatorID   string          `json:"creatorId"`
	SplitType   SplitType       `json:"splitType"`
	Splits      []ExpenseSplit  `json:"splits"`
	Status      ExpenseStatus   `json:"status"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate ensures the expense adheres to domain rules
// CRITICAL: the split amounts must reconcile with the total within SplitTolerance
func (e *Expense) Validate() error {
	if len(strings.TrimSpace(e.Title)) < 2 {
		return NewValidationError("expense title must have at least 2 characters")
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("expense amount must be positive")
	}

	if e.CreatorID == "" {
		return NewValidationError("expense must have a creator")
	}

	if len(e.Splits) == 0 {
		return NewValidationError("expense must have at least one participant")
	}

	total := decimal.Zero
	for _, split := range e.Splits {
		if split.UserID == "" {
			return NewValidationError("split must reference a user")
		}
		if split.Amount.IsNegative() {
			return NewValidationError("split amount cannot be negative for user %s", split.UserID)
		}
		total = total.Add(split.Amount)
	}

	if total.Sub(e.Amount).Abs().GreaterThan(SplitTolerance) {
		return NewValidationError("sum of splits (%s) does not match expense amount (%s)", total, e.Amount)
	}

	return nil
}

// SplitUserIDs returns the user IDs of the split set in order
func (e *Expense) SplitUserIDs() []string {
	ids := make([]string, 0, len(e.Splits))
	for _, split := range e.Splits {
		ids = append(ids, split.UserID)
	}
	return ids
}
