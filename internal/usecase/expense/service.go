package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
	"github.com/simaogato/partio-backend/internal/usecase/cachestore"
	"github.com/simaogato/partio-backend/internal/usecase/splitter"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CreateExpenseInput represents the input for logging a shared expense
type CreateExpenseInput struct {
	GroupID        uuid.UUID
	ActorID        string // Becomes the creator, who paid the full amount
	Title          string
	Description    string
	Category       string
	Amount         decimal.Decimal
	Currency       string           // Optional: defaults to the group currency
	Date           *time.Time       // Optional: defaults to now
	SplitType      domain.SplitType // Optional: defaults to EQUAL
	ParticipantIDs []string         // Optional: defaults to every active member
	CustomSplits   []domain.CustomSplit
}

// UpdateExpenseInput replaces an expense. Zero-valued fields keep the
// stored value. The split set is always recomputed as a whole.
type UpdateExpenseInput struct {
	ExpenseID      uuid.UUID
	ActorID        string
	Title          string
	Description    *string
	Category       *string
	Amount         decimal.Decimal
	Date           *time.Time
	SplitType      domain.SplitType
	ParticipantIDs []string // Optional: defaults to the current split users
	CustomSplits   []domain.CustomSplit
}

// Page is one page of a group's expenses, newest first
type Page struct {
	Expenses   []*domain.Expense `json:"expenses"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// ExpenseService handles expense lifecycle operations
type ExpenseService struct {
	GroupRepo   domain.GroupRepository
	ExpenseRepo domain.ExpenseRepository
	Cache       *cachestore.Store
	TTL         domain.CacheTTL
	Logger      *zap.Logger
}

// NewExpenseService creates a new ExpenseService instance
func NewExpenseService(groupRepo domain.GroupRepository, expenseRepo domain.ExpenseRepository, cache domain.Cache, ttl domain.CacheTTL, logger *zap.Logger) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ExpenseService{
		GroupRepo:   groupRepo,
		ExpenseRepo: expenseRepo,
		Cache:       cachestore.New(cache, logger),
		TTL:         ttl,
		Logger:      logger,
	}
}

// CreateExpense logs an expense paid by the actor and splits it among participants.
// Logic:
//  1. Fetch the group and check the actor is a member
//  2. Resolve currency (one currency per group) and participants
//  3. Compute splits with the split calculator
//  4. Validate and save the expense with its splits
//  5. Invalidate the group's derived data
func (s *ExpenseService) CreateExpense(ctx context.Context, input CreateExpenseInput) (*domain.Expense, error) {
	group, err := s.GroupRepo.GetByID(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}

	members, err := s.activeMembers(ctx, group.ID, input.ActorID)
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(input.Title)) < 2 {
		return nil, domain.NewValidationError("expense title must have at least 2 characters")
	}

	currency, err := groupCurrency(group, input.Currency)
	if err != nil {
		return nil, err
	}

	amount, err := money.Round(input.Amount, money.Currency(currency))
	if err != nil {
		return nil, err
	}

	splitType := input.SplitType
	if splitType == "" {
		splitType = domain.SplitTypeEqual
	}

	participantIDs := input.ParticipantIDs
	if len(participantIDs) == 0 {
		participantIDs = memberIDs(members)
	}

	splits, err := computeSplits(amount, currency, splitType, participantIDs, input.CustomSplits, members)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := now
	if input.Date != nil {
		date = input.Date.UTC()
	}

	expense := &domain.Expense{
		ID:          uuid.New(),
		GroupID:     group.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Amount:      amount,
		Currency:    currency,
		CreatorID:   input.ActorID,
		SplitType:   splitType,
		Splits:      splits,
		Status:      domain.ExpenseStatusActive,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := expense.Validate(); err != nil {
		return nil, err
	}

	if err := s.ExpenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}

	s.invalidateGroup(ctx, group.ID)

	s.Logger.Info("expense created",
		zap.String("expense_id", expense.ID.String()),
		zap.String("group_id", group.ID.String()),
		zap.String("user_id", input.ActorID),
		zap.String("amount", expense.Amount.String()),
		zap.String("split_type", string(expense.SplitType)),
	)

	return expense, nil
}

// UpdateExpense replaces an expense. The split set is recomputed as a whole when the
// amount, type, participants or custom values change, and kept otherwise.
// Only the creator may update.
func (s *ExpenseService) UpdateExpense(ctx context.Context, input UpdateExpenseInput) (*domain.Expense, error) {
	existing, err := s.ExpenseRepo.GetByID(ctx, input.ExpenseID)
	if err != nil {
		return nil, err
	}

	if existing.CreatorID != input.ActorID {
		return nil, fmt.Errorf("only the creator can update expense %s: %w", existing.ID, domain.ErrForbidden)
	}

	group, err := s.GroupRepo.GetByID(ctx, existing.GroupID)
	if err != nil {
		return nil, err
	}

	members, err := s.activeMembers(ctx, group.ID, input.ActorID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if input.Title != "" {
		if len(strings.TrimSpace(input.Title)) < 2 {
			return nil, domain.NewValidationError("expense title must have at least 2 characters")
		}
		updated.Title = strings.TrimSpace(input.Title)
	}
	if input.Description != nil {
		updated.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		updated.Category = strings.TrimSpace(*input.Category)
	}
	if !input.Amount.IsZero() {
		amount, err := money.Round(input.Amount, money.Currency(updated.Currency))
		if err != nil {
			return nil, err
		}
		updated.Amount = amount
	}
	if input.Date != nil {
		updated.Date = input.Date.UTC()
	}
	if input.SplitType != "" {
		updated.SplitType = input.SplitType
	}

	splitChanged := len(input.CustomSplits) > 0 ||
		len(input.ParticipantIDs) > 0 ||
		updated.SplitType != existing.SplitType ||
		!updated.Amount.Equal(existing.Amount)

	if splitChanged {
		participantIDs := input.ParticipantIDs
		if len(participantIDs) == 0 {
			participantIDs = existing.SplitUserIDs()
		}

		custom := input.CustomSplits
		if len(custom) == 0 && updated.SplitType == existing.SplitType {
			custom = storedCustomSplits(existing)
		}

		splits, err := computeSplits(updated.Amount, updated.Currency, updated.SplitType, participantIDs, custom, members)
		if err != nil {
			return nil, err
		}
		updated.Splits = splits
	} else {
		updated.Splits = append([]domain.ExpenseSplit(nil), existing.Splits...)
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.ExpenseRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.invalidateGroup(ctx, group.ID)

	s.Logger.Info("expense updated",
		zap.String("expense_id", updated.ID.String()),
		zap.String("group_id", group.ID.String()),
		zap.String("user_id", input.ActorID),
	)

	return &updated, nil
}

// DeleteExpense soft-deletes an expense. Only the creator may delete.
func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID uuid.UUID, actorID string) error {
	existing, err := s.ExpenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return err
	}

	if existing.CreatorID != actorID {
		return fmt.Errorf("only the creator can delete expense %s: %w", expenseID, domain.ErrForbidden)
	}

	if err := s.ExpenseRepo.Delete(ctx, expenseID); err != nil {
		return err
	}

	s.invalidateGroup(ctx, existing.GroupID)

	s.Logger.Info("expense deleted",
		zap.String("expense_id", expenseID.String()),
		zap.String("group_id", existing.GroupID.String()),
		zap.String("user_id", actorID),
	)

	return nil
}

// ListGroupExpenses returns one page of the group's active expenses.
// page starts at 1; limit defaults to DefaultPageSize and is capped at MaxPageSize.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, groupID uuid.UUID, actorID string, page, limit int) (*Page, error) {
	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	key := domain.GroupExpensesPageKey(groupID, page, limit)

	var cached Page
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	total, err := s.ExpenseRepo.CountByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.ExpenseRepo.ListByGroup(ctx, groupID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Expenses:   expenses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}

	s.Cache.Set(ctx, key, result, s.TTL.Expenses)

	return result, nil
}

// invalidateGroup drops every derived value that an expense mutation makes stale
func (s *ExpenseService) invalidateGroup(ctx context.Context, groupID uuid.UUID) {
	s.Cache.Invalidate(ctx, domain.GroupCachePrefix(groupID), domain.GroupExpensesPrefix(groupID))
}

// activeMembers checks the actor belongs to the group and returns its members
func (s *ExpenseService) activeMembers(ctx context.Context, groupID uuid.UUID, actorID string) ([]domain.GroupMember, error) {
	members, err := s.GroupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	for _, m := range members {
		if m.UserID == actorID {
			return members, nil
		}
	}

	return nil, fmt.Errorf("user %s is not a member of group %s: %w", actorID, groupID, domain.ErrForbidden)
}

func (s *ExpenseService) requireMember(ctx context.Context, groupID uuid.UUID, userID string) error {
	ok, err := s.GroupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s is not a member of group %s: %w", userID, groupID, domain.ErrForbidden)
	}
	return nil
}

// groupCurrency resolves the expense currency against the group's single currency
func groupCurrency(group *domain.Group, requested string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(requested))
	if currency == "" {
		return group.Currency, nil
	}

	if !money.IsSupportedCurrency(currency) {
		return "", domain.NewValidationError("unsupported currency: %s", currency)
	}

	if currency != group.Currency {
		return "", domain.NewValidationError("expense currency %s does not match group currency %s", currency, group.Currency)
	}

	return currency, nil
}

// computeSplits maps participant IDs to group members and runs the split calculator
func computeSplits(amount decimal.Decimal, currency string, splitType domain.SplitType, participantIDs []string, custom []domain.CustomSplit, members []domain.GroupMember) ([]domain.ExpenseSplit, error) {
	byID := make(map[string]domain.GroupMember, len(members))
	for _, m := range members {
		byID[m.UserID] = m
	}

	participants := make([]domain.ExpenseMember, 0, len(participantIDs))
	for _, id := range participantIDs {
		m, ok := byID[id]
		if !ok {
			return nil, domain.NewValidationError("user %s is not a member of the group", id)
		}
		participants = append(participants, domain.ExpenseMember{ID: m.UserID, Name: m.Name, Email: m.Email})
	}

	result, err := splitter.CalculateSplits(splitter.Input{
		TotalAmount:  amount,
		Currency:     money.Currency(currency),
		Members:      participants,
		SplitType:    splitType,
		CustomSplits: custom,
	})
	if err != nil {
		return nil, err
	}

	return result.Splits, nil
}

// storedCustomSplits rebuilds the custom values of an EXACT or PERCENTAGE
// expense from its stored lines
func storedCustomSplits(e *domain.Expense) []domain.CustomSplit {
	var custom []domain.CustomSplit
	for _, split := range e.Splits {
		switch e.SplitType {
		case domain.SplitTypeExact:
			amount := split.Amount
			custom = append(custom, domain.CustomSplit{UserID: split.UserID, Amount: &amount})
		case domain.SplitTypePercentage:
			custom = append(custom, domain.CustomSplit{UserID: split.UserID, Percentage: split.Percentage})
		}
	}
	return custom
}

func memberIDs(members []domain.GroupMember) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}
