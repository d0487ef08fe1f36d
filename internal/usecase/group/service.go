package group

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
	"github.com/simaogato/partio-backend/internal/usecase/balance"
	"github.com/simaogato/partio-backend/internal/usecase/cachestore"
	"github.com/simaogato/partio-backend/internal/usecase/settlement"
)

// CreateGroupInput represents the input for creating a group
type CreateGroupInput struct {
	OwnerID     string
	OwnerName   string
	OwnerEmail  string
	Name        string
	Description string
	Currency    string // Optional: defaults to money.DefaultCurrency
}

// AddMemberInput represents the input for adding a user to a group
type AddMemberInput struct {
	GroupID uuid.UUID
	ActorID string
	UserID  string
	Name    string
	Email   string
	Role    domain.MemberRole // Optional: defaults to MEMBER
}

// GroupService handles group lifecycle and the derived balance views
type GroupService struct {
	GroupRepo   domain.GroupRepository
	ExpenseRepo domain.ExpenseRepository
	Cache       *cachestore.Store
	TTL         domain.CacheTTL
	Logger      *zap.Logger
}

// NewGroupService creates a new GroupService instance
func NewGroupService(groupRepo domain.GroupRepository, expenseRepo domain.ExpenseRepository, cache domain.Cache, ttl domain.CacheTTL, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GroupService{
		GroupRepo:   groupRepo,
		ExpenseRepo: expenseRepo,
		Cache:       cachestore.New(cache, logger),
		TTL:         ttl,
		Logger:      logger,
	}
}

// CreateGroup creates a group and enrolls its owner as the first member
func (s *GroupService) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.Group, error) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = string(money.DefaultCurrency)
	}
	if !money.IsSupportedCurrency(currency) {
		return nil, domain.NewValidationError("unsupported currency: %s", currency)
	}

	now := time.Now().UTC()
	group := &domain.Group{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Currency:    currency,
		OwnerID:     input.OwnerID,
		CreatedAt:   now,
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}

	if err := s.GroupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	owner := &domain.GroupMember{
		GroupID:  group.ID,
		UserID:   input.OwnerID,
		Name:     input.OwnerName,
		Email:    input.OwnerEmail,
		Role:     domain.MemberRoleOwner,
		Status:   domain.MemberStatusActive,
		JoinedAt: now,
	}
	if err := s.GroupRepo.AddMember(ctx, owner); err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, domain.UserGroupsKey(input.OwnerID))

	s.Logger.Info("group created",
		zap.String("group_id", group.ID.String()),
		zap.String("user_id", input.OwnerID),
		zap.String("currency", currency),
	)

	return group, nil
}

// ListUserGroups returns the groups the user belongs to
func (s *GroupService) ListUserGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	key := domain.UserGroupsKey(userID)

	var cached []domain.Group
	if s.Cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	groups, err := s.GroupRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, groups, s.TTL.Groups)

	return groups, nil
}

// AddMember adds a user to the group. The actor must already be a member.
func (s *GroupService) AddMember(ctx context.Context, input AddMemberInput) (*domain.GroupMember, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, domain.NewValidationError("user ID cannot be empty")
	}

	if _, err := s.GroupRepo.GetByID(ctx, input.GroupID); err != nil {
		return nil, err
	}

	if err := s.requireMember(ctx, input.GroupID, input.ActorID); err != nil {
		return nil, err
	}

	exists, err := s.GroupRepo.IsMember(ctx, input.GroupID, input.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("user %s is already a member: %w", input.UserID, domain.ErrConflict)
	}

	role := input.Role
	if role == "" {
		role = domain.MemberRoleMember
	}

	member := &domain.GroupMember{
		GroupID:  input.GroupID,
		UserID:   input.UserID,
		Name:     input.Name,
		Email:    input.Email,
		Role:     role,
		Status:   domain.MemberStatusActive,
		JoinedAt: time.Now().UTC(),
	}

	if err := s.GroupRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	// A new member shows up in balances with zero
	s.Cache.Invalidate(ctx, domain.GroupCachePrefix(input.GroupID), domain.UserGroupsKey(input.UserID))

	s.Logger.Info("member added",
		zap.String("group_id", input.GroupID.String()),
		zap.String("user_id", input.UserID),
		zap.String("actor_id", input.ActorID),
	)

	return member, nil
}

// GetBalances returns the net balance of every member, in join order
func (s *GroupService) GetBalances(ctx context.Context, groupID uuid.UUID, actorID string) ([]domain.GroupBalance, error) {
	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	return s.balances(ctx, groupID)
}

// GetSettlementSuggestions returns the transfers that would settle the group
func (s *GroupService) GetSettlementSuggestions(ctx context.Context, groupID uuid.UUID, actorID string) ([]domain.SettlementSuggestion, error) {
	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	key := domain.GroupSettlementsKey(groupID)

	var cached []domain.SettlementSuggestion
	if s.Cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	balances, err := s.balances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	suggestions := settlement.SuggestSettlements(balances)
	s.Cache.Set(ctx, key, suggestions, s.TTL.Settlements)

	return suggestions, nil
}

// DeleteGroup removes the group. Only the owner may delete it and only once
// every balance is settled.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID uuid.UUID, actorID string) error {
	group, err := s.GroupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	if group.OwnerID != actorID {
		return fmt.Errorf("only the owner can delete group %s: %w", groupID, domain.ErrForbidden)
	}

	// Recomputed, never served from cache
	balances, members, err := s.computeBalances(ctx, groupID)
	if err != nil {
		return err
	}

	if balance.HasOutstanding(balances) {
		return domain.ErrOutstandingBalances
	}

	if err := s.GroupRepo.Delete(ctx, groupID); err != nil {
		return err
	}

	s.Cache.Invalidate(ctx, domain.GroupCachePrefix(groupID), domain.GroupExpensesPrefix(groupID))
	for _, m := range members {
		s.Cache.Invalidate(ctx, domain.UserGroupsKey(m.UserID))
	}

	s.Logger.Info("group deleted",
		zap.String("group_id", groupID.String()),
		zap.String("user_id", actorID),
	)

	return nil
}

// balances serves the cached snapshot or recomputes it
func (s *GroupService) balances(ctx context.Context, groupID uuid.UUID) ([]domain.GroupBalance, error) {
	key := domain.GroupBalancesKey(groupID)

	var cached []domain.GroupBalance
	if s.Cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	balances, _, err := s.computeBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, balances, s.TTL.Balances)

	return balances, nil
}

func (s *GroupService) computeBalances(ctx context.Context, groupID uuid.UUID) ([]domain.GroupBalance, []domain.GroupMember, error) {
	members, err := s.GroupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	stored, err := s.ExpenseRepo.ListActiveByGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	expenses := make([]domain.Expense, 0, len(stored))
	for _, e := range stored {
		expenses = append(expenses, *e)
	}

	return balance.GroupBalances(expenses, members), members, nil
}

func (s *GroupService) requireMember(ctx context.Context, groupID uuid.UUID, userID string) error {
	ok, err := s.GroupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s is not a member of group %s: %w", userID, groupID, domain.ErrForbidden)
	}
	return nil
}
