package group

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/partio-backend/internal/adapter/cache"
	"github.com/simaogato/partio-backend/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService() (*GroupService, *MockGroupRepository, *MockExpenseRepository, *cache.MemoryCache) {
	groupRepo := new(MockGroupRepository)
	expenseRepo := new(MockExpenseRepository)
	c := cache.NewMemoryCache()
	return NewGroupService(groupRepo, expenseRepo, c, domain.DefaultCacheTTL, nil), groupRepo, expenseRepo, c
}

func members(groupID uuid.UUID, ids ...string) []domain.GroupMember {
	out := make([]domain.GroupMember, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.GroupMember{GroupID: groupID, UserID: id, Name: "User " + id, Status: domain.MemberStatusActive})
	}
	return out
}

// dinner is paid by alice and split equally with bob
func dinner(groupID uuid.UUID) *domain.Expense {
	return &domain.Expense{
		ID:        uuid.New(),
		GroupID:   groupID,
		Title:     "Dinner",
		Amount:    d("100"),
		CreatorID: "alice",
		Splits: []domain.ExpenseSplit{
			{UserID: "alice", Amount: d("50"), Type: domain.SplitTypeEqual},
			{UserID: "bob", Amount: d("50"), Type: domain.SplitTypeEqual},
		},
		Status: domain.ExpenseStatusActive,
	}
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	service, groupRepo, _, c := newService()
	require.NoError(t, c.Set(ctx, domain.UserGroupsKey("alice"), []string{}, time.Minute))

	groupRepo.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Group) bool {
		return g.Name == "Trip" && g.Currency == "EUR" && g.OwnerID == "alice"
	})).Return(nil)
	groupRepo.On("AddMember", mock.Anything, mock.MatchedBy(func(m *domain.GroupMember) bool {
		return m.UserID == "alice" && m.Role == domain.MemberRoleOwner && m.Status == domain.MemberStatusActive
	})).Return(nil)

	group, err := service.CreateGroup(ctx, CreateGroupInput{OwnerID: "alice", OwnerName: "Alice", Name: " Trip ", Currency: "eur"})

	require.NoError(t, err)
	assert.Equal(t, "Trip", group.Name)
	assert.Equal(t, "EUR", group.Currency)
	assert.NotEqual(t, uuid.Nil, group.ID)

	var cached []string
	found, _ := c.Get(ctx, domain.UserGroupsKey("alice"), &cached)
	assert.False(t, found)

	groupRepo.AssertExpectations(t)
}

func TestCreateGroup_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("currency defaults to USD", func(t *testing.T) {
		service, groupRepo, _, _ := newService()
		groupRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		groupRepo.On("AddMember", mock.Anything, mock.Anything).Return(nil)

		group, err := service.CreateGroup(ctx, CreateGroupInput{OwnerID: "alice", Name: "Flat"})
		require.NoError(t, err)
		assert.Equal(t, "USD", group.Currency)
	})

	t.Run("unsupported currency", func(t *testing.T) {
		service, groupRepo, _, _ := newService()

		_, err := service.CreateGroup(ctx, CreateGroupInput{OwnerID: "alice", Name: "Flat", Currency: "XXX"})
		assert.True(t, domain.IsValidation(err))
		groupRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("short name", func(t *testing.T) {
		service, groupRepo, _, _ := newService()

		_, err := service.CreateGroup(ctx, CreateGroupInput{OwnerID: "alice", Name: " F "})
		assert.True(t, domain.IsValidation(err))
		groupRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestListUserGroups_Cached(t *testing.T) {
	ctx := context.Background()
	service, groupRepo, _, _ := newService()
	groups := []domain.Group{{ID: uuid.New(), Name: "Trip", Currency: "USD", OwnerID: "alice"}}

	groupRepo.On("ListByMember", mock.Anything, "alice").Return(groups, nil).Once()

	first, err := service.ListUserGroups(ctx, "alice")
	require.NoError(t, err)
	second, err := service.ListUserGroups(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	groupRepo.AssertExpectations(t)
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	groupID := uuid.New()
	group := &domain.Group{ID: groupID, Name: "Trip", Currency: "USD", OwnerID: "alice"}

	t.Run("member adds a new user", func(t *testing.T) {
		service, groupRepo, _, c := newService()
		require.NoError(t, c.Set(ctx, domain.GroupBalancesKey(groupID), []int{}, time.Minute))

		groupRepo.On("GetByID", mock.Anything, groupID).Return(group, nil)
		groupRepo.On("IsMember", mock.Anything, groupID, "alice").Return(true, nil)
		groupRepo.On("IsMember", mock.Anything, groupID, "bob").Return(false, nil)
		groupRepo.On("AddMember", mock.Anything, mock.AnythingOfType("*domain.GroupMember")).Return(nil)

		member, err := service.AddMember(ctx, AddMemberInput{GroupID: groupID, ActorID: "alice", UserID: "bob", Name: "Bob"})

		require.NoError(t, err)
		assert.Equal(t, domain.MemberRoleMember, member.Role)
		assert.Equal(t, domain.MemberStatusActive, member.Status)

		var v []int
		found, _ := c.Get(ctx, domain.GroupBalancesKey(groupID), &v)
		assert.False(t, found)
	})

	t.Run("duplicate member conflicts", func(t *testing.T) {
		service, groupRepo, _, _ := newService()
		groupRepo.On("GetByID", mock.Anything, groupID).Return(group, nil)
		groupRepo.On("IsMember", mock.Anything, groupID, "alice").Return(true, nil)

		_, err := service.AddMember(ctx, AddMemberInput{GroupID: groupID, ActorID: "alice", UserID: "alice"})

		assert.ErrorIs(t, err, domain.ErrConflict)
		groupRepo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
	})

	t.Run("outsider cannot add", func(t *testing.T) {
		service, groupRepo, _, _ := newService()
		groupRepo.On("GetByID", mock.Anything, groupID).Return(group, nil)
		groupRepo.On("IsMember", mock.Anything, groupID, "mallory").Return(false, nil)

		_, err := service.AddMember(ctx, AddMemberInput{GroupID: groupID, ActorID: "mallory", UserID: "eve"})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("missing group", func(t *testing.T) {
		service, groupRepo, _, _ := newService()
		groupRepo.On("GetByID", mock.Anything, groupID).Return(nil, domain.ErrNotFound)

		_, err := service.AddMember(ctx, AddMemberInput{GroupID: groupID, ActorID: "alice", UserID: "bob"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGetBalances_ComputesAndCaches(t *testing.T) {
	ctx := context.Background()
	service, groupRepo, expenseRepo, _ := newService()
	groupID := uuid.New()

	groupRepo.On("IsMember", mock.Anything, groupID, "bob").Return(true, nil)
	groupRepo.On("ListMembers", mock.Anything, groupID).Return(members(groupID, "alice", "bob", "carol"), nil).Once()
	expenseRepo.On("ListActiveByGroup", mock.Anything, groupID).Return([]*domain.Expense{dinner(groupID)}, nil).Once()

	balances, err := service.GetBalances(ctx, groupID, "bob")
	require.NoError(t, err)
	require.Len(t, balances, 3)

	assert.Equal(t, "alice", balances[0].UserID)
	assert.True(t, balances[0].Balance.Equal(d("50")))
	assert.Equal(t, "User bob", balances[1].UserName)
	assert.True(t, balances[1].Balance.Equal(d("-50")))
	assert.True(t, balances[2].Balance.IsZero())

	// Served from cache
	again, err := service.GetBalances(ctx, groupID, "bob")
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.True(t, again[1].Balance.Equal(d("-50")))

	groupRepo.AssertExpectations(t)
	expenseRepo.AssertExpectations(t)
}

func TestGetBalances_NonMember(t *testing.T) {
	service, groupRepo, expenseRepo, _ := newService()
	groupID := uuid.New()
	groupRepo.On("IsMember", mock.Anything, groupID, "mallory").Return(false, nil)

	_, err := service.GetBalances(context.Background(), groupID, "mallory")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	expenseRepo.AssertNotCalled(t, "ListActiveByGroup", mock.Anything, mock.Anything)
}

func TestGetSettlementSuggestions(t *testing.T) {
	ctx := context.Background()
	service, groupRepo, expenseRepo, c := newService()
	groupID := uuid.New()

	groupRepo.On("IsMember", mock.Anything, groupID, "alice").Return(true, nil)
	groupRepo.On("ListMembers", mock.Anything, groupID).Return(members(groupID, "alice", "bob"), nil).Once()
	expenseRepo.On("ListActiveByGroup", mock.Anything, groupID).Return([]*domain.Expense{dinner(groupID)}, nil).Once()

	suggestions, err := service.GetSettlementSuggestions(ctx, groupID, "alice")

	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "bob", suggestions[0].PayerID)
	assert.Equal(t, "alice", suggestions[0].ReceiverID)
	assert.True(t, suggestions[0].Amount.Equal(d("50")))

	var cached []domain.SettlementSuggestion
	found, err := c.Get(ctx, domain.GroupSettlementsKey(groupID), &cached)
	require.NoError(t, err)
	assert.True(t, found)

	// Second call hits the cache; the repositories are expected only once
	_, err = service.GetSettlementSuggestions(ctx, groupID, "alice")
	require.NoError(t, err)
	expenseRepo.AssertExpectations(t)
}

func TestDeleteGroup(t *testing.T) {
	ctx := context.Background()
	groupID := uuid.New()
	group := &domain.Group{ID: groupID, Name: "Trip", Currency: "USD", OwnerID: "alice"}

	t.Run("settled group is deleted", func(t *testing.T) {
		service, groupRepo, expenseRepo, c := newService()
		require.NoError(t, c.Set(ctx, domain.GroupBalancesKey(groupID), []int{}, time.Minute))

		groupRepo.On("GetByID", mock.Anything, groupID).Return(group, nil)
		groupRepo.On("ListMembers", mock.Anything, groupID).Return(members(groupID, "alice", "bob"), nil)
		expenseRepo.On("ListActiveByGroup", mock.Anything, groupID).Return([]*domain.Expense{}, nil)
		groupRepo.On("Delete", mock.Anything, groupID).Return(nil)

		require.NoError(t, service.DeleteGroup(ctx, groupID, "alice"))

		var v []int
		found, _ := c.Get(ctx, domain.GroupBalancesKey(groupID), &v)
		assert.False(t, found)
		groupRepo.AssertExpectations(t)
	})

	t.Run("outstanding balances block deletion", func(t *testing.T) {
		service, groupRepo, expenseRepo, c := newService()

		// A stale cached snapshot claiming everything is settled must be ignored
		require.NoError(t, c.Set(ctx, domain.GroupBalancesKey(groupID), []domain.GroupBalance{}, time.Minute))

		groupRepo.On("GetByID", mock.Anything, groupID).Return(group, nil)
		groupRepo.On("ListMembers", mock.Anything, groupID).Return(members(groupID, "alice", "bob"), nil)
		expenseRepo.On("ListActiveByGroup", mock.Anything, groupID).Return([]*domain.Expense{dinner(groupID)}, nil)

		err := service.DeleteGroup(ctx, groupID, "alice")

		assert.ErrorIs(t, err, domain.ErrOutstandingBalances)
		groupRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("only the owner may delete", func(t *testing.T) {
		service, groupRepo, _, _ := newService()
		groupRepo.On("GetByID", mock.Anything, groupID).Return(group, nil)

		err := service.DeleteGroup(ctx, groupID, "bob")

		assert.ErrorIs(t, err, domain.ErrForbidden)
		groupRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
