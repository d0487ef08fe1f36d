package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/partio-backend/internal/domain"
)

func seedGroup(t *testing.T, repo domain.GroupRepository, createdAt time.Time, userIDs ...string) *domain.Group {
	t.Helper()
	ctx := context.Background()

	g := &domain.Group{ID: uuid.New(), Name: "Trip", Currency: "USD", OwnerID: userIDs[0], CreatedAt: createdAt}
	require.NoError(t, repo.Create(ctx, g))
	for _, id := range userIDs {
		require.NoError(t, repo.AddMember(ctx, &domain.GroupMember{
			GroupID: g.ID, UserID: id, Name: id, Role: domain.MemberRoleMember, Status: domain.MemberStatusActive,
		}))
	}
	return g
}

func newExpense(groupID uuid.UUID, amount string, at time.Time) *domain.Expense {
	return &domain.Expense{
		ID:        uuid.New(),
		GroupID:   groupID,
		Title:     "Dinner",
		Amount:    decimal.RequireFromString(amount),
		Currency:  "USD",
		CreatorID: "a",
		SplitType: domain.SplitTypeEqual,
		Splits: []domain.ExpenseSplit{
			{UserID: "a", Amount: decimal.RequireFromString(amount), Type: domain.SplitTypeEqual},
		},
		Status:    domain.ExpenseStatusActive,
		Date:      at,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestGroupRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewGroupRepository(store)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := seedGroup(t, repo, base, "a", "b")
	newer := seedGroup(t, repo, base.Add(time.Hour), "a")

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trip", got.Name)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list by member newest first", func(t *testing.T) {
		groups, err := repo.ListByMember(ctx, "a")
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, newer.ID, groups[0].ID)
		assert.Equal(t, older.ID, groups[1].ID)

		groups, err = repo.ListByMember(ctx, "b")
		require.NoError(t, err)
		assert.Len(t, groups, 1)
	})

	t.Run("members keep join order", func(t *testing.T) {
		members, err := repo.ListMembers(ctx, older.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "a", members[0].UserID)
		assert.Equal(t, "b", members[1].UserID)

		ok, err := repo.IsMember(ctx, older.ID, "b")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.IsMember(ctx, newer.ID, "b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("duplicate member conflicts", func(t *testing.T) {
		err := repo.AddMember(ctx, &domain.GroupMember{GroupID: older.ID, UserID: "a", Status: domain.MemberStatusActive})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("delete cascades expenses", func(t *testing.T) {
		expenses := NewExpenseRepository(store)
		require.NoError(t, expenses.Create(ctx, newExpense(newer.ID, "10", base)))

		require.NoError(t, repo.Delete(ctx, newer.ID))

		_, err := repo.GetByID(ctx, newer.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		count, err := expenses.CountByGroup(ctx, newer.ID)
		require.NoError(t, err)
		assert.Zero(t, count)

		assert.ErrorIs(t, repo.Delete(ctx, newer.ID), domain.ErrNotFound)
	})
}

func TestExpenseRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	groups := NewGroupRepository(store)
	repo := NewExpenseRepository(store)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	g := seedGroup(t, groups, base, "a", "b")

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		e := newExpense(g.ID, "10", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, e))
		ids = append(ids, e.ID)
	}

	t.Run("pagination newest first", func(t *testing.T) {
		page, err := repo.ListByGroup(ctx, g.ID, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[4], page[0].ID)
		assert.Equal(t, ids[3], page[1].ID)

		page, err = repo.ListByGroup(ctx, g.ID, 2, 4)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, ids[0], page[0].ID)

		page, err = repo.ListByGroup(ctx, g.ID, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("stored copy is isolated", func(t *testing.T) {
		got, err := repo.GetByID(ctx, ids[0])
		require.NoError(t, err)
		got.Splits[0].Amount = decimal.NewFromInt(999)

		again, err := repo.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.True(t, again.Splits[0].Amount.Equal(decimal.NewFromInt(10)))
	})

	t.Run("update replaces splits", func(t *testing.T) {
		got, err := repo.GetByID(ctx, ids[1])
		require.NoError(t, err)
		got.Splits = []domain.ExpenseSplit{
			{UserID: "a", Amount: decimal.NewFromInt(5), Type: domain.SplitTypeEqual},
			{UserID: "b", Amount: decimal.NewFromInt(5), Type: domain.SplitTypeEqual},
		}
		require.NoError(t, repo.Update(ctx, got))

		again, err := repo.GetByID(ctx, ids[1])
		require.NoError(t, err)
		assert.Len(t, again.Splits, 2)
	})

	t.Run("soft delete hides expense", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, ids[2]))

		_, err := repo.GetByID(ctx, ids[2])
		assert.ErrorIs(t, err, domain.ErrNotFound)

		count, err := repo.CountByGroup(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		active, err := repo.ListActiveByGroup(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, active, 4)
		assert.Equal(t, ids[0], active[0].ID)

		assert.ErrorIs(t, repo.Delete(ctx, ids[2]), domain.ErrNotFound)
	})

	t.Run("unknown group rejected", func(t *testing.T) {
		err := repo.Create(ctx, newExpense(uuid.New(), "1", base))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
