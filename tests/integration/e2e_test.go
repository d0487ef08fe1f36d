//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	grpcadapter "github.com/simaogato/partio-backend/internal/adapter/grpc"
	"github.com/simaogato/partio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/partio-backend/internal/config"
	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/usecase/expense"
)

var (
	db       *postgres.DB
	grpcConn *grpc.ClientConn
	apiToken string
)

// TestMain connects to the database and to a running server
func TestMain(m *testing.M) {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	apiToken = cfg.APIToken

	// 1. Connect to Database
	db, err = postgres.NewDB(cfg.DB.DSN())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	// 2. Self-healing setup: make sure the schema exists
	if err := db.Migrate(ctx); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	// 3. Connect to gRPC Server
	grpcConn, err = grpc.NewClient(getGRPCAddress(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to gRPC server: %v", err))
	}

	code := m.Run()

	_ = grpcConn.Close()
	_ = db.Close()
	os.Exit(code)
}

// getGRPCAddress returns the gRPC server address from environment or defaults
func getGRPCAddress() string {
	addr := os.Getenv("GRPC_ADDRESS")
	if addr == "" {
		addr = "localhost:8080"
	}
	return addr
}

func uniqueUser(name string) string {
	return name + "-" + uuid.NewString()[:8]
}

// TestRepositories exercises the Postgres repositories directly
func TestRepositories(t *testing.T) {
	ctx := context.Background()
	groupRepo := postgres.NewGroupRepository(db)
	expenseRepo := postgres.NewExpenseRepository(db)

	owner := uniqueUser("owner")
	friend := uniqueUser("friend")
	now := time.Now().UTC().Truncate(time.Microsecond)

	g := &domain.Group{ID: uuid.New(), Name: "Integration", Currency: "USD", OwnerID: owner, CreatedAt: now}
	require.NoError(t, groupRepo.Create(ctx, g))
	t.Cleanup(func() { _ = groupRepo.Delete(context.Background(), g.ID) })

	for _, id := range []string{owner, friend} {
		require.NoError(t, groupRepo.AddMember(ctx, &domain.GroupMember{
			GroupID: g.ID, UserID: id, Name: id, Role: domain.MemberRoleMember,
			Status: domain.MemberStatusActive, JoinedAt: now,
		}))
	}

	err := groupRepo.AddMember(ctx, &domain.GroupMember{
		GroupID: g.ID, UserID: friend, Role: domain.MemberRoleMember, Status: domain.MemberStatusActive, JoinedAt: now,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	pct := decimal.NewFromInt(50)
	e := &domain.Expense{
		ID:        uuid.New(),
		GroupID:   g.ID,
		Title:     "Hotel",
		Amount:    decimal.RequireFromString("120.50"),
		Currency:  "USD",
		CreatorID: owner,
		SplitType: domain.SplitTypePercentage,
		Splits: []domain.ExpenseSplit{
			{UserID: owner, Amount: decimal.RequireFromString("60.25"), Type: domain.SplitTypePercentage, Percentage: &pct},
			{UserID: friend, Amount: decimal.RequireFromString("60.25"), Type: domain.SplitTypePercentage, Percentage: &pct},
		},
		Status:    domain.ExpenseStatusActive,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, expenseRepo.Create(ctx, e))

	got, err := expenseRepo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(e.Amount))
	require.Len(t, got.Splits, 2)
	assert.Equal(t, owner, got.Splits[0].UserID)
	require.NotNil(t, got.Splits[0].Percentage)
	assert.True(t, got.Splits[0].Percentage.Equal(pct))

	count, err := expenseRepo.CountByGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, expenseRepo.Delete(ctx, e.ID))
	_, err = expenseRepo.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestEndToEndFlow tests the complete flow: group -> members -> expense -> balances -> settle
func TestEndToEndFlow(t *testing.T) {
	ctx := context.Background()

	alice := uniqueUser("alice")
	bob := uniqueUser("bob")
	carol := uniqueUser("carol")

	aliceClient := grpcadapter.NewClient(grpcConn, apiToken, alice)
	bobClient := grpcadapter.NewClient(grpcConn, apiToken, bob)

	// 1. Create the group and enroll members
	var g domain.Group
	require.NoError(t, aliceClient.Call(ctx, "CreateGroup", grpcadapter.CreateGroupRequest{
		Name: "Weekend", OwnerName: "Alice", Currency: "USD",
	}, &g))

	for _, id := range []string{bob, carol} {
		require.NoError(t, aliceClient.Call(ctx, "AddMember", grpcadapter.AddMemberRequest{
			GroupID: g.ID.String(), UserID: id, Name: id,
		}, nil))
	}

	// 2. Alice pays 100 split equally among three
	var dinner domain.Expense
	require.NoError(t, aliceClient.Call(ctx, "CreateExpense", grpcadapter.CreateExpenseRequest{
		GroupID: g.ID.String(),
		Title:   "Dinner",
		Amount:  decimal.NewFromInt(100),
	}, &dinner))
	require.Len(t, dinner.Splits, 3)
	assert.Equal(t, "33.34", dinner.Splits[0].Amount.String())

	// 3. Bob pays 30 for himself and Carol
	require.NoError(t, bobClient.Call(ctx, "CreateExpense", grpcadapter.CreateExpenseRequest{
		GroupID:        g.ID.String(),
		Title:          "Taxi",
		Amount:         decimal.NewFromInt(30),
		ParticipantIDs: []string{bob, carol},
	}, nil))

	// 4. Balances: alice +66.66, bob -18.33, carol -48.33
	var balances struct {
		Balances []domain.GroupBalance `json:"balances"`
	}
	require.NoError(t, bobClient.Call(ctx, "GetBalances", grpcadapter.GroupRequest{GroupID: g.ID.String()}, &balances))
	require.Len(t, balances.Balances, 3)
	assert.Equal(t, "66.66", balances.Balances[0].Balance.String())
	assert.Equal(t, "-18.33", balances.Balances[1].Balance.String())
	assert.Equal(t, "-48.33", balances.Balances[2].Balance.String())

	// 5. Settlements move money to alice only
	var settlements struct {
		Settlements []domain.SettlementSuggestion `json:"settlements"`
	}
	require.NoError(t, aliceClient.Call(ctx, "GetSettlements", grpcadapter.GroupRequest{GroupID: g.ID.String()}, &settlements))
	require.Len(t, settlements.Settlements, 2)
	for _, s := range settlements.Settlements {
		assert.Equal(t, alice, s.ReceiverID)
	}

	// 6. Listing
	var page expense.Page
	require.NoError(t, aliceClient.Call(ctx, "ListExpenses", grpcadapter.ListExpensesRequest{GroupID: g.ID.String()}, &page))
	assert.Equal(t, 2, page.Total)

	// 7. Cannot delete with outstanding balances
	err := aliceClient.Call(ctx, "DeleteGroup", grpcadapter.GroupRequest{GroupID: g.ID.String()}, nil)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

// TestNegativeScenarios tests error handling for invalid inputs
func TestNegativeScenarios(t *testing.T) {
	ctx := context.Background()
	client := grpcadapter.NewClient(grpcConn, apiToken, uniqueUser("neg"))

	t.Run("InvalidAmount", func(t *testing.T) {
		err := client.Call(ctx, "CalculateSplits", grpcadapter.CalculateSplitsRequest{
			TotalAmount: decimal.NewFromInt(-100),
			Members:     []domain.ExpenseMember{{ID: "a"}},
			SplitType:   domain.SplitTypeEqual,
		}, nil)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("NonMember", func(t *testing.T) {
		err := client.Call(ctx, "GetBalances", grpcadapter.GroupRequest{GroupID: uuid.NewString()}, nil)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("MalformedUUID", func(t *testing.T) {
		err := client.Call(ctx, "ListExpenses", grpcadapter.ListExpensesRequest{GroupID: "not-a-uuid"}, nil)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("BadToken", func(t *testing.T) {
		bad := grpcadapter.NewClient(grpcConn, "wrong", "x")
		err := bad.Call(ctx, "ListGroups", nil, nil)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}
