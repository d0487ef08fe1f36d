package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/usecase/splitter"
)

// Fixed UUIDs for the demo group and its expenses
var (
	DemoGroupID   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	DemoDinnerID  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	DemoHotelID   = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	DemoTicketsID = uuid.MustParse("00000000-0000-0000-0000-000000000004")
)

// DemoMember defines a member of the demo group
type DemoMember struct {
	ID   string
	Name string
	Role domain.MemberRole
}

// DemoMembers are enrolled in join order; the first one owns the group
var DemoMembers = []DemoMember{
	{ID: "demo-ana", Name: "Ana", Role: domain.MemberRoleOwner},
	{ID: "demo-bruno", Name: "Bruno", Role: domain.MemberRoleMember},
	{ID: "demo-carla", Name: "Carla", Role: domain.MemberRoleMember},
}

type demoExpense struct {
	id        uuid.UUID
	title     string
	creatorID string
	amount    string
	splitType domain.SplitType
	custom    []domain.CustomSplit
}

// DemoSeeder creates a sample group so a fresh server has data to browse
type DemoSeeder struct {
	groupRepo   domain.GroupRepository
	expenseRepo domain.ExpenseRepository
	now         func() time.Time
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(groupRepo domain.GroupRepository, expenseRepo domain.ExpenseRepository) *DemoSeeder {
	return &DemoSeeder{
		groupRepo:   groupRepo,
		expenseRepo: expenseRepo,
		now:         time.Now,
	}
}

// Seed ensures the demo group, its members and its expenses exist.
// Anything already present is left untouched.
func (s *DemoSeeder) Seed(ctx context.Context) error {
	now := s.now().UTC()

	if err := s.seedGroup(ctx, now); err != nil {
		return err
	}

	if err := s.seedMembers(ctx, now); err != nil {
		return err
	}

	members := make([]domain.ExpenseMember, 0, len(DemoMembers))
	for _, m := range DemoMembers {
		members = append(members, domain.ExpenseMember{ID: m.ID, Name: m.Name})
	}

	for _, e := range demoExpenses() {
		_, err := s.expenseRepo.GetByID(ctx, e.id)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		result, err := splitter.CalculateSplits(splitter.Input{
			TotalAmount:  decimal.RequireFromString(e.amount),
			Members:      members,
			SplitType:    e.splitType,
			CustomSplits: e.custom,
		})
		if err != nil {
			return err
		}

		expense := &domain.Expense{
			ID:        e.id,
			GroupID:   DemoGroupID,
			Title:     e.title,
			Amount:    decimal.RequireFromString(e.amount),
			Currency:  "USD",
			CreatorID: e.creatorID,
			SplitType: e.splitType,
			Splits:    result.Splits,
			Status:    domain.ExpenseStatusActive,
			Date:      now,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := expense.Validate(); err != nil {
			return err
		}

		if err := s.expenseRepo.Create(ctx, expense); err != nil {
			return err
		}
	}

	return nil
}

func (s *DemoSeeder) seedGroup(ctx context.Context, now time.Time) error {
	_, err := s.groupRepo.GetByID(ctx, DemoGroupID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	group := &domain.Group{
		ID:          DemoGroupID,
		Name:        "Demo trip",
		Description: "Sample group with a few shared expenses",
		Currency:    "USD",
		OwnerID:     DemoMembers[0].ID,
		CreatedAt:   now,
	}

	if err := group.Validate(); err != nil {
		return err
	}

	return s.groupRepo.Create(ctx, group)
}

func (s *DemoSeeder) seedMembers(ctx context.Context, now time.Time) error {
	for _, m := range DemoMembers {
		ok, err := s.groupRepo.IsMember(ctx, DemoGroupID, m.ID)
		if err != nil {
			return err
		}
		if ok {
			continue
		}

		err = s.groupRepo.AddMember(ctx, &domain.GroupMember{
			GroupID:  DemoGroupID,
			UserID:   m.ID,
			Name:     m.Name,
			Role:     m.Role,
			Status:   domain.MemberStatusActive,
			JoinedAt: now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func demoExpenses() []demoExpense {
	dec := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	return []demoExpense{
		{id: DemoDinnerID, title: "Dinner", creatorID: "demo-ana", amount: "100", splitType: domain.SplitTypeEqual},
		{
			id: DemoHotelID, title: "Hotel", creatorID: "demo-bruno", amount: "300", splitType: domain.SplitTypePercentage,
			custom: []domain.CustomSplit{
				{UserID: "demo-ana", Percentage: dec("50")},
				{UserID: "demo-bruno", Percentage: dec("25")},
				{UserID: "demo-carla", Percentage: dec("25")},
			},
		},
		{
			id: DemoTicketsID, title: "Museum tickets", creatorID: "demo-carla", amount: "45", splitType: domain.SplitTypeExact,
			custom: []domain.CustomSplit{
				{UserID: "demo-ana", Amount: dec("15")},
				{UserID: "demo-bruno", Amount: dec("20")},
				{UserID: "demo-carla", Amount: dec("10")},
			},
		},
	}
}
