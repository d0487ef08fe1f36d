package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
	"github.com/simaogato/partio-backend/internal/usecase/expense"
	"github.com/simaogato/partio-backend/internal/usecase/group"
	"github.com/simaogato/partio-backend/internal/usecase/splitter"
)

// Server implements the LedgerService gRPC server
type Server struct {
	GroupService   *group.GroupService
	ExpenseService *expense.ExpenseService
}

var _ LedgerServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(groupService *group.GroupService, expenseService *expense.ExpenseService) *Server {
	return &Server{
		GroupService:   groupService,
		ExpenseService: expenseService,
	}
}

// CalculateSplitsRequest previews a split without storing anything
type CalculateSplitsRequest struct {
	TotalAmount  decimal.Decimal        `json:"totalAmount"`
	Currency     string                 `json:"currency,omitempty"`
	Members      []domain.ExpenseMember `json:"members"`
	SplitType    domain.SplitType       `json:"splitType"`
	CustomSplits []domain.CustomSplit   `json:"customSplits,omitempty"`
}

// CalculateSplitsResponse is the computed allocation
type CalculateSplitsResponse struct {
	Splits         []domain.ExpenseSplit   `json:"splits"`
	Summary        []splitter.SplitSummary `json:"summary"`
	TotalAllocated decimal.Decimal         `json:"totalAllocated"`
	Remainder      decimal.Decimal         `json:"remainder"`
}

// CreateGroupRequest creates a group owned by the caller
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency,omitempty"`
	OwnerName   string `json:"ownerName,omitempty"`
	OwnerEmail  string `json:"ownerEmail,omitempty"`
}

// AddMemberRequest enrolls a user in a group
type AddMemberRequest struct {
	GroupID string            `json:"groupId"`
	UserID  string            `json:"userId"`
	Name    string            `json:"name,omitempty"`
	Email   string            `json:"email,omitempty"`
	Role    domain.MemberRole `json:"role,omitempty"`
}

// GroupRequest addresses a single group
type GroupRequest struct {
	GroupID string `json:"groupId"`
}

// CreateExpenseRequest records an expense paid by the caller
type CreateExpenseRequest struct {
	GroupID        string               `json:"groupId"`
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	Category       string               `json:"category,omitempty"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       string               `json:"currency,omitempty"`
	Date           *time.Time           `json:"date,omitempty"`
	SplitType      domain.SplitType     `json:"splitType,omitempty"`
	ParticipantIDs []string             `json:"participantIds,omitempty"`
	CustomSplits   []domain.CustomSplit `json:"customSplits,omitempty"`
}

// UpdateExpenseRequest replaces an expense created by the caller
type UpdateExpenseRequest struct {
	ExpenseID      string               `json:"expenseId"`
	Title          string               `json:"title,omitempty"`
	Description    *string              `json:"description,omitempty"`
	Category       *string              `json:"category,omitempty"`
	Amount         decimal.Decimal      `json:"amount"`
	Date           *time.Time           `json:"date,omitempty"`
	SplitType      domain.SplitType     `json:"splitType,omitempty"`
	ParticipantIDs []string             `json:"participantIds,omitempty"`
	CustomSplits   []domain.CustomSplit `json:"customSplits,omitempty"`
}

// ExpenseRequest addresses a single expense
type ExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

// ListExpensesRequest selects one page of a group's expenses
type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
	Page    int    `json:"page,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// CalculateSplits handles the CalculateSplits RPC
func (s *Server) CalculateSplits(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CalculateSplitsRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	result, err := splitter.CalculateSplits(splitter.Input{
		TotalAmount:  req.TotalAmount,
		Currency:     money.Currency(req.Currency),
		Members:      req.Members,
		SplitType:    req.SplitType,
		CustomSplits: req.CustomSplits,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return reply(CalculateSplitsResponse{
		Splits:         result.Splits,
		Summary:        splitter.Summary(result.Splits, req.Members),
		TotalAllocated: result.TotalAllocated,
		Remainder:      result.Remainder,
	})
}

// CreateGroup handles the CreateGroup RPC
func (s *Server) CreateGroup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var req CreateGroupRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	g, err := s.GroupService.CreateGroup(ctx, group.CreateGroupInput{
		OwnerID:     userID,
		OwnerName:   req.OwnerName,
		OwnerEmail:  req.OwnerEmail,
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return reply(g)
}

// ListGroups handles the ListGroups RPC
func (s *Server) ListGroups(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.GroupService.ListUserGroups(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	if groups == nil {
		groups = []domain.Group{}
	}

	return reply(map[string]any{"groups": groups})
}

// AddMember handles the AddMember RPC
func (s *Server) AddMember(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var req AddMemberRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	groupID, err := parseID("group_id", req.GroupID)
	if err != nil {
		return nil, err
	}

	member, err := s.GroupService.AddMember(ctx, group.AddMemberInput{
		GroupID: groupID,
		ActorID: userID,
		UserID:  req.UserID,
		Name:    req.Name,
		Email:   req.Email,
		Role:    req.Role,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return reply(member)
}

// DeleteGroup handles the DeleteGroup RPC
func (s *Server) DeleteGroup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, groupID, err := s.groupCall(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.GroupService.DeleteGroup(ctx, groupID, userID); err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"deleted": true})
}

// CreateExpense handles the CreateExpense RPC
func (s *Server) CreateExpense(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var req CreateExpenseRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	groupID, err := parseID("group_id", req.GroupID)
	if err != nil {
		return nil, err
	}

	exp, err := s.ExpenseService.CreateExpense(ctx, expense.CreateExpenseInput{
		GroupID:        groupID,
		ActorID:        userID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Date:           req.Date,
		SplitType:      req.SplitType,
		ParticipantIDs: req.ParticipantIDs,
		CustomSplits:   req.CustomSplits,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return reply(exp)
}

// UpdateExpense handles the UpdateExpense RPC
func (s *Server) UpdateExpense(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var req UpdateExpenseRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	expenseID, err := parseID("expense_id", req.ExpenseID)
	if err != nil {
		return nil, err
	}

	exp, err := s.ExpenseService.UpdateExpense(ctx, expense.UpdateExpenseInput{
		ExpenseID:      expenseID,
		ActorID:        userID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Amount:         req.Amount,
		Date:           req.Date,
		SplitType:      req.SplitType,
		ParticipantIDs: req.ParticipantIDs,
		CustomSplits:   req.CustomSplits,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return reply(exp)
}

// DeleteExpense handles the DeleteExpense RPC
func (s *Server) DeleteExpense(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var req ExpenseRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	expenseID, err := parseID("expense_id", req.ExpenseID)
	if err != nil {
		return nil, err
	}

	if err := s.ExpenseService.DeleteExpense(ctx, expenseID, userID); err != nil {
		return nil, mapError(err)
	}

	return reply(map[string]any{"deleted": true})
}

// ListExpenses handles the ListExpenses RPC
func (s *Server) ListExpenses(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var req ListExpensesRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	groupID, err := parseID("group_id", req.GroupID)
	if err != nil {
		return nil, err
	}

	page, err := s.ExpenseService.ListGroupExpenses(ctx, groupID, userID, req.Page, req.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	if page.Expenses == nil {
		page.Expenses = []*domain.Expense{}
	}

	return reply(page)
}

// GetBalances handles the GetBalances RPC
func (s *Server) GetBalances(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, groupID, err := s.groupCall(ctx, in)
	if err != nil {
		return nil, err
	}

	balances, err := s.GroupService.GetBalances(ctx, groupID, userID)
	if err != nil {
		return nil, mapError(err)
	}
	if balances == nil {
		balances = []domain.GroupBalance{}
	}

	return reply(map[string]any{"balances": balances})
}

// GetSettlements handles the GetSettlements RPC
func (s *Server) GetSettlements(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, groupID, err := s.groupCall(ctx, in)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.GroupService.GetSettlementSuggestions(ctx, groupID, userID)
	if err != nil {
		return nil, mapError(err)
	}
	if suggestions == nil {
		suggestions = []domain.SettlementSuggestion{}
	}

	return reply(map[string]any{"settlements": suggestions})
}

func (s *Server) groupCall(ctx context.Context, in *structpb.Struct) (string, uuid.UUID, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", uuid.Nil, err
	}

	var req GroupRequest
	if err := decode(in, &req); err != nil {
		return "", uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	groupID, err := parseID("group_id", req.GroupID)
	if err != nil {
		return "", uuid.Nil, err
	}

	return userID, groupID, nil
}

func callerID(ctx context.Context) (string, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id metadata")
	}
	return userID, nil
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", field, err)
	}
	return id, nil
}

func reply(v any) (*structpb.Struct, error) {
	out, err := encode(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case domain.IsValidation(err), domain.IsCalculation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrOutstandingBalances):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
