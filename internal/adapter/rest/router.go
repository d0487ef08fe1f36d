// Package rest exposes the read side of the ledger and the split preview
// over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
	"github.com/simaogato/partio-backend/internal/usecase/expense"
	"github.com/simaogato/partio-backend/internal/usecase/group"
	"github.com/simaogato/partio-backend/internal/usecase/splitter"
)

// Handler serves the HTTP API
type Handler struct {
	GroupService   *group.GroupService
	ExpenseService *expense.ExpenseService
	Logger         *zap.Logger
}

// NewRouter builds the chi router. /healthz is public, everything under
// /v1 requires the bearer token.
func NewRouter(h *Handler, token string) http.Handler {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(RequireToken(token))

		r.Post("/splits:calculate", h.calculateSplits)
		r.Get("/groups", h.listGroups)
		r.Get("/groups/{groupID}/balances", h.getBalances)
		r.Get("/groups/{groupID}/settlements", h.getSettlements)
		r.Get("/groups/{groupID}/expenses", h.listExpenses)
	})

	return r
}

type calculateRequest struct {
	TotalAmount  decimal.Decimal        `json:"totalAmount"`
	Currency     string                 `json:"currency"`
	Members      []domain.ExpenseMember `json:"members"`
	SplitType    domain.SplitType       `json:"splitType"`
	CustomSplits []domain.CustomSplit   `json:"customSplits"`
}

type calculateResponse struct {
	Splits         []splitter.SplitSummary `json:"splits"`
	TotalAllocated decimal.Decimal         `json:"totalAllocated"`
	Remainder      decimal.Decimal         `json:"remainder"`
	Formatted      []string                `json:"formatted"`
}

func (h *Handler) calculateSplits(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeValidation, "invalid request body")
		return
	}

	currency := money.Currency(req.Currency)
	if currency == "" {
		currency = money.DefaultCurrency
	}

	result, err := splitter.CalculateSplits(splitter.Input{
		TotalAmount:  req.TotalAmount,
		Currency:     currency,
		Members:      req.Members,
		SplitType:    req.SplitType,
		CustomSplits: req.CustomSplits,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	formatted := make([]string, 0, len(result.Splits))
	for _, split := range result.Splits {
		s, err := money.Format(split.Amount, currency)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		formatted = append(formatted, s)
	}

	writeJSON(w, http.StatusOK, calculateResponse{
		Splits:         splitter.Summary(result.Splits, req.Members),
		TotalAllocated: result.TotalAllocated,
		Remainder:      result.Remainder,
		Formatted:      formatted,
	})
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	groups, err := h.GroupService.ListUserGroups(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *Handler) getBalances(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}

	balances, err := h.GroupService.GetBalances(r.Context(), groupID, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if balances == nil {
		balances = []domain.GroupBalance{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (h *Handler) getSettlements(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}

	suggestions, err := h.GroupService.GetSettlementSuggestions(r.Context(), groupID, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []domain.SettlementSuggestion{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"settlements": suggestions})
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := groupRequest(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	result, err := h.ExpenseService.ListGroupExpenses(r.Context(), groupID, userID, page, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if result.Expenses == nil {
		result.Expenses = []*domain.Expense{}
	}

	writeJSON(w, http.StatusOK, result)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing "+UserIDHeader+" header")
		return "", false
	}
	return userID, true
}

func groupRequest(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return "", uuid.Nil, false
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeValidation, "invalid group id")
		return "", uuid.Nil, false
	}

	return userID, groupID, true
}

// queryInt returns 0 for missing or malformed values; services apply defaults
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusCoder interface {
	Code() string
	StatusCode() int
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var coded statusCoder
	switch {
	case errors.As(err, &coded):
		writeError(w, coded.StatusCode(), coded.Code(), err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrOutstandingBalances):
		writeError(w, http.StatusConflict, "OUTSTANDING_BALANCES", err.Error())
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
