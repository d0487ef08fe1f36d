package splitter

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
)

// Input describes an expense to divide among members
type Input struct {
	TotalAmount  decimal.Decimal
	Currency     money.Currency // Empty means money.DefaultCurrency
	Members      []domain.ExpenseMember
	SplitType    domain.SplitType
	CustomSplits []domain.CustomSplit // Required for EXACT and PERCENTAGE
}

// Result is a validated allocation of the total among the members,
// in member input order
type Result struct {
	Splits         []domain.ExpenseSplit
	TotalAllocated decimal.Decimal
	Remainder      decimal.Decimal
}

// CalculateSplits divides TotalAmount among Members according to SplitType.
// Logic:
//  1. Validate the input (positive total, unique members, complete custom splits)
//  2. Round the total to the currency precision
//  3. Dispatch to the EQUAL, EXACT or PERCENTAGE allocation
//
// Safety: EQUAL and PERCENTAGE always reconcile to the total exactly.
// EXACT fails with a CalculationError when off by more than 0.01.
func CalculateSplits(input Input) (*Result, error) {
	currency := input.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}

	places, err := money.DecimalPlaces(currency)
	if err != nil {
		return nil, err
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	total := input.TotalAmount.Round(places)
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("total amount must be greater than 0")
	}

	switch input.SplitType {
	case domain.SplitTypeEqual:
		return calculateEqual(total, input.Members, places), nil
	case domain.SplitTypeExact:
		return calculateExact(total, input.Members, customByUser(input.CustomSplits), places)
	case domain.SplitTypePercentage:
		return calculatePercentage(total, input.Members, customByUser(input.CustomSplits), places)
	default:
		return nil, domain.NewValidationError("unsupported split type: %s", input.SplitType)
	}
}

// validateInput applies the checks shared by every split type
func validateInput(input Input) error {
	if input.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("total amount must be greater than 0")
	}

	if len(input.Members) == 0 {
		return domain.NewValidationError("at least one member is required")
	}

	if !input.SplitType.Valid() {
		return domain.NewValidationError("unsupported split type: %s", input.SplitType)
	}

	memberIDs := make(map[string]struct{}, len(input.Members))
	for _, member := range input.Members {
		if member.ID == "" {
			return domain.NewValidationError("member ID cannot be empty")
		}
		if _, dup := memberIDs[member.ID]; dup {
			return domain.NewValidationError("member IDs must be unique: %s", member.ID)
		}
		memberIDs[member.ID] = struct{}{}
	}

	if input.SplitType == domain.SplitTypeEqual {
		return nil
	}

	if len(input.CustomSplits) == 0 {
		return domain.NewValidationError("%s split requires custom splits", input.SplitType)
	}

	seen := make(map[string]struct{}, len(input.CustomSplits))
	for _, custom := range input.CustomSplits {
		if _, ok := memberIDs[custom.UserID]; !ok {
			return domain.NewValidationError("every member must have exactly one custom split: %s is not a member", custom.UserID)
		}
		if _, dup := seen[custom.UserID]; dup {
			return domain.NewValidationError("every member must have exactly one custom split: %s is repeated", custom.UserID)
		}
		seen[custom.UserID] = struct{}{}
	}

	if len(seen) != len(memberIDs) {
		return domain.NewValidationError("every member must have exactly one custom split")
	}

	return nil
}

func customByUser(splits []domain.CustomSplit) map[string]domain.CustomSplit {
	out := make(map[string]domain.CustomSplit, len(splits))
	for _, s := range splits {
		out[s.UserID] = s
	}
	return out
}

func displayName(member domain.ExpenseMember) string {
	if member.Name != "" {
		return member.Name
	}
	return member.ID
}
