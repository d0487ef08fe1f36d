package splitter

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

// calculateExact takes every member's amount verbatim. A residual within
// the tolerance is reported in Remainder and left for the caller.
func calculateExact(total decimal.Decimal, members []domain.ExpenseMember, custom map[string]domain.CustomSplit, places int32) (*Result, error) {
	splits := make([]domain.ExpenseSplit, 0, len(members))
	allocated := decimal.Zero

	for _, member := range members {
		c, ok := custom[member.ID]
		if !ok || c.Amount == nil {
			return nil, domain.NewValidationError("amount required for member %s", displayName(member))
		}

		if c.Amount.IsNegative() {
			return nil, domain.NewValidationError("amount cannot be negative for member %s", displayName(member))
		}

		amount := c.Amount.Round(places)
		allocated = allocated.Add(amount)

		splits = append(splits, domain.ExpenseSplit{
			UserID: member.ID,
			Amount: amount,
			Type:   domain.SplitTypeExact,
		})
	}

	remainder := total.Sub(allocated)
	if remainder.Abs().GreaterThan(domain.SplitTolerance) {
		return nil, domain.NewCalculationError(
			"sum of exact amounts (%s) does not match the total (%s). Difference: %s",
			allocated, total, remainder,
		)
	}

	return &Result{
		Splits:         splits,
		TotalAllocated: allocated,
		Remainder:      remainder,
	}, nil
}
