package splitter

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// calculatePercentage allocates round(total * pct / 100) to every member.
// The rounding residual goes entirely to the first member so the sum is exact.
// The residual can be negative, so a first member holding 0% of a tiny total
// may end up with a negative share; Expense.Validate rejects such a split set.
func calculatePercentage(total decimal.Decimal, members []domain.ExpenseMember, custom map[string]domain.CustomSplit, places int32) (*Result, error) {
	percentages := make([]decimal.Decimal, 0, len(members))
	totalPercentage := decimal.Zero

	for _, member := range members {
		c, ok := custom[member.ID]
		if !ok || c.Percentage == nil {
			return nil, domain.NewValidationError("percentage required for member %s", displayName(member))
		}

		pct := *c.Percentage
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return nil, domain.NewValidationError("invalid percentage for member %s: %s%%", displayName(member), pct)
		}

		totalPercentage = totalPercentage.Add(pct)
		percentages = append(percentages, pct)
	}

	if totalPercentage.Sub(hundred).Abs().GreaterThan(domain.SplitTolerance) {
		return nil, domain.NewValidationError("percentages must sum to 100%%, got %s%%", totalPercentage)
	}

	splits := make([]domain.ExpenseSplit, 0, len(members))
	allocated := decimal.Zero

	for i, member := range members {
		pct := percentages[i]
		amount := total.Mul(pct).Div(hundred).Round(places)
		allocated = allocated.Add(amount)

		splits = append(splits, domain.ExpenseSplit{
			UserID:     member.ID,
			Amount:     amount,
			Type:       domain.SplitTypePercentage,
			Percentage: &pct,
		})
	}

	if residual := total.Sub(allocated); !residual.IsZero() {
		splits[0].Amount = splits[0].Amount.Add(residual)
	}

	return &Result{
		Splits:         splits,
		TotalAllocated: total,
		Remainder:      decimal.Zero,
	}, nil
}
