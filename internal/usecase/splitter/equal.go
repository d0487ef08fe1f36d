package splitter

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

// calculateEqual floors the per-member share to the smallest currency unit
// and hands the leftover units, one each, to the first members in input order
func calculateEqual(total decimal.Decimal, members []domain.ExpenseMember, places int32) *Result {
	count := decimal.NewFromInt(int64(len(members)))

	// Work in whole units (cents for most currencies)
	totalUnits := total.Shift(places)
	baseUnits, remainderUnits := totalUnits.QuoRem(count, 0)
	extra := remainderUnits.IntPart()

	base := baseUnits.Shift(-places)
	unit := decimal.New(1, -places)

	splits := make([]domain.ExpenseSplit, 0, len(members))
	for i, member := range members {
		amount := base
		if int64(i) < extra {
			amount = amount.Add(unit)
		}
		splits = append(splits, domain.ExpenseSplit{
			UserID: member.ID,
			Amount: amount,
			Type:   domain.SplitTypeEqual,
		})
	}

	return &Result{
		Splits:         splits,
		TotalAllocated: total,
		Remainder:      decimal.Zero,
	}
}
