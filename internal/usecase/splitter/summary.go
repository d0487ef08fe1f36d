package splitter

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

const unknownUserName = "Unknown user"

// SplitSummary is a display row for one split line
type SplitSummary struct {
	UserID     string           `json:"userId"`
	UserName   string           `json:"userName"`
	Amount     decimal.Decimal  `json:"amount"`
	Type       domain.SplitType `json:"type"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

// ValidateSplitsTotal reports whether the split amounts reconcile to
// expected within domain.SplitTolerance
func ValidateSplitsTotal(splits []domain.ExpenseSplit, expected decimal.Decimal) bool {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	return total.Sub(expected).Abs().LessThanOrEqual(domain.SplitTolerance)
}

// Summary attaches member names to each split line, preserving split order
func Summary(splits []domain.ExpenseSplit, members []domain.ExpenseMember) []SplitSummary {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	out := make([]SplitSummary, 0, len(splits))
	for _, s := range splits {
		name, ok := names[s.UserID]
		if !ok {
			name = unknownUserName
		}
		out = append(out, SplitSummary{
			UserID:     s.UserID,
			UserName:   name,
			Amount:     s.Amount,
			Type:       s.Type,
			Percentage: s.Percentage,
		})
	}
	return out
}
