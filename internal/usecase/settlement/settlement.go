package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

const amountPlaces = 2

type position struct {
	userID    string
	remaining decimal.Decimal
}

// SuggestSettlements produces payer -> receiver transfers that bring every
// balance to zero.
//
// Logic:
//   - Debtors (balance < 0, kept as a positive owed amount) and creditors
//     (balance > 0) are taken in the order of the input slice
//   - The current debtor pays the current creditor min(owed, due)
//   - A pointer advances when its remaining amount reaches zero
//   - Stops when either side is exhausted
//
// Every step zeroes at least one side, so the result never has more
// transfers than there are non-zero balances. Greedy, not minimal-count.
func SuggestSettlements(balances []domain.GroupBalance) []domain.SettlementSuggestion {
	debtors := make([]position, 0)
	creditors := make([]position, 0)

	for _, b := range balances {
		switch {
		case b.Balance.IsNegative():
			debtors = append(debtors, position{userID: b.UserID, remaining: b.Balance.Abs()})
		case b.Balance.IsPositive():
			creditors = append(creditors, position{userID: b.UserID, remaining: b.Balance})
		}
	}

	suggestions := make([]domain.SettlementSuggestion, 0)

	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := decimal.Min(debtor.remaining, creditor.remaining)

		suggestions = append(suggestions, domain.SettlementSuggestion{
			PayerID:    debtor.userID,
			ReceiverID: creditor.userID,
			Amount:     amount.Round(amountPlaces),
		})

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if debtor.remaining.IsZero() {
			i++
		}
		if creditor.remaining.IsZero() {
			j++
		}
	}

	return suggestions
}
