package balance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

const unknownUserName = "Unknown user"

// balancePlaces is the precision of reported balances
const balancePlaces = 2

// CalculateMemberBalances folds expenses into a net balance per user.
//
// Logic:
//   - Every member ID starts at zero, so inactive members still appear
//   - The creator of an expense is credited the full amount (they fronted it)
//   - Every split line debits its user by the split amount, including
//     the creator's own line
//   - Users referenced by an expense but absent from memberIDs are included
//
// The result does not depend on the order of expenses.
func CalculateMemberBalances(expenses []domain.Expense, memberIDs []string) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = decimal.Zero
	}

	for _, expense := range expenses {
		balances[expense.CreatorID] = balances[expense.CreatorID].Add(expense.Amount)

		for _, split := range expense.Splits {
			balances[split.UserID] = balances[split.UserID].Sub(split.Amount)
		}
	}

	for id, b := range balances {
		balances[id] = b.Round(balancePlaces)
	}

	return balances
}

// GroupBalances returns one balance per member in member order with names
// attached. Users who only appear in expenses (for example former members)
// follow in ascending ID order.
func GroupBalances(expenses []domain.Expense, members []domain.GroupMember) []domain.GroupBalance {
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}

	balances := CalculateMemberBalances(expenses, memberIDs)

	out := make([]domain.GroupBalance, 0, len(balances))
	known := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := known[m.UserID]; dup {
			continue
		}
		known[m.UserID] = struct{}{}
		out = append(out, domain.GroupBalance{
			UserID:   m.UserID,
			UserName: m.Name,
			Balance:  balances[m.UserID],
		})
	}

	extra := make([]string, 0)
	for id := range balances {
		if _, ok := known[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)

	for _, id := range extra {
		out = append(out, domain.GroupBalance{
			UserID:   id,
			UserName: unknownUserName,
			Balance:  balances[id],
		})
	}

	return out
}

// HasOutstanding reports whether any balance is further than
// domain.SplitTolerance from zero
func HasOutstanding(balances []domain.GroupBalance) bool {
	for _, b := range balances {
		if b.Balance.Abs().GreaterThan(domain.SplitTolerance) {
			return true
		}
	}
	return false
}
