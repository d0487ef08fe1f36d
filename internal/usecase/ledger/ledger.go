// Package ledger evaluates a group ledger described in a YAML document,
// without any storage: splits, balances and settlement suggestions are
// computed with the same rules the server uses.
package ledger

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
	"github.com/simaogato/partio-backend/internal/usecase/balance"
	"github.com/simaogato/partio-backend/internal/usecase/settlement"
	"github.com/simaogato/partio-backend/internal/usecase/splitter"
)

// File is the YAML ledger document
type File struct {
	Currency string    `yaml:"currency"`
	Members  []Member  `yaml:"members"`
	Expenses []Expense `yaml:"expenses"`
}

// Member is a ledger participant
type Member struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Expense is one ledger line. Amounts are money strings in any supported
// locale convention. Values holds per-member amounts for EXACT and
// percentages for PERCENTAGE.
type Expense struct {
	Title        string            `yaml:"title"`
	PaidBy       string            `yaml:"paidBy"`
	Amount       string            `yaml:"amount"`
	SplitType    string            `yaml:"splitType"`
	Participants []string          `yaml:"participants"`
	Values       map[string]string `yaml:"values"`
}

// Report is the evaluated ledger
type Report struct {
	Currency    money.Currency
	Expenses    []domain.Expense
	Balances    []domain.GroupBalance
	Settlements []domain.SettlementSuggestion
}

// Load decodes a ledger document
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	return &f, nil
}

// Evaluate computes every expense split, the resulting balances and the
// settlement suggestions
func Evaluate(f *File) (*Report, error) {
	currency := money.Currency(strings.ToUpper(strings.TrimSpace(f.Currency)))
	if currency == "" {
		currency = money.DefaultCurrency
	}
	if !money.IsSupportedCurrency(string(currency)) {
		return nil, domain.NewValidationError("unsupported currency: %s", currency)
	}

	if len(f.Members) == 0 {
		return nil, domain.NewValidationError("ledger must list at least one member")
	}

	members := make(map[string]domain.ExpenseMember, len(f.Members))
	groupMembers := make([]domain.GroupMember, 0, len(f.Members))
	for _, m := range f.Members {
		if _, dup := members[m.ID]; dup {
			return nil, domain.NewValidationError("duplicate member %s", m.ID)
		}
		members[m.ID] = domain.ExpenseMember{ID: m.ID, Name: m.Name}
		groupMembers = append(groupMembers, domain.GroupMember{
			UserID: m.ID,
			Name:   m.Name,
			Status: domain.MemberStatusActive,
		})
	}

	report := &Report{Currency: currency}
	for i, line := range f.Expenses {
		e, err := evaluateExpense(line, currency, members, f.Members)
		if err != nil {
			return nil, fmt.Errorf("expense %d (%s): %w", i+1, line.Title, err)
		}
		report.Expenses = append(report.Expenses, *e)
	}

	report.Balances = balance.GroupBalances(report.Expenses, groupMembers)
	report.Settlements = settlement.SuggestSettlements(report.Balances)

	return report, nil
}

func evaluateExpense(line Expense, currency money.Currency, members map[string]domain.ExpenseMember, order []Member) (*domain.Expense, error) {
	if _, ok := members[line.PaidBy]; !ok {
		return nil, domain.NewValidationError("payer %q is not a member", line.PaidBy)
	}

	amount, err := money.Parse(line.Amount, currency)
	if err != nil {
		return nil, err
	}

	splitType := domain.SplitType(strings.ToUpper(line.SplitType))
	if splitType == "" {
		splitType = domain.SplitTypeEqual
	}

	var participants []domain.ExpenseMember
	if len(line.Participants) == 0 {
		for _, m := range order {
			participants = append(participants, members[m.ID])
		}
	} else {
		for _, id := range line.Participants {
			m, ok := members[id]
			if !ok {
				return nil, domain.NewValidationError("participant %q is not a member", id)
			}
			participants = append(participants, m)
		}
	}

	custom, err := customSplits(line.Values, splitType, currency)
	if err != nil {
		return nil, err
	}

	result, err := splitter.CalculateSplits(splitter.Input{
		TotalAmount:  amount,
		Currency:     currency,
		Members:      participants,
		SplitType:    splitType,
		CustomSplits: custom,
	})
	if err != nil {
		return nil, err
	}

	total, err := money.Round(amount, currency)
	if err != nil {
		return nil, err
	}

	return &domain.Expense{
		Title:     line.Title,
		Amount:    total,
		Currency:  string(currency),
		CreatorID: line.PaidBy,
		SplitType: splitType,
		Splits:    result.Splits,
		Status:    domain.ExpenseStatusActive,
	}, nil
}

func customSplits(values map[string]string, splitType domain.SplitType, currency money.Currency) ([]domain.CustomSplit, error) {
	if len(values) == 0 {
		return nil, nil
	}

	custom := make([]domain.CustomSplit, 0, len(values))
	for userID, raw := range values {
		var (
			v   decimal.Decimal
			err error
		)
		if splitType == domain.SplitTypePercentage {
			v, err = decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
			if err != nil {
				err = domain.NewValidationError("invalid percentage %q for %s", raw, userID)
			}
		} else {
			v, err = money.Parse(raw, currency)
		}
		if err != nil {
			return nil, err
		}

		split := domain.CustomSplit{UserID: userID}
		if splitType == domain.SplitTypePercentage {
			split.Percentage = &v
		} else {
			split.Amount = &v
		}
		custom = append(custom, split)
	}

	return custom, nil
}
