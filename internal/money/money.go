package money

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/partio-backend/internal/domain"
)

// Money is an amount tagged with its currency.
// Amount is always rounded to the currency's canonical precision.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// New creates a Money value, rounding amount to the currency precision.
// Negative amounts are rejected.
func New(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, domain.NewValidationError("amount cannot be negative")
	}
	return newRounded(amount, currency)
}

// newRounded rounds without the sign check; subtraction deltas go through here
func newRounded(amount decimal.Decimal, currency Currency) (Money, error) {
	rounded, err := Round(amount, currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: rounded, Currency: currency}, nil
}

// Zero returns a zero amount in the given currency
func Zero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func sameCurrency(a, b Money, op string) error {
	if a.Currency != b.Currency {
		return domain.NewValidationError("cannot %s different currencies: %s and %s", op, a.Currency, b.Currency)
	}
	return nil
}

// Add sums two amounts of the same currency
func Add(a, b Money) (Money, error) {
	if err := sameCurrency(a, b, "add"); err != nil {
		return Money{}, err
	}
	return New(a.Amount.Add(b.Amount), a.Currency)
}

// Subtract returns a - b. The result may be negative.
func Subtract(a, b Money) (Money, error) {
	if err := sameCurrency(a, b, "subtract"); err != nil {
		return Money{}, err
	}
	return newRounded(a.Amount.Sub(b.Amount), a.Currency)
}

// Multiply scales m by a non-negative factor
func Multiply(m Money, factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, domain.NewValidationError("factor cannot be negative")
	}
	return newRounded(m.Amount.Mul(factor), m.Currency)
}

// Divide splits m by a positive divisor
func Divide(m Money, divisor decimal.Decimal) (Money, error) {
	if divisor.LessThanOrEqual(decimal.Zero) {
		return Money{}, domain.NewValidationError("divisor must be greater than 0")
	}
	return newRounded(m.Amount.Div(divisor), m.Currency)
}

// Convert re-tags m in the target currency using rate.
// Converting to the same currency returns m unchanged.
func Convert(m Money, target Currency, rate decimal.Decimal) (Money, error) {
	if m.Currency == target {
		return m, nil
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return Money{}, domain.NewValidationError("exchange rate must be greater than 0")
	}
	return newRounded(m.Amount.Mul(rate), target)
}

// Compare returns -1, 0 or 1 as a is less than, equal to or greater than b
func Compare(a, b Money) (int, error) {
	if err := sameCurrency(a, b, "compare"); err != nil {
		return 0, err
	}
	return a.Amount.Cmp(b.Amount), nil
}

// Equal reports whether a and b share a currency and differ by at most
// one cent. Different currencies are never equal.
func Equal(a, b Money) bool {
	if a.Currency != b.Currency {
		return false
	}
	return a.Amount.Sub(b.Amount).Abs().LessThanOrEqual(domain.SplitTolerance)
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return m.Amount.String() + " " + string(m.Currency)
}
