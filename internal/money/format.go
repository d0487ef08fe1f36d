package money

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/simaogato/partio-backend/internal/domain"
)

// Format renders amount in the currency's locale, e.g. "$1,234.56" for USD
// or "1.234,56 €" for EUR
func Format(amount decimal.Decimal, currency Currency) (string, error) {
	cfg, err := lookup(currency)
	if err != nil {
		return "", err
	}

	digits, negative := localeDigits(amount, cfg)
	out := strings.Replace(cfg.layout, "#", digits, 1)
	out = strings.Replace(out, "¤", cfg.symbol, 1)
	if negative {
		out = "-" + out
	}
	return out, nil
}

// FormatCompact renders amount as the bare symbol followed by locale digits
func FormatCompact(amount decimal.Decimal, currency Currency) (string, error) {
	cfg, err := lookup(currency)
	if err != nil {
		return "", err
	}

	digits, negative := localeDigits(amount, cfg)
	if negative {
		return "-" + cfg.symbol + digits, nil
	}
	return cfg.symbol + digits, nil
}

func localeDigits(amount decimal.Decimal, cfg currencyConfig) (string, bool) {
	rounded := amount.Round(cfg.decimals)
	p := message.NewPrinter(cfg.locale)
	digits := p.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(int(cfg.decimals))))
	return digits, rounded.IsNegative()
}

// Parse reads a money string written in any of the supported locale
// conventions. The last ',' or '.' is taken as the decimal point and the
// other separator is stripped as grouping. A separator that repeats, or that
// is followed by exactly three digits in a zero-decimal currency, is grouping.
func Parse(s string, currency Currency) (decimal.Decimal, error) {
	cfg, err := lookup(currency)
	if err != nil {
		return decimal.Zero, err
	}

	clean := strings.ReplaceAll(s, cfg.symbol, "")
	clean = strings.ReplaceAll(clean, string(currency), "")
	clean = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, clean)

	negative := false
	if strings.HasPrefix(clean, "-") {
		negative = true
		clean = clean[1:]
	}

	clean, ok := normalizeSeparators(clean, cfg.decimals)
	if !ok || clean == "" || strings.ContainsAny(clean, "eE+-") {
		return decimal.Zero, domain.NewValidationError("invalid money format: %q", s)
	}

	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, domain.NewValidationError("invalid money format: %q", s)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// normalizeSeparators rewrites s with '.' as the only decimal point.
// It reports false when a digit group between separators is empty.
func normalizeSeparators(s string, decimals int32) (string, bool) {
	pos := strings.LastIndexAny(s, ",.")
	if pos < 0 {
		return s, true
	}

	for i := 1; i < len(s); i++ {
		if isSeparator(s[i]) && isSeparator(s[i-1]) {
			return "", false
		}
	}

	sep := s[pos]
	integer, fraction := s[:pos], s[pos+1:]

	grouping := strings.IndexByte(integer, sep) >= 0 ||
		(decimals == 0 && len(fraction) == 3)
	if grouping {
		if isSeparator(s[0]) || isSeparator(s[len(s)-1]) {
			return "", false
		}
		return stripSeparators(s), true
	}
	return stripSeparators(integer) + "." + fraction, true
}

func isSeparator(c byte) bool {
	return c == ',' || c == '.'
}

func stripSeparators(s string) string {
	return strings.NewReplacer(",", "", ".", "").Replace(s)
}
