// Package money implements currency-aware amounts with fixed-point rounding
// per currency, plus locale-aware formatting and parsing.
package money

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/simaogato/partio-backend/internal/domain"
)

// Currency is an ISO 4217 currency code
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	ARS Currency = "ARS"
	BRL Currency = "BRL"
	CLP Currency = "CLP"
	COP Currency = "COP"
	MXN Currency = "MXN"
	PEN Currency = "PEN"
	UYU Currency = "UYU"
)

// DefaultCurrency is used when a group or expense does not name one
const DefaultCurrency = USD

// currencyConfig holds the display and precision settings of a currency.
// layout places the symbol (¤) relative to the digits (#).
type currencyConfig struct {
	symbol   string
	decimals int32
	locale   language.Tag
	layout   string
}

var currencyConfigs = map[Currency]currencyConfig{
	USD: {symbol: "$", decimals: 2, locale: language.MustParse("en-US"), layout: "¤#"},
	EUR: {symbol: "€", decimals: 2, locale: language.MustParse("de-DE"), layout: "# ¤"},
	ARS: {symbol: "$", decimals: 2, locale: language.MustParse("es-AR"), layout: "¤ #"},
	BRL: {symbol: "R$", decimals: 2, locale: language.MustParse("pt-BR"), layout: "¤ #"},
	CLP: {symbol: "$", decimals: 0, locale: language.MustParse("es-CL"), layout: "¤#"},
	COP: {symbol: "$", decimals: 0, locale: language.MustParse("es-CO"), layout: "¤ #"},
	MXN: {symbol: "$", decimals: 2, locale: language.MustParse("es-MX"), layout: "¤#"},
	PEN: {symbol: "S/", decimals: 2, locale: language.MustParse("es-PE"), layout: "¤ #"},
	UYU: {symbol: "$U", decimals: 2, locale: language.MustParse("es-UY"), layout: "¤ #"},
}

func lookup(currency Currency) (currencyConfig, error) {
	cfg, ok := currencyConfigs[currency]
	if !ok {
		return currencyConfig{}, domain.NewValidationError("unsupported currency: %s", currency)
	}
	return cfg, nil
}

// IsSupportedCurrency reports whether code names a supported currency
func IsSupportedCurrency(code string) bool {
	_, ok := currencyConfigs[Currency(code)]
	return ok
}

// Currencies returns the supported currencies sorted by code
func Currencies() []Currency {
	out := make([]Currency, 0, len(currencyConfigs))
	for c := range currencyConfigs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Symbol returns the display symbol of a currency
func Symbol(currency Currency) (string, error) {
	cfg, err := lookup(currency)
	if err != nil {
		return "", err
	}
	return cfg.symbol, nil
}

// DecimalPlaces returns the canonical precision of a currency.
// CLP and COP never carry fractional units.
func DecimalPlaces(currency Currency) (int32, error) {
	cfg, err := lookup(currency)
	if err != nil {
		return 0, err
	}
	return cfg.decimals, nil
}

// Round rounds amount to the currency's canonical precision,
// half away from zero
func Round(amount decimal.Decimal, currency Currency) (decimal.Decimal, error) {
	cfg, err := lookup(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Round(cfg.decimals), nil
}
