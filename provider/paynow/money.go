package paynow

import (
	"github.com/mstgnz/paynow/provider"
	"github.com/shopspring/decimal"
)

// currencyExponents holds the number of minor-unit digits per currency
var currencyExponents = map[Currency]int32{
	CurrencyPLN: 2,
	CurrencyEUR: 2,
	CurrencyUSD: 2,
	CurrencyGBP: 2,
}

// ParseCurrency returns the currency for a supported ISO code
func ParseCurrency(code string) (Currency, error) {
	c := Currency(code)
	if _, ok := currencyExponents[c]; !ok {
		return "", &provider.ConversionError{Currency: code, Reason: "unsupported currency"}
	}
	return c, nil
}

// Exponent returns the minor-unit exponent of a supported currency
func Exponent(currency Currency) (int32, error) {
	exp, ok := currencyExponents[currency]
	if !ok {
		return 0, &provider.ConversionError{Currency: string(currency), Reason: "unsupported currency"}
	}
	return exp, nil
}

// ToMinorUnits converts an exact decimal amount to integer minor units.
// Amounts with more fractional digits than the currency allows are rejected, never rounded.
func ToMinorUnits(amount decimal.Decimal, currency Currency) (int64, error) {
	exp, err := Exponent(currency)
	if err != nil {
		return 0, err
	}

	scaled := amount.Shift(exp)
	if !scaled.IsInteger() {
		return 0, &provider.ConversionError{
			Amount:   amount.String(),
			Currency: string(currency),
			Reason:   "amount has more fractional digits than the currency allows",
		}
	}
	units := scaled.BigInt()
	if !units.IsInt64() {
		return 0, &provider.ConversionError{
			Amount:   amount.String(),
			Currency: string(currency),
			Reason:   "amount is out of range",
		}
	}
	return units.Int64(), nil
}

// FromMinorUnits converts integer minor units back to an exact decimal amount
func FromMinorUnits(units int64, currency Currency) (decimal.Decimal, error) {
	exp, err := Exponent(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(units, -exp), nil
}
