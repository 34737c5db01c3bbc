package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
}

// CurrencyExponent returns the number of minor-unit digits for an ISO-4217 code.
func CurrencyExponent(currencyCode string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currencyCode)] {
		return 0
	}
	return 2
}

// FormatMinorUnits renders an amount held in the smallest currency unit as a major-unit string.
// Example: 299900 INR returns "2999.00"
// Example: 500 JPY returns "500"
func FormatMinorUnits(amount int64, currencyCode string) string {
	exp := CurrencyExponent(currencyCode)
	return decimal.New(amount, -exp).StringFixed(exp)
}
