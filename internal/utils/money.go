package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponents lists ISO 4217 currencies whose minor unit is not 1/100.
var minorUnitExponents = map[string]int32{
	"JPY": 0, "KRW": 0, "VND": 0, "CLP": 0, "ISK": 0, "UGX": 0, "XAF": 0, "XOF": 0,
	"BHD": 3, "KWD": 3, "OMR": 3, "JOD": 3, "TND": 3,
}

// MinorUnitExponent returns the number of decimal places of currencyCode.
func MinorUnitExponent(currencyCode string) int32 {
	if exp, ok := minorUnitExponents[strings.ToUpper(currencyCode)]; ok {
		return exp
	}
	return 2
}

// FormatMinorUnits renders an amount held in minor units as a fixed-precision
// decimal string for the currency.
// Example: 12345 USD returns "123.45", 500 JPY returns "500", 1500 KWD returns "1.500"
func FormatMinorUnits(amount int64, currencyCode string) string {
	exp := MinorUnitExponent(currencyCode)
	return decimal.New(amount, -exp).StringFixed(exp)
}
