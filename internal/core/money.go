// Package core provides money parsing and handling utilities.
//
// Amounts are kept as int64 minor units. Parsing goes through exact
// decimals so user input never touches floating point.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no ISO code is configured.
const DefaultCurrency = "RUB"

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
//	ParseDecimalToCents("300")    -> 30000, nil
func ParseDecimalToCents(s string) (int64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return DecimalToCents(d, false)
}

// MaxCents bounds a single amount and keeps sums of a few million
// transactions inside int64.
const MaxCents = 1 << 50

// DecimalToCents rounds a major-unit amount to cents. Amounts above
// MaxCents or below zero are rejected, as is zero unless allowZero is set.
func DecimalToCents(d decimal.Decimal, allowZero bool) (int64, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.IsNegative() || cents.GreaterThan(decimal.NewFromInt(MaxCents)) {
		return 0, ErrInvalidAmount
	}
	if cents.IsZero() && !allowZero {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseDecimal parses a non-negative plain decimal (no sign, no exponent).
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// MoneyFromMajor converts a computed major-unit amount into Money for
// display. Input from users goes through DecimalToCents instead.
func MoneyFromMajor(d decimal.Decimal) Money {
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// CheckedAdd is Add for stored balances: it fails with ErrInvalidAmount
// when the sum would leave the supported range.
func (m Money) CheckedAdd(o Money) (Money, error) {
	if o.Cents < 0 || m.Cents > MaxCents-o.Cents {
		return Money{}, ErrInvalidAmount
	}
	return m.Add(o), nil
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Format renders the amount in the given ISO currency ("" means RUB).
func (m Money) Format(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return money.New(m.Cents, strings.ToUpper(currency)).Display()
}

// String prints major units with two decimals, e.g. "300.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
