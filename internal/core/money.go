// Package core holds the pure domain model: money, installment
// schedules, reconciliation and summaries. Nothing in this package
// performs I/O.
//
// Money is an integer amount of minor units (centavos) plus a currency
// tag. All arithmetic and comparison is exact; binary floats are only
// ever produced at the display boundary.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// DefaultCurrency is assumed whenever a currency tag is absent.
const DefaultCurrency = "BRL"

type Money struct {
	Cents    int64
	Currency string
}

// BRL builds a Money value in the default currency.
func BRL(cents int64) Money {
	return Money{Cents: cents, Currency: DefaultCurrency}
}

// ParseDecimalToCents converts a decimal string to minor units with
// half-up rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) separators. Returns
// ErrInvalidAmount for empty, signed, non-numeric or non-positive input.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if hasFrac && strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits are cents; half-up on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseMoney parses a decimal amount into Money in the given currency.
// An empty currency falls back to DefaultCurrency.
func ParseMoney(s, currency string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Cents: cents, Currency: currency}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// SameCurrency reports whether both amounts carry the same tag, where an
// empty tag counts as DefaultCurrency.
func (m Money) SameCurrency(o Money) bool {
	return normCurrency(m.Currency) == normCurrency(o.Currency)
}

func normCurrency(c string) string {
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// Add returns m+o. Both values must share a currency.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents, Currency: normCurrency(m.Currency)}
}

// Sub returns m-o. Both values must share a currency.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents, Currency: normCurrency(m.Currency)}
}

// MulInt returns m scaled by k.
func (m Money) MulInt(k int64) Money {
	return Money{Cents: m.Cents * k, Currency: normCurrency(m.Currency)}
}

// Equal is exact minor-unit comparison, never approximate.
func (m Money) Equal(o Money) bool {
	return m.Cents == o.Cents && m.SameCurrency(o)
}

// SplitEvenly divides m into n equal shares of floor(cents/n) minor
// units plus a remainder of total - n*share (0 <= remainder < n cents).
// The caller must allocate the remainder explicitly; division never
// drops or invents currency.
func (m Money) SplitEvenly(n int) (share, remainder Money, err error) {
	if n < 1 {
		return Money{}, Money{}, ErrInvalidCount
	}
	if m.Cents <= 0 {
		return Money{}, Money{}, ErrInvalidAmount
	}
	cur := normCurrency(m.Currency)
	shareCents := m.Cents / int64(n)
	remCents := m.Cents - shareCents*int64(n)
	return Money{Cents: shareCents, Currency: cur}, Money{Cents: remCents, Currency: cur}, nil
}

// Reais returns the major-unit value as a float64 for display only.
// Use cents for every calculation and comparison.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}
