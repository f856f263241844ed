// Package money provides decimal-safe parsing, validation, and display
// formatting for monetary amounts. All amounts are shopspring decimals with
// at most two decimal places; binary floating point never enters the money
// path.
package money

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a monetary input is malformed, has more
// than two decimal places, or violates the caller's sign requirement.
var ErrInvalidAmount = errors.New("invalid amount")

// Parse converts s into a monetary decimal. It rejects malformed input and
// amounts with sub-cent precision.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return Validate(d)
}

// ParseNonNegative is Parse restricted to amounts >= 0 (opening floats).
func ParseNonNegative(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositive is Parse restricted to amounts > 0 (unit prices).
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Validate checks that d is a well-formed monetary amount: at most two
// decimal places. It returns d unchanged on success.
func Validate(d decimal.Decimal) (decimal.Decimal, error) {
	if d.Exponent() < -2 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ValidateNonNegative is Validate restricted to amounts >= 0.
func ValidateNonNegative(d decimal.Decimal) (decimal.Decimal, error) {
	d, err := Validate(d)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatBRL renders d in Brazilian currency notation: "R$ 1.234,56".
// Negative amounts render as "-R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("R$ ")

	// Thousands separators, right to left.
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)

	return b.String()
}
