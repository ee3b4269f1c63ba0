// Package money holds the exact decimal arithmetic for the settlement domain.
// Amounts travel as 2-decimal strings (DB NUMERIC) and are never computed on
// floats.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PlatformShareRate is the platform's cut of every paid order.
var PlatformShareRate = decimal.NewFromFloat(0.30)

// Parse accepts a decimal string with at most two fraction digits.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("invalid amount %q: more than 2 decimal places", s)
	}
	return d, nil
}

// ParsePositive is Parse plus a strictly-positive check.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero, got %q", s)
	}
	return d, nil
}

// Format renders an amount as a 2-decimal string for storage and transport.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func Add(a, b string) (string, error) {
	da, err := Parse(a)
	if err != nil {
		return "", err
	}
	db, err := Parse(b)
	if err != nil {
		return "", err
	}
	return Format(da.Add(db)), nil
}

func Sub(a, b string) (string, error) {
	da, err := Parse(a)
	if err != nil {
		return "", err
	}
	db, err := Parse(b)
	if err != nil {
		return "", err
	}
	return Format(da.Sub(db)), nil
}

// Cmp returns -1, 0 or 1 comparing a to b.
func Cmp(a, b string) (int, error) {
	da, err := Parse(a)
	if err != nil {
		return 0, err
	}
	db, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return da.Cmp(db), nil
}

// Split divides a paid amount into the platform share and the instructor
// share. The platform share is rounded to cents; the instructor share is the
// remainder, so the two always sum exactly to the input.
func Split(total string) (platformShare, instructorShare string, err error) {
	d, err := ParsePositive(total)
	if err != nil {
		return "", "", err
	}

	platform := d.Mul(PlatformShareRate).Round(2)
	instructor := d.Sub(platform)

	return Format(platform), Format(instructor), nil
}
