// Package money represents currency amounts as integer minor units.
//
// All ledger arithmetic happens on Amount (paisa, 1 INR = 100 paisa) so that
// balances are exact. Decimal values only appear at the edges: request
// parsing and JSON encoding.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the single currency unit every amount is expressed in.
const Currency = "INR"

// Amount is a signed quantity of minor currency units.
type Amount int64

const (
	// Dust is the largest amount treated as zero when settling debts (0.01).
	Dust Amount = 1

	// MaxExpense caps a single expense or settlement (10,00,000.00 INR).
	MaxExpense Amount = 100_000_000

	minorDigits = 2
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNoParticipants = errors.New("number of people must be positive")
)

// ParseAmount converts a decimal string such as "12.345" into minor units,
// rounding half-up to two fraction digits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	a, err := FromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, s)
	}
	return a, nil
}

// maxMinor is the largest magnitude an Amount can hold, in minor units.
var maxMinor = decimal.NewFromInt(math.MaxInt64)

// FromDecimal rounds d to two fraction digits and returns it in minor units.
// Values that do not fit in an Amount are rejected rather than wrapped.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Round(minorDigits).Shift(minorDigits)
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Amount(minor.IntPart()), nil
}

// FromMajor builds an Amount from whole currency units. Mostly useful in tests.
func FromMajor(units int64) Amount {
	return Amount(units * 100)
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -minorDigits)
}

// String formats the amount with exactly two fraction digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(minorDigits)
}

// Abs returns the magnitude of a.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// IsDust reports whether a is too small in magnitude to settle.
func (a Amount) IsDust() bool {
	return a.Abs() <= Dust
}

// MarshalJSON writes the amount as a JSON number with two fraction digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	v, err := FromDecimal(d)
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(data))
	}
	*a = v
	return nil
}

// SplitEqually divides total into n shares that sum exactly to total.
// The first total%n shares receive one extra minor unit.
func SplitEqually(total Amount, n int) ([]Amount, error) {
	if n <= 0 {
		return nil, ErrNoParticipants
	}
	base := total / Amount(n)
	remainder := int(total % Amount(n))

	shares := make([]Amount, n)
	for i := range shares {
		shares[i] = base
		if i < remainder {
			shares[i]++
		}
	}
	return shares, nil
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
