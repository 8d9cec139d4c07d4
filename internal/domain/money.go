package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MicrosPerCent is the smallest amount a purchase may carry.
const MicrosPerCent = 10_000

var (
	microsPerUnit = decimal.NewFromInt(1_000_000)
	maxMicros     = decimal.NewFromInt(math.MaxInt64)
	minMicros     = decimal.NewFromInt(math.MinInt64)
)

// Money represents a wallet amount in a specific currency.
// Amount is stored as BIGINT micros (10^-6) to avoid floating point errors.
type Money struct {
	Amount   int64  // micros
	Currency string // ISO 4217
}

// NewMoney creates a new Money instance from micros.
func NewMoney(amount int64, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// ToDecimal converts the int64 micros to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(microsPerUnit)
}

// FromDecimal converts a decimal.Decimal to int64 micros. Values outside the
// int64 range are an error; fractions of a micro are truncated.
func FromDecimal(d decimal.Decimal) (int64, error) {
	micros := d.Mul(microsPerUnit).Truncate(0)
	if micros.GreaterThan(maxMicros) || micros.LessThan(minMicros) {
		return 0, fmt.Errorf("amount %s out of range", d.String())
	}
	return micros.IntPart(), nil
}

// ParseAmount parses a decimal string into micros. Amounts carry at most two
// fractional digits, the precision providers are charged in.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("invalid amount %q: too many decimal places", s)
	}
	micros, err := FromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return micros, nil
}

// IsWholeCents reports whether micros can be sent to a provider unrounded.
func IsWholeCents(micros int64) bool {
	return micros%MicrosPerCent == 0
}

// ProviderAmount renders micros with two decimal places, as providers expect.
// Callers reject amounts that are not whole cents before submitting.
func ProviderAmount(micros int64) string {
	return NewMoney(micros, "").ToDecimal().StringFixed(2)
}

// String returns the string representation of the money.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(2), m.Currency)
}
