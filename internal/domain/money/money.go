package money

import (
	"fmt"
	"math"

	"parking-booking/internal/pkg/errs"
)

var (
	ErrNegativeAmount = errs.Kind("amount cannot be negative", errs.ErrValidation)
	ErrInvalidAmount  = errs.Kind("amount must be a finite number", errs.ErrValidation)
	ErrAmountTooLarge = errs.Kind("amount is too large", errs.ErrValidation)
)

// Money is an amount in minor currency units (paise).
type Money struct {
	minor int64
}

func FromMinor(minor int64) (Money, error) {
	if minor < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{minor: minor}, nil
}

// FromMajor converts a decimal amount such as 49.50 into minor units, rounding
// to the nearest paisa.
func FromMajor(major float64) (Money, error) {
	if math.IsNaN(major) || math.IsInf(major, 0) {
		return Money{}, ErrInvalidAmount
	}
	minor := math.Round(major * 100)
	// float64(MaxInt64) rounds up to 2^63, which no longer converts
	if minor >= float64(math.MaxInt64) {
		return Money{}, ErrAmountTooLarge
	}
	return FromMinor(int64(minor))
}

func MustFromMinor(minor int64) Money {
	m, err := FromMinor(minor)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Minor() int64 {
	return m.minor
}

func (m Money) Major() float64 {
	return float64(m.minor) / 100
}

func (m Money) IsZero() bool {
	return m.minor == 0
}

func (m Money) Times(n int64) (Money, error) {
	if n < 0 {
		return Money{}, ErrNegativeAmount
	}
	if n > 0 && m.minor > math.MaxInt64/n {
		return Money{}, ErrAmountTooLarge
	}
	return Money{minor: m.minor * n}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.minor/100, m.minor%100)
}
