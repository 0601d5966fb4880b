//go:build unit

package money_test

import (
	"math"
	"testing"

	"parking-booking/internal/domain/money"
	"parking-booking/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMajor(t *testing.T) {
	m, err := money.FromMajor(49.5)
	require.NoError(t, err)
	assert.Equal(t, int64(4950), m.Minor())
	assert.Equal(t, "49.50", m.String())

	m, err = money.FromMajor(10.999)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), m.Minor())

	_, err = money.FromMajor(-1)
	assert.True(t, errs.Is(err, money.ErrNegativeAmount))

	_, err = money.FromMajor(math.NaN())
	assert.True(t, errs.Is(err, money.ErrInvalidAmount))

	_, err = money.FromMajor(1e17)
	assert.True(t, errs.Is(err, money.ErrAmountTooLarge))
	assert.True(t, errs.Is(err, errs.ErrValidation))

	_, err = money.FromMajor(math.MaxFloat64)
	assert.True(t, errs.Is(err, money.ErrAmountTooLarge))
}

func TestTimes(t *testing.T) {
	cases := []struct {
		name      string
		minor     int64
		n         int64
		wantMinor int64
		wantErr   error
	}{
		{name: "three hours", minor: 5000, n: 3, wantMinor: 15000},
		{name: "zero", minor: 5000, n: 0, wantMinor: 0},
		{name: "largest product", minor: math.MaxInt64 / 2, n: 2, wantMinor: math.MaxInt64 - 1},
		{name: "product overflows", minor: 1 << 50, n: 8760, wantErr: money.ErrAmountTooLarge},
		{name: "max times two", minor: math.MaxInt64, n: 2, wantErr: money.ErrAmountTooLarge},
		{name: "negative multiplier", minor: 5000, n: -1, wantErr: money.ErrNegativeAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := money.MustFromMinor(tc.minor).Times(tc.n)
			if tc.wantErr != nil {
				assert.True(t, errs.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMinor, got.Minor())
		})
	}

	got, err := money.MustFromMinor(5000).Times(3)
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Major())
}
