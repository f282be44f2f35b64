package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"5", 18, "5000000000000000000"},
		{"1.5", 18, "1500000000000000000"},
		{"0.000000000000000001", 18, "1"},
		{"1.23456", 2, "123"},
		{"10", 0, "10"},
		{" 7 ", 9, "7000000000"},
		{"0.4", 0, "0"},
		{"1e-100000000", 18, "0"},
		{"1.5e3", 2, "150000"},
	}
	for _, c := range cases {
		got, err := ToBaseUnits(c.amount, c.decimals, 256)
		require.NoError(t, err, c.amount)
		require.Equal(t, c.want, got.String(), c.amount)
	}
}

func TestToBaseUnitsRejectsGarbage(t *testing.T) {
	_, err := ToBaseUnits("ten", 18, 256)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestToBaseUnitsBounds(t *testing.T) {
	max64 := new(big.Int).SetUint64(^uint64(0))
	got, err := ToBaseUnits(max64.String(), 0, 64)
	require.NoError(t, err)
	require.Equal(t, max64.String(), got.String())

	_, err = ToBaseUnits("18446744073709551616", 0, 64)
	require.ErrorIs(t, err, ErrAmountOutOfRange)
	_, err = ToBaseUnits("20", 9, 64)
	require.ErrorIs(t, err, ErrAmountOutOfRange)

	// rejected on the exponent alone, 10^N is never computed
	for _, amount := range []string{"1e100000000", "1e2000000000", "-1e100000000"} {
		_, err = ToBaseUnits(amount, 18, 256)
		require.ErrorIs(t, err, ErrAmountOutOfRange, amount)
	}
}

func TestToDisplay(t *testing.T) {
	raw, _ := big.NewInt(0).SetString("5000000000000000000", 10)
	require.Equal(t, "5", ToDisplay(raw, 18))
	require.Equal(t, "1.5", ToDisplay(big.NewInt(15), 1))
	require.Equal(t, "0", ToDisplay(big.NewInt(0), 18))
	require.Equal(t, "0", ToDisplay(nil, 18))
}

func TestScalingRoundTrip(t *testing.T) {
	amounts := []string{"1", "0.5", "1.23456789", "123456.000001", "0.000000000000000001", "99.99", "3.14159265358979323846"}
	for _, d := range []int{0, 2, 6, 9, 18} {
		for _, a := range amounts {
			base, err := ToBaseUnits(a, d, 256)
			require.NoError(t, err)
			again, err := ToBaseUnits(ToDisplay(base, d), d, 256)
			require.NoError(t, err)
			require.Equal(t, base.String(), again.String(), "amount %s decimals %d", a, d)
		}
	}
}

func TestSum(t *testing.T) {
	sum, err := Sum("4", "", "7")
	require.NoError(t, err)
	require.Equal(t, "11", sum.String())

	sum, err = Sum()
	require.NoError(t, err)
	require.Equal(t, "0", sum.String())

	_, err = Sum("4", "x")
	require.Error(t, err)
}
