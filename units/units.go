package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("amount is not a decimal number")
	ErrAmountOutOfRange = errors.New("amount does not fit the chain's integer type")
)

// ParseAmount parses a user entered decimal amount.
func ParseAmount(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return d, nil
}

// ToBaseUnits scales amount by 10^decimals, truncates to an integer and
// checks the result fits in maxBits bits. The magnitude is bounded on the
// decimal's digits and exponent before any big.Int is built.
func ToBaseUnits(amount string, decimals, maxBits int) (*big.Int, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return big.NewInt(0), nil
	}

	// digits left of the point once scaled
	intDigits := int64(d.NumDigits()) + int64(d.Exponent()) + int64(decimals)
	if intDigits <= 0 {
		return big.NewInt(0), nil
	}
	// 10^(maxBits/3) is already above 2^maxBits
	if intDigits > int64(maxBits/3)+1 {
		return nil, fmt.Errorf("%w: %d digits", ErrAmountOutOfRange, intDigits)
	}

	raw := d.Shift(int32(decimals)).Truncate(0).BigInt()
	if raw.BitLen() > maxBits {
		return nil, fmt.Errorf("%w: %d bits", ErrAmountOutOfRange, raw.BitLen())
	}
	return raw, nil
}

// ToDisplay renders raw base units as a decimal string without trailing zeros.
func ToDisplay(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// Sum adds up base unit strings as returned by chain clients.
func Sum(values ...string) (*big.Int, error) {
	sum := big.NewInt(0)
	for _, v := range values {
		if v == "" {
			continue
		}
		bi, ok := big.NewInt(0).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("cannot parse base units %q", v)
		}
		sum.Add(sum, bi)
	}
	return sum, nil
}
