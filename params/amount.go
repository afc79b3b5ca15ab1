package params

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const nearDecimals = 24

var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrFractionalYocto  = errors.New("amount has more than 24 fractional digits")
	ErrAmountOutOfRange = errors.New("amount does not fit in 128 bits")
)

// ParseNear parses a decimal amount of NEAR such as "0.01" or "10" and returns
// it in yoctoNEAR.
func ParseNear(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid NEAR amount %q: %w", s, err)
	}
	d = d.Shift(nearDecimals)
	if !d.IsInteger() {
		return nil, ErrFractionalYocto
	}
	return checkYocto(d.BigInt())
}

// ParseYocto parses an integral amount of yoctoNEAR.
func ParseYocto(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid yoctoNEAR amount %q", s)
	}
	return checkYocto(v)
}

// FormatNear renders a yoctoNEAR amount as a decimal NEAR string.
func FormatNear(yocto *big.Int) string {
	if yocto == nil {
		return "0"
	}
	return decimal.NewFromBigInt(yocto, -nearDecimals).String()
}

func checkYocto(v *big.Int) (*big.Int, error) {
	if v.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if v.BitLen() > 128 {
		return nil, ErrAmountOutOfRange
	}
	return v, nil
}
