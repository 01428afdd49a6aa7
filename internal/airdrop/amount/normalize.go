// Package amount converts operator-entered decimal quantities into the token's
// indivisible unit. Conversion is exact: no value passes through a binary float.
package amount

import (
	"math/big"
	"regexp"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github/chapool/go-airdrop/internal/airdrop/failure"
)

// MaxPrecision is the largest precision an ERC20 decimals() value can report.
const MaxPrecision = 255

// Plain decimal: digits with an optional fraction, or a bare fraction. No sign,
// exponent or grouping separators.
var plainDecimal = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)

// Parse validates text against the plain decimal grammar and requires a value > 0.
func Parse(text string) (decimal.Decimal, error) {
	if !plainDecimal.MatchString(text) {
		return decimal.Zero, failure.Newf(failure.InvalidAmount, "%q is not a plain decimal number", text)
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, failure.Wrap(err, failure.InvalidAmount, text)
	}

	if value.Sign() <= 0 {
		return decimal.Zero, failure.Newf(failure.InvalidAmount, "%q must be greater than zero", text)
	}

	return value, nil
}

// Normalize returns text * 10^precision as an exact integer. It fails with
// PrecisionExceeded when the result would need more fractional digits than
// precision allows; trailing zeros beyond precision are lossless and accepted.
func Normalize(text string, precision int) (*big.Int, error) {
	if precision < 0 || precision > MaxPrecision {
		return nil, errors.Errorf("precision %d out of range", precision)
	}

	value, err := Parse(text)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // precision is bounded by MaxPrecision above
	scaled := value.Shift(int32(precision))
	if !scaled.IsInteger() {
		return nil, failure.Newf(failure.PrecisionExceeded,
			"%q has more than %d fractional digits", text, precision)
	}

	return scaled.BigInt(), nil
}

// Format is the inverse of Normalize: it renders units with the given precision
// as a canonical decimal string (no trailing fractional zeros).
func Format(units *big.Int, precision int) string {
	if units == nil {
		return "0"
	}

	//nolint:gosec // precision originates from decimals(), which fits int32
	return decimal.NewFromBigInt(units, -int32(precision)).String()
}

// Sum adds up amounts exactly. The result is a fresh value.
func Sum(amounts []*big.Int) *big.Int {
	total := new(big.Int)
	for _, a := range amounts {
		total.Add(total, a)
	}
	return total
}
