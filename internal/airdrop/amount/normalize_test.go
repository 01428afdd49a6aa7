package amount_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-airdrop/internal/airdrop/amount"
	"github/chapool/go-airdrop/internal/airdrop/failure"
)

func TestNormalizeScenarioA(t *testing.T) {
	units, err := amount.Normalize("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", units.String())
}

func TestNormalizeScenarioB(t *testing.T) {
	_, err := amount.Normalize("0.0000000000000000001", 18)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.PrecisionExceeded))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		text      string
		precision int
		want      string
	}{
		{"1", 0, "1"},
		{"1.0", 0, "1"},
		{"0.000001", 6, "1"},
		{".5", 1, "5"},
		{"7.", 2, "700"},
		{"1.50", 1, "15"},
		{"123456789012345678901234567890.123456789012345678", 18, "123456789012345678901234567890123456789012345678"},
		{"0.1", 36, "100000000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			units, err := amount.Normalize(tt.text, tt.precision)
			require.NoError(t, err)
			assert.Equal(t, tt.want, units.String())
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		text      string
		precision int
		kind      failure.Kind
	}{
		{"0", 18, failure.InvalidAmount},
		{"0.000", 18, failure.InvalidAmount},
		{"-1", 18, failure.InvalidAmount},
		{"+1", 18, failure.InvalidAmount},
		{"1e3", 18, failure.InvalidAmount},
		{"1,000", 18, failure.InvalidAmount},
		{"abc", 18, failure.InvalidAmount},
		{"", 18, failure.InvalidAmount},
		{".", 18, failure.InvalidAmount},
		{"1.5", 0, failure.PrecisionExceeded},
		{"0.123", 2, failure.PrecisionExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := amount.Normalize(tt.text, tt.precision)
			require.Error(t, err)
			assert.Equal(t, tt.kind, failure.KindOf(err))
		})
	}
}

func TestNormalizePrecisionOutOfRange(t *testing.T) {
	_, err := amount.Normalize("1", -1)
	require.Error(t, err)
	_, err = amount.Normalize("1", 256)
	require.Error(t, err)
}

// Format returns the canonical text, so the round trip is exact on the value and
// on the units, not on the input spelling.
func TestFormatRoundTrip(t *testing.T) {
	inputs := []string{"1.5", "1.50", "01", "0.000000000000000001", "42", "1000000.25", "0.10"}
	for _, precision := range []int{1, 6, 18, 36} {
		for _, text := range inputs {
			units, err := amount.Normalize(text, precision)
			if failure.Is(err, failure.PrecisionExceeded) {
				continue
			}
			require.NoError(t, err)

			formatted := amount.Format(units, precision)
			assert.True(t, decimal.RequireFromString(text).Equal(decimal.RequireFromString(formatted)),
				"%q at precision %d formatted as %q", text, precision, formatted)

			again, err := amount.Normalize(formatted, precision)
			require.NoError(t, err)
			assert.Equal(t, 0, units.Cmp(again), "precision %d", precision)
		}
	}
}

func TestFormatIsCanonical(t *testing.T) {
	units, err := amount.Normalize("1.50", 18)
	require.NoError(t, err)
	assert.Equal(t, "1.5", amount.Format(units, 18))

	units, err = amount.Normalize("3.000", 6)
	require.NoError(t, err)
	assert.Equal(t, "3", amount.Format(units, 6))
}

func TestFormatTrailingZerosKeepValue(t *testing.T) {
	units, err := amount.Normalize("2.500", 6)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(decimal.RequireFromString(amount.Format(units, 6))))
}

func TestSum(t *testing.T) {
	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)

	total := amount.Sum([]*big.Int{huge, huge, big.NewInt(2)})
	assert.Equal(t, "680564733841876926926749214863536422912", total.String())
	assert.Equal(t, "340282366920938463463374607431768211455", huge.String())
}
