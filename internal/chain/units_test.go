package chain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want *big.Int
	}{
		{"1", ether(1)},
		{"0", big.NewInt(0)},
		{"1000", ether(1000)},
		{"0.5", new(big.Int).Div(ether(1), big.NewInt(2))},
		{".5", new(big.Int).Div(ether(1), big.NewInt(2))},
		{"1.", ether(1)},
		{" 2 ", ether(2)},
		{"0.000000000000000001", big.NewInt(1)},
		{"1.500000000000000000000", new(big.Int).Add(ether(1), new(big.Int).Div(ether(1), big.NewInt(2)))},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			require.NoError(t, err)
			assert.Equal(t, 0, tt.want.Cmp(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1.2.3", "1e18", ".", "0x10", "0.0000000000000000001"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseEther(in)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParseUnitsUint256Bound(t *testing.T) {
	got, err := ParseUnits(math.MaxBig256.String(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cmp(math.MaxBig256))

	tooBig := new(big.Int).Add(math.MaxBig256, big.NewInt(1)).String()
	_, err = ParseUnits(tooBig, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Contains(t, err.Error(), "uint256")

	// 1e60 tokens is 1e78 base units, past 2^256.
	_, err = ParseEther("1" + strings.Repeat("0", 60))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseEther("1" + strings.Repeat("0", 50))
	assert.NoError(t, err)
}

func TestParseUnitsSixDecimals(t *testing.T) {
	got, err := ParseUnits("1.25", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1_250_000), got.Int64())
}

func TestParseUnitsZeroDecimals(t *testing.T) {
	got, err := ParseUnits("42", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())

	_, err = ParseUnits("4.2", 0)
	assert.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		in   *big.Int
		want string
	}{
		{big.NewInt(0), "0.0"},
		{ether(1), "1.0"},
		{ether(1000), "1000.0"},
		{big.NewInt(1), "0.000000000000000001"},
		{new(big.Int).Div(ether(1), big.NewInt(4)), "0.25"},
		{new(big.Int).Neg(ether(2)), "-2.0"},
		{nil, "0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEther(tt.in))
		})
	}
}

func TestFormatUnitsZeroDecimals(t *testing.T) {
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1.0", "0.25", "123456.000001"} {
		v, err := ParseEther(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatEther(v))
	}
}
