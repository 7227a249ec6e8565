package vesting

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestScheduleReleasedFraction(t *testing.T) {
	s := &Schedule{Total: ether(1000), Released: ether(250)}
	assert.InDelta(t, 0.25, s.ReleasedFraction(), 1e-9)

	assert.Zero(t, (&Schedule{}).ReleasedFraction())
	assert.Zero(t, (&Schedule{Total: big.NewInt(0), Released: big.NewInt(0)}).ReleasedFraction())
	assert.Equal(t, 1.0, (&Schedule{Total: ether(1), Released: ether(2)}).ReleasedFraction())
}

func TestScheduleExists(t *testing.T) {
	assert.False(t, (&Schedule{}).Exists())
	assert.False(t, (&Schedule{Total: big.NewInt(0)}).Exists())
	assert.True(t, (&Schedule{Total: big.NewInt(1)}).Exists())
}

func TestScheduleFields(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Schedule{
		Beneficiary: common.HexToAddress(beneficiary),
		Total:       ether(1000),
		Released:    ether(100),
		Start:       big.NewInt(start.Unix()),
		Cliff:       big.NewInt(30 * SecondsPerDay),
		Vesting:     big.NewInt(365 * SecondsPerDay),
	}
	assert.Equal(t, big.NewInt(start.AddDate(1, 0, 0).Unix()), s.End())

	got := fieldMap(s.Fields(start.AddDate(0, 0, 10), time.UTC))

	assert.Equal(t, beneficiary, got["Beneficiary"])
	assert.Equal(t, "1000.0 tokens", got["Total Amount"])
	assert.Equal(t, "100.0 tokens (10.0%)", got["Released Amount"])
	assert.Equal(t, "2025-01-01 00:00:00 UTC (1 week ago)", got["Start Time"])
	assert.Equal(t, "30 days", got["Cliff Duration"])
	assert.Equal(t, "365 days", got["Vesting Duration"])
	assert.Contains(t, got["Fully Vested"], "2026-01-01 00:00:00 UTC")
	assert.Contains(t, got["Fully Vested"], "from now")
}

func TestScheduleFieldsBeyondDisplayRange(t *testing.T) {
	huge, _ := new(big.Int).SetString("1"+strings.Repeat("0", 30), 10)
	s := &Schedule{
		Beneficiary: common.HexToAddress(beneficiary),
		Total:       ether(1),
		Released:    big.NewInt(0),
		Start:       huge,
		Cliff:       big.NewInt(0),
		Vesting:     big.NewInt(300000 * SecondsPerDay),
	}
	got := fieldMap(s.Fields(time.Now(), time.UTC))

	assert.Equal(t, "unix "+huge.String(), got["Start Time"])
	assert.Equal(t, "300000 days", got["Vesting Duration"])
	assert.Equal(t, "unix "+new(big.Int).Add(huge, s.Vesting).String(), got["Fully Vested"])
}

func TestScheduleFieldsLongVesting(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Schedule{
		Beneficiary: common.HexToAddress(beneficiary),
		Total:       ether(1),
		Released:    big.NewInt(0),
		Start:       big.NewInt(start.Unix()),
		Cliff:       big.NewInt(0),
		Vesting:     big.NewInt(300000 * SecondsPerDay),
	}
	got := fieldMap(s.Fields(start, time.UTC))

	assert.Equal(t, "300000 days", got["Vesting Duration"])
	assert.Equal(t, "2846-05-17 00:00:00 UTC (a long while from now)", got["Fully Vested"])
}

func fieldMap(fields []Field) map[string]string {
	got := make(map[string]string, len(fields))
	for _, f := range fields {
		got[f.Label] = f.Value
	}
	return got
}
