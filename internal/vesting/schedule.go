package vesting

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
)

// maxDisplayUnix is 9999-12-31T23:59:59Z. Later instants are shown as raw
// unix seconds.
const maxDisplayUnix = 253402300799

// Schedule is a beneficiary's vesting schedule as stored on-chain. Times and
// durations are kept in contract seconds.
type Schedule struct {
	Beneficiary common.Address
	Total       *big.Int
	Released    *big.Int
	Start       *big.Int // unix seconds
	Cliff       *big.Int // seconds
	Vesting     *big.Int // seconds
}

// Exists reports whether the contract knows the beneficiary.
func (s *Schedule) Exists() bool {
	return s.Total != nil && s.Total.Sign() > 0
}

// ReleasedFraction is released/total in [0, 1], for display only.
func (s *Schedule) ReleasedFraction() float64 {
	if !s.Exists() || s.Released == nil {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(s.Released, s.Total).Float64()
	if f > 1 {
		return 1
	}
	return f
}

// End is the unix second at which everything has vested.
func (s *Schedule) End() *big.Int {
	return new(big.Int).Add(orZero(s.Start), orZero(s.Vesting))
}

// Field is one labelled line of a rendered schedule.
type Field struct {
	Label string
	Value string
}

// Fields renders the schedule for display, with times in loc relative to now.
func (s *Schedule) Fields(now time.Time, loc *time.Location) []Field {
	if loc == nil {
		loc = time.Local
	}
	return []Field{
		{"Beneficiary", s.Beneficiary.Hex()},
		{"Total Amount", chain.FormatEther(s.Total) + " tokens"},
		{"Released Amount", fmt.Sprintf("%s tokens (%.1f%%)", chain.FormatEther(s.Released), s.ReleasedFraction()*100)},
		{"Start Time", formatUnix(orZero(s.Start), now, loc)},
		{"Cliff Duration", FormatDays(s.Cliff)},
		{"Vesting Duration", FormatDays(s.Vesting)},
		{"Fully Vested", formatUnix(s.End(), now, loc)},
	}
}

func formatUnix(secs *big.Int, now time.Time, loc *time.Location) string {
	if secs.Sign() < 0 || secs.Cmp(big.NewInt(maxDisplayUnix)) > 0 {
		return "unix " + secs.String()
	}
	t := time.Unix(secs.Int64(), 0)
	return fmt.Sprintf("%s (%s)", t.In(loc).Format("2006-01-02 15:04:05 MST"), humanize.RelTime(t, now, "ago", "from now"))
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
