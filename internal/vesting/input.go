package vesting

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// SecondsPerDay converts the day counts users enter into contract seconds.
const SecondsPerDay = 86400

// Validation errors.
var (
	ErrInvalidAddress  = errors.New("invalid beneficiary address")
	ErrInvalidStart    = errors.New("invalid start time")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrCliffTooLong    = errors.New("cliff exceeds vesting duration")
)

// startLayouts are tried in order after unix seconds.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Input is the raw form of a new beneficiary as typed by the user.
type Input struct {
	Address     string
	Amount      string
	Start       string
	CliffDays   string
	VestingDays string
	Raw         bool // Amount is in base units rather than tokens
}

// Beneficiary is a validated addBeneficiary call.
type Beneficiary struct {
	Address common.Address
	Amount  *big.Int // base units
	Start   time.Time
	Cliff   *big.Int // seconds
	Vesting *big.Int // seconds
}

// Args returns the contract arguments in ABI order.
func (b *Beneficiary) Args() []any {
	return []any{
		b.Address,
		b.Amount,
		big.NewInt(b.Start.Unix()),
		b.Cliff,
		b.Vesting,
	}
}

// ParseBeneficiaryInput validates in and converts it to contract units.
// Local times without a zone are read in loc.
func ParseBeneficiaryInput(in Input, loc *time.Location) (*Beneficiary, error) {
	addr, err := ParseAddress(in.Address)
	if err != nil {
		return nil, err
	}

	amount, err := parseAmount(in.Amount, in.Raw)
	if err != nil {
		return nil, err
	}

	start, err := ParseStart(in.Start, loc)
	if err != nil {
		return nil, err
	}

	cliff, err := ParseDays(in.CliffDays)
	if err != nil {
		return nil, fmt.Errorf("cliff: %w", err)
	}
	vest, err := ParseDays(in.VestingDays)
	if err != nil {
		return nil, fmt.Errorf("vesting: %w", err)
	}
	if vest.Sign() == 0 {
		return nil, fmt.Errorf("%w: vesting duration must be at least one day", ErrInvalidDuration)
	}
	if cliff.Cmp(vest) > 0 {
		return nil, fmt.Errorf("%w: %s cliff, %s vesting", ErrCliffTooLong, FormatDays(cliff), FormatDays(vest))
	}

	return &Beneficiary{Address: addr, Amount: amount, Start: start, Cliff: cliff, Vesting: vest}, nil
}

// ParseAddress validates a beneficiary address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string, raw bool) (*big.Int, error) {
	var (
		n   *big.Int
		err error
	)
	if raw {
		n, err = chain.ParseUnits(s, 0)
	} else {
		n, err = chain.ParseEther(s)
	}
	if err != nil {
		return nil, err
	}
	if n.Sign() == 0 {
		return nil, fmt.Errorf("%w: total amount must be greater than zero", chain.ErrInvalidAmount)
	}
	return n, nil
}

// ParseStart reads a start time as unix seconds, RFC 3339, a
// datetime-local value or a bare date.
func ParseStart(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidStart)
	}
	if loc == nil {
		loc = time.Local
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if secs < 0 {
			return time.Time{}, fmt.Errorf("%w: %q is negative", ErrInvalidStart, s)
		}
		return time.Unix(secs, 0).In(loc), nil
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DD, YYYY-MM-DDTHH:MM[:SS], RFC 3339 or unix seconds)", ErrInvalidStart, s)
}

// ParseDays reads a whole number of days and returns it in seconds.
func ParseDays(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("%w: %q is not a whole number of days", ErrInvalidDuration, s)
	}
	secs := n.Mul(n, big.NewInt(SecondsPerDay))
	if secs.Cmp(math.MaxBig256) > 0 {
		return nil, fmt.Errorf("%w: %s days exceeds the uint256 range", ErrInvalidDuration, s)
	}
	return secs, nil
}

// FormatDays renders a duration in seconds as days, keeping fractions the
// chain may hold.
func FormatDays(secs *big.Int) string {
	if secs == nil {
		return "0 days"
	}
	days := new(big.Rat).SetFrac(secs, big.NewInt(SecondsPerDay))
	if !days.IsInt() {
		return days.FloatString(2) + " days"
	}
	if days.Num().Cmp(big.NewInt(1)) == 0 {
		return "1 day"
	}
	return days.Num().String() + " days"
}
