package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

// EtherDecimals is the number of decimals of ETH and of the tokens handled here.
const EtherDecimals = 18

// ErrInvalidAmount is returned for amounts that are not non-negative decimals
// or do not fit in a uint256.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseUnits converts a decimal string such as "1.5" into base units with the
// given number of decimals. It is exact: no float rounding is involved.
// Results above the uint256 maximum are rejected; the ABI encoder would
// otherwise wrap them.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && frac == "" && whole == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if len(frac) > decimals {
		if strings.TrimRight(frac[decimals:], "0") != "" {
			return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, decimals)
		}
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if n.Cmp(math.MaxBig256) > 0 {
		return nil, fmt.Errorf("%w: %q exceeds the uint256 range", ErrInvalidAmount, s)
	}
	return n, nil
}

// ParseEther is ParseUnits with 18 decimals.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, EtherDecimals)
}

// FormatUnits renders base units as a decimal string, trimming trailing zeros
// but always keeping one fractional digit ("1.0", "0.25").
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0.0"
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	digits := abs.String()
	if decimals > 0 {
		if len(digits) <= decimals {
			digits = strings.Repeat("0", decimals-len(digits)+1) + digits
		}
		whole := digits[:len(digits)-decimals]
		frac := strings.TrimRight(digits[len(digits)-decimals:], "0")
		if frac == "" {
			frac = "0"
		}
		digits = whole + "." + frac
	}
	if neg {
		return "-" + digits
	}
	return digits
}

// FormatEther is FormatUnits with 18 decimals.
func FormatEther(v *big.Int) string {
	return FormatUnits(v, EtherDecimals)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
