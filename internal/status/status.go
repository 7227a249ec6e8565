// Package status turns operation progress and failures into the short
// messages shown to the user.
package status

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/ethereum/go-ethereum/common"
)

// Op identifies a user-facing operation.
type Op string

const (
	OpConnect        Op = "connect"
	OpAddBeneficiary Op = "add-beneficiary"
	OpRelease        Op = "release"
	OpSchedule       Op = "schedule"
	OpTokenInfo      Op = "token-info"
	OpSetName        Op = "set-name"
	OpSetSymbol      Op = "set-symbol"
	OpMint           Op = "mint"
	OpWithdraw       Op = "withdraw"
)

// GasError is shown for any owner-only write that failed on gas.
const GasError = "Transaction failed: Gas error. Please try again or adjust amount."

type opText struct {
	sending   string // shown while waiting for the receipt
	confirmed string
	failed    string // empty means "Error: <message>"
	gasAware  bool
}

var texts = map[Op]opText{
	OpConnect: {
		sending: "Connecting wallet...",
		failed:  "Failed to connect wallet. Please try again.",
	},
	OpAddBeneficiary: {
		sending:   "Transaction sent. Waiting for confirmation...",
		confirmed: "Beneficiary added successfully!",
	},
	OpRelease: {
		sending:   "Transaction sent. Waiting for confirmation...",
		confirmed: "Tokens released successfully!",
	},
	OpSchedule: {
		sending: "Fetching vesting schedule...",
	},
	OpTokenInfo: {
		sending: "Fetching token info...",
		failed:  "Failed to get token info.",
	},
	OpSetName: {
		sending:   "Setting token name. Waiting for confirmation...",
		confirmed: "Token name set successfully!",
		failed:    "Failed to set token name. Make sure you are the contract owner.",
		gasAware:  true,
	},
	OpSetSymbol: {
		sending:   "Setting token symbol. Waiting for confirmation...",
		confirmed: "Token symbol set successfully!",
		failed:    "Failed to set token symbol. Make sure you are the contract owner.",
		gasAware:  true,
	},
	OpMint: {
		sending:   "Minting tokens. Waiting for confirmation...",
		confirmed: "Tokens minted successfully!",
		failed:    "Failed to mint tokens. Make sure you are the contract owner and the amount is valid.",
		gasAware:  true,
	},
	OpWithdraw: {
		sending:   "Withdrawing tokens. Waiting for confirmation...",
		confirmed: "Tokens withdrawn successfully!",
		failed:    "Failed to withdraw tokens. Make sure you are the contract owner and have sufficient balance.",
		gasAware:  true,
	},
}

// Stage is a step in an operation's lifecycle.
type Stage int

const (
	StageConnecting Stage = iota
	StageSent
	StageConfirmed
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageConnecting:
		return "connecting"
	case StageSent:
		return "sent"
	case StageConfirmed:
		return "confirmed"
	case StageFailed:
		return "failed"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Update is one progress report.
type Update struct {
	Op      Op
	Stage   Stage
	Message string
	TxHash  common.Hash // zero before broadcast
	Block   uint64      // set on confirmation
	Err     error       // set on failure
}

// Reporter receives progress updates.
type Reporter interface {
	Report(Update)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Update)

func (f ReporterFunc) Report(u Update) { f(u) }

// Discard drops every update.
var Discard Reporter = ReporterFunc(func(Update) {})

// Connecting is the first update of op.
func Connecting(op Op) Update {
	return Update{Op: op, Stage: StageConnecting, Message: texts[op].sending}
}

// Sent reports a broadcast transaction.
func Sent(op Op, hash common.Hash) Update {
	return Update{Op: op, Stage: StageSent, Message: texts[op].sending, TxHash: hash}
}

// Confirmed reports a mined transaction, or a finished read when hash is zero.
func Confirmed(op Op, hash common.Hash, block uint64) Update {
	msg := texts[op].confirmed
	if msg == "" {
		msg = "Done."
	}
	return Update{Op: op, Stage: StageConfirmed, Message: msg, TxHash: hash, Block: block}
}

// Failed reports err classified for op.
func Failed(op Op, hash common.Hash, err error) Update {
	return Update{Op: op, Stage: StageFailed, Message: Classify(op, err), TxHash: hash, Err: err}
}

// Classify maps an error to the message shown for op. User errors keep their
// own text.
func Classify(op Op, err error) string {
	if err == nil {
		return ""
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Msg
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled."
	}

	t, ok := texts[op]
	if t.gasAware && IsGasError(err) {
		return GasError
	}
	if !ok || t.failed == "" {
		return "Error: " + err.Error()
	}
	return t.failed
}

// IsGasError reports whether err came from gas estimation or mentions gas.
func IsGasError(err error) bool {
	if errors.Is(err, contract.ErrGasEstimate) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "gas")
}

// UserError is a failure whose message is already fit for display.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string { return e.Msg }

func (e *UserError) Unwrap() error { return e.Err }

// Userf returns a *UserError with a formatted message.
func Userf(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// WrapUser attaches a display message to err.
func WrapUser(msg string, err error) error {
	return &UserError{Msg: msg, Err: err}
}
