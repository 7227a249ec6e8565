package status_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyOwnerWrites(t *testing.T) {
	notOwner := errors.New("execution reverted: Ownable: caller is not the owner")

	tests := []struct {
		op   status.Op
		want string
	}{
		{status.OpSetName, "Failed to set token name. Make sure you are the contract owner."},
		{status.OpSetSymbol, "Failed to set token symbol. Make sure you are the contract owner."},
		{status.OpMint, "Failed to mint tokens. Make sure you are the contract owner and the amount is valid."},
		{status.OpWithdraw, "Failed to withdraw tokens. Make sure you are the contract owner and have sufficient balance."},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Classify(tt.op, notOwner))
		})
	}
}

func TestClassifyGasErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: execution reverted", contract.ErrGasEstimate)
	mentions := errors.New("intrinsic Gas too low")

	for _, op := range []status.Op{status.OpSetName, status.OpSetSymbol, status.OpMint, status.OpWithdraw} {
		assert.Equal(t, status.GasError, status.Classify(op, wrapped), op)
		assert.Equal(t, status.GasError, status.Classify(op, mentions), op)
	}
}

func TestClassifyVestingShowsRawMessage(t *testing.T) {
	err := fmt.Errorf("%w: out of gas", contract.ErrGasEstimate)
	for _, op := range []status.Op{status.OpAddBeneficiary, status.OpRelease, status.OpSchedule} {
		assert.Equal(t, "Error: "+err.Error(), status.Classify(op, err), op)
	}
}

func TestClassifyTokenInfo(t *testing.T) {
	assert.Equal(t, "Failed to get token info.", status.Classify(status.OpTokenInfo, errors.New("boom")))
}

func TestClassifyUserErrorKeepsMessage(t *testing.T) {
	err := fmt.Errorf("connecting: %w", status.Userf("Please add the %s to your wallet and try again.", "Holesky testnet"))
	for _, op := range []status.Op{status.OpConnect, status.OpMint, status.OpRelease} {
		assert.Equal(t, "Please add the Holesky testnet to your wallet and try again.", status.Classify(op, err))
	}
}

func TestClassifyConnectFallback(t *testing.T) {
	assert.Equal(t, "Failed to connect wallet. Please try again.", status.Classify(status.OpConnect, errors.New("dial tcp: refused")))
}

func TestClassifyCancelledAndNil(t *testing.T) {
	assert.Equal(t, "Cancelled.", status.Classify(status.OpMint, fmt.Errorf("waiting: %w", context.Canceled)))
	assert.Empty(t, status.Classify(status.OpMint, nil))
}

func TestClassifyUnknownOp(t *testing.T) {
	assert.Equal(t, "Error: nope", status.Classify(status.Op("other"), errors.New("nope")))
}

func TestWrapUserUnwraps(t *testing.T) {
	cause := errors.New("cause")
	err := status.WrapUser("Shown.", cause)
	assert.Equal(t, "Shown.", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestUpdates(t *testing.T) {
	hash := common.HexToHash("0x01")

	u := status.Sent(status.OpMint, hash)
	assert.Equal(t, status.StageSent, u.Stage)
	assert.Equal(t, "Minting tokens. Waiting for confirmation...", u.Message)
	assert.Equal(t, hash, u.TxHash)

	u = status.Confirmed(status.OpAddBeneficiary, hash, 10)
	assert.Equal(t, "Beneficiary added successfully!", u.Message)
	assert.Equal(t, uint64(10), u.Block)

	u = status.Confirmed(status.OpSchedule, common.Hash{}, 0)
	assert.Equal(t, "Done.", u.Message)

	boom := errors.New("boom")
	u = status.Failed(status.OpRelease, hash, boom)
	assert.Equal(t, status.StageFailed, u.Stage)
	assert.Equal(t, "Error: boom", u.Message)
	assert.Same(t, boom, u.Err)

	u = status.Connecting(status.OpConnect)
	assert.Equal(t, "Connecting wallet...", u.Message)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "sent", status.StageSent.String())
	assert.Equal(t, "stage(9)", status.Stage(9).String())
}

func TestReporterFunc(t *testing.T) {
	var got []status.Update
	r := status.ReporterFunc(func(u status.Update) { got = append(got, u) })
	r.Report(status.Connecting(status.OpMint))
	status.Discard.Report(status.Connecting(status.OpMint))
	require.Len(t, got, 1)
}
