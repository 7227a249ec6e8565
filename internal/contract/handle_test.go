package contract_test

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/chain/chaintest"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentHash = common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")

type keySigner struct{ key *ecdsa.PrivateKey }

func (s keySigner) Address() common.Address { return crypto.PubkeyToAddress(s.key.PublicKey) }

func (s keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

func testSigner(t *testing.T) keySigner {
	t.Helper()
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	return keySigner{key: key}
}

func minterHandle(t *testing.T, srv *chaintest.Server) *contract.Handle {
	t.Helper()
	h, err := contract.NewHandle(common.HexToAddress(contract.MinterAddress),
		contract.GetBuiltinABI(contract.BuiltinMinter), chain.NewEVMClient(srv.URL, chain.WithPollInterval(5*time.Millisecond)))
	require.NoError(t, err)
	return h
}

// writeNode answers everything a Transact needs.
func writeNode(t *testing.T) *chaintest.Server {
	t.Helper()
	return chaintest.NewServer(t, map[string]chaintest.Handler{
		"eth_chainId":             chaintest.Result("0x4268"),
		"eth_estimateGas":         chaintest.Result("0x7530"),
		"eth_gasPrice":            chaintest.Result("0x3b9aca00"),
		"eth_getTransactionCount": chaintest.Result("0x5"),
		"eth_sendRawTransaction":  chaintest.Result(sentHash.Hex()),
	})
}

func sentTx(t *testing.T, srv *chaintest.Server) *types.Transaction {
	t.Helper()
	calls := srv.Calls("eth_sendRawTransaction")
	require.Len(t, calls, 1)
	var rawHex string
	require.NoError(t, json.Unmarshal(calls[0][0], &rawHex))
	raw, err := hexutil.Decode(rawHex)
	require.NoError(t, err)
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))
	return tx
}

func revertPayload(t *testing.T, reason string) string {
	t.Helper()
	stringTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	require.NoError(t, err)
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

// ---------------------------------------------------------------------------
// Call
// ---------------------------------------------------------------------------

func TestHandleCallDecodesOutputs(t *testing.T) {
	srv := chaintest.NewServer(t, nil)
	h := minterHandle(t, srv)

	encoded, err := h.ABI.Methods["getTokenInfo"].Outputs.Pack("Desk Token", "DESK")
	require.NoError(t, err)
	srv.Handle("eth_call", chaintest.Result(hexutil.Encode(encoded)))

	out, err := h.Call(context.Background(), "getTokenInfo")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Desk Token", out[0])
	assert.Equal(t, "DESK", out[1])

	calls := srv.Calls("eth_call")
	require.Len(t, calls, 1)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(calls[0][0], &msg))
	assert.Equal(t, "0xabb1dc44", msg["data"])
	assert.Equal(t, contract.MinterAddress, msg["to"])
}

func TestHandleCallWithFrom(t *testing.T) {
	srv := chaintest.NewServer(t, nil)
	from := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	h, err := contract.NewHandle(common.HexToAddress(contract.MinterAddress),
		contract.GetBuiltinABI(contract.BuiltinMinter), chain.NewEVMClient(srv.URL), contract.WithFrom(from))
	require.NoError(t, err)

	encoded, err := h.ABI.Methods["name"].Outputs.Pack("X")
	require.NoError(t, err)
	srv.Handle("eth_call", chaintest.Result(hexutil.Encode(encoded)))

	_, err = h.Call(context.Background(), "name")
	require.NoError(t, err)

	var msg map[string]string
	require.NoError(t, json.Unmarshal(srv.Calls("eth_call")[0][0], &msg))
	assert.Equal(t, from.Hex(), msg["from"])
}

func TestHandleCallUnknownMethod(t *testing.T) {
	h := minterHandle(t, chaintest.NewServer(t, nil))
	_, err := h.Call(context.Background(), "burn")
	assert.ErrorIs(t, err, contract.ErrUnknownMethod)
}

func TestHandleCallRejectsWriteMethod(t *testing.T) {
	h := minterHandle(t, chaintest.NewServer(t, nil))
	_, err := h.Call(context.Background(), "mintTokens", common.Address{}, big.NewInt(1))
	assert.ErrorIs(t, err, contract.ErrNotReadable)
}

func TestHandleCallEmptyResultMeansNoContract(t *testing.T) {
	srv := chaintest.NewServer(t, map[string]chaintest.Handler{"eth_call": chaintest.Result("0x")})
	_, err := minterHandle(t, srv).Call(context.Background(), "name")
	assert.ErrorIs(t, err, chain.ErrNoContract)
}

func TestHandleCallRevertReason(t *testing.T) {
	payload := revertPayload(t, "Not owner")
	srv := chaintest.NewServer(t, map[string]chaintest.Handler{
		"eth_call": func([]json.RawMessage) (any, *chaintest.Error) {
			return nil, &chaintest.Error{Code: 3, Message: "execution reverted", Data: payload}
		},
	})

	_, err := minterHandle(t, srv).Call(context.Background(), "name")
	var rev *contract.RevertError
	require.True(t, errors.As(err, &rev))
	assert.Equal(t, "Not owner", rev.Reason)
	assert.Contains(t, err.Error(), "execution reverted: Not owner")

	var rpcErr *chain.RPCError
	assert.True(t, errors.As(err, &rpcErr), "RPC error stays reachable")
}

// ---------------------------------------------------------------------------
// Transact
// ---------------------------------------------------------------------------

func TestHandleTransactFixedGas(t *testing.T) {
	srv := writeNode(t)
	h := minterHandle(t, srv)
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	p, err := h.Transact(context.Background(), testSigner(t), contract.TransactOpts{GasLimit: 100_000},
		"mintTokens", to, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, sentHash, p.Hash)

	assert.Empty(t, srv.Calls("eth_estimateGas"), "fixed gas skips estimation")

	tx := sentTx(t, srv)
	assert.Equal(t, uint64(100_000), tx.Gas())
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, int64(17000), tx.ChainId().Int64())
	assert.Equal(t, common.HexToAddress(contract.MinterAddress), *tx.To())
	assert.Equal(t, int64(1_000_000_000), tx.GasTipCap().Int64())
	assert.Equal(t, int64(2_000_000_000), tx.GasFeeCap().Int64())
	assert.Equal(t, "0xf0dda65c", hexutil.Encode(tx.Data()[:4]))

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, testSigner(t).Address(), from)
}

func TestHandleTransactEstimatesGas(t *testing.T) {
	srv := writeNode(t)
	h := minterHandle(t, srv)

	_, err := h.Transact(context.Background(), testSigner(t), contract.TransactOpts{}, "setTokenName", "New Name")
	require.NoError(t, err)

	require.Len(t, srv.Calls("eth_estimateGas"), 1)
	assert.Equal(t, uint64(30000), sentTx(t, srv).Gas())
}

func TestHandleTransactExplicitChainIDSkipsLookup(t *testing.T) {
	srv := writeNode(t)
	_, err := minterHandle(t, srv).Transact(context.Background(), testSigner(t),
		contract.TransactOpts{GasLimit: 100_000, ChainID: big.NewInt(17000)}, "setTokenSymbol", "DSK")
	require.NoError(t, err)
	assert.Empty(t, srv.Calls("eth_chainId"))
}

func TestHandleTransactGasEstimateFailure(t *testing.T) {
	payload := revertPayload(t, "Ownable: caller is not the owner")
	srv := writeNode(t)
	srv.Handle("eth_estimateGas", func([]json.RawMessage) (any, *chaintest.Error) {
		return nil, &chaintest.Error{Code: 3, Message: "execution reverted", Data: payload}
	})

	_, err := minterHandle(t, srv).Transact(context.Background(), testSigner(t), contract.TransactOpts{}, "setTokenName", "x")
	assert.ErrorIs(t, err, contract.ErrGasEstimate)
	var rev *contract.RevertError
	require.True(t, errors.As(err, &rev))
	assert.Equal(t, "Ownable: caller is not the owner", rev.Reason)
	assert.Empty(t, srv.Calls("eth_sendRawTransaction"))
}

func TestHandleTransactBadArgs(t *testing.T) {
	srv := writeNode(t)
	_, err := minterHandle(t, srv).Transact(context.Background(), testSigner(t), contract.TransactOpts{}, "mintTokens", "not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding mintTokens")
}

func TestHandleTransactBroadcastFailure(t *testing.T) {
	srv := writeNode(t)
	srv.Handle("eth_sendRawTransaction", chaintest.Fail(-32000, "insufficient funds for gas * price + value"))

	_, err := minterHandle(t, srv).Transact(context.Background(), testSigner(t), contract.TransactOpts{GasLimit: 100_000}, "setTokenName", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestPendingWait(t *testing.T) {
	srv := writeNode(t)
	srv.Handle("eth_getTransactionReceipt", chaintest.Result(map[string]any{
		"status": "0x1", "blockNumber": "0x10", "gasUsed": "0x5208",
	}))

	p, err := minterHandle(t, srv).Transact(context.Background(), testSigner(t), contract.TransactOpts{GasLimit: 100_000}, "setTokenName", "x")
	require.NoError(t, err)

	r, err := p.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), r.BlockNumber)
	assert.Equal(t, sentHash, r.Hash)
}

func TestBindUsesBuiltinKind(t *testing.T) {
	srv := chaintest.NewServer(t, nil)
	e := contract.Defaults()[0]

	h, err := contract.Bind(e, chain.NewEVMClient(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(contract.VestingAddress), h.Address)
	assert.Contains(t, h.ABI.Methods, "getVestingSchedule")

	_, err = contract.Bind(&contract.Entry{Name: "bare"}, chain.NewEVMClient(srv.URL))
	assert.ErrorIs(t, err, contract.ErrNoABI)
}
