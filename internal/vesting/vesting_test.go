package vesting

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/chain/chaintest"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txHash = common.HexToHash("0x4444444444444444444444444444444444444444444444444444444444444444")

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

func node(t *testing.T) *chaintest.Server {
	t.Helper()
	return chaintest.NewServer(t, map[string]chaintest.Handler{
		"eth_chainId":             chaintest.Result("0x4268"),
		"eth_estimateGas":         chaintest.Result("0x249f0"),
		"eth_gasPrice":            chaintest.Result("0x3b9aca00"),
		"eth_getTransactionCount": chaintest.Result("0x1"),
		"eth_sendRawTransaction":  chaintest.Result(txHash.Hex()),
		"eth_getTransactionReceipt": chaintest.Result(map[string]any{
			"status":      "0x1",
			"blockNumber": "0x64",
			"gasUsed":     "0x1d4c0",
		}),
	})
}

func service(t *testing.T, srv *chaintest.Server, opts ...Option) *Service {
	t.Helper()
	entry := contract.Defaults()[0]
	require.Equal(t, contract.BuiltinVesting, entry.Name)
	h, err := contract.Bind(entry, chain.NewEVMClient(srv.URL, chain.WithPollInterval(5*time.Millisecond)))
	require.NoError(t, err)
	return New(h, append([]Option{WithTimeout(time.Second)}, opts...)...)
}

func sentTx(t *testing.T, srv *chaintest.Server) *types.Transaction {
	t.Helper()
	calls := srv.Calls("eth_sendRawTransaction")
	require.Len(t, calls, 1)
	var rawHex string
	require.NoError(t, json.Unmarshal(calls[0][0], &rawHex))
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(hexutil.MustDecode(rawHex)))
	return tx
}

func word(n *big.Int) []byte { return common.LeftPadBytes(n.Bytes(), 32) }

func TestAddBeneficiary(t *testing.T) {
	srv := node(t)
	s := service(t, srv, WithSigner(testSigner(t)))

	b, err := ParseBeneficiaryInput(validInput(), time.UTC)
	require.NoError(t, err)

	var stages []status.Stage
	rep := status.ReporterFunc(func(u status.Update) { stages = append(stages, u.Stage) })

	r, err := s.AddBeneficiary(context.Background(), b, rep)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), r.BlockNumber)
	assert.Equal(t, []status.Stage{status.StageSent, status.StageConfirmed}, stages)

	tx := sentTx(t, srv)
	assert.Equal(t, common.HexToAddress(contract.VestingAddress), *tx.To())
	assert.Equal(t, uint64(0x249f0), tx.Gas(), "vesting writes use the estimate")
	data := tx.Data()
	require.Len(t, data, 4+5*32)
	assert.Equal(t, "0x55119b1a", hexutil.Encode(data[:4]))
	assert.Equal(t, common.LeftPadBytes(b.Address.Bytes(), 32), data[4:36])
	assert.Equal(t, word(b.Amount), data[36:68])
	assert.Equal(t, word(big.NewInt(1735689600)), data[68:100])
	assert.Equal(t, word(big.NewInt(30*86400)), data[100:132])
	assert.Equal(t, word(big.NewInt(365*86400)), data[132:164])
}

func TestAddBeneficiaryRevertShowsReason(t *testing.T) {
	srv := node(t)
	srv.Handle("eth_estimateGas", func([]json.RawMessage) (any, *chaintest.Error) {
		return nil, &chaintest.Error{Code: 3, Message: "execution reverted: Beneficiary already exists"}
	})
	s := service(t, srv, WithSigner(testSigner(t)))
	b, err := ParseBeneficiaryInput(validInput(), time.UTC)
	require.NoError(t, err)

	var last status.Update
	_, err = s.AddBeneficiary(context.Background(), b, status.ReporterFunc(func(u status.Update) { last = u }))
	require.ErrorIs(t, err, contract.ErrGasEstimate)
	assert.Equal(t, status.StageFailed, last.Stage)
	assert.Contains(t, last.Message, "Error: ")
	assert.Contains(t, last.Message, "Beneficiary already exists")
	assert.Empty(t, srv.Calls("eth_sendRawTransaction"))
}

func TestRelease(t *testing.T) {
	srv := node(t)
	s := service(t, srv, WithSigner(testSigner(t)))
	who := common.HexToAddress(beneficiary)

	_, err := s.Release(context.Background(), who, nil)
	require.NoError(t, err)

	data := sentTx(t, srv).Data()
	assert.Equal(t, "0xce699a41", hexutil.Encode(data[:4]))
	assert.Equal(t, common.LeftPadBytes(who.Bytes(), 32), data[4:])
}

func TestWritesNeedSigner(t *testing.T) {
	s := service(t, node(t))
	_, err := s.Release(context.Background(), common.HexToAddress(beneficiary), nil)
	assert.ErrorIs(t, err, ErrNoSigner)

	b, err := ParseBeneficiaryInput(validInput(), time.UTC)
	require.NoError(t, err)
	_, err = s.AddBeneficiary(context.Background(), b, nil)
	assert.ErrorIs(t, err, ErrNoSigner)
}

func TestSchedule(t *testing.T) {
	srv := node(t)
	var encoded []byte
	for _, n := range []*big.Int{ether(1000), ether(250), big.NewInt(1735689600), big.NewInt(30 * 86400), big.NewInt(365 * 86400)} {
		encoded = append(encoded, word(n)...)
	}
	srv.Handle("eth_call", chaintest.Result(hexutil.Encode(encoded)))

	s := service(t, srv)
	who := common.HexToAddress(beneficiary)
	sched, err := s.Schedule(context.Background(), who)
	require.NoError(t, err)

	assert.Equal(t, who, sched.Beneficiary)
	assert.Equal(t, ether(1000), sched.Total)
	assert.Equal(t, ether(250), sched.Released)
	assert.Equal(t, big.NewInt(1735689600), sched.Start)
	assert.Equal(t, big.NewInt(30*SecondsPerDay), sched.Cliff)
	assert.Equal(t, big.NewInt(365*SecondsPerDay), sched.Vesting)
	assert.InDelta(t, 0.25, sched.ReleasedFraction(), 1e-9)

	calls := srv.Calls("eth_call")
	require.Len(t, calls, 1)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(calls[0][0], &msg))
	assert.Equal(t, "0x9f829063"+common.Bytes2Hex(common.LeftPadBytes(who.Bytes(), 32)), msg["data"])
}

func TestScheduleUnknownBeneficiary(t *testing.T) {
	srv := node(t)
	srv.Handle("eth_call", chaintest.Result(hexutil.Encode(make([]byte, 5*32))))

	sched, err := service(t, srv).Schedule(context.Background(), common.HexToAddress(beneficiary))
	require.NoError(t, err)
	assert.False(t, sched.Exists())
}

func TestScheduleNoContract(t *testing.T) {
	srv := node(t)
	srv.Handle("eth_call", chaintest.Result("0x"))

	_, err := service(t, srv).Schedule(context.Background(), common.HexToAddress(beneficiary))
	assert.ErrorIs(t, err, chain.ErrNoContract)
}
