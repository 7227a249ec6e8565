package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// Errors.
var (
	ErrGasEstimate   = errors.New("gas estimation failed")
	ErrUnknownMethod = errors.New("method not found in ABI")
	ErrNotReadable   = errors.New("method is not a view function")
)

// Backend is the node surface a Handle needs. *chain.EVMClient satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error)
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*chain.Receipt, error)
}

// TxSigner signs transactions for one address. *wallet.Signer satisfies it.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// RevertError carries the decoded reason of a reverted call.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) Unwrap() error { return e.Err }

// Handle binds an ABI to a deployed address.
type Handle struct {
	Address common.Address
	ABI     abi.ABI

	backend Backend
	from    common.Address
	log     zerolog.Logger
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithFrom sets the sender used for eth_call.
func WithFrom(addr common.Address) HandleOption {
	return func(h *Handle) { h.from = addr }
}

// WithLogger attaches a logger for debug output.
func WithLogger(l zerolog.Logger) HandleOption {
	return func(h *Handle) { h.log = l }
}

// NewHandle creates a handle from parsed ABI entries.
func NewHandle(address common.Address, entries []ABIEntry, b Backend, opts ...HandleOption) (*Handle, error) {
	parsed, err := BuildABI(entries)
	if err != nil {
		return nil, err
	}
	h := &Handle{Address: address, ABI: parsed, backend: b, log: zerolog.Nop()}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Bind creates a handle for a registry entry.
func Bind(e *Entry, b Backend, opts ...HandleOption) (*Handle, error) {
	entries, err := e.Entries()
	if err != nil {
		return nil, err
	}
	return NewHandle(common.HexToAddress(e.Address), entries, b, opts...)
}

// Call runs a view method through eth_call and returns the decoded outputs.
func (h *Handle) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	m, ok := h.ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	if !m.IsConstant() {
		return nil, fmt.Errorf("%w: %s", ErrNotReadable, method)
	}

	data, err := h.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}

	out, err := h.backend.Call(ctx, chain.CallMsg{From: h.from, To: h.Address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, decodeRevert(err))
	}
	if len(out) == 0 && len(m.Outputs) > 0 {
		return nil, fmt.Errorf("calling %s at %s: %w", method, h.Address.Hex(), chain.ErrNoContract)
	}

	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return values, nil
}

// TransactOpts tunes a write.
type TransactOpts struct {
	GasLimit uint64   // 0 estimates
	Value    *big.Int // wei sent along, nil for none
	ChainID  *big.Int // nil asks the node
}

// Pending is a broadcast transaction awaiting its receipt.
type Pending struct {
	Hash common.Hash
	Tx   *types.Transaction

	backend Backend
}

// Wait blocks until the transaction is mined, reverted, or timeout passes.
func (p *Pending) Wait(ctx context.Context, timeout time.Duration) (*chain.Receipt, error) {
	return p.backend.WaitForReceipt(ctx, p.Hash, timeout)
}

// Transact packs method, signs an EIP-1559 transaction with signer and
// broadcasts it.
func (h *Handle) Transact(ctx context.Context, signer TxSigner, opts TransactOpts, method string, args ...any) (*Pending, error) {
	if _, ok := h.ABI.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	data, err := h.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}

	from := signer.Address()
	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID := opts.ChainID
	if chainID == nil {
		if chainID, err = h.backend.ChainID(ctx); err != nil {
			return nil, fmt.Errorf("getting chain id: %w", err)
		}
	}

	gas := opts.GasLimit
	if gas == 0 {
		gas, err = h.backend.EstimateGas(ctx, chain.CallMsg{From: from, To: h.Address, Data: data, Value: value})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGasEstimate, decodeRevert(err))
		}
	}

	gasPrice, err := h.backend.GasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := h.backend.PendingNonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	to := h.Address
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding transaction: %w", err)
	}

	hash, err := h.backend.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", decodeRevert(err))
	}

	h.log.Debug().
		Str("method", method).
		Str("hash", hash.Hex()).
		Uint64("nonce", nonce).
		Uint64("gas", gas).
		Msg("transaction sent")

	return &Pending{Hash: hash, Tx: signed, backend: h.backend}, nil
}

// decodeRevert turns a node error that carries revert data into a
// *RevertError. Other errors are returned unchanged.
func decodeRevert(err error) error {
	var rpcErr *chain.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	data, ok := rpcErr.RevertData()
	if !ok {
		return err
	}
	reason, uerr := abi.UnpackRevert(data)
	if uerr != nil {
		reason = ""
	}
	return &RevertError{Reason: reason, Err: err}
}
