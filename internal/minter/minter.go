// Package minter drives the owner-managed token contract.
package minter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Messages shown for rejected input.
const (
	MsgInvalidRecipient = "Please enter a valid Ethereum address for the recipient."
	MsgInvalidAmount    = "Please enter a valid amount greater than zero."
	MsgEmptyName        = "Token name cannot be empty."
	MsgEmptySymbol      = "Token symbol cannot be empty."
)

// Errors.
var (
	ErrNoSigner         = errors.New("minter: no signer")
	ErrInvalidRecipient = errors.New("invalid recipient address")
)

// TokenInfo is the token's current name and symbol.
type TokenInfo struct {
	Name   string
	Symbol string
}

// Service wraps a bound minter contract.
type Service struct {
	handle   *contract.Handle
	signer   contract.TxSigner
	gasLimit uint64
	timeout  time.Duration
	log      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSigner enables writes.
func WithSigner(s contract.TxSigner) Option {
	return func(m *Service) { m.signer = s }
}

// WithGasLimit overrides the fixed gas limit; 0 estimates.
func WithGasLimit(n uint64) Option {
	return func(m *Service) { m.gasLimit = n }
}

// WithTimeout bounds the wait for each confirmation.
func WithTimeout(d time.Duration) Option {
	return func(m *Service) { m.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Service) { m.log = l }
}

// New returns a Service for a handle bound to the minter ABI.
func New(h *contract.Handle, opts ...Option) *Service {
	s := &Service{
		handle:   h,
		gasLimit: config.SafeGasLimit,
		timeout:  config.DefaultConfirmTimeout,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ParseRecipient validates a recipient address.
func ParseRecipient(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, status.WrapUser(MsgInvalidRecipient, fmt.Errorf("%w: %q", ErrInvalidRecipient, s))
	}
	return common.HexToAddress(s), nil
}

// ParseAmount reads a token amount with 18 decimals. Zero is rejected.
func ParseAmount(s string) (*big.Int, error) {
	n, err := chain.ParseEther(s)
	if err != nil {
		return nil, status.WrapUser(MsgInvalidAmount, err)
	}
	if n.Sign() == 0 {
		return nil, status.WrapUser(MsgInvalidAmount, fmt.Errorf("%w: zero", chain.ErrInvalidAmount))
	}
	return n, nil
}

// TokenInfo reads name and symbol.
func (s *Service) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ReadTimeout)
	defer cancel()

	out, err := s.handle.Call(ctx, "getTokenInfo")
	if err != nil {
		return nil, err
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("getTokenInfo: expected 2 values, got %d", len(out))
	}
	name, _ := out[0].(string)
	symbol, _ := out[1].(string)
	return &TokenInfo{Name: name, Symbol: symbol}, nil
}

// SetName renames the token and returns the refreshed info.
func (s *Service) SetName(ctx context.Context, name string, rep status.Reporter) (*TokenInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, status.Userf(MsgEmptyName)
	}
	if _, err := s.write(ctx, rep, status.OpSetName, "setTokenName", name); err != nil {
		return nil, err
	}
	return s.refresh(ctx)
}

// SetSymbol changes the token symbol and returns the refreshed info.
func (s *Service) SetSymbol(ctx context.Context, symbol string, rep status.Reporter) (*TokenInfo, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, status.Userf(MsgEmptySymbol)
	}
	if _, err := s.write(ctx, rep, status.OpSetSymbol, "setTokenSymbol", symbol); err != nil {
		return nil, err
	}
	return s.refresh(ctx)
}

// Mint mints amount base units to to.
func (s *Service) Mint(ctx context.Context, to common.Address, amount *big.Int, rep status.Reporter) (*chain.Receipt, error) {
	return s.write(ctx, rep, status.OpMint, "mintTokens", to, amount)
}

// Withdraw sends amount base units held by the contract to to.
func (s *Service) Withdraw(ctx context.Context, to common.Address, amount *big.Int, rep status.Reporter) (*chain.Receipt, error) {
	return s.write(ctx, rep, status.OpWithdraw, "withdrawTokens", to, amount)
}

func (s *Service) write(ctx context.Context, rep status.Reporter, op status.Op, method string, args ...any) (*chain.Receipt, error) {
	if s.signer == nil {
		return nil, ErrNoSigner
	}
	s.log.Debug().Str("method", method).Uint64("gas_limit", s.gasLimit).Msg("sending token write")
	return status.Track(ctx, rep, op, s.timeout, func(ctx context.Context) (*contract.Pending, error) {
		return s.handle.Transact(ctx, s.signer, contract.TransactOpts{GasLimit: s.gasLimit}, method, args...)
	})
}

// refresh re-reads token info after a confirmed rename. The write already
// succeeded, so a failed read is logged and reported as nil info.
func (s *Service) refresh(ctx context.Context) (*TokenInfo, error) {
	info, err := s.TokenInfo(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("refreshing token info")
		return nil, nil
	}
	return info, nil
}
