// Package vesting drives the token vesting contract: adding beneficiaries,
// releasing vested tokens and reading schedules.
package vesting

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// ErrNoSigner is returned by writes on a read-only service.
var ErrNoSigner = errors.New("vesting: no signer")

// Service wraps a bound vesting contract.
type Service struct {
	handle  *contract.Handle
	signer  contract.TxSigner
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSigner enables writes.
func WithSigner(s contract.TxSigner) Option {
	return func(v *Service) { v.signer = s }
}

// WithTimeout bounds the wait for each confirmation.
func WithTimeout(d time.Duration) Option {
	return func(v *Service) { v.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(v *Service) { v.log = l }
}

// New returns a Service for a handle bound to the vesting ABI.
func New(h *contract.Handle, opts ...Option) *Service {
	s := &Service{handle: h, timeout: config.DefaultConfirmTimeout, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddBeneficiary registers b. Gas is estimated so a rejected call fails
// before anything is broadcast.
func (s *Service) AddBeneficiary(ctx context.Context, b *Beneficiary, rep status.Reporter) (*chain.Receipt, error) {
	if s.signer == nil {
		return nil, ErrNoSigner
	}
	s.log.Debug().
		Str("beneficiary", b.Address.Hex()).
		Str("amount", b.Amount.String()).
		Time("start", b.Start).
		Str("cliff", FormatDays(b.Cliff)).
		Str("vesting", FormatDays(b.Vesting)).
		Msg("adding beneficiary")

	return status.Track(ctx, rep, status.OpAddBeneficiary, s.timeout, func(ctx context.Context) (*contract.Pending, error) {
		return s.handle.Transact(ctx, s.signer, contract.TransactOpts{}, "addBeneficiary", b.Args()...)
	})
}

// Release releases whatever has vested for beneficiary.
func (s *Service) Release(ctx context.Context, beneficiary common.Address, rep status.Reporter) (*chain.Receipt, error) {
	if s.signer == nil {
		return nil, ErrNoSigner
	}
	return status.Track(ctx, rep, status.OpRelease, s.timeout, func(ctx context.Context) (*contract.Pending, error) {
		return s.handle.Transact(ctx, s.signer, contract.TransactOpts{}, "releaseVestedTokens", beneficiary)
	})
}

// onchainSchedule mirrors the getVestingSchedule tuple.
type onchainSchedule struct {
	TotalAmount     *big.Int
	ReleasedAmount  *big.Int
	StartTime       *big.Int
	CliffDuration   *big.Int
	VestingDuration *big.Int
}

// Schedule reads the vesting schedule of beneficiary.
func (s *Service) Schedule(ctx context.Context, beneficiary common.Address) (*Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ReadTimeout)
	defer cancel()

	out, err := s.handle.Call(ctx, "getVestingSchedule", beneficiary)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getVestingSchedule: expected 1 value, got %d", len(out))
	}
	raw := *abi.ConvertType(out[0], new(onchainSchedule)).(*onchainSchedule)

	return &Schedule{
		Beneficiary: beneficiary,
		Total:       raw.TotalAmount,
		Released:    raw.ReleasedAmount,
		Start:       raw.StartTime,
		Cliff:       raw.CliffDuration,
		Vesting:     raw.VestingDuration,
	}, nil
}
