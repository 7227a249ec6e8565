// Package connect resolves the wallet, chain and RPC endpoint an operation
// runs against.
package connect

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/rpc"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Errors. Connect wraps them in a *status.UserError carrying the message to
// display, so errors.Is still matches.
var (
	ErrNoWallet      = errors.New("no wallet configured")
	ErrSwitchNetwork = errors.New("endpoint is on the wrong network")
	ErrChainNotAdded = errors.New("chain is not configured")
	ErrNoEndpoint    = errors.New("no reachable RPC endpoint")
)

// Display messages.
const (
	MsgSwitchNetwork = "Failed to switch to the correct network."
	MsgNoWallet      = "Please add a wallet first: tokendesk wallet add <name> or tokendesk wallet generate <name>."
)

// Options selects what to connect to. Empty fields fall back to config.
type Options struct {
	Network       string
	Wallet        string
	RequireSigner bool
}

// Session is a connected context for contract operations.
type Session struct {
	Chain  *chain.Chain
	RPC    string
	Client *chain.EVMClient
	Wallet *wallet.Wallet // nil when no wallet is configured and none is required
	Signer *wallet.Signer // nil for watch-only wallets
}

// From returns the wallet address, or the zero address without a wallet.
func (s *Session) From() common.Address {
	if s.Wallet == nil {
		return common.Address{}
	}
	return s.Wallet.Addr()
}

// Connector builds Sessions.
type Connector struct {
	cfg        *config.Config
	chains     *chain.Registry
	wallets    *wallet.Manager
	log        zerolog.Logger
	clientOpts []chain.ClientOption
	rotation   *rpc.Rotation
}

// Option configures a Connector.
type Option func(*Connector)

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Connector) { c.log = l }
}

// WithClientOptions is passed to every EVM client the connector creates.
func WithClientOptions(opts ...chain.ClientOption) Option {
	return func(c *Connector) { c.clientOpts = append(c.clientOpts, opts...) }
}

// WithRotation overrides where round-robin turns are kept.
func WithRotation(r *rpc.Rotation) Option {
	return func(c *Connector) { c.rotation = r }
}

// New returns a Connector.
func New(cfg *config.Config, chains *chain.Registry, wallets *wallet.Manager, opts ...Option) *Connector {
	c := &Connector{
		cfg:      cfg,
		chains:   chains,
		wallets:  wallets,
		log:      zerolog.Nop(),
		rotation: rpc.NewRotation(cfg.RotationPath()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connect resolves the wallet, then the chain, then an endpoint whose chain
// ID matches the chain.
func (c *Connector) Connect(ctx context.Context, opts Options) (*Session, error) {
	w, err := c.resolveWallet(opts)
	if err != nil {
		return nil, err
	}

	ch, err := c.resolveChain(opts.Network)
	if err != nil {
		return nil, err
	}

	urls := c.candidates(ch)
	if len(urls) == 0 {
		return nil, chainNotAdded(ch.DisplayName, ch.Name)
	}
	c.log.Debug().Str("network", ch.Name).Int64("chain_id", ch.ChainID).Strs("rpcs", urls).Msg("selecting endpoint")

	sel, err := rpc.Select(ctx, urls, rpc.Algorithm(c.cfg.RPCAlgorithm), ch.ChainID, c.nextTurn)
	if sel != nil {
		for _, e := range sel.Endpoints {
			c.log.Debug().
				Str("url", e.URL).
				Bool("healthy", e.Healthy).
				Int64("chain_id", e.ChainID).
				Uint64("block", e.BlockNumber).
				Dur("latency", e.Latency).
				Msg("probed endpoint")
		}
	}
	switch {
	case errors.Is(err, rpc.ErrWrongChain):
		return nil, status.WrapUser(MsgSwitchNetwork, fmt.Errorf("%w: %w", ErrSwitchNetwork, err))
	case errors.Is(err, rpc.ErrNoHealthyRPC):
		return nil, status.WrapUser(
			fmt.Sprintf("No reachable RPC endpoint for %s. Add one with: tokendesk config add-rpc %s <url>", ch.DisplayName, ch.Name),
			fmt.Errorf("%w: %w", ErrNoEndpoint, err))
	case err != nil:
		return nil, err
	}

	if ch.ChainID == 0 {
		adopted := *ch
		adopted.ChainID = sel.ChainID
		if known, err := c.chains.GetByChainID(sel.ChainID); err == nil {
			adopted.DisplayName = known.DisplayName
			adopted.NativeCurrency = known.NativeCurrency
			adopted.Explorer = known.Explorer
			adopted.Testnet = known.Testnet
		}
		ch = &adopted
	}

	s := &Session{
		Chain:  ch,
		RPC:    sel.URL,
		Client: chain.NewEVMClient(sel.URL, c.clientOpts...),
		Wallet: w,
	}
	if w != nil && w.CanSign() {
		s.Signer = wallet.NewSigner(w, c.wallets.KeyStore())
	}

	ev := c.log.Debug().Str("network", ch.Name).Str("rpc", sel.URL)
	if w != nil {
		ev = ev.Str("wallet", w.Name).Str("address", w.Address)
	}
	ev.Msg("connected")
	return s, nil
}

// nextTurn advances the persisted round-robin counter. A counter that cannot
// be stored falls back to the first endpoint.
func (c *Connector) nextTurn(chainID int64) uint64 {
	n, err := c.rotation.Next(chainID)
	if err != nil {
		c.log.Warn().Err(err).Int64("chain_id", chainID).Msg("round-robin rotation unavailable")
		return 0
	}
	return n
}

func (c *Connector) resolveWallet(opts Options) (*wallet.Wallet, error) {
	name := opts.Wallet
	if name == "" {
		name = c.cfg.DefaultWallet
	}

	var w *wallet.Wallet
	if name != "" {
		found, err := c.wallets.Get(name)
		if err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				return nil, status.WrapUser(fmt.Sprintf("Wallet %q not found. Run: tokendesk wallet list", name), err)
			}
			return nil, err
		}
		w = found
	} else {
		w = c.wallets.Default()
	}

	if !opts.RequireSigner {
		return w, nil
	}
	if w == nil {
		return nil, status.WrapUser(MsgNoWallet, ErrNoWallet)
	}
	if !w.CanSign() {
		return nil, status.WrapUser(
			fmt.Sprintf("Wallet %q is watch-only and cannot send transactions.", w.Name),
			fmt.Errorf("%w: %s", wallet.ErrWatchOnly, w.Name))
	}
	return w, nil
}

// resolveChain looks the network up in the registry. Unknown networks are
// usable only when the user configured RPCs for them; their chain ID is
// taken from the endpoints.
func (c *Connector) resolveChain(name string) (*chain.Chain, error) {
	if name == "" {
		name = c.cfg.DefaultNetwork
	}
	ch, err := c.chains.GetByName(name)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, chain.ErrChainNotFound) {
		return nil, err
	}
	if len(c.cfg.GetRPCs(name)) == 0 {
		return nil, chainNotAdded(name+" network", name)
	}
	return &chain.Chain{Name: name, DisplayName: name}, nil
}

func chainNotAdded(display, name string) error {
	return status.WrapUser(
		fmt.Sprintf("Please add the %s to your wallet and try again.", display),
		fmt.Errorf("%w: %s", ErrChainNotAdded, name))
}

// candidates lists custom RPCs first, then the registry's, without repeats.
func (c *Connector) candidates(ch *chain.Chain) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, list := range [][]string{c.cfg.GetRPCs(ch.Name), ch.RPCs} {
		for _, u := range list {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	return urls
}
