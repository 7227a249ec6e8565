package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/connect"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// errReported marks failures the status printer already showed.
var errReported = errors.New("already reported")

type reportedError struct{ err error }

func (e reportedError) Error() string   { return e.err.Error() }
func (e reportedError) Unwrap() []error { return []error{e.err, errReported} }

func reported(err error) error {
	if err == nil || errors.Is(err, errReported) {
		return err
	}
	return reportedError{err: err}
}

// interactive reports whether prompts and forms can be shown.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// signalContext is cancelled on Ctrl-C so a pending confirmation wait stops.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// Seams for in-process runs against a mock node.
var (
	chainRegistry = chain.NewRegistry
	openKeyStore  = func(dir string) (wallet.KeyStore, error) {
		ks, err := wallet.OpenKeystore(dir)
		if err != nil {
			return nil, err
		}
		return ks, nil
	}
	clientOptions []chain.ClientOption
)

// newWalletManager creates a Manager backed by the config-dir JSON store
// and the OS keychain.
func newWalletManager() *wallet.Manager {
	opts := []wallet.Option{wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath()))}
	ks, err := openKeyStore(cfg.Dir())
	if err != nil {
		log.Warn().Err(err).Msg("keystore unavailable; signing wallets need " + wallet.EnvKey)
	} else {
		opts = append(opts, wallet.WithKeyStore(ks))
	}
	return wallet.NewManager(opts...)
}

func loadContracts() (*contract.Registry, error) {
	reg := contract.NewRegistry(cfg.ContractsPath())
	if err := reg.Load(); err != nil {
		return nil, fmt.Errorf("loading contracts: %w", err)
	}
	return reg, nil
}

// statusPrinter renders status updates: a spinner while waiting, one
// styled line per outcome.
type statusPrinter struct {
	spin   *ui.Spinner
	chain  *chain.Chain
	failed bool
}

func newStatusPrinter() *statusPrinter {
	return &statusPrinter{spin: ui.NewSpinnerTo(stderr, "")}
}

func (p *statusPrinter) Report(u status.Update) {
	log.Debug().Str("op", string(u.Op)).Stringer("stage", u.Stage).Str("tx", hashOrEmpty(u.TxHash)).Err(u.Err).Msg(u.Message)

	switch u.Stage {
	case status.StageConnecting:
		p.spin.SetMessage(u.Message)
		p.spin.Start()
	case status.StageSent:
		p.spin.SetMessage(u.Message + "  " + ui.Meta(ui.TruncateAddr(u.TxHash.Hex())))
		p.spin.Start()
	case status.StageConfirmed:
		p.spin.StopWithMsg(ui.Success(u.Message))
		p.printTx(u.TxHash, u.Block)
	case status.StageFailed:
		p.spin.Stop()
		p.failed = true
		fmt.Fprintln(stderr, ui.Err(u.Message))
		p.printTx(u.TxHash, 0)
	}
}

func (p *statusPrinter) printTx(hash common.Hash, block uint64) {
	if hash == (common.Hash{}) {
		return
	}
	line := "  tx " + ui.Addr(hash.Hex())
	if block > 0 {
		line += ui.Meta(fmt.Sprintf("  block %d", block))
	}
	fmt.Fprintln(stdout, line)
	if p.chain != nil {
		if url := p.chain.TxURL(hash.Hex()); url != "" {
			fmt.Fprintln(stdout, "  " + ui.Meta(url))
		}
	}
}

func (p *statusPrinter) done() { p.spin.Stop() }

func hashOrEmpty(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}

// operation is one connected contract operation.
type operation struct {
	op      status.Op
	out     *statusPrinter
	session *connect.Session
	handle  *contract.Handle
}

// startOperation connects the wallet and binds the contract of kind on the
// selected network. address, when set, overrides the registry.
func startOperation(ctx context.Context, op status.Op, kind, address string, requireSigner bool) (*operation, error) {
	out := newStatusPrinter()
	out.Report(status.Connecting(status.OpConnect))

	conn := connect.New(cfg, chainRegistry(), newWalletManager(),
		connect.WithLogger(log),
		connect.WithClientOptions(append([]chain.ClientOption{chain.WithLogger(log)}, clientOptions...)...))
	sess, err := conn.Connect(ctx, connect.Options{
		Network:       networkFlag,
		Wallet:        walletFlag,
		RequireSigner: requireSigner,
	})
	if err != nil {
		out.Report(status.Failed(status.OpConnect, common.Hash{}, err))
		return nil, reported(err)
	}
	out.chain = sess.Chain

	h, err := bindContract(ctx, sess, kind, address)
	if err != nil {
		out.Report(status.Failed(op, common.Hash{}, err))
		return nil, reported(err)
	}
	out.done()

	from := "read-only"
	if sess.Wallet != nil {
		from = sess.Wallet.Name + " " + ui.TruncateAddr(sess.Wallet.Address)
	}
	fmt.Fprintln(stdout, ui.Meta(fmt.Sprintf("%s · %s · %s", sess.Chain.DisplayName, from, ui.TruncateAddr(h.Address.Hex()))))
	if url := sess.Chain.AddressURL(h.Address.Hex()); url != "" {
		fmt.Fprintln(stdout, "  "+ui.Meta(url))
	}

	if requireSigner && !wallet.SessionUnlocked(sess.Wallet.Name) && os.Getenv(wallet.EnvKey) == "" {
		fmt.Fprintln(stdout, ui.Hint("Run 'tokendesk wallet unlock' once to skip keychain prompts."))
	}
	return &operation{op: op, out: out, session: sess, handle: h}, nil
}

func bindContract(ctx context.Context, sess *connect.Session, kind, address string) (*contract.Handle, error) {
	var entry *contract.Entry
	if address != "" {
		if !common.IsHexAddress(address) {
			return nil, status.Userf("Invalid contract address %q.", address)
		}
		entry = &contract.Entry{Name: kind, Network: sess.Chain.Name, Address: address, Kind: kind}
	} else {
		reg, err := loadContracts()
		if err != nil {
			return nil, err
		}
		entry, err = reg.Get(kind, sess.Chain.Name)
		if errors.Is(err, contract.ErrContractNotFound) {
			return nil, status.WrapUser(fmt.Sprintf(
				"No %s contract registered on %s. Add one with: tokendesk contract add %s <address> --kind %s --network %s",
				kind, sess.Chain.Name, kind, kind, sess.Chain.Name), err)
		}
		if err != nil {
			return nil, err
		}
	}

	code, err := sess.Client.CodeAt(ctx, common.HexToAddress(entry.Address))
	if err != nil {
		return nil, fmt.Errorf("checking contract code: %w", err)
	}
	if len(code) == 0 {
		return nil, status.WrapUser(fmt.Sprintf("No contract deployed at %s on %s.", entry.Address, sess.Chain.DisplayName),
			fmt.Errorf("%w: %s", chain.ErrNoContract, entry.Address))
	}

	return contract.Bind(entry, sess.Client, contract.WithFrom(sess.From()), contract.WithLogger(log))
}

// finish reports err unless the tracker already did.
func (o *operation) finish(err error) error {
	o.out.done()
	if err == nil {
		return nil
	}
	if !o.out.failed {
		o.out.Report(status.Failed(o.op, common.Hash{}, err))
	}
	return reported(err)
}

// confirmSend shows what is about to be sent and asks for confirmation.
func confirmSend(title string, pairs [][2]string) error {
	fmt.Fprintln(stdout, ui.KeyValueBlock(title, pairs))
	if assumeYes {
		return nil
	}
	if !interactive() {
		return status.Userf("Refusing to send without confirmation. Re-run with --yes.")
	}
	if !ui.Confirm("Send transaction?") {
		return ui.ErrCancelled
	}
	return nil
}

// fill runs a form for the fields whose flag value is empty. Nothing is
// asked when every field is set or stdin is not a terminal.
func fill(title string, fields []ui.Field, values map[string]*string) error {
	var missing []ui.Field
	for _, f := range fields {
		if *values[f.Key] == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 || !interactive() {
		return nil
	}
	got, err := ui.Form{Title: title, Fields: missing}.Run()
	if err != nil {
		return err
	}
	for k, v := range got {
		*values[k] = v
	}
	return nil
}
