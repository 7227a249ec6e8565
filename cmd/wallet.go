package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/Mohsinsiddi/tokendesk/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag   string
	walletUnlockAll bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a signing wallet with --key (the key goes to the OS keychain) or a
watch-only wallet with an address. Watch-only wallets can read schedules and
token info but cannot send transactions.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()

		if walletKeyFlag != "" {
			w, err := mgr.AddWithKey(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
		} else {
			if len(args) < 2 {
				return fmt.Errorf("address required for watch-only wallet\n  Usage: tokendesk wallet add <name> <address>\n  Or for signing: tokendesk wallet add <name> --key <private-key>")
			}
			w, err := mgr.AddWatchOnly(name, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address))))
		}
		fmt.Fprintln(stdout, ui.Hint(fmt.Sprintf("Set as default with: tokendesk wallet use %s", name)))
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new signing wallet",
	Long: `Generate a fresh keypair and store the private key in the OS keychain.

The private key is displayed once. Copy it to a password manager; there is no
way to recover it later.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, hexKey, err := newWalletManager().Generate(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
		fmt.Fprintf(stdout, "  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
		fmt.Fprintln(stdout, ui.DangerBox(
			ui.Warn("SAVE YOUR PRIVATE KEY. It is shown only once. Never share it.") + "\n\n" +
				ui.Val(hexKey),
		))
		fmt.Fprintln(stdout)
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets, err := newWalletManager().List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Fprintln(stdout, ui.Info("No wallets configured yet."))
			fmt.Fprintln(stdout, ui.Hint("Add one with: tokendesk wallet add <name> --key <private-key>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name"},
			{Title: "Address", Width: 42},
			{Title: "Type"},
			{Title: "Session", Width: 8},
			{Title: "Default", Width: 7},
		})
		for _, w := range wallets {
			def, sess := "", ""
			if w.IsDefault || w.Name == cfg.DefaultWallet {
				def = "✓"
			}
			if w.CanSign() && wallet.SessionUnlocked(w.Name) {
				sess = "unlocked"
			}
			t.AddRow(ui.Row{w.Name, w.Address, w.Type, sess, def})
		}
		fmt.Fprintln(stdout, t.Render())
		fmt.Fprintln(stdout, ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default wallet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			picked, err := pickWallet(mgr, "Select default wallet", false)
			if err != nil {
				return err
			}
			name = picked
		}

		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !assumeYes && !ui.ConfirmDanger(fmt.Sprintf("Remove wallet %q and delete its key?", name)) {
			return ui.ErrCancelled
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUnlockCmd = &cobra.Command{
	Use:   "unlock [name]",
	Short: "Cache wallet keys for the session to skip keychain prompts",
	Long: `Read private keys from the OS keychain once and cache them in a
restricted session file so later commands run without prompts.

  tokendesk wallet unlock          # pick a wallet
  tokendesk wallet unlock alice    # one wallet
  tokendesk wallet unlock --all    # every signing wallet

Clear the cache with: tokendesk wallet lock`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		all, err := mgr.List()
		if err != nil {
			return err
		}

		var targets []*wallet.Wallet
		switch {
		case walletUnlockAll:
			targets = all
		case len(args) > 0:
			w, err := mgr.Get(args[0])
			if err != nil {
				return err
			}
			if !w.CanSign() {
				return fmt.Errorf("%w: %s", wallet.ErrWatchOnly, w.Name)
			}
			targets = []*wallet.Wallet{w}
		default:
			name, err := pickWallet(mgr, "Unlock wallet", true)
			if err != nil {
				return err
			}
			w, err := mgr.Get(name)
			if err != nil {
				return err
			}
			targets = []*wallet.Wallet{w}
		}

		fmt.Fprintln(stdout, ui.Info("Your OS keychain may prompt once per wallet."))
		n, err := mgr.Unlock(targets...)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(stdout, ui.Meta("Nothing to unlock; keys are already cached."))
			return nil
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("%d wallet(s) cached until 'tokendesk wallet lock'.", n)))
		return nil
	},
}

var walletLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Clear the session cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wallet.SessionActive() {
			fmt.Fprintln(stdout, ui.Meta("No active session, nothing to clear."))
			return nil
		}
		if err := wallet.ClearSession(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		fmt.Fprintln(stdout, ui.Success("Session cleared. The keychain will be used on next access."))
		return nil
	},
}

// pickWallet shows the interactive wallet picker.
func pickWallet(mgr *wallet.Manager, title string, signingOnly bool) (string, error) {
	if !interactive() {
		return "", errors.New("wallet name required")
	}
	wallets, err := mgr.List()
	if err != nil {
		return "", err
	}

	var items []ui.PickerItem
	for _, w := range wallets {
		if signingOnly && !w.CanSign() {
			continue
		}
		detail := ui.TruncateAddr(w.Address)
		if w.CanSign() && wallet.SessionUnlocked(w.Name) {
			detail += "  [cached]"
		}
		items = append(items, ui.PickerItem{
			Label:   w.Name,
			Detail:  detail,
			Value:   w.Name,
			Current: w.Name == cfg.DefaultWallet || (cfg.DefaultWallet == "" && w.IsDefault),
		})
	}
	if len(items) == 0 {
		fmt.Fprintln(stderr, ui.Hint("Add one with: tokendesk wallet add <name> --key <private-key>"))
		return "", errors.New("no wallets to choose from")
	}
	return ui.PickItem(title, items)
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key for a signing wallet (stored in the OS keychain)")
	walletUnlockCmd.Flags().BoolVar(&walletUnlockAll, "all", false, "unlock all signing wallets")
	walletCmd.AddCommand(walletAddCmd, walletGenerateCmd, walletListCmd, walletUseCmd,
		walletRemoveCmd, walletUnlockCmd, walletLockCmd)
}
