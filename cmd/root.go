package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgDir      string
	cfg         *config.Config
	verbose     bool
	assumeYes   bool
	networkFlag string
	walletFlag  string

	log = zerolog.Nop()

	// Command output. Replaced in tests.
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "tokendesk",
	Short: "Vesting and token admin from the terminal",
	Long: `tokendesk connects a wallet and drives two deployed contracts:

  a vesting distributor   tokendesk vesting add|release|schedule
  a mintable token        tokendesk token info|set-name|set-symbol|mint|withdraw

Every command connects the selected wallet, checks that the RPC endpoint is on
the expected network, sends the call and waits for confirmation.

Settings live in ~/.tokendesk/config.json and can be overridden with
TOKENDESK_* environment variables, e.g. TOKENDESK_DEFAULT_NETWORK=sepolia.`,
	Version:       ui.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log.Debug().Str("dir", cfg.Dir()).Str("network", cfg.DefaultNetwork).Msg("config loaded")
		return nil
	},
}

func setupLogger() {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if errors.Is(err, ui.ErrCancelled) {
		fmt.Fprintln(stderr, ui.Meta("Cancelled."))
		return 130
	}
	log.Debug().Err(err).Msg("command failed")
	if errors.Is(err, errReported) {
		return 1
	}

	msg := err.Error()
	var ue *status.UserError
	if errors.As(err, &ue) {
		msg = ue.Msg
	}
	fmt.Fprintln(stderr, ui.Err(msg))
	return 1
}

func init() {
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.Long = ui.Banner() + "\n" + rootCmd.Long

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.tokendesk)")
	pf.StringVarP(&networkFlag, "network", "n", "", "network to use (default: config default_network)")
	pf.StringVarP(&walletFlag, "wallet", "w", "", "wallet to use (default: config default_wallet)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")

	rootCmd.AddCommand(
		vestingCmd,
		tokenCmd,
		walletCmd,
		networkCmd,
		contractCmd,
		configCmd,
	)
}
