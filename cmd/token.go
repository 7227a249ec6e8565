package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/minter"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	tokenContractFlag string
	tokenToFlag       string
	tokenAmountFlag   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the mintable token contract",
	Long: `Owner operations on the token minter contract. Writes are sent with a fixed
gas limit (config gas_limit, default 100000) so a rejected call still reaches
the chain and reverts visibly.`,
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the token name and symbol",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		op, err := startOperation(ctx, status.OpTokenInfo, contract.BuiltinMinter, tokenContractFlag, false)
		if err != nil {
			return err
		}
		op.out.Report(status.Connecting(status.OpTokenInfo))
		info, err := minter.New(op.handle, minter.WithLogger(log)).TokenInfo(ctx)
		if err != nil {
			return op.finish(err)
		}
		op.out.done()
		printTokenInfo(info)
		return nil
	},
}

var tokenSetNameCmd = &cobra.Command{
	Use:   "set-name [name]",
	Short: "Rename the token (owner only)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRename(cmd, args, status.OpSetName, "Token Name", (*minter.Service).SetName)
	},
}

var tokenSetSymbolCmd = &cobra.Command{
	Use:   "set-symbol [symbol]",
	Short: "Change the token symbol (owner only)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRename(cmd, args, status.OpSetSymbol, "Token Symbol", (*minter.Service).SetSymbol)
	},
}

type renameFunc func(*minter.Service, context.Context, string, status.Reporter) (*minter.TokenInfo, error)

func runRename(cmd *cobra.Command, args []string, opName status.Op, label string, rename renameFunc) error {
	value := ""
	if len(args) > 0 {
		value = args[0]
	}
	if err := fill("Set "+label, []ui.Field{{Key: "value", Label: "New " + label}}, map[string]*string{"value": &value}); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	op, err := startOperation(ctx, opName, contract.BuiltinMinter, tokenContractFlag, true)
	if err != nil {
		return err
	}
	if err := confirmSend("Set "+label, [][2]string{{"New " + label, value}}); err != nil {
		return err
	}

	info, err := rename(newMinter(op), ctx, value, op.out)
	if err != nil {
		return op.finish(err)
	}
	if info != nil {
		printTokenInfo(info)
	}
	return nil
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens to an address (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, status.OpMint, "Mint Tokens", (*minter.Service).Mint)
	},
}

var tokenWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw tokens held by the contract (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, status.OpWithdraw, "Withdraw Tokens", (*minter.Service).Withdraw)
	},
}

type transferFunc func(*minter.Service, context.Context, common.Address, *big.Int, status.Reporter) (*chain.Receipt, error)

func runTransfer(cmd *cobra.Command, opName status.Op, title string, send transferFunc) error {
	to, amountStr := tokenToFlag, tokenAmountFlag
	err := fill(title, []ui.Field{
		{Key: "to", Label: "Recipient Address", Placeholder: "0x...", Validate: func(s string) error {
			_, err := minter.ParseRecipient(s)
			return err
		}},
		{Key: "amount", Label: "Amount", Placeholder: "100", Validate: func(s string) error {
			_, err := minter.ParseAmount(s)
			return err
		}},
	}, map[string]*string{"to": &to, "amount": &amountStr})
	if err != nil {
		return err
	}

	recipient, err := minter.ParseRecipient(to)
	if err != nil {
		return err
	}
	amount, err := minter.ParseAmount(amountStr)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	op, err := startOperation(ctx, opName, contract.BuiltinMinter, tokenContractFlag, true)
	if err != nil {
		return err
	}
	if err := confirmSend(title, [][2]string{
		{"Recipient", recipient.Hex()},
		{"Amount", chain.FormatEther(amount) + " tokens"},
	}); err != nil {
		return err
	}

	_, err = send(newMinter(op), ctx, recipient, amount, op.out)
	return op.finish(err)
}

func newMinter(op *operation) *minter.Service {
	return minter.New(op.handle,
		minter.WithSigner(op.session.Signer),
		minter.WithGasLimit(cfg.GasLimit),
		minter.WithTimeout(cfg.Timeout()),
		minter.WithLogger(log))
}

func printTokenInfo(info *minter.TokenInfo) {
	fmt.Fprintln(stdout, ui.KeyValueBlock("Token Info", [][2]string{
		{"Name", info.Name},
		{"Symbol", info.Symbol},
	}))
}

func init() {
	for _, c := range []*cobra.Command{tokenMintCmd, tokenWithdrawCmd} {
		c.Flags().StringVar(&tokenToFlag, "to", "", "recipient address")
		c.Flags().StringVar(&tokenAmountFlag, "amount", "", "amount in tokens (18 decimals)")
	}
	tokenCmd.PersistentFlags().StringVar(&tokenContractFlag, "contract", "", "minter contract address (default: registry entry for the network)")
	tokenCmd.AddCommand(tokenInfoCmd, tokenSetNameCmd, tokenSetSymbolCmd, tokenMintCmd, tokenWithdrawCmd)
}
