package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/manifest"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

var (
	contractKindFlag     string
	contractABIFileFlag  string
	contractFragmentFlag []string
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Manage known contracts",
}

var contractListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered contracts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadContracts()
		if err != nil {
			return err
		}
		entries := reg.All()
		if len(entries) == 0 {
			fmt.Fprintln(stdout, ui.Info("No contracts registered."))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name"},
			{Title: "Network"},
			{Title: "Address", Width: 42},
			{Title: "ABI"},
		})
		for _, e := range entries {
			abi := e.Kind
			if len(e.ABI) > 0 {
				abi = fmt.Sprintf("custom (%d entries)", len(e.ABI))
			}
			t.AddRow(ui.Row{e.Name, e.Network, e.Address, abi})
		}
		fmt.Fprintln(stdout, t.Render())

		fmt.Fprintln(stdout, ui.Meta("Built-in ABIs:"))
		for _, b := range contract.AllBuiltins() {
			fmt.Fprintf(stdout, "  %s  %s\n", ui.Val(b.ID), ui.Meta(b.Name+": "+b.Description))
		}
		return nil
	},
}

var contractAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Register a contract on the selected network",
	Long: `Register a contract address. The ABI comes from a built-in kind, a JSON ABI
file or one or more human-readable fragments:

  tokendesk contract add vesting 0x... --kind vesting --network sepolia
  tokendesk contract add minter 0x... --fragment "function mintTokens(address to, uint256 amount)"
  tokendesk contract add other 0x... --abi ./Other.abi.json

Registering "vesting" or "minter" on a network makes the vesting and token
commands use that address there.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, address := args[0], args[1]
		network := networkFlag
		if network == "" {
			network = cfg.DefaultNetwork
		}

		e := &contract.Entry{Name: name, Network: network, Address: address, Kind: contractKindFlag}
		switch {
		case contractABIFileFlag != "":
			data, err := os.ReadFile(contractABIFileFlag)
			if err != nil {
				return fmt.Errorf("reading ABI: %w", err)
			}
			if err := json.Unmarshal(data, &e.ABI); err != nil {
				return fmt.Errorf("parsing ABI %s: %w", contractABIFileFlag, err)
			}
		case len(contractFragmentFlag) > 0:
			entries, err := contract.ParseFragments(contractFragmentFlag)
			if err != nil {
				return err
			}
			e.ABI = entries
		case e.Kind == "":
			if _, ok := contract.GetBuiltin(name); !ok {
				return fmt.Errorf("no ABI for %q: pass --kind, --abi or --fragment", name)
			}
			e.Kind = name
		}
		if e.Kind != "" {
			if _, ok := contract.GetBuiltin(e.Kind); !ok {
				return fmt.Errorf("unknown kind %q; built-ins: %s", e.Kind, builtinIDs())
			}
		}
		if len(e.ABI) > 0 {
			if _, err := contract.BuildABI(e.ABI); err != nil {
				return err
			}
		}

		reg, err := loadContracts()
		if err != nil {
			return err
		}
		if err := reg.Add(e); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("Contract %q registered on %s: %s", e.Name, e.Network, ui.Addr(e.Address))))
		return nil
	},
}

var contractRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a contract from the selected network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network := networkFlag
		if network == "" {
			network = cfg.DefaultNetwork
		}
		reg, err := loadContracts()
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0], network); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("Contract %q removed from %s.", args[0], network)))
		return nil
	},
}

var contractABICmd = &cobra.Command{
	Use:   "abi <name|kind>",
	Short: "Show the functions and selectors of a contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := resolveABI(args[0])
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Selector"},
			{Title: "Function"},
			{Title: "Returns"},
			{Title: "Mutability"},
			{Title: "Access"},
		})
		for _, e := range entries {
			access := "write"
			switch {
			case e.IsReadFunction():
				access = "read"
			case !e.IsWriteFunction():
				continue
			}
			t.AddRow(ui.Row{
				e.Selector(),
				e.Name + "(" + contract.HumanReadable(e.Inputs) + ")",
				contract.HumanReadable(e.Outputs),
				e.StateMutability,
				access,
			})
		}
		fmt.Fprintln(stdout, t.Render())
		return nil
	},
}

var contractImportCmd = &cobra.Command{
	Use:   "import <url|file>",
	Short: "Register every deployment listed in a deployments.json manifest",
	Long: `Import contract deployments from a manifest such as:

  {"contracts": {"vesting": {"holesky": {"address": "0x...", "kind": "vesting"}},
                 "custom":  {"sepolia": {"address": "0x...", "abi_url": "https://.../abi.json"}}}}

Entries that cannot be resolved are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		reg, err := loadContracts()
		if err != nil {
			return err
		}

		spin := ui.NewSpinnerTo(stderr, "Importing " + args[0] + "...")
		spin.Start()
		res, err := manifest.New(reg, manifest.WithLogger(log)).Import(ctx, args[0])
		spin.Stop()
		if err != nil {
			return err
		}

		for _, id := range res.Added {
			fmt.Fprintln(stdout, ui.Success("Registered " + id))
		}
		for id, skipErr := range res.Skipped {
			fmt.Fprintln(stdout, ui.Warn(fmt.Sprintf("Skipped %s: %v", id, skipErr)))
		}
		if len(res.Added) == 0 {
			return fmt.Errorf("nothing imported from %s", args[0])
		}
		return nil
	},
}

// resolveABI looks name up on the selected network, then among built-ins.
func resolveABI(name string) ([]contract.ABIEntry, error) {
	network := networkFlag
	if network == "" {
		network = cfg.DefaultNetwork
	}
	reg, err := loadContracts()
	if err != nil {
		return nil, err
	}
	if e, err := reg.Get(name, network); err == nil {
		return e.Entries()
	}
	if abi := contract.GetBuiltinABI(name); abi != nil {
		return abi, nil
	}
	return nil, fmt.Errorf("%w: %s on %s (built-ins: %s)", contract.ErrContractNotFound, name, network, builtinIDs())
}

func builtinIDs() string {
	var ids []string
	for _, b := range contract.AllBuiltins() {
		ids = append(ids, b.ID)
	}
	return strings.Join(ids, ", ")
}

func init() {
	contractAddCmd.Flags().StringVar(&contractKindFlag, "kind", "", "built-in ABI: vesting or minter")
	contractAddCmd.Flags().StringVar(&contractABIFileFlag, "abi", "", "path to a JSON ABI file")
	contractAddCmd.Flags().StringArrayVar(&contractFragmentFlag, "fragment", nil, "human-readable function signature (repeatable)")
	contractAddCmd.MarkFlagsMutuallyExclusive("abi", "fragment")
	contractCmd.AddCommand(contractListCmd, contractAddCmd, contractRemoveCmd, contractABICmd, contractImportCmd)
}
