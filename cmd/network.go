package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/rpc"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

var networkCheckFlag bool

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show and select networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chainRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "Name"},
			{Title: "Display"},
			{Title: "Chain ID"},
			{Title: "RPCs"},
			{Title: "Default", Width: 7},
		})
		for _, c := range reg.All() {
			def := ""
			if c.Name == cfg.DefaultNetwork {
				def = "✓"
			}
			rpcs := strconv.Itoa(len(c.RPCs))
			if n := len(cfg.GetRPCs(c.Name)); n > 0 {
				rpcs += fmt.Sprintf(" +%d custom", n)
			}
			t.AddRow(ui.Row{c.Name, c.DisplayName, strconv.FormatInt(c.ChainID, 10), rpcs, def})
		}
		fmt.Fprintln(stdout, t.Render())

		if !networkCheckFlag {
			fmt.Fprintln(stdout, ui.Hint("Probe endpoints with: tokendesk network list --check"))
			return nil
		}
		return checkEndpoints(cmd.Context(), reg)
	},
}

// checkEndpoints probes every endpoint of the default network.
func checkEndpoints(ctx context.Context, reg *chain.Registry) error {
	name := cfg.DefaultNetwork
	if networkFlag != "" {
		name = networkFlag
	}
	urls := cfg.GetRPCs(name)
	if c, err := reg.GetByName(name); err == nil {
		urls = append(append([]string(nil), urls...), c.RPCs...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no RPC endpoints for %s", name)
	}

	spin := ui.NewSpinnerTo(stderr, fmt.Sprintf("Probing %d endpoint(s) on %s...", len(urls), name))
	spin.Start()
	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	results := rpc.Probe(ctx, urls)
	spin.Stop()

	t := ui.NewTable([]ui.Column{
		{Title: "Endpoint"},
		{Title: "Chain ID"},
		{Title: "Block"},
		{Title: "Latency"},
		{Title: "Status"},
	})
	for _, e := range results {
		state := ui.StyleError.Render("down")
		if e.Healthy {
			state = ui.StyleSuccess.Render("ok")
		}
		t.AddRow(ui.Row{e.URL, strconv.FormatInt(e.ChainID, 10), strconv.FormatUint(e.BlockNumber, 10), e.Latency.Round(time.Millisecond).String(), state})
	}
	fmt.Fprintln(stdout, t.Render())
	return nil
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, err := chainRegistry().GetByName(name); err != nil && len(cfg.GetRPCs(name)) == 0 {
			return fmt.Errorf("unknown network %q; run `tokendesk network list` or add an RPC with `tokendesk config add-rpc %s <url>`", name, name)
		}
		if err := cfg.Set("default_network", name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("Default network set to %s", ui.ChainName(name))))
		return nil
	},
}

func init() {
	networkListCmd.Flags().BoolVar(&networkCheckFlag, "check", false, "probe the endpoints of the selected network")
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
