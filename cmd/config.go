package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs := make([][2]string, 0, len(config.Keys)+2)
		for _, k := range config.Keys {
			v, err := cfg.Get(k)
			if err != nil {
				return err
			}
			if v == "" {
				v = "-"
			}
			pairs = append(pairs, [2]string{k, v})
		}
		for chainName, urls := range cfg.CustomRPCs {
			if len(urls) > 0 {
				pairs = append(pairs, [2]string{"rpc." + chainName, strings.Join(urls, ", ")})
			}
		}
		fmt.Fprintln(stdout, ui.KeyValueBlock("Configuration", pairs))
		fmt.Fprintln(stdout, ui.Meta("Config directory: " + cfg.Dir()))
		fmt.Fprintln(stdout, ui.Meta("Environment overrides use the " + config.EnvPrefix + "_ prefix, e.g. " + config.EnvPrefix + "_DEFAULT_NETWORK."))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Set a configuration value",
	Long:      "Set one of: " + strings.Join(config.Keys, ", "),
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("%s set to %q", args[0], args[1])))
		return nil
	},
}

var configAddRPCCmd = &cobra.Command{
	Use:   "add-rpc <network> <url>",
	Short: "Add a custom RPC endpoint, tried before the built-in ones",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, rawURL := strings.ToLower(args[0]), args[1]
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid RPC URL %q: expected http(s)://host", rawURL)
		}
		if err := cfg.AddRPC(network, rawURL); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("RPC added for %s: %s", network, rawURL)))
		return nil
	},
}

var configRemoveRPCCmd = &cobra.Command{
	Use:   "remove-rpc <network> <url>",
	Short: "Remove a custom RPC endpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network := strings.ToLower(args[0])
		if err := cfg.RemoveRPC(network, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ui.Success(fmt.Sprintf("RPC removed for %s: %s", network, args[1])))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configAddRPCCmd, configRemoveRPCCmd)
}
