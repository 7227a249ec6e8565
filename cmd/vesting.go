package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/status"
	"github.com/Mohsinsiddi/tokendesk/internal/ui"
	"github.com/Mohsinsiddi/tokendesk/internal/vesting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var vestingContractFlag string

var vestingAdd vesting.Input

var vestingCmd = &cobra.Command{
	Use:   "vesting",
	Short: "Manage the token vesting contract",
}

var vestingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a beneficiary with a cliff and linear vesting",
	Long: `Register a beneficiary on the vesting contract.

The amount is in whole tokens (18 decimals) unless --raw is given, in which
case it is sent as-is in base units. The start time accepts YYYY-MM-DD,
YYYY-MM-DDTHH:MM[:SS] (local time), RFC 3339 or unix seconds. Durations are
whole days.

Missing flags are asked for interactively.

  tokendesk vesting add --beneficiary 0x... --amount 1000 \
      --start 2025-01-01 --cliff-days 30 --vesting-days 365`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := vestingAdd
		err := fill("Add Beneficiary", []ui.Field{
			{Key: "address", Label: "Beneficiary Address", Placeholder: "0x...", Validate: validateAddress},
			{Key: "amount", Label: "Total Amount", Placeholder: "1000", Validate: amountValidator(in.Raw)},
			{Key: "start", Label: "Start Time", Placeholder: "2025-01-01T09:00", Validate: validateStart},
			{Key: "cliff", Label: "Cliff Duration (days)", Placeholder: "30", Validate: validateDays},
			{Key: "vesting", Label: "Vesting Duration (days)", Placeholder: "365", Validate: validateVestingDays},
		}, map[string]*string{
			"address": &in.Address,
			"amount":  &in.Amount,
			"start":   &in.Start,
			"cliff":   &in.CliffDays,
			"vesting": &in.VestingDays,
		})
		if err != nil {
			return err
		}

		b, err := vesting.ParseBeneficiaryInput(in, time.Local)
		if err != nil {
			return status.WrapUser("Error: "+err.Error(), err)
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()

		op, err := startOperation(ctx, status.OpAddBeneficiary, contract.BuiltinVesting, vestingContractFlag, true)
		if err != nil {
			return err
		}

		amount := chain.FormatEther(b.Amount) + " tokens"
		if in.Raw {
			amount = b.Amount.String() + " base units"
		}
		if err := confirmSend("Add Beneficiary", [][2]string{
			{"Beneficiary", b.Address.Hex()},
			{"Total Amount", amount},
			{"Start Time", b.Start.Format("2006-01-02 15:04:05 MST")},
			{"Cliff", vesting.FormatDays(b.Cliff)},
			{"Vesting", vesting.FormatDays(b.Vesting)},
		}); err != nil {
			return err
		}

		svc := vesting.New(op.handle,
			vesting.WithSigner(op.session.Signer),
			vesting.WithTimeout(cfg.Timeout()),
			vesting.WithLogger(log))
		_, err = svc.AddBeneficiary(ctx, b, op.out)
		return op.finish(err)
	},
}

var vestingReleaseCmd = &cobra.Command{
	Use:   "release [beneficiary]",
	Short: "Release vested tokens to a beneficiary",
	Long: `Release whatever has vested so far. The beneficiary defaults to the
connected wallet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		op, err := startOperation(ctx, status.OpRelease, contract.BuiltinVesting, vestingContractFlag, true)
		if err != nil {
			return err
		}
		who, err := beneficiaryArg(args, op.session.From())
		if err != nil {
			return op.finish(err)
		}
		if err := confirmSend("Release Vested Tokens", [][2]string{{"Beneficiary", who.Hex()}}); err != nil {
			return err
		}

		svc := vesting.New(op.handle,
			vesting.WithSigner(op.session.Signer),
			vesting.WithTimeout(cfg.Timeout()),
			vesting.WithLogger(log))
		_, err = svc.Release(ctx, who, op.out)
		return op.finish(err)
	},
}

var vestingScheduleCmd = &cobra.Command{
	Use:   "schedule [beneficiary]",
	Short: "Show a beneficiary's vesting schedule",
	Long: `Read the vesting schedule of a beneficiary. Defaults to the connected
wallet; no signing key is needed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		op, err := startOperation(ctx, status.OpSchedule, contract.BuiltinVesting, vestingContractFlag, false)
		if err != nil {
			return err
		}
		who, err := beneficiaryArg(args, op.session.From())
		if err != nil {
			return op.finish(err)
		}

		op.out.Report(status.Connecting(status.OpSchedule))
		sched, err := vesting.New(op.handle, vesting.WithLogger(log)).Schedule(ctx, who)
		if err != nil {
			return op.finish(err)
		}
		op.out.done()

		if !sched.Exists() {
			fmt.Fprintln(stdout, ui.Info(fmt.Sprintf("No vesting schedule for %s.", who.Hex())))
			return nil
		}

		fields := sched.Fields(time.Now(), time.Local)
		pairs := make([][2]string, len(fields))
		for i, f := range fields {
			pairs[i] = [2]string{f.Label, f.Value}
		}
		fmt.Fprintln(stdout, ui.KeyValueBlock("Vesting Schedule", pairs))
		return nil
	},
}

// beneficiaryArg reads an optional address argument, falling back to the
// connected wallet.
func beneficiaryArg(args []string, self common.Address) (common.Address, error) {
	if len(args) > 0 {
		addr, err := vesting.ParseAddress(args[0])
		if err != nil {
			return common.Address{}, status.WrapUser("Error: "+err.Error(), err)
		}
		return addr, nil
	}
	if self == (common.Address{}) {
		return common.Address{}, status.Userf("No beneficiary given and no wallet connected.")
	}
	return self, nil
}

func validateAddress(s string) error {
	_, err := vesting.ParseAddress(s)
	return err
}

func validateStart(s string) error {
	_, err := vesting.ParseStart(s, time.Local)
	return err
}

func validateDays(s string) error {
	_, err := vesting.ParseDays(s)
	return err
}

func validateVestingDays(s string) error {
	d, err := vesting.ParseDays(s)
	if err == nil && d.Sign() == 0 {
		err = errors.New("vesting duration must be at least one day")
	}
	return err
}

func amountValidator(raw bool) func(string) error {
	return func(s string) error {
		var err error
		if raw {
			_, err = chain.ParseUnits(s, 0)
		} else {
			_, err = chain.ParseEther(s)
		}
		return err
	}
}

func init() {
	f := vestingAddCmd.Flags()
	f.StringVar(&vestingAdd.Address, "beneficiary", "", "beneficiary address")
	f.StringVar(&vestingAdd.Amount, "amount", "", "total amount in tokens (base units with --raw)")
	f.StringVar(&vestingAdd.Start, "start", "", "vesting start time")
	f.StringVar(&vestingAdd.CliffDays, "cliff-days", "", "cliff duration in days")
	f.StringVar(&vestingAdd.VestingDays, "vesting-days", "", "vesting duration in days")
	f.BoolVar(&vestingAdd.Raw, "raw", false, "amount is in base units")

	vestingCmd.PersistentFlags().StringVar(&vestingContractFlag, "contract", "", "vesting contract address (default: registry entry for the network)")
	vestingCmd.AddCommand(vestingAddCmd, vestingReleaseCmd, vestingScheduleCmd)
}
