package cli

import (
	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/containers-sub001/internal/app"
)

// orderOptions defines flags for the `forge order` command.
type orderOptions struct {
	global *globalOptions

	platforms   []string
	allVersions bool
}

func newOrderOptions(global *globalOptions) *orderOptions {
	return &orderOptions{global: global}
}

func (o *orderOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.platforms, "platform", nil, "Only expand these platform variants of multi-platform services.")
	cmd.Flags().BoolVar(&o.allVersions, "all-versions", false, "Expand every manifest version instead of the latest.")
}

// run executes the `forge order` command.
func (o *orderOptions) run(cmd *cobra.Command, args []string) error {
	a, err := o.global.newApp()
	if err != nil {
		return err
	}
	plan, err := a.ResolvePlan(cmd.Context(), args, app.TargetOptions{
		AllVersions: o.allVersions,
		Platforms:   o.platforms,
	})
	if err != nil {
		return err
	}
	renderOrder(o.global.outW, plan.Order)
	return nil
}

// newCmdOrder creates the `forge order` command.
func newCmdOrder(global *globalOptions) *cobra.Command {
	o := newOrderOptions(global)

	cmd := &cobra.Command{
		Use:   "order [service[:version[:platform]]...]",
		Short: "Print the build order without building anything",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	o.addFlags(cmd)

	return cmd
}
