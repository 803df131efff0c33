package cli

import (
	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/containers-sub001/internal/app"
)

// hashOptions defines flags for the `forge hash` command.
type hashOptions struct {
	global *globalOptions

	platforms   []string
	allVersions bool
}

func newHashOptions(global *globalOptions) *hashOptions {
	return &hashOptions{global: global}
}

func (o *hashOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.platforms, "platform", nil, "Only expand these platform variants of multi-platform services.")
	cmd.Flags().BoolVar(&o.allVersions, "all-versions", false, "Expand every manifest version instead of the latest.")
}

// run executes the `forge hash` command.
func (o *hashOptions) run(cmd *cobra.Command, args []string) error {
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
	hashes, err := a.Hashes(cmd.Context(), plan)
	if err != nil {
		return err
	}
	renderHashes(o.global.outW, plan.Order, hashes)
	return nil
}

// newCmdHash creates the `forge hash` command.
func newCmdHash(global *globalOptions) *cobra.Command {
	o := newHashOptions(global)

	cmd := &cobra.Command{
		Use:   "hash [service[:version[:platform]]...]",
		Short: "Print the service definition hash of every node in the plan",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	o.addFlags(cmd)

	return cmd
}
