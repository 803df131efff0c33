package cli

import (
	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/containers-sub001/internal/app"
	"github.com/MahdiBaghbani/containers-sub001/internal/ciwf"
)

// ciOptions defines flags for the `forge ci` command.
type ciOptions struct {
	global *globalOptions

	name        string
	branches    []string
	stdout      bool
	platforms   []string
	allVersions bool
}

func newCIOptions(global *globalOptions) *ciOptions {
	return &ciOptions{global: global}
}

func (o *ciOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.name, "name", "", "Workflow name. Defaults to forge-build.")
	cmd.Flags().StringSliceVar(&o.branches, "branch", nil, "Branches triggering the workflow on push. Defaults to main.")
	cmd.Flags().BoolVar(&o.stdout, "stdout", false, "Render the workflow to stdout instead of .github/workflows/.")
	cmd.Flags().StringSliceVar(&o.platforms, "platform", nil, "Only expand these platform variants of multi-platform services.")
	cmd.Flags().BoolVar(&o.allVersions, "all-versions", false, "Expand every manifest version instead of the latest.")
}

// run executes the `forge ci` command.
func (o *ciOptions) run(cmd *cobra.Command, args []string) error {
	a, err := o.global.newApp()
	if err != nil {
		return err
	}
	_, err = a.GenerateCI(cmd.Context(), app.CIOptions{
		Targets: args,
		TargetOptions: app.TargetOptions{
			AllVersions: o.allVersions,
			Platforms:   o.platforms,
		},
		Workflow: ciwf.Options{Name: o.name, Branches: o.branches},
		Stdout:   o.stdout,
	})
	return err
}

// newCmdCI creates the `forge ci` command.
func newCmdCI(global *globalOptions) *cobra.Command {
	o := newCIOptions(global)

	cmd := &cobra.Command{
		Use:   "ci [service[:version[:platform]]...]",
		Short: "Generate a GitHub Actions workflow mirroring the build graph",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	o.addFlags(cmd)

	return cmd
}
