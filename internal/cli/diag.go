package cli

import (
	"github.com/spf13/cobra"
)

// diagOptions defines flags for the `forge diag` command.
type diagOptions struct {
	global *globalOptions

	builder  string
	cacheDir string
}

func newDiagOptions(global *globalOptions) *diagOptions {
	return &diagOptions{global: global}
}

func (o *diagOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.builder, "builder", "docker", "Build backend to probe. Options: 'docker' or 'noop'.")
	cmd.Flags().StringVar(&o.cacheDir, "cache-dir", "", "Scratch directory to size. Overrides forge.hcl.")
}

// run executes the `forge diag` command.
func (o *diagOptions) run(cmd *cobra.Command, args []string) error {
	cfg := o.global.appConfig()
	cfg.CacheDir = o.cacheDir
	a, err := o.global.buildApp(cfg)
	if err != nil {
		return err
	}
	report, err := a.Diagnose(cmd.Context(), o.builder)
	if err != nil {
		return err
	}
	renderDiag(o.global.outW, report)
	return nil
}

// newCmdDiag creates the `forge diag` command.
func newCmdDiag(global *globalOptions) *cobra.Command {
	o := newDiagOptions(global)

	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Report disk usage and build backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	o.addFlags(cmd)

	return cmd
}
