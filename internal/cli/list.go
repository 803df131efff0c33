package cli

import (
	"github.com/spf13/cobra"
)

// listOptions defines flags for the `forge list` command.
type listOptions struct {
	global *globalOptions
}

func newListOptions(global *globalOptions) *listOptions {
	return &listOptions{global: global}
}

// run executes the `forge list` command.
func (o *listOptions) run(cmd *cobra.Command, args []string) error {
	a, err := o.global.newApp()
	if err != nil {
		return err
	}
	infos, err := a.List(cmd.Context(), args)
	if err != nil {
		return err
	}
	renderList(o.global.outW, infos)
	return nil
}

// newCmdList creates the `forge list` command.
func newCmdList(global *globalOptions) *cobra.Command {
	o := newListOptions(global)

	return &cobra.Command{
		Use:   "list [service...]",
		Short: "List services with their versions and platforms",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
}
