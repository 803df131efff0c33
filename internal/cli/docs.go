package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MahdiBaghbani/containers-sub001/internal/docs"
)

// docsOptions defines flags for the `forge docs` command.
type docsOptions struct {
	global *globalOptions
}

func newDocsOptions(global *globalOptions) *docsOptions {
	return &docsOptions{global: global}
}

// run executes the `forge docs` command.
func (o *docsOptions) run(cmd *cobra.Command, args []string) error {
	a, err := o.global.newApp()
	if err != nil {
		return err
	}
	findings, err := a.LintDocs(cmd.Context(), args)
	if err != nil {
		return err
	}
	renderFindings(o.global.outW, findings)
	if docs.HasErrors(findings) {
		return &ExitError{Code: 1, Message: fmt.Sprintf("documentation lint failed with %d finding(s)", len(findings))}
	}
	return nil
}

// newCmdDocs creates the `forge docs` command.
func newCmdDocs(global *globalOptions) *cobra.Command {
	o := newDocsOptions(global)

	return &cobra.Command{
		Use:   "docs [service...]",
		Short: "Lint service documentation",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
}
