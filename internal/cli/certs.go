package cli

import (
	"github.com/spf13/cobra"
)

// certsOptions defines flags for the `forge certs` command.
type certsOptions struct {
	global *globalOptions

	certDir string
}

func newCertsOptions(global *globalOptions) *certsOptions {
	return &certsOptions{global: global}
}

func (o *certsOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.certDir, "cert-dir", "", "Output directory for certificates. Overrides forge.hcl.")
}

// run executes the `forge certs` command.
func (o *certsOptions) run(cmd *cobra.Command, args []string) error {
	cfg := o.global.appConfig()
	cfg.CertDir = o.certDir
	a, err := o.global.buildApp(cfg)
	if err != nil {
		return err
	}
	result, err := a.Certs(cmd.Context(), args)
	if err != nil {
		return err
	}
	renderCerts(o.global.outW, result)
	return nil
}

// newCmdCerts creates the `forge certs` command.
func newCmdCerts(global *globalOptions) *cobra.Command {
	o := newCertsOptions(global)

	cmd := &cobra.Command{
		Use:   "certs [service...]",
		Short: "Provision TLS certificates for services that enable them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	o.addFlags(cmd)

	return cmd
}
